package domain

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// StateKind is the tag of the State variant.
type StateKind string

const (
	// StateChat emits a prompt to the user.
	StateChat StateKind = "chat"
	// StateTool invokes an external tool and folds the result into the session.
	StateTool StateKind = "tool"
	// StateEnd terminates the journey.
	StateEnd StateKind = "end"
)

// StateID is a stable index into a journey's state arena.
type StateID int

// NoState marks the absence of a current state.
const NoState StateID = -1

// State is a node of a journey graph. States are addressed by ID, so several
// transitions may converge on the same state.
type State struct {
	ID     StateID        `json:"id" yaml:"id"`
	Kind   StateKind      `json:"kind" yaml:"kind"`
	Name   string         `json:"name,omitempty" yaml:"name,omitempty"`
	Prompt string         `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Tool   string         `json:"tool,omitempty" yaml:"tool,omitempty"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	// SaveTo binds the utterance that entered this state to a session variable.
	SaveTo string `json:"save_to,omitempty" yaml:"save_to,omitempty"`
}

// DirectiveKind is what the runtime must do for a rendered state.
type DirectiveKind string

const (
	DirectiveSay  DirectiveKind = "say"
	DirectiveCall DirectiveKind = "call"
	DirectiveEnd  DirectiveKind = "end"
)

// Directive is the uniform output of State.Render.
type Directive struct {
	Kind        DirectiveKind
	State       StateID
	Instruction string
	Tool        string
	Params      map[string]any
}

// Render turns the state into a directive, interpolating {{ var }} placeholders
// in prompts and string params with the session variables.
func (s State) Render(vars map[string]any) Directive {
	switch s.Kind {
	case StateTool:
		params := make(map[string]any, len(s.Params))
		for k, v := range s.Params {
			if str, ok := v.(string); ok {
				params[k] = Interpolate(str, vars)
				continue
			}
			params[k] = v
		}
		return Directive{Kind: DirectiveCall, State: s.ID, Tool: s.Tool, Params: params}
	case StateEnd:
		return Directive{Kind: DirectiveEnd, State: s.ID}
	default:
		return Directive{Kind: DirectiveSay, State: s.ID, Instruction: Interpolate(s.Prompt, vars)}
	}
}

// Label is a human readable handle used by logs and graph exports.
func (s State) Label() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Kind == StateEnd:
		return "END"
	case s.Kind == StateTool:
		return s.Tool
	case s.Prompt == "":
		return "initial"
	}
	return s.Prompt
}

var placeholder = regexp.MustCompile(`\{\{\s*\.?([A-Za-z0-9_]+)\s*\}\}`)

// Interpolate replaces {{ name }} (or {{ .name }}) with the matching variable.
// Unknown variables are left untouched.
func Interpolate(text string, vars map[string]any) string {
	if len(vars) == 0 || !strings.Contains(text, "{{") {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return fmt.Sprint(v)
		}
		return m
	})
}

// Journey is a scoped conversational flow with its own state graph.
type Journey struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	Conditions  []string     `json:"conditions" yaml:"conditions"`
	Initial     StateID      `json:"initial" yaml:"initial"`
	End         StateID      `json:"end" yaml:"end"`
	States      []State      `json:"states" yaml:"states"`
	Transitions []Transition `json:"transitions" yaml:"transitions"`
	Guidelines  []Guideline  `json:"guidelines,omitempty" yaml:"guidelines,omitempty"`
}

// State returns the state at id.
func (j *Journey) State(id StateID) (State, bool) {
	if id < 0 || int(id) >= len(j.States) {
		return State{}, false
	}
	return j.States[id], true
}

// Outgoing returns the transitions leaving id, in declaration order.
func (j *Journey) Outgoing(id StateID) []Transition {
	var out []Transition
	for _, t := range j.Transitions {
		if t.Source == id {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b Transition) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return out
}
