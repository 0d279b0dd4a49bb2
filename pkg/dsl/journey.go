package dsl

import (
	"maps"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
)

// JourneyBuilder declares the state graph of one journey.
type JourneyBuilder struct {
	agent   *AgentBuilder
	journey *domain.Journey
	errs    []error
}

func newJourney(a *AgentBuilder, title, description string, conditions []string) *JourneyBuilder {
	j := &JourneyBuilder{
		agent: a,
		journey: &domain.Journey{
			ID:          Slug(title),
			Title:       title,
			Description: description,
			Conditions:  append([]string(nil), conditions...),
		},
	}
	if j.journey.ID == "" {
		j.fail(domain.NewConfigError(domain.ConfigInvalid, "journey", "title %q yields an empty id", title))
	}
	j.journey.Initial = j.add(domain.State{Kind: domain.StateChat, Name: "initial"})
	j.journey.End = j.add(domain.State{Kind: domain.StateEnd, Name: "END"})
	return j
}

func (j *JourneyBuilder) fail(err error) {
	j.errs = append(j.errs, err)
}

func (j *JourneyBuilder) add(s domain.State) domain.StateID {
	s.ID = domain.StateID(len(j.journey.States))
	j.journey.States = append(j.journey.States, s)
	return s.ID
}

// ID returns the journey ID derived from its title.
func (j *JourneyBuilder) ID() string {
	return j.journey.ID
}

// InitialState returns the implicit entry state.
func (j *JourneyBuilder) InitialState() *StateRef {
	return &StateRef{journey: j, id: j.journey.Initial}
}

// EndState returns the End marker of the journey.
func (j *JourneyBuilder) EndState() *StateRef {
	return &StateRef{journey: j, id: j.journey.End}
}

// CreateGuideline declares a guideline that applies only while this journey is active.
func (j *JourneyBuilder) CreateGuideline(condition, action string, opts ...GuidelineOption) *JourneyBuilder {
	g := j.agent.guideline(condition, action, domain.ScopeJourney, j.journey.ID, len(j.journey.Guidelines), opts)
	j.journey.Guidelines = append(j.journey.Guidelines, g)
	return j
}

// StateRef addresses a state of a journey under construction.
type StateRef struct {
	journey *JourneyBuilder
	id      domain.StateID
}

// ID returns the arena index of the state.
func (s *StateRef) ID() domain.StateID {
	return s.id
}

// Journey returns the journey the state belongs to.
func (s *StateRef) Journey() *JourneyBuilder {
	return s.journey
}

// TransitionRef is the result of a transition declaration.
type TransitionRef struct {
	Target *StateRef
}

type transitionSpec struct {
	condition string
	params    map[string]any
	saveTo    string
	name      string
}

// TransitionOption configures a transition and, for new states, its target.
type TransitionOption func(*transitionSpec)

// When guards the transition with a natural-language condition.
func When(condition string) TransitionOption {
	return func(t *transitionSpec) {
		t.condition = strings.TrimSpace(condition)
	}
}

// OnToolError makes the transition fire when the tool call of the source state failed.
func OnToolError() TransitionOption {
	return When(domain.ConditionToolFailed)
}

// WithParams sets the parameters of a new tool state. String values may hold
// {{ name }} placeholders resolved from session variables.
func WithParams(params map[string]any) TransitionOption {
	return func(t *transitionSpec) {
		t.params = maps.Clone(params)
	}
}

// SaveTo binds the utterance that enters the new chat state to a session variable.
func SaveTo(variable string) TransitionOption {
	return func(t *transitionSpec) {
		t.saveTo = variable
	}
}

// Named gives the new state a label used by logs and graph exports.
func Named(name string) TransitionOption {
	return func(t *transitionSpec) {
		t.name = name
	}
}

func collect(opts []TransitionOption) transitionSpec {
	var spec transitionSpec
	for _, opt := range opts {
		opt(&spec)
	}
	return spec
}

// TransitionToChat creates a new chat state and links it from s.
func (s *StateRef) TransitionToChat(prompt string, opts ...TransitionOption) *TransitionRef {
	spec := collect(opts)
	if spec.params != nil {
		s.journey.fail(domain.NewConfigError(domain.ConfigInvalid, prompt, "params apply only to tool states"))
	}
	target := s.journey.add(domain.State{
		Kind:   domain.StateChat,
		Name:   spec.name,
		Prompt: prompt,
		SaveTo: spec.saveTo,
	})
	return s.link(target, spec)
}

// TransitionToTool creates a new tool state for tool, registering it with the agent.
func (s *StateRef) TransitionToTool(tool domain.Tool, opts ...TransitionOption) *TransitionRef {
	name := ""
	if tool != nil {
		name = tool.Name()
	}
	if err := s.journey.agent.RegisterTool(tool); err != nil {
		name = ""
	}
	return s.TransitionToToolName(name, opts...)
}

// TransitionToToolName creates a new tool state for a tool that is registered by name.
// Unknown names are reported by Build.
func (s *StateRef) TransitionToToolName(tool string, opts ...TransitionOption) *TransitionRef {
	spec := collect(opts)
	if spec.saveTo != "" {
		s.journey.fail(domain.NewConfigError(domain.ConfigInvalid, tool, "save_to applies only to chat states"))
	}
	target := s.journey.add(domain.State{
		Kind:   domain.StateTool,
		Name:   spec.name,
		Tool:   tool,
		Params: spec.params,
	})
	return s.link(target, spec)
}

// TransitionToState links s to an existing state of the same journey. Loop-backs and
// convergent branches share the target state instead of copying it.
func (s *StateRef) TransitionToState(target *StateRef, opts ...TransitionOption) *TransitionRef {
	spec := collect(opts)
	if target == nil || target.journey != s.journey {
		s.journey.fail(domain.NewConfigError(domain.ConfigUndefinedState, s.journey.journey.Title, "transition targets a state outside the journey"))
		return &TransitionRef{Target: s}
	}
	if spec.params != nil || spec.saveTo != "" || spec.name != "" {
		s.journey.fail(domain.NewConfigError(domain.ConfigInvalid, s.journey.journey.Title, "state options apply only to new states"))
	}
	return s.link(target.id, spec)
}

// TransitionToEnd links s to the End marker.
func (s *StateRef) TransitionToEnd(opts ...TransitionOption) *TransitionRef {
	return s.TransitionToState(s.journey.EndState(), opts...)
}

func (s *StateRef) link(target domain.StateID, spec transitionSpec) *TransitionRef {
	j := s.journey.journey
	if s.id == j.End {
		s.journey.fail(domain.NewConfigError(domain.ConfigInvalid, j.Title, "the End state has no outgoing transitions"))
	}
	j.Transitions = append(j.Transitions, domain.Transition{
		Source:    s.id,
		Target:    target,
		Condition: spec.condition,
		Order:     len(j.Transitions),
	})
	return &TransitionRef{Target: &StateRef{journey: s.journey, id: target}}
}
