package agentfile

import (
	"context"
	"errors"
	"strings"

	"github.com/aretw0/concierge/pkg/adapters/process"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/dsl"
	"github.com/aretw0/concierge/pkg/registry"
	"github.com/aretw0/concierge/pkg/schema"
)

// Build turns the file into an agent. Tools supplied by the caller take precedence
// over fixtures of the same name; a tool spec with params validates them first.
func (f *File) Build(tools ...domain.Tool) (*domain.Agent, error) {
	resolved, err := f.tools(tools)
	if err != nil {
		return nil, err
	}
	a := dsl.CreateAgent(f.Name, f.Description, dsl.WithTools(resolved...))

	for _, t := range f.Terms {
		_, _ = a.CreateTerm(t.Name, t.Description, t.Synonyms...)
	}

	var errs []error
	byName := make(map[string]*dsl.JourneyBuilder)
	for _, js := range f.Journeys {
		jb := a.CreateJourney(js.Title, js.Description, js.Conditions...)
		byName[jb.ID()] = jb
		byName[strings.ToLower(js.Title)] = jb
		errs = append(errs, declareStates(jb, js)...)
		for _, g := range js.Guidelines {
			jb.CreateGuideline(g.Condition, g.Action, guidelineOptions(g)...)
		}
	}
	for _, g := range f.Guidelines {
		a.CreateGuideline(g.Condition, g.Action, guidelineOptions(g)...)
	}
	for _, o := range f.Observations {
		ob := a.CreateObservation(o.Condition)
		for _, name := range o.Disambiguate {
			jb, ok := byName[name]
			if !ok {
				jb, ok = byName[strings.ToLower(name)]
			}
			if !ok {
				errs = append(errs, domain.NewConfigError(domain.ConfigInvalid, ob.ID(), "unknown journey %q", name))
				continue
			}
			ob.Disambiguate(jb)
		}
	}

	agent, err := a.Build()
	if err := errors.Join(append(errs, err)...); err != nil {
		return nil, err
	}
	return agent, nil
}

func guidelineOptions(g GuidelineSpec) []dsl.GuidelineOption {
	opts := []dsl.GuidelineOption{dsl.WithGuidelineID(g.ID)}
	if len(g.Tools) > 0 {
		opts = append(opts, dsl.UseToolNames(g.Tools...))
	}
	return opts
}

// declareStates replays the transitions in order. The first transition into a named
// state creates it; later ones link to it.
func declareStates(jb *dsl.JourneyBuilder, js JourneySpec) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, domain.NewConfigError(domain.ConfigUndefinedState, js.Title, format, args...))
	}

	specs := make(map[string]StateSpec, len(js.States))
	for _, s := range js.States {
		switch {
		case s.Name == "" || s.Name == InitialState || s.Name == EndState:
			errs = append(errs, domain.NewConfigError(domain.ConfigInvalid, js.Title, "state name %q is empty or reserved", s.Name))
			continue
		case (s.Chat == "") == (s.Tool == ""):
			errs = append(errs, domain.NewConfigError(domain.ConfigInvalid, js.Title, "state %q must set exactly one of chat or tool", s.Name))
			continue
		}
		if _, dup := specs[s.Name]; dup {
			errs = append(errs, domain.NewConfigError(domain.ConfigInvalid, js.Title, "state %q is declared twice", s.Name))
			continue
		}
		specs[s.Name] = s
	}

	reached := map[string]*dsl.StateRef{
		InitialState: jb.InitialState(),
		EndState:     jb.EndState(),
	}
	for i, t := range js.Transitions {
		from, ok := reached[t.From]
		if !ok {
			fail("transition %d leaves %q before any transition reaches it", i+1, t.From)
			continue
		}
		opts := transitionOptions(t)
		if to, ok := reached[t.To]; ok {
			from.TransitionToState(to, opts...)
			continue
		}
		spec, ok := specs[t.To]
		if !ok {
			fail("transition %d targets undeclared state %q", i+1, t.To)
			continue
		}
		opts = append(opts, dsl.Named(spec.Name))
		if spec.Params != nil {
			opts = append(opts, dsl.WithParams(spec.Params))
		}
		if spec.SaveTo != "" {
			opts = append(opts, dsl.SaveTo(spec.SaveTo))
		}
		var ref *dsl.TransitionRef
		if spec.Chat != "" {
			ref = from.TransitionToChat(spec.Chat, opts...)
		} else {
			ref = from.TransitionToToolName(spec.Tool, opts...)
		}
		reached[t.To] = ref.Target
	}
	for _, st := range js.States {
		if _, ok := reached[st.Name]; !ok && specs[st.Name].Name != "" {
			fail("state %q is never reached", st.Name)
		}
	}
	return errs
}

func transitionOptions(t TransitionSpec) []dsl.TransitionOption {
	switch {
	case t.OnToolError:
		return []dsl.TransitionOption{dsl.OnToolError()}
	case t.When != "":
		return []dsl.TransitionOption{dsl.When(t.When)}
	}
	return nil
}

func (f *File) tools(supplied []domain.Tool) ([]domain.Tool, error) {
	given := make(map[string]domain.Tool, len(supplied))
	for _, t := range supplied {
		if t != nil {
			given[t.Name()] = t
		}
	}

	var out []domain.Tool
	declared := make(map[string]bool, len(f.Tools))
	for _, spec := range f.Tools {
		if spec.Name == "" {
			return nil, domain.NewConfigError(domain.ConfigInvalid, "tool", "tool name is empty")
		}
		if declared[spec.Name] {
			return nil, domain.NewConfigError(domain.ConfigInvalid, spec.Name, "tool is declared twice")
		}
		declared[spec.Name] = true

		tool, ok := given[spec.Name]
		switch {
		case ok:
		case spec.Command != "":
			tool = process.New(spec.Name, spec.Command, spec.Args, process.WithDir(f.dir), process.WithEnv(spec.Env))
		default:
			tool = fixture(spec)
		}
		if len(spec.Params) > 0 {
			s, err := schema.ParseTypeMap(spec.Params)
			if err != nil {
				return nil, domain.NewConfigError(domain.ConfigInvalid, spec.Name, "%v", err)
			}
			tool = registry.Validated(tool, s)
		}
		out = append(out, tool)
	}
	for _, t := range supplied {
		if t != nil && !declared[t.Name()] {
			out = append(out, t)
		}
	}
	return out, nil
}

// fixture returns a tool answering with the spec's static result.
func fixture(spec ToolSpec) domain.Tool {
	return registry.Func(spec.Name, func(ctx context.Context, tc domain.ToolContext, params map[string]any) (domain.ToolResult, error) {
		if spec.Error != "" {
			return domain.ErrorResult(spec.Name, domain.Interpolate(spec.Error, params)), nil
		}
		return domain.ToolResult{
			Payload:    fill(spec.Result, params),
			EndJourney: spec.EndJourney,
		}, nil
	})
}

func fill(v map[string]any, params map[string]any) map[string]any {
	if v == nil {
		return nil
	}
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = fillValue(val, params)
	}
	return out
}

func fillValue(v any, params map[string]any) any {
	switch val := v.(type) {
	case string:
		return domain.Interpolate(val, params)
	case map[string]any:
		return fill(val, params)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = fillValue(item, params)
		}
		return out
	}
	return v
}
