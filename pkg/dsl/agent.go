package dsl

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/concierge/internal/validator"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/glossary"
	"github.com/aretw0/concierge/pkg/registry"
)

// AgentBuilder collects the declarations of an agent.
type AgentBuilder struct {
	name        string
	description string
	glossary    *glossary.Glossary
	tools       *registry.Registry

	journeys     []*JourneyBuilder
	guidelines   []domain.Guideline
	observations []*ObservationBuilder

	errs  []error
	agent *domain.Agent
}

// AgentOption configures an AgentBuilder.
type AgentOption func(*AgentBuilder)

// WithRegistry makes the builder register tools into r instead of a private registry.
func WithRegistry(r *registry.Registry) AgentOption {
	return func(a *AgentBuilder) {
		if r != nil {
			a.tools = r
		}
	}
}

// WithTools registers tools up front, so that declarations may refer to them by name.
func WithTools(tools ...domain.Tool) AgentOption {
	return func(a *AgentBuilder) {
		for _, t := range tools {
			a.RegisterTool(t)
		}
	}
}

// CreateAgent starts the declaration of an agent.
func CreateAgent(name, description string, opts ...AgentOption) *AgentBuilder {
	a := &AgentBuilder{
		name:        name,
		description: description,
		glossary:    glossary.New(),
		tools:       registry.NewRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Registry returns the registry holding the agent's tools.
func (a *AgentBuilder) Registry() *registry.Registry {
	return a.tools
}

func (a *AgentBuilder) fail(err error) error {
	a.errs = append(a.errs, err)
	return err
}

func (a *AgentBuilder) mutable(subject string) bool {
	if a.agent != nil {
		a.fail(domain.NewConfigError(domain.ConfigFrozen, subject, "agent %q is already built", a.name))
		return false
	}
	return true
}

// RegisterTool adds a tool to the agent. Registering the same tool twice is a no-op;
// a different tool under an existing name is a configuration error.
func (a *AgentBuilder) RegisterTool(tool domain.Tool) error {
	if tool == nil {
		return a.fail(domain.NewConfigError(domain.ConfigInvalid, "tool", "tool is nil"))
	}
	if !a.mutable(tool.Name()) {
		return a.errs[len(a.errs)-1]
	}
	if err := a.tools.Register(tool); err != nil {
		return a.fail(domain.NewConfigError(domain.ConfigInvalid, tool.Name(), "%v", err))
	}
	return nil
}

// CreateTerm adds a grounding fact to the glossary. A duplicate name, ignoring case,
// is rejected; the error is also reported by Build.
func (a *AgentBuilder) CreateTerm(name, description string, synonyms ...string) (domain.Term, error) {
	if !a.mutable(name) {
		return domain.Term{}, a.errs[len(a.errs)-1]
	}
	term, err := a.glossary.Create(name, description, synonyms...)
	if err != nil {
		return domain.Term{}, a.fail(err)
	}
	return term, nil
}

// CreateJourney declares a journey with an implicit initial state and an End state.
func (a *AgentBuilder) CreateJourney(title, description string, conditions ...string) *JourneyBuilder {
	a.mutable(title)
	j := newJourney(a, title, description, conditions)
	a.journeys = append(a.journeys, j)
	return j
}

// CreateGuideline declares a global guideline.
func (a *AgentBuilder) CreateGuideline(condition, action string, opts ...GuidelineOption) *AgentBuilder {
	a.mutable("guideline")
	g := a.guideline(condition, action, domain.ScopeGlobal, "", len(a.guidelines), opts)
	a.guidelines = append(a.guidelines, g)
	return a
}

// CreateObservation declares a trigger condition for an ambiguous intent.
func (a *AgentBuilder) CreateObservation(condition string) *ObservationBuilder {
	a.mutable("observation")
	o := &ObservationBuilder{
		agent: a,
		observation: domain.Observation{
			ID:        fmt.Sprintf("observation-%d", len(a.observations)+1),
			Condition: condition,
		},
	}
	if strings.TrimSpace(condition) == "" {
		a.fail(domain.NewConfigError(domain.ConfigInvalid, o.observation.ID, "condition is empty"))
	}
	a.observations = append(a.observations, o)
	return o
}

// Build validates every declaration and returns the immutable agent.
// Calling Build again returns the same agent.
func (a *AgentBuilder) Build() (*domain.Agent, error) {
	if a.agent != nil {
		return a.agent, nil
	}

	errs := append([]error(nil), a.errs...)
	seen := make(map[string]bool)
	journeys := make([]*domain.Journey, 0, len(a.journeys))
	for _, jb := range a.journeys {
		j := jb.journey
		if seen[j.ID] {
			errs = append(errs, domain.NewConfigError(domain.ConfigDuplicateJourney, j.Title, "journey id %q is already used", j.ID))
			continue
		}
		seen[j.ID] = true
		errs = append(errs, jb.errs...)
		errs = append(errs, a.checkTools(j)...)
		if err := validator.Validate(j); err != nil {
			errs = append(errs, err)
		}
		journeys = append(journeys, j)
	}
	for _, g := range a.guidelines {
		errs = append(errs, a.checkGuidelineTools(g)...)
	}

	disambiguations := make([]domain.Disambiguation, 0, len(a.observations))
	for _, o := range a.observations {
		var candidates []string
		for _, jb := range o.candidates {
			if jb.agent != a {
				errs = append(errs, domain.NewConfigError(domain.ConfigInvalid, o.observation.ID, "journey %q belongs to another agent", jb.journey.Title))
				continue
			}
			candidates = append(candidates, jb.journey.ID)
		}
		if len(candidates) == 0 {
			errs = append(errs, domain.NewConfigError(domain.ConfigInvalid, o.observation.ID, "observation has no candidate journeys"))
			continue
		}
		disambiguations = append(disambiguations, domain.Disambiguation{
			Observation: o.observation,
			Candidates:  candidates,
		})
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	a.glossary.Freeze()
	tools := make([]domain.Tool, 0)
	for _, name := range a.tools.Names() {
		t, _ := a.tools.Lookup(name)
		tools = append(tools, t)
	}
	a.agent = &domain.Agent{
		Name:            a.name,
		Description:     a.description,
		Terms:           a.glossary.All(),
		Tools:           tools,
		Journeys:        journeys,
		Guidelines:      append([]domain.Guideline(nil), a.guidelines...),
		Disambiguations: disambiguations,
	}
	return a.agent, nil
}

func (a *AgentBuilder) checkTools(j *domain.Journey) []error {
	var errs []error
	for _, s := range j.States {
		if s.Kind == domain.StateTool && !a.tools.Has(s.Tool) {
			errs = append(errs, domain.NewConfigError(domain.ConfigUnknownTool, s.Tool, "journey %q references an unregistered tool", j.Title))
		}
	}
	for _, g := range j.Guidelines {
		errs = append(errs, a.checkGuidelineTools(g)...)
	}
	return errs
}

func (a *AgentBuilder) checkGuidelineTools(g domain.Guideline) []error {
	var errs []error
	for _, name := range g.Tools {
		if !a.tools.Has(name) {
			errs = append(errs, domain.NewConfigError(domain.ConfigUnknownTool, name, "guideline %q references an unregistered tool", g.ID))
		}
	}
	return errs
}

func (a *AgentBuilder) guideline(condition, action string, scope domain.Scope, journeyID string, n int, opts []GuidelineOption) domain.Guideline {
	g := domain.Guideline{
		Condition: condition,
		Action:    action,
		Scope:     scope,
		JourneyID: journeyID,
	}
	if journeyID == "" {
		g.ID = fmt.Sprintf("guideline-%d", n+1)
	} else {
		g.ID = fmt.Sprintf("%s/guideline-%d", journeyID, n+1)
	}
	for _, opt := range opts {
		opt(a, &g)
	}
	if strings.TrimSpace(g.Condition) == "" {
		a.fail(domain.NewConfigError(domain.ConfigInvalid, g.ID, "condition is empty"))
	}
	return g
}

// GuidelineOption configures a guideline.
type GuidelineOption func(*AgentBuilder, *domain.Guideline)

// WithGuidelineID overrides the generated guideline ID.
func WithGuidelineID(id string) GuidelineOption {
	return func(_ *AgentBuilder, g *domain.Guideline) {
		if id != "" {
			g.ID = id
		}
	}
}

// UseTools binds tools to the guideline and registers them with the agent.
func UseTools(tools ...domain.Tool) GuidelineOption {
	return func(a *AgentBuilder, g *domain.Guideline) {
		for _, t := range tools {
			if a.RegisterTool(t) == nil {
				g.Tools = append(g.Tools, t.Name())
			}
		}
	}
}

// UseToolNames binds already registered tools to the guideline by name.
func UseToolNames(names ...string) GuidelineOption {
	return func(_ *AgentBuilder, g *domain.Guideline) {
		g.Tools = append(g.Tools, names...)
	}
}

// ObservationBuilder configures an observation.
type ObservationBuilder struct {
	agent       *AgentBuilder
	observation domain.Observation
	candidates  []*JourneyBuilder
}

// ID returns the observation ID.
func (o *ObservationBuilder) ID() string {
	return o.observation.ID
}

// Disambiguate associates the observation with an ordered list of candidate journeys.
func (o *ObservationBuilder) Disambiguate(journeys ...*JourneyBuilder) *ObservationBuilder {
	o.candidates = append(o.candidates, journeys...)
	return o
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a journey ID from its title.
func Slug(title string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
}
