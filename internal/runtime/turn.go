package runtime

import (
	"context"
	"maps"
	"slices"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/glossary"
	"github.com/aretw0/concierge/pkg/oracle"
	"golang.org/x/sync/errgroup"
)

// turn is the working set of one HandleTurn call. Nothing in it is visible to other
// turns until the session it holds is committed.
type turn struct {
	e         *Engine
	original  *domain.Session
	s         *domain.Session
	utterance string

	verdicts     map[string]bool
	effects      []domain.SideEffect
	instructions []string
	results      []domain.ToolResult

	// response, when set, is returned as is instead of being composed.
	response string
	text     string

	// failing is set while a tool failure is being routed.
	failing bool
}

func newTurn(e *Engine, current *domain.Session, utterance string) *turn {
	return &turn{
		e:         e,
		original:  current,
		s:         current.Clone(),
		utterance: utterance,
		verdicts:  make(map[string]bool),
		effects:   []domain.SideEffect{},
	}
}

func (t *turn) run(ctx context.Context) (*domain.Session, error) {
	t.evaluate(ctx, t.candidateConditions())

	if g, ok := t.matchGuideline(); ok {
		if err := t.applyGuideline(ctx, g); err != nil {
			return nil, err
		}
		return t.finish(ctx), nil
	}

	entered, err := t.resolveEntry(ctx)
	if err != nil {
		return nil, err
	}
	if !entered {
		moved, err := t.navigate(ctx)
		if err != nil {
			return nil, err
		}
		if !moved {
			t.hold()
		}
	}
	return t.finish(ctx), nil
}

// candidateConditions gathers every condition the precedence rules may consult:
// active guidelines, entry conditions of the other journeys, observations and the
// outgoing transitions of the current state.
func (t *turn) candidateConditions() []string {
	var conds []string
	for _, g := range t.e.agent.ActiveGuidelines(t.s.ActiveJourneyID) {
		conds = append(conds, g.Condition)
	}
	for _, j := range t.e.agent.Journeys {
		if j.ID != t.s.ActiveJourneyID {
			conds = append(conds, j.Conditions...)
		}
	}
	for _, d := range t.e.agent.Disambiguations {
		conds = append(conds, d.Observation.Condition)
	}
	if j, ok := t.activeJourney(); ok {
		for _, tr := range j.Outgoing(t.s.CurrentStateID) {
			conds = append(conds, tr.Condition)
		}
	}
	return conds
}

// evaluate asks the oracle about every condition not judged yet, concurrently.
// Evaluation is read-only; verdicts are recorded once all queries returned.
func (t *turn) evaluate(ctx context.Context, conditions []string) {
	var pending []string
	seen := make(map[string]bool)
	for _, c := range conditions {
		key := domain.NormalizeKey(c)
		if key == "" || c == domain.ConditionToolFailed || seen[key] {
			continue
		}
		if _, done := t.verdicts[key]; done {
			continue
		}
		seen[key] = true
		pending = append(pending, c)
	}
	if len(pending) == 0 {
		return
	}

	oc := t.oracleContext()
	answers := make([]bool, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.e.concurrency)
	for i, c := range pending {
		g.Go(func() error {
			local := oc
			local.Terms = glossary.Relevant(t.e.agent.Terms, t.utterance, c)
			answers[i] = t.e.oracle.Check(gctx, c, local)
			return nil
		})
	}
	_ = g.Wait()

	for i, c := range pending {
		t.verdicts[domain.NormalizeKey(c)] = answers[i]
	}
}

func (t *turn) verdict(condition string) bool {
	return t.verdicts[domain.NormalizeKey(condition)]
}

func (t *turn) anyTrue(conditions []string) bool {
	for _, c := range conditions {
		if t.verdict(c) {
			return true
		}
	}
	return false
}

func (t *turn) oracleContext() oracle.Context {
	oc := oracle.Context{
		SessionID:   t.s.SessionID,
		Utterance:   t.utterance,
		History:     t.s.RecentHistory(t.e.historyWindow),
		ToolResults: t.committedResults(),
	}
	if j, ok := t.activeJourney(); ok {
		oc.JourneyID = j.ID
		oc.JourneyTitle = j.Title
		if st, ok := j.State(t.s.CurrentStateID); ok {
			oc.State = st.Label()
		}
	}
	return oc
}

func (t *turn) committedResults() []domain.ToolResult {
	names := slices.Sorted(maps.Keys(t.s.ToolResults))
	out := make([]domain.ToolResult, 0, len(names))
	for _, name := range names {
		out = append(out, t.s.ToolResults[name])
	}
	return out
}

func (t *turn) activeJourney() (*domain.Journey, bool) {
	if !t.s.InJourney() {
		return nil, false
	}
	return t.e.agent.Journey(t.s.ActiveJourneyID)
}

func (t *turn) say(instruction string) {
	if instruction != "" {
		t.instructions = append(t.instructions, instruction)
	}
}

func (t *turn) effect(se domain.SideEffect) {
	t.effects = append(t.effects, se)
}

// revert drops the staged changes of the turn. Tool calls already made are still
// reported, and the failure marker is kept so that the session records what happened.
func (t *turn) revert() {
	t.s = t.original.Clone()
	t.s.LastToolFailed = true
	t.instructions = nil
	t.results = nil
	t.effects = slices.DeleteFunc(t.effects, func(se domain.SideEffect) bool {
		return se.Type != domain.EffectToolCall
	})
}

// hold keeps the session where it is and repeats the current prompt, if any.
func (t *turn) hold() {
	j, ok := t.activeJourney()
	if !ok {
		return
	}
	st, ok := j.State(t.s.CurrentStateID)
	if !ok || st.Kind != domain.StateChat {
		return
	}
	t.say(st.Render(t.s.Variables).Instruction)
	t.results = t.committedResults()
}

func (t *turn) finish(ctx context.Context) *domain.Session {
	text := t.response
	if text == "" {
		if len(t.instructions) == 0 && len(t.results) == 0 {
			t.instructions = []string{t.e.fallback}
		}
		text = t.compose(ctx)
	}
	t.text = text
	t.s.History = append(t.s.History,
		domain.Message{Role: domain.RoleUser, Text: t.utterance},
		domain.Message{Role: domain.RoleAgent, Text: text},
	)
	t.s.Turns++
	return t.s
}

func (t *turn) compose(ctx context.Context) string {
	texts := append([]string{t.utterance}, t.instructions...)
	req := composeRequest(t.e.agent, t.instructions, glossary.Relevant(t.e.agent.Terms, texts...), t.results, t.s.RecentHistory(t.e.historyWindow), t.utterance)
	text, err := t.e.composer.Compose(ctx, req)
	if err != nil || text == "" {
		if err != nil {
			t.e.logger.WarnContext(ctx, "composer failed, using template",
				"session_id", t.s.SessionID,
				"err", err,
			)
		}
		text, _ = TemplateComposer{}.Compose(ctx, req)
	}
	return text
}

func (t *turn) result(committed *domain.Session) domain.TurnResult {
	return domain.TurnResult{
		Response:    t.text,
		SideEffects: t.effects,
		Session:     committed.Clone(),
	}
}
