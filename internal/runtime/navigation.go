package runtime

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/aretw0/concierge/pkg/domain"
)

// navigate runs transition selection at the current state of the active journey.
func (t *turn) navigate(ctx context.Context) (bool, error) {
	if !t.s.InJourney() {
		return false, nil
	}
	j, ok := t.activeJourney()
	if !ok {
		// The journey is gone from the agent (e.g. after a reload).
		t.e.logger.WarnContext(ctx, "active journey no longer exists, leaving it",
			"session_id", t.s.SessionID,
			"journey_id", t.s.ActiveJourneyID,
		)
		t.s.ActiveJourneyID = ""
		t.s.CurrentStateID = domain.NoState
		return false, nil
	}
	tr, ok := t.selectTransition(ctx, j, t.s.CurrentStateID)
	if !ok {
		return false, nil
	}
	return true, t.advance(ctx, j, tr)
}

// selectTransition applies the selection rule at id: conditional transitions in
// declaration order, first true wins; otherwise the first unconditional one.
// Error-handling transitions never win here.
func (t *turn) selectTransition(ctx context.Context, j *domain.Journey, id domain.StateID) (domain.Transition, bool) {
	out := j.Outgoing(id)
	var conds []string
	for _, tr := range out {
		if !tr.Unconditional() && !tr.OnToolError() {
			conds = append(conds, tr.Condition)
		}
	}
	t.evaluate(ctx, conds)

	for _, tr := range out {
		if tr.Unconditional() || tr.OnToolError() {
			continue
		}
		if t.verdict(tr.Condition) {
			return tr, true
		}
	}
	return firstUnconditional(out)
}

func firstUnconditional(out []domain.Transition) (domain.Transition, bool) {
	for _, tr := range out {
		if tr.Unconditional() {
			return tr, true
		}
	}
	return domain.Transition{}, false
}

func errorTransition(out []domain.Transition) (domain.Transition, bool) {
	for _, tr := range out {
		if tr.OnToolError() {
			return tr, true
		}
	}
	return domain.Transition{}, false
}

// advance follows tr and keeps moving while the graph allows it in this turn.
// The initial state and tool states run a full selection; chat states emit their
// prompt and only follow an unconditional exit, since the utterance is consumed once.
func (t *turn) advance(ctx context.Context, j *domain.Journey, tr domain.Transition) error {
	for step := 0; ; step++ {
		if step >= maxSteps {
			t.e.logger.WarnContext(ctx, "step bound reached, holding",
				"session_id", t.s.SessionID,
				"journey_id", j.ID,
				"state_id", t.s.CurrentStateID,
			)
			return nil
		}

		t.move(ctx, j, tr)
		st, _ := j.State(tr.Target)

		var ok bool
		switch st.Kind {
		case domain.StateEnd:
			t.endJourney(ctx, j)
			return nil

		case domain.StateChat:
			if st.SaveTo != "" {
				t.s.Variables[st.SaveTo] = t.utterance
			}
			if st.ID == j.Initial {
				tr, ok = t.selectTransition(ctx, j, st.ID)
			} else {
				t.say(st.Render(t.s.Variables).Instruction)
				tr, ok = firstUnconditional(j.Outgoing(st.ID))
			}

		case domain.StateTool:
			res, err := t.invoke(ctx, st.Render(t.s.Variables))
			if err != nil {
				return err
			}
			if res.Failed() {
				if next, found := errorTransition(j.Outgoing(st.ID)); found {
					tr, ok = next, true
					break
				}
				return t.unhandledFailure(ctx, res)
			}
			if res.EndJourney {
				t.endJourney(ctx, j)
				return nil
			}
			tr, ok = t.selectTransition(ctx, j, st.ID)
		}
		if !ok {
			return nil
		}
	}
}

func (t *turn) move(ctx context.Context, j *domain.Journey, tr domain.Transition) {
	if from, ok := j.State(t.s.CurrentStateID); ok {
		t.e.emitStateLeave(ctx, t.s.SessionID, j.ID, from)
	}
	to, _ := j.State(tr.Target)
	t.e.logger.DebugContext(ctx, "transition",
		"session_id", t.s.SessionID,
		"journey_id", j.ID,
		"from", tr.Source,
		"to", tr.Target,
		"condition", tr.Condition,
	)
	t.s.CurrentStateID = tr.Target
	t.e.emitStateEnter(ctx, t.s.SessionID, j.ID, to)
}

// enterJourney activates j at its initial state and advances from there.
func (t *turn) enterJourney(ctx context.Context, j *domain.Journey) error {
	if t.s.InJourney() {
		t.e.logger.InfoContext(ctx, "leaving journey for another",
			"session_id", t.s.SessionID,
			"from", t.s.ActiveJourneyID,
			"to", j.ID,
		)
	}
	t.s.ActiveJourneyID = j.ID
	t.s.CurrentStateID = j.Initial
	clear(t.s.ToolResults)
	t.effect(domain.SideEffect{Type: domain.EffectJourneyEntered, Journey: j.ID})
	t.e.emitJourneyEnter(ctx, t.s.SessionID, j.ID)
	if st, ok := j.State(j.Initial); ok {
		t.e.emitStateEnter(ctx, t.s.SessionID, j.ID, st)
	}
	t.e.logger.InfoContext(ctx, "journey entered", "session_id", t.s.SessionID, "journey_id", j.ID)

	tr, ok := t.selectTransition(ctx, j, j.Initial)
	if !ok {
		return nil
	}
	return t.advance(ctx, j, tr)
}

func (t *turn) endJourney(ctx context.Context, j *domain.Journey) {
	if st, ok := j.State(t.s.CurrentStateID); ok {
		t.e.emitStateLeave(ctx, t.s.SessionID, j.ID, st)
	}
	t.s.ActiveJourneyID = ""
	t.s.CurrentStateID = domain.NoState
	clear(t.s.ToolResults)
	t.effect(domain.SideEffect{Type: domain.EffectJourneyEnded, Journey: j.ID})
	t.e.emitJourneyEnd(ctx, t.s.SessionID, j.ID)
	t.e.logger.InfoContext(ctx, "journey ended", "session_id", t.s.SessionID, "journey_id", j.ID)
}

// invoke calls a tool and folds its result into the working session. The tool runs
// on a context detached from the turn and bounded by the tool timeout; if the turn
// is canceled first, the call is left to finish and its result is discarded.
func (t *turn) invoke(ctx context.Context, d domain.Directive) (domain.ToolResult, error) {
	tc := domain.ToolContext{
		SessionID: t.s.SessionID,
		Caller:    domain.CallerFrom(ctx),
		History:   append(t.s.RecentHistory(t.e.historyWindow), domain.Message{Role: domain.RoleUser, Text: t.utterance}),
		Variables: maps.Clone(t.s.Variables),
	}
	params := d.Params
	if params == nil {
		params = map[string]any{}
	}

	t.e.emitToolCall(ctx, t.s.SessionID, d.Tool, params)
	start := time.Now()

	toolCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.e.toolTimeout)
	done := make(chan domain.ToolResult, 1)
	go func() {
		defer cancel()
		done <- t.e.tools.Invoke(toolCtx, d.Tool, tc, params)
	}()

	var res domain.ToolResult
	select {
	case res = <-done:
	case <-toolCtx.Done():
		// The goroutine cancels toolCtx once it has sent, so a result may be ready too.
		select {
		case res = <-done:
		default:
			res = domain.ErrorResult(d.Tool, fmt.Sprintf("timed out after %s", t.e.toolTimeout))
		}
	case <-ctx.Done():
		return domain.ToolResult{}, fmt.Errorf("%w: %w", domain.ErrSessionExpired, context.Cause(ctx))
	}
	if t.e.sessions.Expired(t.s.SessionID) {
		return domain.ToolResult{}, domain.ErrSessionExpired
	}
	if res.Tool == "" {
		res.Tool = d.Tool
	}
	t.e.emitToolReturn(ctx, t.s.SessionID, res, time.Since(start))

	t.s.ToolResults[d.Tool] = res
	t.s.LastToolFailed = res.Failed()
	t.results = append(t.results, res)
	recorded := res
	t.effect(domain.SideEffect{Type: domain.EffectToolCall, Journey: t.s.ActiveJourneyID, Tool: d.Tool, Result: &recorded})

	if res.Failed() {
		t.e.logger.WarnContext(ctx, "tool failed",
			"session_id", t.s.SessionID,
			"tool", d.Tool,
			"err", res.Err,
		)
	} else {
		// Verdicts taken before the call do not account for its result.
		clear(t.verdicts)
	}
	return res, nil
}

// unhandledFailure routes a failed tool call that no transition handles: to a
// "tool failed" guideline if one is active, otherwise to the default apology.
// Either way the turn's staged changes are dropped and the session continues.
func (t *turn) unhandledFailure(ctx context.Context, res domain.ToolResult) error {
	journeyID := t.original.ActiveJourneyID
	if !t.failing {
		for _, g := range t.e.agent.ActiveGuidelines(journeyID) {
			if g.Condition == domain.ConditionToolFailed {
				t.failing = true
				t.revert()
				return t.applyGuideline(ctx, g)
			}
		}
	}
	t.revert()
	t.response = t.e.apology
	recorded := res
	t.effect(domain.SideEffect{Type: domain.EffectApology, Journey: journeyID, Tool: res.Tool, Result: &recorded})
	return nil
}
