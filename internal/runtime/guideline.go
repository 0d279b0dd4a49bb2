package runtime

import (
	"context"

	"github.com/aretw0/concierge/pkg/domain"
)

// matchGuideline returns the first active guideline whose condition holds:
// journey scoped guidelines first, then global ones, each in declaration order.
// "tool failed" guidelines match when the last committed tool call failed.
func (t *turn) matchGuideline() (domain.Guideline, bool) {
	for _, g := range t.e.agent.ActiveGuidelines(t.s.ActiveJourneyID) {
		if g.Condition == domain.ConditionToolFailed {
			if t.s.LastToolFailed {
				return g, true
			}
			continue
		}
		if t.verdict(g.Condition) {
			return g, true
		}
	}
	return domain.Guideline{}, false
}

// applyGuideline runs the guideline's bound tools and emits its action. The state
// pointer only changes when a bound tool asks to end the journey.
func (t *turn) applyGuideline(ctx context.Context, g domain.Guideline) error {
	t.effect(domain.SideEffect{Type: domain.EffectGuidelineApplied, Journey: g.JourneyID, Guideline: g.ID})
	t.e.emitGuideline(ctx, t.s.SessionID, g)
	t.e.logger.DebugContext(ctx, "guideline applied",
		"session_id", t.s.SessionID,
		"guideline_id", g.ID,
		"scope", g.Scope,
	)
	if g.Condition == domain.ConditionToolFailed {
		// The failure is handled once.
		t.s.LastToolFailed = false
	}

	for _, name := range g.Tools {
		res, err := t.invoke(ctx, domain.Directive{Kind: domain.DirectiveCall, Tool: name})
		if err != nil {
			return err
		}
		if res.Failed() {
			return t.unhandledFailure(ctx, res)
		}
		if res.EndJourney {
			if j, ok := t.activeJourney(); ok {
				t.endJourney(ctx, j)
			}
		}
	}

	t.say(domain.Interpolate(g.Action, t.s.Variables))
	return nil
}
