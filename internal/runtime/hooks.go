package runtime

import (
	"context"
	"time"

	"github.com/aretw0/concierge/pkg/domain"
)

func base(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, SessionID: sessionID}
}

func (e *Engine) emitTurnStart(ctx context.Context, sessionID, utterance string) {
	if e.hooks.OnTurnStart != nil {
		e.hooks.OnTurnStart(ctx, &domain.TurnEvent{
			EventBase: base(domain.EventTurnStart, sessionID),
			Utterance: utterance,
		})
	}
}

func (e *Engine) emitStateEnter(ctx context.Context, sessionID, journeyID string, s domain.State) {
	if e.hooks.OnStateEnter != nil {
		e.hooks.OnStateEnter(ctx, &domain.StateEvent{
			EventBase: base(domain.EventStateEnter, sessionID),
			JourneyID: journeyID,
			StateID:   s.ID,
			Kind:      s.Kind,
		})
	}
}

func (e *Engine) emitStateLeave(ctx context.Context, sessionID, journeyID string, s domain.State) {
	if e.hooks.OnStateLeave != nil {
		e.hooks.OnStateLeave(ctx, &domain.StateEvent{
			EventBase: base(domain.EventStateLeave, sessionID),
			JourneyID: journeyID,
			StateID:   s.ID,
			Kind:      s.Kind,
		})
	}
}

func (e *Engine) emitToolCall(ctx context.Context, sessionID, tool string, params map[string]any) {
	if e.hooks.OnToolCall != nil {
		e.hooks.OnToolCall(ctx, &domain.ToolEvent{
			EventBase: base(domain.EventToolCall, sessionID),
			ToolName:  tool,
			Params:    params,
		})
	}
}

func (e *Engine) emitToolReturn(ctx context.Context, sessionID string, res domain.ToolResult, d time.Duration) {
	if e.hooks.OnToolReturn != nil {
		var output any = res.Payload
		if res.Failed() {
			output = res.Err
		}
		e.hooks.OnToolReturn(ctx, &domain.ToolEvent{
			EventBase: base(domain.EventToolReturn, sessionID),
			ToolName:  res.Tool,
			Output:    output,
			IsError:   res.Failed(),
			Duration:  d,
		})
	}
}

func (e *Engine) emitGuideline(ctx context.Context, sessionID string, g domain.Guideline) {
	if e.hooks.OnGuideline != nil {
		e.hooks.OnGuideline(ctx, &domain.GuidelineEvent{
			EventBase:   base(domain.EventGuideline, sessionID),
			GuidelineID: g.ID,
			Scope:       g.Scope,
		})
	}
}

func (e *Engine) emitJourneyEnter(ctx context.Context, sessionID, journeyID string) {
	if e.hooks.OnJourneyEnter != nil {
		e.hooks.OnJourneyEnter(ctx, &domain.JourneyEvent{
			EventBase: base(domain.EventJourneyEnter, sessionID),
			JourneyID: journeyID,
		})
	}
}

func (e *Engine) emitJourneyEnd(ctx context.Context, sessionID, journeyID string) {
	if e.hooks.OnJourneyEnd != nil {
		e.hooks.OnJourneyEnd(ctx, &domain.JourneyEvent{
			EventBase: base(domain.EventJourneyEnd, sessionID),
			JourneyID: journeyID,
		})
	}
}
