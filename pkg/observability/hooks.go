package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/concierge/pkg/domain"
)

// LogHooks logs every lifecycle event at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn start", "session_id", e.SessionID)
		},
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			logger.DebugContext(ctx, "enter state", "session_id", e.SessionID, "journey_id", e.JourneyID, "state_id", e.StateID, "kind", e.Kind)
		},
		OnStateLeave: func(ctx context.Context, e *domain.StateEvent) {
			logger.DebugContext(ctx, "leave state", "session_id", e.SessionID, "journey_id", e.JourneyID, "state_id", e.StateID)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool call", "session_id", e.SessionID, "tool", e.ToolName)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			if e.IsError {
				logger.DebugContext(ctx, "tool return", "session_id", e.SessionID, "tool", e.ToolName, "duration", e.Duration, "err", e.Output)
				return
			}
			logger.DebugContext(ctx, "tool return", "session_id", e.SessionID, "tool", e.ToolName, "duration", e.Duration)
		},
		OnGuideline: func(ctx context.Context, e *domain.GuidelineEvent) {
			logger.DebugContext(ctx, "guideline", "session_id", e.SessionID, "guideline_id", e.GuidelineID, "scope", e.Scope)
		},
		OnJourneyEnter: func(ctx context.Context, e *domain.JourneyEvent) {
			logger.DebugContext(ctx, "journey enter", "session_id", e.SessionID, "journey_id", e.JourneyID)
		},
		OnJourneyEnd: func(ctx context.Context, e *domain.JourneyEvent) {
			logger.DebugContext(ctx, "journey end", "session_id", e.SessionID, "journey_id", e.JourneyID)
		},
	}
}

// Combine returns hooks that call every non-nil hook of each set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnTurnStart = chain(out.OnTurnStart, h.OnTurnStart)
		out.OnStateEnter = chain(out.OnStateEnter, h.OnStateEnter)
		out.OnStateLeave = chain(out.OnStateLeave, h.OnStateLeave)
		out.OnToolCall = chain(out.OnToolCall, h.OnToolCall)
		out.OnToolReturn = chain(out.OnToolReturn, h.OnToolReturn)
		out.OnGuideline = chain(out.OnGuideline, h.OnGuideline)
		out.OnJourneyEnter = chain(out.OnJourneyEnter, h.OnJourneyEnter)
		out.OnJourneyEnd = chain(out.OnJourneyEnd, h.OnJourneyEnd)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
