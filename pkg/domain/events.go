package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurnStart    EventType = "turn_start"
	EventStateEnter   EventType = "state_enter"
	EventStateLeave   EventType = "state_leave"
	EventToolCall     EventType = "tool_call"
	EventToolReturn   EventType = "tool_return"
	EventGuideline    EventType = "guideline"
	EventJourneyEnter EventType = "journey_enter"
	EventJourneyEnd   EventType = "journey_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StateEvent represents entry or exit from a state.
type StateEvent struct {
	EventBase
	JourneyID string    `json:"journey_id"`
	StateID   StateID   `json:"state_id"`
	Kind      StateKind `json:"kind"`
}

// ToolEvent represents a tool execution.
type ToolEvent struct {
	EventBase
	ToolName string        `json:"tool_name"`
	Params   any           `json:"params,omitempty"`
	Output   any           `json:"output,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// TurnEvent marks the start of a turn.
type TurnEvent struct {
	EventBase
	Utterance string `json:"utterance"`
}

// GuidelineEvent represents a guideline pre-empting a turn.
type GuidelineEvent struct {
	EventBase
	GuidelineID string `json:"guideline_id"`
	Scope       Scope  `json:"scope"`
}

// JourneyEvent represents entering or leaving a journey.
type JourneyEvent struct {
	EventBase
	JourneyID string `json:"journey_id"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTurnStart    func(context.Context, *TurnEvent)
	OnStateEnter   func(context.Context, *StateEvent)
	OnStateLeave   func(context.Context, *StateEvent)
	OnToolCall     func(context.Context, *ToolEvent)
	OnToolReturn   func(context.Context, *ToolEvent)
	OnGuideline    func(context.Context, *GuidelineEvent)
	OnJourneyEnter func(context.Context, *JourneyEvent)
	OnJourneyEnd   func(context.Context, *JourneyEvent)
}
