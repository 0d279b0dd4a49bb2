package domain

// Session is the per-conversation snapshot. Its JSON form is the persisted layout.
type Session struct {
	SessionID       string         `json:"session_id"`
	ActiveJourneyID string         `json:"active_journey_id,omitempty"`
	CurrentStateID  StateID        `json:"current_state_id"`
	Variables       map[string]any `json:"variable_bindings"`
	History         []Message      `json:"history"`

	// ToolResults holds the committed results of the active position, keyed by tool name.
	ToolResults map[string]ToolResult `json:"tool_results,omitempty"`

	// LastToolFailed is set when the most recent tool call of the session failed.
	LastToolFailed bool `json:"last_tool_failed,omitempty"`

	// Turns counts committed turns.
	Turns int `json:"turns"`
}

// NewSession creates a clean session outside any journey.
func NewSession(sessionID string) *Session {
	return &Session{
		SessionID:      sessionID,
		CurrentStateID: NoState,
		Variables:      make(map[string]any),
		History:        []Message{},
		ToolResults:    make(map[string]ToolResult),
	}
}

// InJourney reports whether a journey is active.
func (s *Session) InJourney() bool {
	return s.ActiveJourneyID != ""
}

// Clone returns a deep enough copy for a turn's working set.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	next := *s
	next.Variables = make(map[string]any, len(s.Variables))
	for k, v := range s.Variables {
		next.Variables[k] = v
	}
	next.History = append([]Message(nil), s.History...)
	next.ToolResults = make(map[string]ToolResult, len(s.ToolResults))
	for k, v := range s.ToolResults {
		next.ToolResults[k] = v
	}
	return &next
}

// RecentHistory returns at most n trailing messages. n <= 0 returns everything.
func (s *Session) RecentHistory(n int) []Message {
	if n <= 0 || len(s.History) <= n {
		return append([]Message(nil), s.History...)
	}
	return append([]Message(nil), s.History[len(s.History)-n:]...)
}
