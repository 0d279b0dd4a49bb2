package domain

// EffectType identifies a side effect reported by a turn.
type EffectType string

const (
	// EffectToolCall reports a tool invocation and its result.
	EffectToolCall EffectType = "tool_call"
	// EffectJourneyEntered reports that the session entered a journey.
	EffectJourneyEntered EffectType = "journey_entered"
	// EffectJourneyEnded reports that the active journey reached its end.
	EffectJourneyEnded EffectType = "journey_ended"
	// EffectGuidelineApplied reports that a guideline pre-empted the turn.
	EffectGuidelineApplied EffectType = "guideline_applied"
	// EffectClarification reports that the runtime asked a clarifying question.
	EffectClarification EffectType = "clarification"
	// EffectApology reports an unhandled tool failure.
	EffectApology EffectType = "apology"
)

// SideEffect is one observable consequence of a turn.
type SideEffect struct {
	Type      EffectType  `json:"type"`
	Journey   string      `json:"journey,omitempty"`
	Tool      string      `json:"tool,omitempty"`
	Guideline string      `json:"guideline,omitempty"`
	Result    *ToolResult `json:"result,omitempty"`
	// Candidates lists the journeys offered by a clarifying question.
	Candidates []string `json:"candidates,omitempty"`
}

// TurnResult is the outcome of handling one utterance.
type TurnResult struct {
	Response    string       `json:"response"`
	SideEffects []SideEffect `json:"side_effects"`
	Session     *Session     `json:"session,omitempty"`
}

// Has reports whether the turn produced a side effect of the given type.
func (r TurnResult) Has(t EffectType) bool {
	for _, se := range r.SideEffects {
		if se.Type == t {
			return true
		}
	}
	return false
}
