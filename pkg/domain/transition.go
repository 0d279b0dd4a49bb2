package domain

// ConditionToolFailed is the reserved condition that is true when the last tool call
// at the current position failed. It is resolved by the runtime, never by the oracle.
const ConditionToolFailed = "tool failed"

// Transition is a directed edge between two states of the same journey.
type Transition struct {
	Source StateID `json:"source" yaml:"source"`
	Target StateID `json:"target" yaml:"target"`

	// Condition is natural-language text evaluated by the oracle.
	// If empty, the transition is unconditional and acts as the fallback.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`

	// Order is the declaration order at the source state; lower wins ties.
	Order int `json:"order" yaml:"order"`
}

// Unconditional reports whether the transition has no guard.
func (t Transition) Unconditional() bool {
	return t.Condition == ""
}

// OnToolError reports whether the transition reacts to a failed tool call.
func (t Transition) OnToolError() bool {
	return t.Condition == ConditionToolFailed
}
