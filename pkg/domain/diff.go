package domain

import (
	"reflect"
)

// SessionDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	ActiveJourneyID *string  `json:"active_journey_id,omitempty"`
	CurrentStateID  *StateID `json:"current_state_id,omitempty"`

	// Variables contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Variables map[string]any `json:"variable_bindings,omitempty"`

	// Appended contains new history entries.
	Appended []Message `json:"appended,omitempty"`
}

// Diff calculates the difference between old and new.
// If old is nil, it returns a diff representing the entire new session (initial load),
// including the journey and state position even when no journey is active.
func Diff(old, new *Session) *SessionDiff {
	if new == nil {
		return nil
	}

	diff := &SessionDiff{
		SessionID: new.SessionID,
	}

	if old == nil || old.ActiveJourneyID != new.ActiveJourneyID {
		diff.ActiveJourneyID = &new.ActiveJourneyID
	}
	if old == nil || old.CurrentStateID != new.CurrentStateID {
		diff.CurrentStateID = &new.CurrentStateID
	}

	diff.Variables = diffVariables(old, new)
	diff.Appended = diffHistory(old, new)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffVariables(old *Session, new *Session) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Variables {
			delta[k] = v
		}
		if len(delta) == 0 {
			return nil
		}
		return delta
	}

	for k, newVal := range new.Variables {
		oldVal, exists := old.Variables[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range old.Variables {
		if _, exists := new.Variables[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffHistory assumes append-only history.
func diffHistory(old *Session, new *Session) []Message {
	if len(new.History) == 0 {
		return nil
	}
	if old == nil {
		return new.History
	}
	if len(new.History) > len(old.History) {
		return new.History[len(old.History):]
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.ActiveJourneyID == nil &&
		d.CurrentStateID == nil &&
		len(d.Variables) == 0 &&
		len(d.Appended) == 0
}
