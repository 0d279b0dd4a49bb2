package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract verifies that a SessionStore implementation adheres to
// the interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(sessionID)
		s.ActiveJourneyID = "schedule"
		s.CurrentStateID = 3
		s.Variables["appointment_time"] = "Monday"
		s.Variables["count"] = 42
		s.History = append(s.History,
			domain.Message{Role: domain.RoleUser, Text: "I want an appointment"},
			domain.Message{Role: domain.RoleAgent, Text: "What is the reason for your visit?"},
		)
		s.ToolResults["get_upcoming_slots"] = domain.ToolResult{
			Tool:    "get_upcoming_slots",
			Payload: map[string]any{"slots": []any{"Monday 10 AM"}},
		}
		s.Turns = 2

		require.NoError(t, store.Save(ctx, sessionID, s), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, "schedule", loaded.ActiveJourneyID)
		assert.Equal(t, domain.StateID(3), loaded.CurrentStateID)
		assert.Equal(t, "Monday", loaded.Variables["appointment_time"])
		// JSON persistence may turn ints into float64; only existence is checked.
		assert.NotNil(t, loaded.Variables["count"])
		assert.Equal(t, s.History, loaded.History)
		assert.Contains(t, loaded.ToolResults, "get_upcoming_slots")
		assert.Equal(t, 2, loaded.Turns)
	})

	t.Run("Save overwrites", func(t *testing.T) {
		s := domain.NewSession(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, s))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.False(t, loaded.InJourney())
		assert.Equal(t, domain.NoState, loaded.CurrentStateID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSession(sessionID)))
		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewSession(id1)))
		require.NoError(t, store.Save(ctx, id2, domain.NewSession(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
