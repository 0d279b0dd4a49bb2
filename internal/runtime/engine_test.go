package runtime_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/concierge/internal/runtime"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/dsl"
	"github.com/aretw0/concierge/pkg/oracle/oracletest"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_SchedulingEndToEnd(t *testing.T) {
	sc := newScheduling()
	agent := build(t, sc.agent)
	stub := oracletest.New().
		SetFor("I want an appointment", condSchedule, true).
		True(condPicks, condConfirms)
	engine := newEngine(t, agent, stub)
	ctx := context.Background()

	r1, err := engine.HandleTurn(ctx, "s1", "I want an appointment")
	require.NoError(t, err)
	assert.True(t, r1.Has(domain.EffectJourneyEntered))
	assert.True(t, r1.Has(domain.EffectToolCall))
	assert.Contains(t, r1.Response, "Determine the reason for the visit")
	assert.Contains(t, r1.Response, "Monday 10 AM, Tuesday 2 PM")
	assert.Equal(t, sc.list.ID(), r1.Session.CurrentStateID)

	r2, err := engine.HandleTurn(ctx, "s1", "Monday works")
	require.NoError(t, err)
	assert.Equal(t, sc.confirm.ID(), r2.Session.CurrentStateID)
	assert.Equal(t, "Monday works", r2.Session.Variables["appointment_time"])
	assert.Contains(t, r2.Response, "Confirm the details")

	r3, err := engine.HandleTurn(ctx, "s1", "confirm")
	require.NoError(t, err)
	assert.True(t, r3.Has(domain.EffectJourneyEnded))
	assert.False(t, r3.Session.InJourney())
	assert.Equal(t, domain.NoState, r3.Session.CurrentStateID)
	assert.Contains(t, r3.Response, "Confirm the appointment has been scheduled")
	assert.Contains(t, r3.Response, "Appointment scheduled for Monday works")

	stored, err := engine.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, stored.History, 6)
	assert.Equal(t, 3, stored.Turns)
}

func TestEngine_ConvergentBranchReachesSameConfirmState(t *testing.T) {
	sc := newScheduling()
	agent := build(t, sc.agent)
	stub := oracletest.New().
		SetFor("I want an appointment", condSchedule, true).
		SetFor("none of those work", condNoneWork, true).
		SetFor("friday then", condPicks, true)
	engine := newEngine(t, agent, stub)
	ctx := context.Background()

	_, err := engine.HandleTurn(ctx, "s", "I want an appointment")
	require.NoError(t, err)

	r, err := engine.HandleTurn(ctx, "s", "none of those work")
	require.NoError(t, err)
	assert.Equal(t, sc.later.ID(), r.Session.CurrentStateID)
	assert.Contains(t, r.Response, "Next Friday 9 AM")

	r, err = engine.HandleTurn(ctx, "s", "friday then")
	require.NoError(t, err)
	assert.Equal(t, sc.confirm.ID(), r.Session.CurrentStateID, "both branches converge on one state")
	assert.Equal(t, "friday then", r.Session.Variables["appointment_time"])
}

func TestEngine_DeterministicSelection(t *testing.T) {
	utterances := []string{"I want an appointment", "Monday works", "confirm"}
	run := func() []domain.TurnResult {
		agent := build(t, newScheduling().agent)
		stub := oracletest.New().
			SetFor(utterances[0], condSchedule, true).
			True(condPicks, condConfirms)
		engine := newEngine(t, agent, stub)
		var out []domain.TurnResult
		for _, u := range utterances {
			r, err := engine.HandleTurn(context.Background(), "same", u)
			require.NoError(t, err)
			out = append(out, r)
		}
		return out
	}

	first, second := run(), run()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("identical inputs diverged (-first +second):\n%s", diff)
	}
}

func TestEngine_FirstTrueConditionWinsInDeclarationOrder(t *testing.T) {
	a := dsl.CreateAgent("Clinic", "")
	j := a.CreateJourney("Triage", "", "start")
	first := j.InitialState().TransitionToChat("First branch", dsl.When("A"))
	second := j.InitialState().TransitionToChat("Second branch", dsl.When("B"))
	fallback := j.InitialState().TransitionToChat("Fallback branch")
	for _, tr := range []*dsl.TransitionRef{first, second, fallback} {
		tr.Target.TransitionToEnd(dsl.When("never"))
	}
	agent := build(t, a)

	tests := []struct {
		name  string
		holds []string
		want  domain.StateID
	}{
		{"both true", []string{"start", "A", "B"}, first.Target.ID()},
		{"second only", []string{"start", "B"}, second.Target.ID()},
		{"none true takes the unconditional", []string{"start"}, fallback.Target.ID()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newEngine(t, agent, oracletest.New().True(tt.holds...))
			r, err := engine.HandleTurn(context.Background(), "s", "go")
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Session.CurrentStateID)
		})
	}
}

func TestEngine_HoldRepeatsPrompt(t *testing.T) {
	sc := newScheduling()
	agent := build(t, sc.agent)
	stub := oracletest.New().SetFor("I want an appointment", condSchedule, true)
	engine := newEngine(t, agent, stub)
	ctx := context.Background()

	_, err := engine.HandleTurn(ctx, "s", "I want an appointment")
	require.NoError(t, err)

	r, err := engine.HandleTurn(ctx, "s", "hmm, let me think")
	require.NoError(t, err)
	assert.Equal(t, sc.list.ID(), r.Session.CurrentStateID)
	assert.Contains(t, r.Response, "List available times")
	assert.Contains(t, r.Response, "Monday 10 AM", "committed slots are shown again")
	assert.Empty(t, r.SideEffects)
}

func TestEngine_FallbackOutsideJourney(t *testing.T) {
	agent := build(t, newScheduling().agent)
	engine := newEngine(t, agent, oracletest.New(), runtime.WithFallback("Hello! What can I do for you?"))

	r, err := engine.HandleTurn(context.Background(), "s", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello! What can I do for you?", r.Response)
	assert.False(t, r.Session.InJourney())
}

func TestEngine_SanitizesUtterance(t *testing.T) {
	agent := build(t, newScheduling().agent)
	engine := newEngine(t, agent, oracletest.New(), runtime.WithMaxUtteranceSize(8))

	_, err := engine.HandleTurn(context.Background(), "s", "this is far too long")
	assert.ErrorIs(t, err, domain.ErrUtteranceTooLarge)

	_, err = engine.HandleTurn(context.Background(), "s", "\xff")
	assert.ErrorIs(t, err, domain.ErrInvalidUTF8)
}

func TestEngine_ParallelSessions(t *testing.T) {
	agent := build(t, newScheduling().agent)
	stub := oracletest.New().
		SetFor("I want an appointment", condSchedule, true).
		True(condPicks, condConfirms)
	engine := newEngine(t, agent, stub)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", i)
			for _, u := range []string{"I want an appointment", "Monday works", "confirm"} {
				_, err := engine.HandleTurn(context.Background(), id, u)
				assert.NoError(t, err)
			}
			s, err := engine.Session(context.Background(), id)
			assert.NoError(t, err)
			assert.False(t, s.InJourney())
			assert.Equal(t, 3, s.Turns)
		}()
	}
	wg.Wait()
}

func TestEngine_Reset(t *testing.T) {
	agent := build(t, newScheduling().agent)
	stub := oracletest.New().SetFor("I want an appointment", condSchedule, true)
	engine := newEngine(t, agent, stub)
	ctx := context.Background()

	_, err := engine.HandleTurn(ctx, "s", "I want an appointment")
	require.NoError(t, err)
	require.NoError(t, engine.Reset(ctx, "s"))

	_, err = engine.Session(ctx, "s")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestNewEngine_RequiresAgentAndOracle(t *testing.T) {
	_, err := runtime.NewEngine(nil, oracletest.New())
	assert.Error(t, err)

	agent := build(t, newScheduling().agent)
	_, err = runtime.NewEngine(agent, nil)
	assert.Error(t, err)
}
