package runtime_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/concierge/internal/runtime"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/oracle/oracletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			r.add("turn %s", e.Utterance)
		},
		OnJourneyEnter: func(ctx context.Context, e *domain.JourneyEvent) {
			r.add("enter journey")
		},
		OnJourneyEnd: func(ctx context.Context, e *domain.JourneyEvent) {
			r.add("end journey")
		},
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			r.add("enter %s %d", e.Kind, e.StateID)
		},
		OnStateLeave: func(ctx context.Context, e *domain.StateEvent) {
			r.add("leave %s %d", e.Kind, e.StateID)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			r.add("call %s", e.ToolName)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			r.add("return %s error=%t", e.ToolName, e.IsError)
		},
		OnGuideline: func(ctx context.Context, e *domain.GuidelineEvent) {
			r.add("guideline %s", e.GuidelineID)
		},
	}
}

func TestHooks_TurnEventsInOrder(t *testing.T) {
	sc := newScheduling()
	agent := build(t, sc.agent)
	rec := &recorder{}
	engine := newEngine(t, agent, oracletest.New().True(condSchedule), runtime.WithLifecycleHooks(rec.hooks()))

	_, err := engine.HandleTurn(context.Background(), "s", "I want an appointment")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"turn I want an appointment",
		"enter journey",
		"enter chat 0",
		"leave chat 0",
		"enter chat 2",
		"leave chat 2",
		"enter tool 3",
		"call get_upcoming_slots",
		"return get_upcoming_slots error=false",
		"leave tool 3",
		"enter chat 4",
	}, rec.events)
}

func TestHooks_GuidelineEvent(t *testing.T) {
	sc := newScheduling()
	sc.agent.CreateGuideline(condUrgent, "Tell the patient to call 911 immediately")
	agent := build(t, sc.agent)
	rec := &recorder{}
	engine := newEngine(t, agent, oracletest.New().True(condUrgent), runtime.WithLifecycleHooks(rec.hooks()))

	_, err := engine.HandleTurn(context.Background(), "s", "it hurts")
	require.NoError(t, err)
	assert.Equal(t, []string{"turn it hurts", "guideline guideline-1"}, rec.events)
}
