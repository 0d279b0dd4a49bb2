package runtime_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/concierge/internal/runtime"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/dsl"
	"github.com/aretw0/concierge/pkg/oracle"
	"github.com/aretw0/concierge/pkg/registry"
	"github.com/stretchr/testify/require"
)

const (
	condSchedule = "The patient wants to schedule an appointment"
	condPicks    = "The patient picks a time"
	condConfirms = "The patient confirms the details"
	condNoneWork = "None of those times work for the patient"
)

func build(t *testing.T, a *dsl.AgentBuilder) *domain.Agent {
	t.Helper()
	agent, err := a.Build()
	require.NoError(t, err)
	return agent
}

func newEngine(t *testing.T, agent *domain.Agent, o oracle.ConditionOracle, opts ...runtime.Option) *runtime.Engine {
	t.Helper()
	e, err := runtime.NewEngine(agent, o, opts...)
	require.NoError(t, err)
	return e
}

func payloadTool(name string, payload map[string]any) domain.Tool {
	return registry.Func(name, func(ctx context.Context, tc domain.ToolContext, params map[string]any) (domain.ToolResult, error) {
		return domain.ToolResult{Payload: payload}, nil
	})
}

func failingTool(name string) domain.Tool {
	return registry.Func(name, func(ctx context.Context, tc domain.ToolContext, params map[string]any) (domain.ToolResult, error) {
		return domain.ToolResult{}, fmt.Errorf("%s backend unavailable", name)
	})
}

// scheduling declares determine-reason → load-slots → list-slots → confirm → schedule
// → confirmed → END, with a later-slots branch converging on confirm.
type scheduling struct {
	agent   *dsl.AgentBuilder
	journey *dsl.JourneyBuilder
	list    *dsl.StateRef
	later   *dsl.StateRef
	confirm *dsl.StateRef
}

func newScheduling() *scheduling {
	slots := payloadTool("get_upcoming_slots", map[string]any{"slots": []string{"Monday 10 AM", "Tuesday 2 PM"}})
	laterSlots := payloadTool("get_later_slots", map[string]any{"slots": []string{"Next Friday 9 AM"}})
	schedule := registry.Func("schedule_appointment", func(ctx context.Context, tc domain.ToolContext, params map[string]any) (domain.ToolResult, error) {
		return domain.ToolResult{Payload: map[string]any{
			"confirmation": fmt.Sprintf("Appointment scheduled for %v", params["appointment_time"]),
		}}, nil
	})

	a := dsl.CreateAgent("Clinic", "Patient assistant")
	j := a.CreateJourney("Schedule an Appointment", "Helps the patient find a time", condSchedule)

	reason := j.InitialState().TransitionToChat("Determine the reason for the visit")
	load := reason.Target.TransitionToTool(slots)
	list := load.Target.TransitionToChat("List available times and ask which one works")
	confirm := list.Target.TransitionToChat("Confirm the details with the patient",
		dsl.When(condPicks), dsl.SaveTo("appointment_time"))
	sched := confirm.Target.TransitionToTool(schedule,
		dsl.When(condConfirms),
		dsl.WithParams(map[string]any{"appointment_time": "{{ appointment_time }}"}))
	done := sched.Target.TransitionToChat("Confirm the appointment has been scheduled")
	done.Target.TransitionToEnd()

	later := list.Target.TransitionToTool(laterSlots, dsl.When(condNoneWork))
	laterList := later.Target.TransitionToChat("List the later times and ask which one works")
	laterList.Target.TransitionToState(confirm.Target, dsl.When(condPicks))

	return &scheduling{agent: a, journey: j, list: list.Target, later: laterList.Target, confirm: confirm.Target}
}
