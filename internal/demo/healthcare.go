// Package demo holds the healthcare reference agent served by the CLI when no agent
// file is given.
package demo

import (
	"context"
	"strings"
	"unicode"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/dsl"
	"github.com/aretw0/concierge/pkg/registry"
	"github.com/aretw0/concierge/pkg/schema"
)

// Conditions shared by the journeys and the tests that script an oracle.
const (
	WantsAppointment = "The patient wants to schedule an appointment"
	PicksTime        = "The patient picks a time"
	ConfirmsDetails  = "The patient confirms the details"
	NoTimeWorks      = "None of those times work for the patient"
	NoLaterTimeWorks = "None of those times work for the patient either"
	VisitIsUrgent    = "The patient says their visit is urgent"

	WantsLabResults = "The patient wants to see their lab results"
	ResultsMissing  = "The lab results could not be found"
	ResultsGood     = "The lab results are good - i.e., nothing to worry about"
	ResultsBad      = "The lab results are not good - i.e., there's an issue with the patient's health"
	PressesResults  = "The patient presses you for more conclusions about the lab results"

	FollowUp      = "The patient asks to follow up on their visit, but it's not clear in which way"
	AsksInsurance = "The patient asks about insurance"
	AsksHuman     = "The patient asks to talk to a human agent"
	OffTopic      = "The patient inquires about something that has nothing to do with our healthcare"
)

// Slots offered by the simulated calendar.
var (
	UpcomingSlots = []string{"Monday 10 AM", "Tuesday 2 PM", "Wednesday 1 PM"}
	LaterSlots    = []string{"November 3, 11:30 AM", "November 12, 3 PM"}
)

type appointment struct {
	Time string `mapstructure:"appointment_time"`
}

// Tools returns the simulated backends of the healthcare agent.
func Tools() []domain.Tool {
	return []domain.Tool{
		registry.Func("get_insurance_providers", static(map[string]any{
			"providers": []any{"Mega Insurance", "Acme Insurance"},
		})),
		registry.Func("get_upcoming_slots", static(map[string]any{
			"slots": anySlice(UpcomingSlots),
		})),
		registry.Func("get_later_slots", static(map[string]any{
			"slots": anySlice(LaterSlots),
		})),
		registry.Validated(
			registry.Typed("schedule_appointment", func(ctx context.Context, tc domain.ToolContext, p appointment) (domain.ToolResult, error) {
				return domain.ToolResult{Payload: map[string]any{
					"confirmation": "Appointment scheduled for " + PickSlot(p.Time),
				}}, nil
			}),
			schema.Schema{"appointment_time": schema.String()},
		),
		registry.Func("get_lab_results", static(map[string]any{
			"report":    "All tests are within the valid range",
			"prognosis": "Patient is healthy as a horse!",
		})),
	}
}

// PickSlot returns the offered slot the patient named in text, or text itself when
// no single slot shares more words with it than the others.
func PickSlot(text string) string {
	said := make(map[string]bool)
	for _, w := range words(text) {
		said[w] = true
	}
	best, score, tie := "", 0, false
	for _, slot := range append(append([]string{}, UpcomingSlots...), LaterSlots...) {
		n := 0
		for _, w := range words(slot) {
			if said[w] {
				n++
			}
		}
		switch {
		case n > score:
			best, score, tie = slot, n, false
		case n == score && n > 0:
			tie = true
		}
	}
	if score == 0 || tie {
		return strings.TrimSpace(text)
	}
	return best
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ':'
	})
}

func anySlice(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func static(payload map[string]any) registry.ToolFunction {
	return func(ctx context.Context, tc domain.ToolContext, params map[string]any) (domain.ToolResult, error) {
		return domain.ToolResult{Payload: payload}, nil
	}
}

// Healthcare declares the agent. tools replace the simulated backends by name.
func Healthcare(tools ...domain.Tool) *dsl.AgentBuilder {
	a := dsl.CreateAgent("Healthcare Agent", "Is empathetic and calming to the patient.",
		dsl.WithTools(merge(Tools(), tools)...))

	a.CreateTerm("Office Phone Number", "The phone number of our office, at +1-234-567-8900")
	a.CreateTerm("Office Hours", "Office hours are Monday to Friday, 9 AM to 5 PM")
	a.CreateTerm("Charles Xavier",
		"The doctor who specializes in neurology and is available on Mondays and Tuesdays.",
		"Professor X")

	scheduling := schedulingJourney(a)
	labs := labResultsJourney(a)

	a.CreateObservation(FollowUp).Disambiguate(scheduling, labs)

	a.CreateGuideline(AsksInsurance,
		"List the insurance providers we accept, and tell them to call the office for more details",
		dsl.UseToolNames("get_insurance_providers"))
	a.CreateGuideline(AsksHuman, "Provide the Office Phone Number term")
	a.CreateGuideline(OffTopic,
		"Kindly tell them you cannot assist with off-topic inquiries - do not engage with their request.")
	return a
}

// Build builds the healthcare agent with its simulated backends.
func Build() (*domain.Agent, error) {
	return Healthcare().Build()
}

func schedulingJourney(a *dsl.AgentBuilder) *dsl.JourneyBuilder {
	j := a.CreateJourney("Schedule an Appointment",
		"Helps the patient find a time for their appointment.", WantsAppointment)

	reason := j.InitialState().TransitionToChat("Determine the reason for the visit", dsl.Named("reason")).Target
	slots := reason.TransitionToToolName("get_upcoming_slots", dsl.Named("slots")).Target
	list := slots.TransitionToChat("List available times and ask which ones works for them", dsl.Named("list")).Target

	confirm := list.TransitionToChat("Confirm the details with the patient before scheduling",
		dsl.When(PicksTime), dsl.SaveTo("appointment_time"), dsl.Named("confirm")).Target
	booked := confirm.TransitionToToolName("schedule_appointment",
		dsl.When(ConfirmsDetails),
		dsl.WithParams(map[string]any{"appointment_time": "{{ appointment_time }}"}),
		dsl.Named("schedule")).Target
	done := booked.TransitionToChat("Confirm the appointment has been scheduled", dsl.Named("confirmed")).Target
	done.TransitionToEnd()

	later := list.TransitionToToolName("get_later_slots", dsl.When(NoTimeWorks), dsl.Named("later_slots")).Target
	laterList := later.TransitionToChat("List later times and ask if any of them works", dsl.Named("later_list")).Target
	laterList.TransitionToState(confirm, dsl.When(PicksTime))
	call := laterList.TransitionToChat("Ask the patient to call the office to schedule an appointment",
		dsl.When(NoLaterTimeWorks), dsl.Named("call_office")).Target
	call.TransitionToEnd()

	j.CreateGuideline(VisitIsUrgent, "Tell them to call the office immediately")
	return j
}

func labResultsJourney(a *dsl.AgentBuilder) *dsl.JourneyBuilder {
	j := a.CreateJourney("Lab Results",
		"Retrieves the patient's lab results and explains them.", WantsLabResults)

	results := j.InitialState().TransitionToToolName("get_lab_results", dsl.Named("results")).Target
	results.TransitionToChat("Tell the patient that the results are not available yet, and to try again later",
		dsl.When(ResultsMissing), dsl.Named("missing")).Target.TransitionToEnd()
	results.TransitionToChat("Explain the lab results to the patient - that they are normal",
		dsl.When(ResultsGood), dsl.Named("normal")).Target.TransitionToEnd()
	results.TransitionToChat("Present the results and ask them to call the office for clarifications on the results as you are not a doctor",
		dsl.When(ResultsBad), dsl.Named("issue")).Target.TransitionToEnd()

	a.CreateGuideline(PressesResults,
		"Assertively tell them that you cannot help and they should call the office")
	return j
}

// merge returns base with the tools of override replacing those of the same name.
func merge(base, override []domain.Tool) []domain.Tool {
	byName := make(map[string]domain.Tool, len(override))
	for _, t := range override {
		byName[t.Name()] = t
	}
	out := make([]domain.Tool, 0, len(base)+len(override))
	for _, t := range base {
		if o, ok := byName[t.Name()]; ok {
			out = append(out, o)
			delete(byName, t.Name())
			continue
		}
		out = append(out, t)
	}
	for _, t := range override {
		if _, ok := byName[t.Name()]; ok {
			out = append(out, t)
		}
	}
	return out
}
