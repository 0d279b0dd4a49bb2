/*
Package dsl provides a Go DSL for declaring conversational agents.

An agent is a glossary of terms, a set of tools, a list of journeys (each a directed
state graph), guidelines and observations. The builder collects declarations and
Build validates the whole agent at once: every construction problem is returned as a
*domain.ConfigurationError and a live session never sees a half-defined graph.

Example usage:

	agent := dsl.CreateAgent("Clinic", "Answers patient questions")

	agent.CreateTerm("Office Phone Number", "The phone number of our office is +1-234-567-8900")

	j := agent.CreateJourney("Schedule an Appointment", "Helps the patient find a time",
		"The patient wants to schedule an appointment")

	t0 := j.InitialState().TransitionToChat("Determine the reason for the visit")
	t1 := t0.Target.TransitionToTool(getSlots)
	t2 := t1.Target.TransitionToChat("List available times and ask which one works")
	t3 := t2.Target.TransitionToChat("Confirm the details", dsl.When("The patient picks a time"))
	t3.Target.TransitionToEnd(dsl.When("The patient confirms the details"))

	built, err := agent.Build()
*/
package dsl
