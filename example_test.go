package concierge_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/dsl"
	"github.com/aretw0/concierge/pkg/oracle/oracletest"
)

// ExampleNew shows a journey built in Go driven by a scripted oracle.
func ExampleNew() {
	a := dsl.CreateAgent("Clinic", "Books visits.")
	j := a.CreateJourney("Book a Visit", "Collects the reason for a visit.", "The patient wants a visit")
	reason := j.InitialState().TransitionToChat("What is the reason for your visit?").Target
	thanks := reason.TransitionToChat("Thanks, we will call you back.", dsl.When("The patient gives a reason")).Target
	thanks.TransitionToEnd()

	agent, err := a.Build()
	if err != nil {
		log.Fatal(err)
	}

	stub := oracletest.New().
		SetFor("I need to see a doctor", "The patient wants a visit", true).
		True("The patient gives a reason")

	eng, err := concierge.New(agent, stub)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for _, utterance := range []string{"I need to see a doctor", "My back hurts"} {
		res, err := eng.HandleTurn(ctx, "session-1", utterance)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Response)
		if res.Has(domain.EffectJourneyEnded) {
			fmt.Println("journey ended")
		}
	}
	// Output:
	// What is the reason for your visit?
	// Thanks, we will call you back.
	// journey ended
}
