package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/concierge/internal/runtime"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/dsl"
	"github.com/aretw0/concierge/pkg/oracle"
	"github.com/aretw0/concierge/pkg/oracle/oracletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	condReschedule = "The patient wants to move an existing appointment"
	condMentions   = "The patient mentions an appointment"
)

type twoJourneys struct {
	agent      *dsl.AgentBuilder
	schedule   *dsl.JourneyBuilder
	reschedule *dsl.JourneyBuilder
}

func newTwoJourneys() *twoJourneys {
	a := dsl.CreateAgent("Clinic", "")
	sched := a.CreateJourney("Schedule an Appointment", "Book a new visit", condSchedule)
	sched.InitialState().TransitionToChat("Ask for the reason of the visit").Target.TransitionToEnd(dsl.When("done"))
	resched := a.CreateJourney("Reschedule an Appointment", "Move a booked visit", condReschedule)
	resched.InitialState().TransitionToChat("Ask which appointment to move").Target.TransitionToEnd(dsl.When("done"))
	a.CreateObservation(condMentions).Disambiguate(sched, resched)
	return &twoJourneys{agent: a, schedule: sched, reschedule: resched}
}

func TestDisambiguation_UnresolvedAsksAndLeavesSession(t *testing.T) {
	tj := newTwoJourneys()
	agent := build(t, tj.agent)
	stub := oracletest.New().True(condMentions)
	engine := newEngine(t, agent, stub)

	r, err := engine.HandleTurn(context.Background(), "s", "it's about my appointment")
	require.NoError(t, err)
	assert.Equal(t,
		runtime.ClarifyingQuestion([]string{"Schedule an Appointment", "Reschedule an Appointment"}),
		r.Response)
	require.Len(t, r.SideEffects, 1)
	assert.Equal(t, domain.EffectClarification, r.SideEffects[0].Type)
	assert.Equal(t, []string{tj.schedule.ID(), tj.reschedule.ID()}, r.SideEffects[0].Candidates)
	assert.False(t, r.Session.InJourney())
	assert.Equal(t, domain.NoState, r.Session.CurrentStateID)

	reqs := stub.RankRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, condMentions, reqs[0].Observation)
	assert.Len(t, reqs[0].Candidates, 2)
}

func TestDisambiguation_RankedWinnerIsEntered(t *testing.T) {
	tj := newTwoJourneys()
	agent := build(t, tj.agent)
	stub := oracletest.New().
		True(condMentions).
		RankAs("", oracle.Ranking{Order: []string{tj.reschedule.ID(), tj.schedule.ID()}, Resolved: true})
	engine := newEngine(t, agent, stub)

	r, err := engine.HandleTurn(context.Background(), "s", "it's about my appointment")
	require.NoError(t, err)
	assert.Equal(t, tj.reschedule.ID(), r.Session.ActiveJourneyID)
	assert.Contains(t, r.Response, "Ask which appointment to move")
}

func TestDisambiguation_SinglePlausibleSkipsRanking(t *testing.T) {
	tj := newTwoJourneys()
	agent := build(t, tj.agent)
	stub := oracletest.New().True(condMentions, condSchedule)
	engine := newEngine(t, agent, stub)

	r, err := engine.HandleTurn(context.Background(), "s", "I'd like to book an appointment")
	require.NoError(t, err)
	assert.Equal(t, tj.schedule.ID(), r.Session.ActiveJourneyID)
	assert.Empty(t, stub.RankRequests())
}

type failingRanker struct{}

func (failingRanker) Rank(ctx context.Context, req oracle.RankRequest) (oracle.Ranking, error) {
	return oracle.Ranking{}, errors.New("ranking backend down")
}

func TestDisambiguation_RankerErrorAsks(t *testing.T) {
	tj := newTwoJourneys()
	agent := build(t, tj.agent)
	engine := newEngine(t, agent, oracletest.New().True(condMentions), runtime.WithRanker(failingRanker{}))

	r, err := engine.HandleTurn(context.Background(), "s", "my appointment")
	require.NoError(t, err)
	assert.True(t, r.Has(domain.EffectClarification))
	assert.False(t, r.Session.InJourney())
}

func TestDisambiguation_ClarificationThenChoice(t *testing.T) {
	tj := newTwoJourneys()
	agent := build(t, tj.agent)
	stub := oracletest.New().
		SetFor("about my appointment", condMentions, true).
		SetFor("move it please", condReschedule, true)
	engine := newEngine(t, agent, stub)
	ctx := context.Background()

	_, err := engine.HandleTurn(ctx, "s", "about my appointment")
	require.NoError(t, err)
	r, err := engine.HandleTurn(ctx, "s", "move it please")
	require.NoError(t, err)
	assert.Equal(t, tj.reschedule.ID(), r.Session.ActiveJourneyID)
}

func TestEntry_AnotherJourneyTakesOver(t *testing.T) {
	sc := newScheduling()
	lab := sc.agent.CreateJourney("Lab Results", "Retrieve lab results", "The patient asks about lab results")
	lab.InitialState().
		TransitionToChat("Tell the patient their results are ready", dsl.When("The results are ready")).
		Target.TransitionToEnd()
	agent := build(t, sc.agent)
	stub := oracletest.New().
		SetFor("I want an appointment", condSchedule, true).
		SetFor("actually, are my lab results in?", "The patient asks about lab results", true)
	engine := newEngine(t, agent, stub)
	ctx := context.Background()

	_, err := engine.HandleTurn(ctx, "s", "I want an appointment")
	require.NoError(t, err)
	r, err := engine.HandleTurn(ctx, "s", "actually, are my lab results in?")
	require.NoError(t, err)
	assert.Equal(t, lab.ID(), r.Session.ActiveJourneyID)
	assert.Equal(t, lab.InitialState().ID(), r.Session.CurrentStateID)
	assert.True(t, r.Has(domain.EffectJourneyEntered))
	assert.Empty(t, r.Session.ToolResults, "results of the left journey are dropped")
}

func TestEntry_ActiveJourneyConditionsNotReevaluated(t *testing.T) {
	sc := newScheduling()
	agent := build(t, sc.agent)
	stub := oracletest.New().True(condSchedule)
	engine := newEngine(t, agent, stub)
	ctx := context.Background()

	r, err := engine.HandleTurn(ctx, "s", "I want an appointment")
	require.NoError(t, err)
	require.True(t, r.Has(domain.EffectJourneyEntered))

	r, err = engine.HandleTurn(ctx, "s", "I still want an appointment")
	require.NoError(t, err)
	assert.False(t, r.Has(domain.EffectJourneyEntered), "an active journey is not re-entered")
	assert.Equal(t, sc.list.ID(), r.Session.CurrentStateID)
}
