package oracle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/oracle"
	"github.com/aretw0/concierge/pkg/oracle/oracletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_TimeoutIsFailOpen(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	// Ignores its context on purpose.
	slow := oracle.Func(func(ctx context.Context, condition string, oc oracle.Context) (bool, error) {
		<-release
		return true, nil
	})
	g := oracle.NewGuard(slow, oracle.WithTimeout(20*time.Millisecond))

	start := time.Now()
	ok, err := g.Evaluate(context.Background(), "anything", oracle.Context{})
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrOracleTimeout)
	assert.Less(t, time.Since(start), time.Second)

	assert.False(t, g.Check(context.Background(), "anything", oracle.Context{}))
}

func TestGuard_ErrorIsFalse(t *testing.T) {
	failing := oracle.Func(func(ctx context.Context, condition string, oc oracle.Context) (bool, error) {
		return true, errors.New("model unavailable")
	})
	g := oracle.NewGuard(failing)
	assert.False(t, g.Check(context.Background(), "anything", oracle.Context{}))
}

func TestGuard_PassesVerdict(t *testing.T) {
	stub := oracletest.New().True("The patient wants to schedule")
	g := oracle.NewGuard(stub)

	assert.True(t, g.Check(context.Background(), "the patient wants to schedule", oracle.Context{Utterance: "hi"}))
	assert.False(t, g.Check(context.Background(), "something else", oracle.Context{}))
	assert.True(t, stub.Evaluated("The patient wants to schedule"))
}

func TestGuard_RankFiltersUnknownCandidates(t *testing.T) {
	stub := oracletest.New().RankAs("", oracle.Ranking{Order: []string{"ghost", "lab"}, Resolved: true})
	g := oracle.NewGuard(stub)

	r, err := g.Rank(context.Background(), oracle.RankRequest{
		Candidates: []oracle.Candidate{{ID: "schedule"}, {ID: "lab"}},
	})
	require.NoError(t, err)
	top, ok := r.Top()
	assert.True(t, ok)
	assert.Equal(t, "lab", top)
}

func TestGuard_RankOnlyUnknownIsUnresolved(t *testing.T) {
	stub := oracletest.New().RankAs("", oracle.Ranking{Order: []string{"ghost"}, Resolved: true})
	g := oracle.NewGuard(stub)

	r, err := g.Rank(context.Background(), oracle.RankRequest{
		Candidates: []oracle.Candidate{{ID: "schedule"}},
	})
	require.NoError(t, err)
	_, ok := r.Top()
	assert.False(t, ok)
}

func TestGuard_RankWithoutRanker(t *testing.T) {
	plain := oracle.Func(func(ctx context.Context, condition string, oc oracle.Context) (bool, error) {
		return false, nil
	})
	_, err := oracle.NewGuard(plain).Rank(context.Background(), oracle.RankRequest{})
	assert.ErrorIs(t, err, domain.ErrAmbiguityUnresolved)
}

func TestLexical_Evaluate(t *testing.T) {
	l := oracle.Lexical{}
	ctx := context.Background()

	tests := []struct {
		condition string
		utterance string
		want      bool
	}{
		{"The patient wants to schedule an appointment", "I want to schedule an appointment", true},
		{"The patient asks about lab results", "can I see my lab results?", true},
		{"The patient asks about lab results", "book me a slot", false},
		{"None of those times work", "none of those times work for me", true},
	}
	for _, tt := range tests {
		t.Run(tt.condition+"/"+tt.utterance, func(t *testing.T) {
			got, err := l.Evaluate(ctx, tt.condition, oracle.Context{Utterance: tt.utterance})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLexical_Rank(t *testing.T) {
	l := oracle.Lexical{}
	r, err := l.Rank(context.Background(), oracle.RankRequest{
		Candidates: []oracle.Candidate{
			{ID: "schedule", Title: "Schedule appointment", Conditions: []string{"wants an appointment"}},
			{ID: "lab", Title: "Lab results", Conditions: []string{"asks about lab results"}},
		},
		Context: oracle.Context{Utterance: "what about my lab results"},
	})
	require.NoError(t, err)
	top, ok := r.Top()
	require.True(t, ok)
	assert.Equal(t, "lab", top)
}

func TestLexical_RankTieIsUnresolved(t *testing.T) {
	l := oracle.Lexical{}
	r, err := l.Rank(context.Background(), oracle.RankRequest{
		Candidates: []oracle.Candidate{{ID: "a", Title: "alpha"}, {ID: "b", Title: "beta"}},
		Context:    oracle.Context{Utterance: "gamma"},
	})
	require.NoError(t, err)
	_, ok := r.Top()
	assert.False(t, ok)
}
