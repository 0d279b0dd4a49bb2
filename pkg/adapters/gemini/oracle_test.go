package gemini_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/concierge/pkg/adapters/gemini"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/oracle"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	answer string
	err    error

	system, prompt string
	json           bool
}

func (f *fakeGenerator) Generate(ctx context.Context, system, prompt string, json bool) (string, error) {
	f.system, f.prompt, f.json = system, prompt, json
	return f.answer, f.err
}

func TestOracle_Evaluate(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		want    bool
		wantErr bool
	}{
		{"holds", `{"holds": true}`, true, false},
		{"does not hold", `{"holds": false}`, false, false},
		{"fenced", "```json\n{\"holds\": true}\n```", true, false},
		{"missing verdict", `{"answer": "yes"}`, false, true},
		{"not json", "yes", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{answer: tt.answer}
			got, err := gemini.NewOracle(gen).Evaluate(context.Background(), "The patient picks a time", oracle.Context{
				Utterance:    "Monday works",
				JourneyTitle: "Schedule an Appointment",
				Terms:        []domain.Term{{Name: "Office Hours", Description: "9 to 5"}},
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, gen.json)
			assert.Contains(t, gen.prompt, "Condition: The patient picks a time")
			assert.Contains(t, gen.prompt, "Latest user message: Monday works")
			assert.Contains(t, gen.prompt, "- Office Hours: 9 to 5")
		})
	}
}

func TestOracle_GeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	_, err := gemini.NewOracle(gen).Evaluate(context.Background(), "c", oracle.Context{})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestOracle_Rank(t *testing.T) {
	gen := &fakeGenerator{answer: `{"order": ["lab-results", "schedule"], "resolved": true}`}
	r, err := gemini.NewOracle(gen).Rank(context.Background(), oracle.RankRequest{
		Observation: "The patient mentions a follow-up",
		Candidates: []oracle.Candidate{
			{ID: "schedule", Title: "Schedule an Appointment"},
			{ID: "lab-results", Title: "Lab Results"},
		},
		Context: oracle.Context{Utterance: "I need a follow-up"},
	})
	require.NoError(t, err)
	top, ok := r.Top()
	require.True(t, ok)
	assert.Equal(t, "lab-results", top)
	assert.Contains(t, gen.prompt, "id=schedule")
	assert.Contains(t, gen.prompt, "Observation: The patient mentions a follow-up")
}

func TestComposer(t *testing.T) {
	gen := &fakeGenerator{answer: "  Our office hours are 9 to 5.  "}
	text, err := gemini.NewComposer(gen).Compose(context.Background(), ports.ComposeRequest{
		Agent:        "Clinic",
		Instructions: []string{"Tell the patient the office hours"},
		Terms:        []domain.Term{{Name: "Office Hours", Description: "9 to 5"}},
		Utterance:    "when are you open?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Our office hours are 9 to 5.", text)
	assert.False(t, gen.json)
	assert.Contains(t, gen.system, "You are Clinic")
	assert.Contains(t, gen.prompt, "1. Tell the patient the office hours")
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := gemini.NewClient(context.Background(), "", "")
	assert.Error(t, err)
}
