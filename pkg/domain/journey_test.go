package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_Render(t *testing.T) {
	vars := map[string]any{"time": "Monday 10 AM"}

	chat := State{ID: 1, Kind: StateChat, Prompt: "Confirm {{ time }} with the patient"}
	d := chat.Render(vars)
	assert.Equal(t, DirectiveSay, d.Kind)
	assert.Equal(t, StateID(1), d.State)
	assert.Equal(t, "Confirm Monday 10 AM with the patient", d.Instruction)

	tool := State{ID: 2, Kind: StateTool, Tool: "schedule", Params: map[string]any{"at": "{{ .time }}", "n": 3}}
	d = tool.Render(vars)
	assert.Equal(t, DirectiveCall, d.Kind)
	assert.Equal(t, "schedule", d.Tool)
	assert.Equal(t, "Monday 10 AM", d.Params["at"])
	assert.Equal(t, 3, d.Params["n"])
	assert.Equal(t, "{{ .time }}", tool.Params["at"], "render must not mutate the state")

	end := State{ID: 3, Kind: StateEnd}
	assert.Equal(t, DirectiveEnd, end.Render(nil).Kind)
}

func TestInterpolate_UnknownVariable(t *testing.T) {
	assert.Equal(t, "Hi {{ who }}", Interpolate("Hi {{ who }}", map[string]any{"other": 1}))
	assert.Equal(t, "plain", Interpolate("plain", nil))
}

func TestJourney_Outgoing(t *testing.T) {
	j := &Journey{
		States: []State{{ID: 0}, {ID: 1}, {ID: 2}},
		Transitions: []Transition{
			{Source: 0, Target: 2, Condition: "b", Order: 1},
			{Source: 1, Target: 2, Order: 0},
			{Source: 0, Target: 1, Condition: "a", Order: 0},
		},
	}

	out := j.Outgoing(0)
	if assert.Len(t, out, 2) {
		assert.Equal(t, "a", out[0].Condition)
		assert.Equal(t, "b", out[1].Condition)
	}
	assert.Empty(t, j.Outgoing(2))

	_, ok := j.State(5)
	assert.False(t, ok)
}

func TestTerm_Matches(t *testing.T) {
	term := Term{Name: "Charles Xavier", Synonyms: []string{"Professor X"}}
	assert.True(t, term.Matches("Is charles xavier in on Monday?"))
	assert.True(t, term.Matches("I want to see PROFESSOR X"))
	assert.False(t, term.Matches("I want to see a dentist"))
	assert.Equal(t, "charles xavier", term.Key())
}

func TestSession_CloneIsolation(t *testing.T) {
	s := NewSession("s1")
	s.Variables["a"] = 1
	s.History = append(s.History, Message{Role: RoleUser, Text: "hi"})

	c := s.Clone()
	c.Variables["a"] = 2
	c.History = append(c.History, Message{Role: RoleAgent, Text: "hello"})

	assert.Equal(t, 1, s.Variables["a"])
	assert.Len(t, s.History, 1)
	assert.Equal(t, NoState, s.CurrentStateID)
	assert.Len(t, c.RecentHistory(1), 1)
	assert.Equal(t, "hello", c.RecentHistory(1)[0].Text)
}
