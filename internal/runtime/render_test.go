package runtime

import (
	"context"
	"testing"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPayload(t *testing.T) {
	assert.Equal(t, "", RenderPayload(nil))
	assert.Equal(t, "Monday, Tuesday", RenderPayload(map[string]any{"slots": []string{"Monday", "Tuesday"}}))
	assert.Equal(t, "a, 2", RenderPayload(map[string]any{"v": []any{"a", 2}}))
	assert.Equal(t, "count: 2\nstatus: ready", RenderPayload(map[string]any{"status": "ready", "count": 2}))
	assert.Equal(t, "glucose=90 hdl=55", RenderPayload(map[string]any{"r": map[string]any{"hdl": 55, "glucose": 90}}))
}

func TestTemplateComposer(t *testing.T) {
	terms := []domain.Term{
		{Name: "Office Phone", Description: "+1-234-567-8900"},
		{Name: "Office Hours", Description: "Monday to Friday, 9 AM to 5 PM"},
	}
	req := ports.ComposeRequest{
		Instructions: []string{"Give the patient the office phone", "  "},
		Terms:        terms,
		ToolResults: []domain.ToolResult{
			{Tool: "ok", Payload: map[string]any{"note": "Bring your insurance card"}},
			domain.ErrorResult("broken", "timeout"),
		},
	}

	got, err := TemplateComposer{}.Compose(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Give the patient the office phone\nBring your insurance card\nOffice Phone: +1-234-567-8900", got)
}

func TestClarifyingQuestion(t *testing.T) {
	assert.Equal(t, "Could you tell me a bit more about what you need?", ClarifyingQuestion(nil))
	assert.Equal(t, "Just to make sure I help with the right thing: is this about Lab Results?", ClarifyingQuestion([]string{"Lab Results"}))
	assert.Equal(t,
		"Just to make sure I help with the right thing: is this about A, B or C?",
		ClarifyingQuestion([]string{"A", "B", "C"}))
}
