package runtime

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/glossary"
	"github.com/aretw0/concierge/pkg/ports"
)

func composeRequest(agent *domain.Agent, instructions []string, terms []domain.Term, results []domain.ToolResult, history []domain.Message, utterance string) ports.ComposeRequest {
	return ports.ComposeRequest{
		Agent:        agent.Name,
		Instructions: append([]string(nil), instructions...),
		Terms:        terms,
		ToolResults:  append([]domain.ToolResult(nil), results...),
		History:      history,
		Utterance:    utterance,
	}
}

// TemplateComposer renders a response without a model: the instructions, the payloads
// of successful tool calls and the description of every term an instruction mentions,
// one per line. The output is deterministic.
type TemplateComposer struct{}

// Compose implements ports.Composer.
func (TemplateComposer) Compose(ctx context.Context, req ports.ComposeRequest) (string, error) {
	var lines []string
	for _, in := range req.Instructions {
		if in = strings.TrimSpace(in); in != "" {
			lines = append(lines, in)
		}
	}
	for _, r := range req.ToolResults {
		if r.Failed() {
			continue
		}
		if text := RenderPayload(r.Payload); text != "" {
			lines = append(lines, text)
		}
	}
	for _, term := range glossary.Relevant(req.Terms, req.Instructions...) {
		lines = append(lines, fmt.Sprintf("%s: %s", term.Name, term.Description))
	}
	return strings.Join(lines, "\n"), nil
}

// RenderPayload formats a tool payload as text. A single entry renders as its value,
// several entries as sorted "key: value" lines.
func RenderPayload(payload map[string]any) string {
	if len(payload) == 0 {
		return ""
	}
	keys := slices.Sorted(maps.Keys(payload))
	if len(keys) == 1 {
		return formatValue(payload[keys[0]])
	}
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, formatValue(payload[k])))
	}
	return strings.Join(lines, "\n")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := slices.Sorted(maps.Keys(x))
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(x[k])))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(x)
	}
}
