package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/concierge/pkg/ports"
)

// Composer writes responses with a model. It implements ports.Composer.
type Composer struct {
	gen Generator
}

// NewComposer creates a composer on gen.
func NewComposer(gen Generator) *Composer {
	return &Composer{gen: gen}
}

// Compose implements ports.Composer.
func (c *Composer) Compose(ctx context.Context, req ports.ComposeRequest) (string, error) {
	var b strings.Builder
	b.WriteString("Instructions:\n")
	for i, in := range req.Instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, in)
	}
	writeResults(&b, req.ToolResults)
	writeTerms(&b, req.Terms)
	writeHistory(&b, req.History)
	fmt.Fprintf(&b, "Latest user message: %s\n", req.Utterance)

	text, err := c.gen.Generate(ctx, fmt.Sprintf(composeSystem, req.Agent), b.String(), false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
