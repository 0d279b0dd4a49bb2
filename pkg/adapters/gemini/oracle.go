package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/concierge/pkg/oracle"
)

// Oracle judges conditions and ranks journeys with a model.
// It implements oracle.ConditionOracle and oracle.Ranker.
type Oracle struct {
	gen Generator
}

// NewOracle creates an oracle on gen.
func NewOracle(gen Generator) *Oracle {
	return &Oracle{gen: gen}
}

// Evaluate implements oracle.ConditionOracle.
func (o *Oracle) Evaluate(ctx context.Context, condition string, oc oracle.Context) (bool, error) {
	text, err := o.gen.Generate(ctx, judgeSystem, judgePrompt(condition, oc), true)
	if err != nil {
		return false, err
	}
	var answer struct {
		Holds *bool `json:"holds"`
	}
	if err := decode(text, &answer); err != nil {
		return false, err
	}
	if answer.Holds == nil {
		return false, fmt.Errorf("gemini: verdict missing in %q", text)
	}
	return *answer.Holds, nil
}

// Rank implements oracle.Ranker.
func (o *Oracle) Rank(ctx context.Context, req oracle.RankRequest) (oracle.Ranking, error) {
	text, err := o.gen.Generate(ctx, rankSystem, rankPrompt(req), true)
	if err != nil {
		return oracle.Ranking{}, err
	}
	var r oracle.Ranking
	if err := decode(text, &r); err != nil {
		return oracle.Ranking{}, err
	}
	return r, nil
}

// decode parses a JSON answer, tolerating a surrounding code fence.
func decode(text string, v any) error {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), v); err != nil {
		return fmt.Errorf("gemini: decode answer: %w", err)
	}
	return nil
}
