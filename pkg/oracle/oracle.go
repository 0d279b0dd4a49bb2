// Package oracle defines the contract of the natural-language condition evaluator.
//
// The engine never interprets conditions itself: every boolean judgment and every
// journey ranking is delegated to implementations of these interfaces, which keeps
// the model's non-determinism out of the runtime and lets tests inject a scripted fake.
package oracle

import (
	"context"

	"github.com/aretw0/concierge/pkg/domain"
)

// Context is what the oracle sees when judging a condition.
type Context struct {
	SessionID    string              `json:"session_id"`
	Utterance    string              `json:"utterance"`
	History      []domain.Message    `json:"history,omitempty"`
	JourneyID    string              `json:"journey_id,omitempty"`
	JourneyTitle string              `json:"journey_title,omitempty"`
	State        string              `json:"state,omitempty"`
	Terms        []domain.Term       `json:"terms,omitempty"`
	ToolResults  []domain.ToolResult `json:"tool_results,omitempty"`
}

// ConditionOracle evaluates a natural-language condition against the dialogue context.
type ConditionOracle interface {
	Evaluate(ctx context.Context, condition string, oc Context) (bool, error)
}

// Func adapts a function into a ConditionOracle.
type Func func(ctx context.Context, condition string, oc Context) (bool, error)

// Evaluate calls f.
func (f Func) Evaluate(ctx context.Context, condition string, oc Context) (bool, error) {
	return f(ctx, condition, oc)
}

// Candidate describes a journey offered to the ranker.
type Candidate struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Conditions  []string `json:"conditions"`
}

// RankRequest asks which candidate an ambiguous utterance belongs to.
type RankRequest struct {
	Observation string      `json:"observation"`
	Candidates  []Candidate `json:"candidates"`
	Context     Context     `json:"context"`
}

// Ranking is the ranker's answer. Order lists candidate IDs, best first.
// Resolved is false when there is no clear winner.
type Ranking struct {
	Order    []string `json:"order"`
	Resolved bool     `json:"resolved"`
}

// Top returns the best candidate of a resolved ranking.
func (r Ranking) Top() (string, bool) {
	if !r.Resolved || len(r.Order) == 0 {
		return "", false
	}
	return r.Order[0], true
}

// Ranker ranks candidate journeys for an ambiguous utterance.
type Ranker interface {
	Rank(ctx context.Context, req RankRequest) (Ranking, error)
}
