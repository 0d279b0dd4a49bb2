package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/domain"
)

// DefaultTimeout bounds a single oracle call.
const DefaultTimeout = 5 * time.Second

// Guard wraps an oracle so that a call never blocks a session indefinitely.
// Timeouts and errors are fail-open: the condition is treated as false.
type Guard struct {
	oracle  ConditionOracle
	ranker  Ranker
	timeout time.Duration
	logger  *slog.Logger
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithRanker sets the ranker used for disambiguation.
func WithRanker(r Ranker) GuardOption {
	return func(g *Guard) {
		g.ranker = r
	}
}

// WithLogger sets the logger for timeouts and failures.
func WithLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = logger
	}
}

// NewGuard creates a Guard around o. If o also implements Ranker it is used for ranking.
func NewGuard(o ConditionOracle, opts ...GuardOption) *Guard {
	g := &Guard{
		oracle:  o,
		timeout: DefaultTimeout,
		logger:  logging.NewNop(),
	}
	if r, ok := o.(Ranker); ok {
		g.ranker = r
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type verdict struct {
	ok  bool
	err error
}

// Check evaluates the condition and returns false on timeout or error.
func (g *Guard) Check(ctx context.Context, condition string, oc Context) bool {
	ok, err := g.Evaluate(ctx, condition, oc)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, context.Canceled) {
			level = slog.LevelDebug
		}
		g.logger.Log(ctx, level, "condition treated as false",
			"condition", condition,
			"session_id", oc.SessionID,
			"err", err,
		)
		return false
	}
	return ok
}

// Evaluate runs the oracle under the guard's deadline. It returns domain.ErrOracleTimeout
// (wrapped) when the deadline passes, even if the oracle ignores its context.
func (g *Guard) Evaluate(ctx context.Context, condition string, oc Context) (bool, error) {
	if g.oracle == nil {
		return false, errors.New("no oracle configured")
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ch := make(chan verdict, 1)
	go func() {
		ok, err := g.oracle.Evaluate(ctx, condition, oc)
		ch <- verdict{ok: ok, err: err}
	}()

	select {
	case v := <-ch:
		if v.err != nil && errors.Is(v.err, context.DeadlineExceeded) {
			return false, fmt.Errorf("%w: %q", domain.ErrOracleTimeout, condition)
		}
		return v.ok, v.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return false, fmt.Errorf("%w: %q", domain.ErrOracleTimeout, condition)
		}
		return false, ctx.Err()
	}
}

// Rank asks the ranker under the guard's deadline. Any failure yields an unresolved ranking.
func (g *Guard) Rank(ctx context.Context, req RankRequest) (Ranking, error) {
	if g.ranker == nil {
		return Ranking{}, fmt.Errorf("%w: no ranker configured", domain.ErrAmbiguityUnresolved)
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type answer struct {
		r   Ranking
		err error
	}
	ch := make(chan answer, 1)
	go func() {
		r, err := g.ranker.Rank(ctx, req)
		ch <- answer{r: r, err: err}
	}()

	select {
	case a := <-ch:
		if a.err != nil {
			return Ranking{}, a.err
		}
		return filterRanking(a.r, req.Candidates), nil
	case <-ctx.Done():
		return Ranking{}, fmt.Errorf("%w: ranking", domain.ErrOracleTimeout)
	}
}

// filterRanking keeps only IDs present in candidates. An empty result is unresolved.
func filterRanking(r Ranking, candidates []Candidate) Ranking {
	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.ID] = true
	}
	out := Ranking{Resolved: r.Resolved}
	for _, id := range r.Order {
		if known[id] {
			out.Order = append(out.Order, id)
		}
	}
	if len(out.Order) == 0 {
		out.Resolved = false
	}
	return out
}
