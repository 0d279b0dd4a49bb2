package concierge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/internal/runtime"
	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/oracle"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/runner"
	"github.com/aretw0/concierge/pkg/session"
	"go.opentelemetry.io/otel/trace"
)

// Engine is the high-level entry point of the library.
// It wraps the internal runtime and serves every session of one agent.
type Engine struct {
	runtime *runtime.Engine

	store       ports.SessionStore
	locker      ports.DistributedLocker
	runtimeOpts []runtime.Option
	logger      *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithStore persists sessions in store instead of memory.
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes turns of a session across processes sharing the store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithComposer replaces the default template composer.
func WithComposer(c ports.Composer) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithComposer(c))
	}
}

// WithRanker sets the ranker used to disambiguate journeys.
func WithRanker(r oracle.Ranker) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithRanker(r))
	}
}

// WithOracleTimeout bounds each condition evaluation. A condition that times out is false.
func WithOracleTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithOracleTimeout(d))
	}
}

// WithToolTimeout bounds each tool call.
func WithToolTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithToolTimeout(d))
	}
}

// WithHistoryWindow sets how many trailing messages the oracle and tools see.
func WithHistoryWindow(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithHistoryWindow(n))
	}
}

// WithApology sets the response to unhandled tool failures.
func WithApology(text string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithApology(text))
	}
}

// WithFallback sets the response given outside any journey when nothing applies.
func WithFallback(text string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithFallback(text))
	}
}

// WithTracerProvider sets the OpenTelemetry provider of the turn spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithTracerProvider(tp))
	}
}

// New creates an engine for a built agent whose conditions are judged by o.
func New(agent *domain.Agent, o oracle.ConditionOracle, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if agent != nil {
		eng.logger = eng.logger.With("agent", agent.Name)
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	managerOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
	}
	runtimeOpts := append([]runtime.Option{
		runtime.WithLogger(eng.logger),
		runtime.WithSessionManager(session.NewManager(eng.store, managerOpts...)),
	}, eng.runtimeOpts...)

	rt, err := runtime.NewEngine(agent, o, runtimeOpts...)
	if err != nil {
		return nil, err
	}
	eng.runtime = rt
	return eng, nil
}

// Load builds the agent through loader and creates an engine for it.
func Load(ctx context.Context, loader ports.AgentLoader, o oracle.ConditionOracle, opts ...Option) (*Engine, error) {
	if loader == nil {
		return nil, errors.New("loader is nil")
	}
	agent, err := loader.LoadAgent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent: %w", err)
	}
	return New(agent, o, opts...)
}

// HandleTurn processes one utterance of the session. Sessions are created on first use.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, utterance string) (domain.TurnResult, error) {
	return e.runtime.HandleTurn(ctx, sessionID, utterance)
}

// Reset discards the session.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	return e.runtime.Reset(ctx, sessionID)
}

// Expire cancels the session: a turn in flight discards its results and returns
// domain.ErrSessionExpired.
func (e *Engine) Expire(sessionID string) {
	e.runtime.Expire(sessionID)
}

// Session returns a snapshot of the stored session.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.runtime.Session(ctx, sessionID)
}

// Sessions lists the stored session IDs.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.runtime.Sessions().List(ctx)
}

// Agent returns the agent served by the engine.
func (e *Engine) Agent() *domain.Agent {
	return e.runtime.Agent()
}

// Chat runs an interactive loop over the runner's IO until the input ends.
func (e *Engine) Chat(ctx context.Context, opts ...runner.Option) error {
	return runner.New(append([]runner.Option{runner.WithLogger(e.logger)}, opts...)...).Run(ctx, e)
}
