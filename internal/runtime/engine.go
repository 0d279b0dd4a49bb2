// Package runtime implements the turn loop of a built agent.
//
// A turn evaluates every condition it may need in one concurrent batch, resolves a
// single winning action by precedence (guideline, journey entry, transition, hold),
// executes it and commits the session exactly once, after any tool call returned.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/oracle"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/registry"
	"github.com/aretw0/concierge/pkg/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/concierge/internal/runtime"

// Defaults of the engine options.
const (
	DefaultHistoryWindow    = 10
	DefaultToolTimeout      = 30 * time.Second
	DefaultConcurrency      = 8
	DefaultMaxUtteranceSize = 4096
	DefaultApology          = "I'm sorry, something went wrong on my side. Could you try again in a moment?"
	DefaultFallback         = "How can I help you today?"
)

// maxSteps bounds the states visited in a single turn.
const maxSteps = 64

// Engine runs turns for every session of one agent.
type Engine struct {
	agent    *domain.Agent
	oracle   *oracle.Guard
	tools    ports.ToolInvoker
	sessions *session.Manager
	composer ports.Composer
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	tracer   trace.Tracer

	guardOpts     []oracle.GuardOption
	historyWindow int
	toolTimeout   time.Duration
	concurrency   int
	maxUtterance  int
	apology       string
	fallback      string
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the logger of the engine and of the components it creates.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithComposer replaces the TemplateComposer.
func WithComposer(c ports.Composer) Option {
	return func(e *Engine) {
		e.composer = c
	}
}

// WithSessionManager sets where sessions are locked and stored.
// The default keeps sessions in memory.
func WithSessionManager(m *session.Manager) Option {
	return func(e *Engine) {
		e.sessions = m
	}
}

// WithTools sets the tool invoker. The default is a registry holding the agent's tools.
func WithTools(tools ports.ToolInvoker) Option {
	return func(e *Engine) {
		e.tools = tools
	}
}

// WithOracleTimeout bounds each condition evaluation and ranking request.
func WithOracleTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.guardOpts = append(e.guardOpts, oracle.WithTimeout(d))
	}
}

// WithRanker sets the ranker used for disambiguation. By default the oracle is used
// if it implements oracle.Ranker.
func WithRanker(r oracle.Ranker) Option {
	return func(e *Engine) {
		e.guardOpts = append(e.guardOpts, oracle.WithRanker(r))
	}
}

// WithHistoryWindow sets how many trailing messages are shown to the oracle and tools.
func WithHistoryWindow(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historyWindow = n
		}
	}
}

// WithToolTimeout bounds a tool call. Tools keep running after the turn's context is
// canceled, until they return or this timeout passes.
func WithToolTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.toolTimeout = d
		}
	}
}

// WithConcurrency limits the oracle queries in flight for one turn.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithMaxUtteranceSize sets the largest accepted utterance in bytes.
func WithMaxUtteranceSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxUtterance = n
		}
	}
}

// WithApology sets the response given when a tool fails and nothing handles it.
func WithApology(text string) Option {
	return func(e *Engine) {
		if text != "" {
			e.apology = text
		}
	}
}

// WithFallback sets the response given when no action applies.
func WithFallback(text string) Option {
	return func(e *Engine) {
		if text != "" {
			e.fallback = text
		}
	}
}

// WithTracerProvider sets the OpenTelemetry provider used for turn spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewEngine creates an engine for a built agent. All conditions are judged by o.
func NewEngine(agent *domain.Agent, o oracle.ConditionOracle, opts ...Option) (*Engine, error) {
	if agent == nil {
		return nil, errors.New("runtime: agent is nil")
	}
	if o == nil {
		return nil, errors.New("runtime: oracle is nil")
	}

	e := &Engine{
		agent:         agent,
		logger:        logging.NewNop(),
		historyWindow: DefaultHistoryWindow,
		toolTimeout:   DefaultToolTimeout,
		concurrency:   DefaultConcurrency,
		maxUtterance:  DefaultMaxUtteranceSize,
		apology:       DefaultApology,
		fallback:      DefaultFallback,
	}
	for _, opt := range opts {
		opt(e)
	}

	guardOpts := append([]oracle.GuardOption{oracle.WithLogger(e.logger)}, e.guardOpts...)
	e.oracle = oracle.NewGuard(o, guardOpts...)

	if e.tools == nil {
		reg := registry.NewRegistry(registry.WithLogger(e.logger))
		for _, tool := range agent.Tools {
			if err := reg.Register(tool); err != nil {
				return nil, fmt.Errorf("runtime: %w", err)
			}
		}
		e.tools = reg
	}
	if e.sessions == nil {
		e.sessions = session.NewManager(memory.NewStore(), session.WithLogger(e.logger))
	}
	if e.composer == nil {
		e.composer = TemplateComposer{}
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	return e, nil
}

// Agent returns the agent served by the engine.
func (e *Engine) Agent() *domain.Agent {
	return e.agent
}

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// HandleTurn processes one utterance. The session is created on first use.
// If the session is expired, or ctx is canceled before the turn commits, the turn's
// results are discarded and domain.ErrSessionExpired is returned.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, utterance string) (domain.TurnResult, error) {
	ctx, span := e.tracer.Start(ctx, "concierge.HandleTurn",
		trace.WithAttributes(attribute.String("concierge.session_id", sessionID)))
	defer span.End()

	clean, err := sanitize(utterance, e.maxUtterance)
	if err != nil {
		return domain.TurnResult{}, e.failSpan(span, err)
	}
	e.emitTurnStart(ctx, sessionID, clean)

	var result domain.TurnResult
	err = e.sessions.Update(ctx, sessionID, func(ctx context.Context, current *domain.Session) (*domain.Session, error) {
		t := newTurn(e, current, clean)
		next, err := t.run(ctx)
		if err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSessionExpired, context.Cause(ctx))
		}
		result = t.result(next)
		return next, nil
	})
	if err != nil {
		return domain.TurnResult{}, e.failSpan(span, err)
	}

	span.SetAttributes(
		attribute.String("concierge.journey_id", result.Session.ActiveJourneyID),
		attribute.Int("concierge.side_effects", len(result.SideEffects)),
	)
	return result, nil
}

func (e *Engine) failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Reset discards the session and clears its expired mark.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// Expire marks the session as expired: a turn in flight discards its results.
func (e *Engine) Expire(sessionID string) {
	e.sessions.Expire(sessionID)
}

// Session returns a snapshot of the session.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.Load(ctx, sessionID)
}
