package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/domain"
)

// Sentinel errors for the tool registry.
var (
	ErrNotFound      = errors.New("tool not found")
	ErrAlreadyExists = errors.New("tool already registered")
	ErrEmptyName     = errors.New("tool name is empty")
)

// ToolFunction defines the signature for a tool implementation.
type ToolFunction func(ctx context.Context, tc domain.ToolContext, params map[string]any) (domain.ToolResult, error)

type funcTool struct {
	name string
	fn   ToolFunction
}

func (f *funcTool) Name() string { return f.name }

func (f *funcTool) Invoke(ctx context.Context, tc domain.ToolContext, params map[string]any) (domain.ToolResult, error) {
	return f.fn(ctx, tc, params)
}

// Func adapts a function into a domain.Tool.
func Func(name string, fn ToolFunction) domain.Tool {
	return &funcTool{name: name, fn: fn}
}

// Registry manages the available tools.
// Tools are registered once at build time; Invoke is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]domain.Tool
	retries int
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithRetries sets how many extra attempts are made when a tool returns a Go error.
func WithRetries(n int) Option {
	return func(r *Registry) {
		if n >= 0 {
			r.retries = n
		}
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.timeout = d
	}
}

// WithLogger configures a logger for failed invocations.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a new empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		tools:  make(map[string]domain.Tool),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool to the registry.
// Registering the same instance twice is a no-op; a different tool under an
// existing name returns ErrAlreadyExists.
func (r *Registry) Register(tool domain.Tool) error {
	if tool == nil || tool.Name() == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tools[tool.Name()]; ok {
		if sameTool(existing, tool) {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrAlreadyExists, tool.Name())
	}
	r.tools[tool.Name()] = tool
	return nil
}

// sameTool compares tools without panicking on uncomparable dynamic types.
func sameTool(a, b domain.Tool) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (domain.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke looks up a tool by name and executes it.
// It never returns a Go error: every failure is folded into the result's error marker.
func (r *Registry) Invoke(ctx context.Context, name string, tc domain.ToolContext, params map[string]any) domain.ToolResult {
	tool, ok := r.Lookup(name)
	if !ok {
		return domain.ErrorResult(name, fmt.Sprintf("%v: %s", ErrNotFound, name))
	}

	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		res, err := r.attempt(ctx, tool, tc, params)
		if err == nil {
			res.Tool = name
			return res
		}
		lastErr = err
		r.logger.WarnContext(ctx, "tool invocation failed",
			"tool", name,
			"attempt", attempt+1,
			"err", err,
		)
		var panicked *panicError
		if errors.As(err, &panicked) {
			break
		}
	}
	return domain.ErrorResult(name, lastErr.Error())
}

type panicError struct {
	value any
}

func (p *panicError) Error() string {
	return fmt.Sprintf("tool panicked: %v", p.value)
}

func (r *Registry) attempt(ctx context.Context, tool domain.Tool, tc domain.ToolContext, params map[string]any) (res domain.ToolResult, err error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	defer func() {
		if v := recover(); v != nil {
			err = &panicError{value: v}
		}
	}()
	return tool.Invoke(ctx, tc, params)
}
