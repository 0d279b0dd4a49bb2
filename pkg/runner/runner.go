package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/google/uuid"
)

// Runner reads utterances, runs turns and writes responses until the input ends.
type Runner struct {
	handler   IOHandler
	logger    *slog.Logger
	sessionID string
	greeting  string
}

// New creates a runner. Without WithSessionID a random session ID is used.
func New(opts ...Option) *Runner {
	r := &Runner{
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(nil, nil)
	}
	if r.sessionID == "" {
		r.sessionID = uuid.NewString()
	}
	return r
}

// SessionID returns the session the runner talks in.
func (r *Runner) SessionID() string {
	return r.sessionID
}

// Run loops until the input ends, /quit is entered or ctx is done.
// End of input and cancellation are not errors.
func (r *Runner) Run(ctx context.Context, h ports.TurnHandler) error {
	if r.greeting != "" {
		if err := r.handler.Notice(ctx, r.greeting); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	for {
		line, err := r.handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := r.command(ctx, h, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			continue
		}

		result, err := h.HandleTurn(ctx, r.sessionID, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if err := r.turnError(ctx, err); err != nil {
				return err
			}
			continue
		}
		if err := r.handler.Output(ctx, result); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

func (r *Runner) command(ctx context.Context, h ports.TurnHandler, line string) (bool, error) {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case "/quit", "/exit":
		return true, nil
	case "/reset":
		if err := h.Reset(ctx, r.sessionID); err != nil {
			return false, fmt.Errorf("reset session: %w", err)
		}
		r.logger.InfoContext(ctx, "session reset", "session_id", r.sessionID)
		return false, r.handler.Notice(ctx, "Session reset.")
	default:
		return false, r.handler.Notice(ctx, fmt.Sprintf("Unknown command %s. Use /reset or /quit.", line))
	}
}

// turnError reports recoverable turn errors to the user; other errors end the loop.
func (r *Runner) turnError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrUtteranceTooLarge), errors.Is(err, domain.ErrInvalidUTF8):
		return r.handler.Notice(ctx, fmt.Sprintf("Error: %v. Please try again.", err))
	case errors.Is(err, domain.ErrSessionExpired):
		return r.handler.Notice(ctx, "This session has expired. Use /reset to start over.")
	case errors.Is(err, domain.ErrSessionBusy):
		return r.handler.Notice(ctx, "The session is busy, please try again.")
	}
	r.logger.ErrorContext(ctx, "turn failed", "session_id", r.sessionID, "err", err)
	return fmt.Errorf("turn error: %w", err)
}
