package runner

import (
	"context"

	"github.com/aretw0/concierge/pkg/domain"
)

// IOHandler is the strategy for talking to the user.
type IOHandler interface {
	// Input reads the next utterance. io.EOF ends the conversation.
	Input(ctx context.Context) (string, error)

	// Output presents the result of a turn.
	Output(ctx context.Context, result domain.TurnResult) error

	// Notice presents a message from the runner itself (errors, command feedback).
	Notice(ctx context.Context, message string) error
}

// ContentRenderer transforms response text before it is written, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)
