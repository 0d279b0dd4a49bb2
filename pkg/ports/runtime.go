package ports

import (
	"context"

	"github.com/aretw0/concierge/pkg/domain"
)

// ToolInvoker executes a tool by name. It never returns a Go error: unknown tools,
// failures and panics are reported through ToolResult.Err.
type ToolInvoker interface {
	Invoke(ctx context.Context, name string, tc domain.ToolContext, params map[string]any) domain.ToolResult
}

// ComposeRequest is everything a Composer may use to write a response.
type ComposeRequest struct {
	Agent        string
	Instructions []string
	Terms        []domain.Term
	ToolResults  []domain.ToolResult
	History      []domain.Message
	Utterance    string
}

// Composer writes the response text of a turn.
type Composer interface {
	Compose(ctx context.Context, req ComposeRequest) (string, error)
}

// TurnHandler is the runtime surface used by transports.
type TurnHandler interface {
	// HandleTurn processes one utterance for the session and returns the response
	// and side effects. Sessions are created on first use.
	HandleTurn(ctx context.Context, sessionID, utterance string) (domain.TurnResult, error)

	// Reset discards the session.
	Reset(ctx context.Context, sessionID string) error

	// Session returns a snapshot of the session.
	Session(ctx context.Context, sessionID string) (*domain.Session, error)

	// Agent returns the built agent served by the handler.
	Agent() *domain.Agent
}

// AgentLoader produces a built agent from a declarative source.
type AgentLoader interface {
	LoadAgent(ctx context.Context) (*domain.Agent, error)
}
