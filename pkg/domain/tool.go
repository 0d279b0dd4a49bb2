package domain

import "context"

// Tool is a pluggable external capability. Invocations must be safe to retry.
type Tool interface {
	Name() string
	Invoke(ctx context.Context, tc ToolContext, params map[string]any) (ToolResult, error)
}

// ToolContext carries the caller identity and a bounded slice of conversation history.
type ToolContext struct {
	SessionID string         `json:"session_id"`
	Caller    string         `json:"caller,omitempty"`
	History   []Message      `json:"history,omitempty"`
	Variables map[string]any `json:"variables,omitempty"`
}

// ToolResult is the outcome of a tool call. It is immutable once produced for a turn.
type ToolResult struct {
	Tool    string         `json:"tool"`
	Payload map[string]any `json:"payload,omitempty"`
	// Err is the error marker. A non-empty value means the invocation failed.
	Err string `json:"error,omitempty"`
	// EndJourney asks the runtime to close the active journey.
	EndJourney bool `json:"end_journey,omitempty"`
}

// Failed reports whether the result carries an error marker.
func (r ToolResult) Failed() bool {
	return r.Err != ""
}

// ErrorResult builds a failed result for the named tool.
func ErrorResult(tool string, cause string) ToolResult {
	return ToolResult{Tool: tool, Err: cause}
}

// Role identifies the author of a Message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one entry of the conversation history.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

type callerKey struct{}

// ContextWithCaller attaches the caller identity handed to tools.
func ContextWithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller identity attached to ctx, if any.
func CallerFrom(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey{}).(string)
	return caller
}
