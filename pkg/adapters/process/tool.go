// Package process implements tools that run local commands.
//
// Parameters reach the command as CONCIERGE_ARG_<NAME> environment variables, never
// as flags, and the session ID as CONCIERGE_SESSION_ID. A JSON object on stdout
// becomes the payload; any other output is returned under "output".
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
)

// EnvPrefix prefixes the parameter variables.
const EnvPrefix = "CONCIERGE_ARG_"

var unsafeKey = regexp.MustCompile(`[^A-Z0-9_]`)

// Tool is a domain.Tool backed by a command.
type Tool struct {
	name    string
	command string
	args    []string
	dir     string
	env     map[string]string
}

// Option configures a Tool.
type Option func(*Tool)

// WithDir sets the working directory of the command.
func WithDir(dir string) Option {
	return func(t *Tool) {
		t.dir = dir
	}
}

// WithEnv adds fixed environment variables.
func WithEnv(env map[string]string) Option {
	return func(t *Tool) {
		t.env = env
	}
}

// New creates a tool that runs command with args.
func New(name, command string, args []string, opts ...Option) *Tool {
	t := &Tool{name: name, command: command, args: args}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tool) Name() string { return t.name }

// Invoke runs the command. A non-zero exit is a failed result, not an error.
func (t *Tool) Invoke(ctx context.Context, tc domain.ToolContext, params map[string]any) (domain.ToolResult, error) {
	cmd := exec.CommandContext(ctx, t.command, t.args...)
	cmd.Dir = t.dir
	cmd.Env = append(cmd.Environ(), t.environment(tc, params)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return domain.ToolResult{}, ctx.Err()
		}
		cause := fmt.Sprintf("execution failed: %v", err)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			cause += ": " + msg
		}
		return domain.ErrorResult(t.name, cause), nil
	}
	return domain.ToolResult{Tool: t.name, Payload: parseOutput(stdout.String())}, nil
}

func (t *Tool) environment(tc domain.ToolContext, params map[string]any) []string {
	env := make([]string, 0, len(t.env)+len(params)+1)
	for k, v := range t.env {
		env = append(env, k+"="+v)
	}
	env = append(env, "CONCIERGE_SESSION_ID="+tc.SessionID)
	for k, v := range params {
		key := unsafeKey.ReplaceAllString(strings.ToUpper(k), "_")
		env = append(env, EnvPrefix+key+"="+envValue(v))
	}
	sort.Strings(env)
	return env
}

func envValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int, int64, float64, bool:
		return fmt.Sprint(v)
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprint(v)
}

func parseOutput(out string) map[string]any {
	trimmed := strings.TrimSpace(out)
	if strings.HasPrefix(trimmed, "{") {
		var payload map[string]any
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			return payload
		}
	}
	if trimmed == "" {
		return nil
	}
	return map[string]any{"output": trimmed}
}
