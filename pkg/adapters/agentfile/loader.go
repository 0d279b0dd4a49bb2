package agentfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/concierge/pkg/domain"
)

// Loader implements ports.AgentLoader for an agent file on disk.
type Loader struct {
	path  string
	tools []domain.Tool
}

// Option configures the Loader.
type Option func(*Loader)

// WithTools supplies Go implementations for tools named in the file.
func WithTools(tools ...domain.Tool) Option {
	return func(l *Loader) {
		l.tools = append(l.tools, tools...)
	}
}

// NewLoader reads the agent at path on every LoadAgent call.
func NewLoader(path string, opts ...Option) *Loader {
	l := &Loader{path: path}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadAgent parses and builds the agent.
func (l *Loader) LoadAgent(ctx context.Context) (*domain.Agent, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent file: %w", err)
	}
	f, err := Parse(data, FormatOf(l.path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	f.dir = filepath.Dir(l.path)
	agent, err := f.Build(l.tools...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	return agent, nil
}
