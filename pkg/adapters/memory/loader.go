package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/dsl"
)

// Loader implements ports.AgentLoader for agents declared in Go.
type Loader struct {
	builder *dsl.AgentBuilder
	agent   *domain.Agent
}

// NewLoader serves an already built agent.
func NewLoader(agent *domain.Agent) *Loader {
	return &Loader{agent: agent}
}

// NewFromBuilder builds the agent on first load.
func NewFromBuilder(b *dsl.AgentBuilder) *Loader {
	return &Loader{builder: b}
}

// LoadAgent returns the agent.
func (l *Loader) LoadAgent(ctx context.Context) (*domain.Agent, error) {
	if l.agent != nil {
		return l.agent, nil
	}
	if l.builder == nil {
		return nil, fmt.Errorf("memory loader has no agent")
	}
	agent, err := l.builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build agent: %w", err)
	}
	l.agent = agent
	return agent, nil
}
