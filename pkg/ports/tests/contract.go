// Package tests holds reusable contract suites for port implementations.
package tests

import (
	"context"
	"testing"

	"github.com/aretw0/concierge/internal/validator"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/stretchr/testify/require"
)

// AgentLoaderContractTest verifies that an AgentLoader produces a usable agent:
// the expected journeys exist, every graph passes validation and every tool
// referenced by a journey or guideline is part of the agent.
func AgentLoaderContractTest(t *testing.T, loader ports.AgentLoader, wantJourneys ...string) {
	t.Helper()

	agent, err := loader.LoadAgent(context.Background())
	require.NoError(t, err)
	require.NotNil(t, agent)

	t.Run("Journeys", func(t *testing.T) {
		for _, id := range wantJourneys {
			_, ok := agent.Journey(id)
			require.True(t, ok, "journey %q is missing", id)
		}
	})

	t.Run("Graphs", func(t *testing.T) {
		for _, j := range agent.Journeys {
			require.NoError(t, validator.Validate(j), "journey %q", j.ID)
		}
	})

	t.Run("Tools", func(t *testing.T) {
		known := make(map[string]bool)
		for _, tool := range agent.Tools {
			known[tool.Name()] = true
		}
		for _, j := range agent.Journeys {
			for _, s := range j.States {
				if s.Tool != "" {
					require.True(t, known[s.Tool], "tool %q of journey %q is not part of the agent", s.Tool, j.ID)
				}
			}
			for _, g := range j.Guidelines {
				for _, name := range g.Tools {
					require.True(t, known[name], "tool %q of guideline %q is not part of the agent", name, g.ID)
				}
			}
		}
		for _, g := range agent.Guidelines {
			for _, name := range g.Tools {
				require.True(t, known[name], "tool %q of guideline %q is not part of the agent", name, g.ID)
			}
		}
	})

	t.Run("Disambiguations", func(t *testing.T) {
		for _, d := range agent.Disambiguations {
			for _, id := range d.Candidates {
				_, ok := agent.Journey(id)
				require.True(t, ok, "candidate %q of %q is not a journey", id, d.Observation.ID)
			}
		}
	})
}
