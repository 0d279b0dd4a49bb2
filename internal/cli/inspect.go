package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/concierge/internal/config"
	"github.com/aretw0/concierge/internal/presentation/graph"
	"github.com/aretw0/concierge/internal/validator"
)

// RunValidate builds the configured agent and reports its shape. Build errors cover
// every configuration error; unreachable states are reported as warnings.
func RunValidate(ctx context.Context, cfg config.Config, toolsPath string, w io.Writer) error {
	agent, err := LoadAgent(ctx, cfg, toolsPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Agent %q: %d terms, %d tools, %d journeys, %d guidelines\n",
		agent.Name, len(agent.Terms), len(agent.Tools), len(agent.Journeys), len(agent.Guidelines))
	for _, j := range agent.Journeys {
		fmt.Fprintf(w, "  journey %s: %d states, %d transitions\n", j.ID, len(j.States), len(j.Transitions))
		for _, id := range validator.Unreachable(j) {
			st, _ := j.State(id)
			fmt.Fprintf(w, "    warning: state %q is unreachable\n", st.Label())
		}
	}
	return nil
}

// RunGraph writes the Mermaid flowchart of one journey, or of every journey when
// journeyID is empty.
func RunGraph(ctx context.Context, cfg config.Config, toolsPath, journeyID string, w io.Writer) error {
	agent, err := LoadAgent(ctx, cfg, toolsPath)
	if err != nil {
		return err
	}
	if journeyID == "" {
		_, err = io.WriteString(w, graph.GenerateAgentMermaid(agent, nil))
		return err
	}
	j, ok := agent.Journey(journeyID)
	if !ok {
		return fmt.Errorf("unknown journey %q", journeyID)
	}
	_, err = io.WriteString(w, graph.GenerateMermaid(j, nil))
	return err
}
