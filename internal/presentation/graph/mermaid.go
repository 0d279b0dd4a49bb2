// Package graph renders journeys as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
)

// Overlay marks the position of a session on the graph.
type Overlay struct {
	JourneyID string
	Current   domain.StateID
}

// OverlayFor returns the overlay of a session, or nil when it is outside any journey.
func OverlayFor(s *domain.Session) *Overlay {
	if s == nil || !s.InJourney() {
		return nil
	}
	return &Overlay{JourneyID: s.ActiveJourneyID, Current: s.CurrentStateID}
}

// GenerateMermaid produces a flowchart of one journey.
// Shapes: initial ((circle)), END (((double circle))), tool [[subroutine]], chat [/parallelogram/].
// Tool-failure edges are dotted.
func GenerateMermaid(j *domain.Journey, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	writeJourney(&sb, j, "", "    ")
	writeOverlay(&sb, j, overlay, "")
	return sb.String()
}

// GenerateAgentMermaid produces one subgraph per journey of the agent.
func GenerateAgentMermaid(a *domain.Agent, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	for _, j := range a.Journeys {
		prefix := sanitizeID(j.ID) + "_"
		fmt.Fprintf(&sb, "    subgraph %s[\"%s\"]\n", sanitizeID(j.ID), escape(j.Title))
		writeJourney(&sb, j, prefix, "        ")
		sb.WriteString("    end\n")
	}
	if overlay != nil {
		if j, ok := a.Journey(overlay.JourneyID); ok {
			writeOverlay(&sb, j, overlay, sanitizeID(j.ID)+"_")
		}
	}
	return sb.String()
}

func writeJourney(sb *strings.Builder, j *domain.Journey, prefix, indent string) {
	for _, s := range j.States {
		id := nodeID(prefix, s.ID)
		opener, closer := "[/", "/]"
		switch {
		case s.ID == j.Initial:
			opener, closer = "((", "))"
		case s.Kind == domain.StateEnd:
			opener, closer = "(((", ")))"
		case s.Kind == domain.StateTool:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(sb, "%s%s%s\"%s\"%s\n", indent, id, opener, escape(display(s)), closer)

		for _, t := range j.Outgoing(s.ID) {
			to := nodeID(prefix, t.Target)
			switch {
			case t.OnToolError():
				fmt.Fprintf(sb, "%s%s -. \"%s\" .-> %s\n", indent, id, t.Condition, to)
			case t.Unconditional():
				fmt.Fprintf(sb, "%s%s --> %s\n", indent, id, to)
			default:
				fmt.Fprintf(sb, "%s%s -- \"%s\" --> %s\n", indent, id, escape(t.Condition), to)
			}
		}
	}
}

func writeOverlay(sb *strings.Builder, j *domain.Journey, overlay *Overlay, prefix string) {
	if overlay == nil || overlay.JourneyID != j.ID {
		return
	}
	if _, ok := j.State(overlay.Current); !ok {
		return
	}
	sb.WriteString("\n    %% Session position\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	fmt.Fprintf(sb, "    class %s current;\n", nodeID(prefix, overlay.Current))
}

func display(s domain.State) string {
	if s.Kind == domain.StateChat && s.Prompt != "" {
		return s.Prompt
	}
	return s.Label()
}

func nodeID(prefix string, id domain.StateID) string {
	return fmt.Sprintf("%ss%d", prefix, id)
}

func escape(text string) string {
	return strings.ReplaceAll(text, "\"", "'")
}

func sanitizeID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
