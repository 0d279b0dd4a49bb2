package gemini

import (
	"fmt"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/oracle"
)

const judgeSystem = `You judge whether a condition holds in a customer conversation.
Answer with JSON only: {"holds": true} or {"holds": false}.
Judge only the latest user message, using the history and facts as context.`

const rankSystem = `You decide which journey a user message belongs to.
Answer with JSON only: {"order": ["<journey id>", ...], "resolved": <bool>}.
List the candidate IDs best first. Set resolved to false when no candidate is clearly best.`

const composeSystem = `You are %s, a conversational assistant. Write the next reply to the user.
Follow the instructions in order, use the tool results and facts when relevant,
and never invent facts that are not given. Reply in plain text.`

func writeContext(b *strings.Builder, oc oracle.Context) {
	if oc.JourneyTitle != "" {
		fmt.Fprintf(b, "Current journey: %s\n", oc.JourneyTitle)
	}
	if oc.State != "" {
		fmt.Fprintf(b, "Current step: %s\n", oc.State)
	}
	writeTerms(b, oc.Terms)
	writeResults(b, oc.ToolResults)
	writeHistory(b, oc.History)
	fmt.Fprintf(b, "Latest user message: %s\n", oc.Utterance)
}

func writeTerms(b *strings.Builder, terms []domain.Term) {
	if len(terms) == 0 {
		return
	}
	b.WriteString("Facts:\n")
	for _, t := range terms {
		fmt.Fprintf(b, "- %s: %s\n", t.Name, t.Description)
	}
}

func writeResults(b *strings.Builder, results []domain.ToolResult) {
	if len(results) == 0 {
		return
	}
	b.WriteString("Tool results:\n")
	for _, r := range results {
		if r.Failed() {
			fmt.Fprintf(b, "- %s failed: %s\n", r.Tool, r.Err)
			continue
		}
		fmt.Fprintf(b, "- %s: %v\n", r.Tool, r.Payload)
	}
}

func writeHistory(b *strings.Builder, history []domain.Message) {
	if len(history) == 0 {
		return
	}
	b.WriteString("History:\n")
	for _, m := range history {
		fmt.Fprintf(b, "%s: %s\n", m.Role, m.Text)
	}
}

func judgePrompt(condition string, oc oracle.Context) string {
	var b strings.Builder
	writeContext(&b, oc)
	fmt.Fprintf(&b, "Condition: %s\n", condition)
	return b.String()
}

func rankPrompt(req oracle.RankRequest) string {
	var b strings.Builder
	writeContext(&b, req.Context)
	fmt.Fprintf(&b, "Observation: %s\n", req.Observation)
	b.WriteString("Candidates:\n")
	for _, c := range req.Candidates {
		fmt.Fprintf(&b, "- id=%s title=%q description=%q when=%q\n", c.ID, c.Title, c.Description, strings.Join(c.Conditions, "; "))
	}
	return b.String()
}
