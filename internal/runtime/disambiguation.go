package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/oracle"
)

// resolveEntry decides whether the utterance enters a journey. A matching observation
// narrows its candidates to the plausible ones (those whose entry conditions also hold,
// or all of them when none does); several plausible journeys are ranked by the oracle.
// Without an observation, the first journey whose entry condition holds is entered.
func (t *turn) resolveEntry(ctx context.Context) (bool, error) {
	matched := make(map[string]bool)
	var first *domain.Journey
	for _, j := range t.e.agent.Journeys {
		if j.ID == t.s.ActiveJourneyID || !t.anyTrue(j.Conditions) {
			continue
		}
		matched[j.ID] = true
		if first == nil {
			first = j
		}
	}

	for _, d := range t.e.agent.Disambiguations {
		if !t.verdict(d.Observation.Condition) {
			continue
		}
		plausible := t.plausible(d, matched)
		switch len(plausible) {
		case 0:
			continue
		case 1:
			return true, t.enterJourney(ctx, plausible[0])
		}

		winner, err := t.rank(ctx, d, plausible)
		if err != nil {
			t.e.logger.InfoContext(ctx, "asking for clarification",
				"session_id", t.s.SessionID,
				"observation_id", d.Observation.ID,
				"err", err,
			)
			t.clarify(plausible)
			return true, nil
		}
		return true, t.enterJourney(ctx, winner)
	}

	if first != nil {
		return true, t.enterJourney(ctx, first)
	}
	return false, nil
}

func (t *turn) plausible(d domain.Disambiguation, matched map[string]bool) []*domain.Journey {
	var all, hits []*domain.Journey
	for _, id := range d.Candidates {
		if id == t.s.ActiveJourneyID {
			continue
		}
		j, ok := t.e.agent.Journey(id)
		if !ok {
			continue
		}
		all = append(all, j)
		if matched[id] {
			hits = append(hits, j)
		}
	}
	if len(hits) > 0 {
		return hits
	}
	return all
}

func (t *turn) rank(ctx context.Context, d domain.Disambiguation, journeys []*domain.Journey) (*domain.Journey, error) {
	req := oracle.RankRequest{
		Observation: d.Observation.Condition,
		Context:     t.oracleContext(),
	}
	for _, j := range journeys {
		req.Candidates = append(req.Candidates, oracle.Candidate{
			ID:          j.ID,
			Title:       j.Title,
			Description: j.Description,
			Conditions:  j.Conditions,
		})
	}

	ranking, err := t.e.oracle.Rank(ctx, req)
	if err != nil {
		return nil, err
	}
	top, ok := ranking.Top()
	if !ok {
		return nil, domain.ErrAmbiguityUnresolved
	}
	for _, j := range journeys {
		if j.ID == top {
			return j, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown candidate %q", domain.ErrAmbiguityUnresolved, top)
}

// clarify answers with a question naming the candidates; the session is left as it was.
func (t *turn) clarify(journeys []*domain.Journey) {
	ids := make([]string, 0, len(journeys))
	titles := make([]string, 0, len(journeys))
	for _, j := range journeys {
		ids = append(ids, j.ID)
		titles = append(titles, j.Title)
	}
	t.response = ClarifyingQuestion(titles)
	t.effect(domain.SideEffect{Type: domain.EffectClarification, Candidates: ids})
}

// ClarifyingQuestion asks the user to choose between journey titles.
func ClarifyingQuestion(titles []string) string {
	var choice string
	switch len(titles) {
	case 0:
		return "Could you tell me a bit more about what you need?"
	case 1:
		choice = titles[0]
	default:
		choice = strings.Join(titles[:len(titles)-1], ", ") + " or " + titles[len(titles)-1]
	}
	return fmt.Sprintf("Just to make sure I help with the right thing: is this about %s?", choice)
}
