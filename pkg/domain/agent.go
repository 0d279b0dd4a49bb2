package domain

// Agent is the immutable product of the builder. After construction it is only read,
// so it is shared by every session without synchronization.
type Agent struct {
	Name            string
	Description     string
	Terms           []Term
	Tools           []Tool
	Journeys        []*Journey
	Guidelines      []Guideline
	Disambiguations []Disambiguation
}

// Journey returns the journey with the given ID.
func (a *Agent) Journey(id string) (*Journey, bool) {
	for _, j := range a.Journeys {
		if j.ID == id {
			return j, true
		}
	}
	return nil, false
}

// ActiveGuidelines returns the guidelines in effect while journeyID is active
// (journey scoped first, then global), in declaration order.
func (a *Agent) ActiveGuidelines(journeyID string) []Guideline {
	var out []Guideline
	if j, ok := a.Journey(journeyID); ok {
		out = append(out, j.Guidelines...)
	}
	return append(out, a.Guidelines...)
}
