package domain

// Scope defines where a guideline applies.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeJourney Scope = "journey"
)

// Guideline is a standing condition-action rule applied independent of graph position.
type Guideline struct {
	ID        string   `json:"id" yaml:"id"`
	Condition string   `json:"condition" yaml:"condition"`
	Action    string   `json:"action" yaml:"action"`
	Tools     []string `json:"tools,omitempty" yaml:"tools,omitempty"`
	Scope     Scope    `json:"scope" yaml:"scope"`
	JourneyID string   `json:"journey_id,omitempty" yaml:"journey_id,omitempty"`
}

// Observation is a trigger condition used to detect an ambiguous intent.
type Observation struct {
	ID        string `json:"id" yaml:"id"`
	Condition string `json:"condition" yaml:"condition"`
}

// Disambiguation associates an observation with an ordered list of candidate journeys.
type Disambiguation struct {
	Observation Observation `json:"observation" yaml:"observation"`
	Candidates  []string    `json:"candidates" yaml:"candidates"`
}
