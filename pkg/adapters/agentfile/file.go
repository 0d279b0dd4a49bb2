// Package agentfile loads agents declared in YAML or JSON files.
//
// States are named inside each journey. Transitions are listed in order and may only
// leave a state that an earlier transition already reached; "initial" and "end"
// name the implicit states of every journey:
//
//	journeys:
//	  - title: Schedule an Appointment
//	    conditions: [The customer wants to schedule an appointment]
//	    states:
//	      - {name: reason, chat: Determine the reason for the visit}
//	      - {name: slots, tool: get_upcoming_slots}
//	    transitions:
//	      - {from: initial, to: reason}
//	      - {from: reason, to: slots}
//
// Tools are supplied by the caller with WithTools, run as local commands, or declared
// in the file as fixtures returning a static result.
package agentfile

// File is the declarative form of an agent.
type File struct {
	Name         string          `mapstructure:"name"`
	Description  string          `mapstructure:"description"`
	Terms        []TermSpec      `mapstructure:"terms"`
	Tools        []ToolSpec      `mapstructure:"tools"`
	Journeys     []JourneySpec   `mapstructure:"journeys"`
	Guidelines   []GuidelineSpec `mapstructure:"guidelines"`
	Observations []Observation   `mapstructure:"observations"`

	dir string
}

// TermSpec declares a glossary term.
type TermSpec struct {
	Name        string   `mapstructure:"name"`
	Description string   `mapstructure:"description"`
	Synonyms    []string `mapstructure:"synonyms"`
}

// ToolSpec declares a fixture or command tool, or only the parameters of a supplied one.
type ToolSpec struct {
	Name string `mapstructure:"name"`
	// Command runs a local process, see package process. Relative paths resolve
	// against the agent file's directory.
	Command string            `mapstructure:"command"`
	Args    []string          `mapstructure:"args"`
	Env     map[string]string `mapstructure:"env"`
	// Params maps parameter names to type names, see package schema.
	Params map[string]string `mapstructure:"params"`
	// Result is returned by a fixture. String values may use {{ param }} placeholders.
	Result map[string]any `mapstructure:"result"`
	// Error makes the fixture fail with this message.
	Error      string `mapstructure:"error"`
	EndJourney bool   `mapstructure:"end_journey"`
}

// JourneySpec declares a journey.
type JourneySpec struct {
	Title       string           `mapstructure:"title"`
	Description string           `mapstructure:"description"`
	Conditions  []string         `mapstructure:"conditions"`
	States      []StateSpec      `mapstructure:"states"`
	Transitions []TransitionSpec `mapstructure:"transitions"`
	Guidelines  []GuidelineSpec  `mapstructure:"guidelines"`
}

// StateSpec declares a named state. Exactly one of Chat or Tool is set.
type StateSpec struct {
	Name   string         `mapstructure:"name"`
	Chat   string         `mapstructure:"chat"`
	Tool   string         `mapstructure:"tool"`
	Params map[string]any `mapstructure:"params"`
	SaveTo string         `mapstructure:"save_to"`
}

// TransitionSpec links two states by name.
type TransitionSpec struct {
	From        string `mapstructure:"from"`
	To          string `mapstructure:"to"`
	When        string `mapstructure:"when"`
	OnToolError bool   `mapstructure:"on_tool_error"`
}

// GuidelineSpec declares a guideline.
type GuidelineSpec struct {
	ID        string   `mapstructure:"id"`
	Condition string   `mapstructure:"condition"`
	Action    string   `mapstructure:"action"`
	Tools     []string `mapstructure:"tools"`
}

// Observation declares a disambiguation trigger over journeys named by ID or title.
type Observation struct {
	Condition    string   `mapstructure:"condition"`
	Disambiguate []string `mapstructure:"disambiguate"`
}

// Reserved state names.
const (
	InitialState = "initial"
	EndState     = "end"
)
