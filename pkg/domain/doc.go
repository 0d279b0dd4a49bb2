/*
Package domain contains the core models of the concierge engine.

It defines the declarative building blocks of an agent (Terms, Journeys, States,
Transitions, Guidelines, Observations) and the runtime snapshot of a dialogue
(Session). This package is kept pure and free of I/O so that the same agent
definition can be shared, unsynchronized, by every session of a process.

# Key Entities

  - Journey: a scoped flow, stored as an arena of States addressed by StateID.
  - State: a Chat prompt, a Tool invocation or the journey End.
  - Transition: an ordered, optionally conditioned edge between two states.
  - Guideline: a standing condition-action rule, global or journey scoped.
  - Session: the per-conversation pointer (active journey, current state, variables, history).
*/
package domain
