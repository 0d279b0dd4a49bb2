/*
Package concierge orchestrates conversational journeys for customer-facing agents.

An agent is declared once, through the pkg/dsl builder or an agent file, and then
served to any number of sessions. Each turn layers three kinds of behavior:

  - Guidelines: condition/action rules that pre-empt a turn without moving the session.
  - Journeys: state graphs of chat and tool states, including loop-backs and converging
    branches, entered when their conditions hold.
  - Disambiguation: when an observation matches several journeys, a ranker picks one or
    the agent asks a clarifying question.

Natural-language conditions are judged by a ConditionOracle (see pkg/oracle). The engine
evaluates every condition a turn may need in one concurrent batch, resolves a single
winning action and commits the session once, after every tool call returned.

# Usage

	agent, err := demo.Healthcare().Build()
	if err != nil {
		log.Fatal(err)
	}

	eng, err := concierge.New(agent, oracle.Lexical{})
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.HandleTurn(ctx, "session-123", "I want an appointment")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Response)

Sessions live in memory unless WithStore is given (pkg/adapters/sqlite, pkg/adapters/redis,
pkg/adapters/file). Turns of one session are serialized; different sessions run in parallel.
*/
package concierge
