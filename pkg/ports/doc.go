/*
Package ports defines the driven ports (interfaces) of the concierge runtime.

These interfaces decouple the turn loop from external implementations, allowing
the runtime to work with various session stores, tool backends and response writers.

# Key Interfaces

  - SessionStore: persists and loads the per-session snapshot.
  - DistributedLocker: serializes turns of one session across replicas.
  - ToolInvoker: executes tools by name and folds every failure into a ToolResult.
  - Composer: turns instructions, terms and tool payloads into the response text.
  - TurnHandler: the runtime surface used by transports (HTTP, MCP, terminal).
  - AgentLoader: produces a built agent from a declarative source.
*/
package ports
