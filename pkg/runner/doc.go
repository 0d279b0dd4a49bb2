/*
Package runner drives a conversation loop over a ports.TurnHandler.

The runner reads utterances from an IOHandler, hands them to the engine and writes the
responses back. Two handlers are provided: TextHandler for interactive terminals and
JSONHandler for JSON-Lines pipelines.

# Commands

Lines starting with a slash are handled by the runner instead of the agent:

  - /reset discards the session and starts over.
  - /quit (or /exit) ends the loop.

# Usage

	r := runner.New(
		runner.WithSessionID("patient-1"),
		runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)
	if err := r.Run(ctx, agent); err != nil {
		log.Fatal(err)
	}
*/
package runner
