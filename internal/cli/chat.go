package cli

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/internal/presentation/tui"
	"github.com/aretw0/concierge/pkg/runner"
)

// ChatOptions configure the terminal loop.
type ChatOptions struct {
	SessionID string
	// JSON switches to NDJSON on stdin/stdout.
	JSON bool
	// Effects prints tool calls and journey events under each response.
	Effects bool
	// Fresh discards the stored session first.
	Fresh bool

	In  io.Reader
	Out io.Writer
}

// RunChat talks to the engine until the input ends or ctx is done.
func RunChat(ctx context.Context, app *App, opts ChatOptions) error {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	interactive := opts.In == nil && opts.Out == nil && tui.IsInteractive()

	if opts.Fresh && opts.SessionID != "" {
		if err := app.Engine.Reset(ctx, opts.SessionID); err != nil {
			return err
		}
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(in, out)
	} else {
		textOpts := []runner.TextHandlerOption{runner.WithSideEffects(opts.Effects)}
		if interactive {
			textOpts = append(textOpts, runner.WithRenderer(tui.NewRenderer()))
		}
		handler = runner.NewTextHandler(in, out, textOpts...)
	}

	runnerOpts := []runner.Option{runner.WithHandler(handler)}
	if opts.SessionID != "" {
		runnerOpts = append(runnerOpts, runner.WithSessionID(opts.SessionID))
	}
	if !opts.JSON {
		if interactive {
			tui.PrintBanner(out, app.Engine.Agent().Name, concierge.Version)
		}
		runnerOpts = append(runnerOpts, runner.WithGreeting("Type /reset to start over or /quit to leave."))
	}

	err := app.Engine.Chat(ctx, runnerOpts...)
	if !opts.JSON && ctx.Err() != nil {
		printSystemMessage(out, "Interrupted.")
	}
	return handleExecutionError(err)
}
