package runner

import "log/slog"

// Option configures the Runner.
type Option func(*Runner)

// WithHandler sets the IO strategy. The default is a TextHandler on Stdin/Stdout.
func WithHandler(h IOHandler) Option {
	return func(r *Runner) {
		r.handler = h
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSessionID sets the session to talk in, e.g. to resume a stored one.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.sessionID = id
	}
}

// WithGreeting sets a notice shown before the first input.
func WithGreeting(text string) Option {
	return func(r *Runner) {
		r.greeting = text
	}
}
