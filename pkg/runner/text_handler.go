package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/concierge/pkg/domain"
)

// TextHandler talks to a terminal: a "> " prompt, one response per turn.
type TextHandler struct {
	reader   *bufio.Reader
	writer   io.Writer
	renderer ContentRenderer
	effects  bool
	prompt   string

	lines     chan lineResult
	startOnce sync.Once
}

type lineResult struct {
	text string
	err  error
}

// TextHandlerOption configures a TextHandler.
type TextHandlerOption func(*TextHandler)

// WithRenderer sets the renderer applied to responses.
func WithRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.renderer = renderer
	}
}

// WithSideEffects prints the side effects of each turn under the response.
func WithSideEffects(show bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.effects = show
	}
}

// WithPrompt replaces the "> " prompt.
func WithPrompt(prompt string) TextHandlerOption {
	return func(h *TextHandler) {
		h.prompt = prompt
	}
}

// NewTextHandler creates a handler on r and w (Stdin and Stdout when nil).
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		reader: bufio.NewReader(r),
		writer: w,
		prompt: "> ",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// pump reads lines in the background so that Input can honor cancellation.
func (h *TextHandler) pump() {
	defer close(h.lines)
	for {
		text, err := h.reader.ReadString('\n')
		if text != "" {
			h.lines <- lineResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.lines <- lineResult{err: err}
			}
			return
		}
	}
}

// Input implements IOHandler.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.startOnce.Do(func() {
		h.lines = make(chan lineResult)
		go h.pump()
	})
	fmt.Fprint(h.writer, h.prompt)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-h.lines:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.text), nil
	}
}

// Output implements IOHandler.
func (h *TextHandler) Output(ctx context.Context, result domain.TurnResult) error {
	text := result.Response
	if h.renderer != nil {
		if rendered, err := h.renderer(text); err == nil {
			text = rendered
		}
	}
	if _, err := fmt.Fprintln(h.writer, strings.TrimSpace(text)); err != nil {
		return err
	}
	if !h.effects {
		return nil
	}
	for _, se := range result.SideEffects {
		if _, err := fmt.Fprintf(h.writer, "  [%s]%s\n", se.Type, describe(se)); err != nil {
			return err
		}
	}
	return nil
}

// Notice implements IOHandler.
func (h *TextHandler) Notice(ctx context.Context, message string) error {
	_, err := fmt.Fprintf(h.writer, ">>> %s\n", message)
	return err
}

func describe(se domain.SideEffect) string {
	var parts []string
	if se.Journey != "" {
		parts = append(parts, "journey="+se.Journey)
	}
	if se.Tool != "" {
		parts = append(parts, "tool="+se.Tool)
	}
	if se.Guideline != "" {
		parts = append(parts, "guideline="+se.Guideline)
	}
	if se.Result != nil && se.Result.Failed() {
		parts = append(parts, "error="+se.Result.Err)
	}
	if len(se.Candidates) > 0 {
		parts = append(parts, "candidates="+strings.Join(se.Candidates, ","))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}
