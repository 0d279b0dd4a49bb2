package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
)

// JSONHandler speaks JSON-Lines: each input line is {"utterance": "..."}, a JSON
// string or raw text; each turn is written as one TurnResult object.
type JSONHandler struct {
	reader  *bufio.Reader
	encoder *json.Encoder
}

// Message is the wire form of a runner notice in JSON mode.
type Message struct {
	Notice string `json:"notice"`
}

// NewJSONHandler creates a handler on r and w (Stdin and Stdout when nil).
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		reader:  bufio.NewReader(r),
		encoder: json.NewEncoder(w),
	}
}

// Input implements IOHandler.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.reader.ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(text) == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var req struct {
		Utterance string `json:"utterance"`
	}
	if strings.HasPrefix(text, "{") {
		if err := json.Unmarshal([]byte(text), &req); err == nil {
			return req.Utterance, nil
		}
	}
	var s string
	if err := json.Unmarshal([]byte(text), &s); err == nil {
		return s, nil
	}
	return text, nil
}

// Output implements IOHandler.
func (h *JSONHandler) Output(ctx context.Context, result domain.TurnResult) error {
	return h.encoder.Encode(result)
}

// Notice implements IOHandler.
func (h *JSONHandler) Notice(ctx context.Context, message string) error {
	return h.encoder.Encode(Message{Notice: message})
}
