package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/ayr/pkg/domain"
)

// Message is one JSON line written by the JSONHandler.
type Message struct {
	Type    string       `json:"type"` // "view" or "system"
	View    *domain.View `json:"view,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Request is the structured form of a command line accepted by the JSONHandler.
type Request struct {
	Command string `json:"command"`
	Arg     string `json:"arg,omitempty"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Render(ctx context.Context, view domain.View) error {
	return h.Encoder.Encode(Message{Type: "view", View: &view})
}

// Input reads a line and normalizes it to the text command syntax.
// Accepted forms are a request object, a JSON string or raw text.
// A request object always yields a command, even while input is pending.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}

	text = strings.TrimSpace(text)

	var req Request
	if strings.HasPrefix(text, "{") && json.Unmarshal([]byte(text), &req) == nil && req.Command != "" {
		line := ":" + req.Command
		if req.Arg != "" {
			line += " " + req.Arg
		}
		return line, nil
	}

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}

	// Fallback: return raw text (e.g. if they just sent plain text)
	return text, nil
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Message{Type: "system", Message: msg})
}
