// Package stream frames session events onto a long-lived HTTP response as
// Server-Sent Events. Delivery is one-directional and best-effort: once a
// write fails the writer is closed and later emissions are dropped.
package stream

import "encoding/json"

// Kind is the discriminator carried in every event's "type" field.
type Kind string

const (
	KindContent  Kind = "content"
	KindToolUse  Kind = "tool_use"
	KindError    Kind = "error"
	KindComplete Kind = "complete"
)

// Event is one record on the stream. Only the fields relevant to Type are set.
type Event struct {
	Type Kind `json:"type"`

	// content
	Content string `json:"content,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// error
	Error string `json:"error,omitempty"`

	// complete
	Summary    string `json:"summary,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
}

func Content(text string) Event {
	return Event{Type: KindContent, Content: text}
}

func ToolUse(id, name string, input json.RawMessage) Event {
	return Event{Type: KindToolUse, ID: id, Name: name, Input: input}
}

func Error(msg string) Event {
	return Event{Type: KindError, Error: msg}
}

func Complete(summary string, iterations int) Event {
	return Event{Type: KindComplete, Summary: summary, Iterations: iterations}
}
