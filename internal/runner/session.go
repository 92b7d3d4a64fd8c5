package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// ErrInvalidHistory is returned by NewSession for an unusable request.
var ErrInvalidHistory = errors.New("runner: invalid conversation history")

// State is the orchestrator's position in the session state machine.
type State int

const (
	StateStreaming State = iota
	StateToolInvoked
	StateAwaitingResult
	StateResultAppended
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateToolInvoked:
		return "tool_invoked"
	case StateAwaitingResult:
		return "awaiting_result"
	case StateResultAppended:
		return "result_appended"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Message is one prior turn as sent by the add-in.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Invocation is a completed tool call. Input is always valid JSON.
type Invocation struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// Session is the state of one conversation. It is owned by a single
// goroutine and is not safe for concurrent use.
type Session struct {
	ID       string
	System   string
	Document json.RawMessage

	conv        []anthropic.MessageParam
	state       State
	iterations  int
	invocations []Invocation
}

// NewSession validates history and converts it into provider messages.
// document may be nil or JSON null when the add-in sent no context.
func NewSession(id string, history []Message, document json.RawMessage) (*Session, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: messages must not be empty", ErrInvalidHistory)
	}
	conv := make([]anthropic.MessageParam, 0, len(history))
	for i, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			return nil, fmt.Errorf("%w: message %d has empty content", ErrInvalidHistory, i)
		}
		switch m.Role {
		case "user":
			conv = append(conv, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case "assistant":
			conv = append(conv, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			return nil, fmt.Errorf("%w: message %d has role %q, want user or assistant", ErrInvalidHistory, i, m.Role)
		}
	}
	if trimmed := strings.TrimSpace(string(document)); trimmed == "" || trimmed == "null" {
		document = nil
	}
	return &Session{
		ID:       id,
		System:   SystemPrompt(document),
		Document: document,
		conv:     conv,
		state:    StateStreaming,
	}, nil
}

// Conversation returns the accumulated history.
func (s *Session) Conversation() []anthropic.MessageParam { return s.conv }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Iterations returns the number of provider calls made so far.
func (s *Session) Iterations() int { return s.iterations }

// Invocations returns every tool invocation emitted, in order.
func (s *Session) Invocations() []Invocation { return s.invocations }

// LatestUserText returns the content of the last user message in the
// opening history, or "".
func LatestUserText(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return history[i].Content
		}
	}
	return ""
}
