package runner_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/runner"
)

func TestNewSession_RejectsUnusableHistory(t *testing.T) {
	cases := map[string][]runner.Message{
		"empty":         nil,
		"bad_role":      {{Role: "system", Content: "hi"}},
		"empty_content": {{Role: "user", Content: "   "}},
	}
	for name, history := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := runner.NewSession("s", history, nil); !errors.Is(err, runner.ErrInvalidHistory) {
				t.Fatalf("err = %v, want ErrInvalidHistory", err)
			}
		})
	}
}

func TestNewSession_ConvertsHistory(t *testing.T) {
	history := []runner.Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "second"},
	}
	sess, err := runner.NewSession("s1", history, json.RawMessage("null"))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if sess.State() != runner.StateStreaming || sess.Iterations() != 0 {
		t.Fatalf("fresh session state = %v iterations = %d", sess.State(), sess.Iterations())
	}
	conv := sess.Conversation()
	if len(conv) != 3 || conv[1].Role != "assistant" {
		t.Fatalf("conversation = %+v", conv)
	}
	if sess.Document != nil {
		t.Fatalf("null document should be dropped, got %s", sess.Document)
	}
	if sess.System != runner.SystemPrompt(nil) {
		t.Fatal("system prompt without document should be the base prompt")
	}
	if got := runner.LatestUserText(history); got != "second" {
		t.Fatalf("LatestUserText = %q", got)
	}
}

func TestSystemPrompt_AppendsDocument(t *testing.T) {
	base := runner.SystemPrompt(nil)
	withDoc := runner.SystemPrompt(json.RawMessage(`{"paragraphs":["Intro"]}`))
	if !strings.HasPrefix(withDoc, base) || !strings.Contains(withDoc, `{"paragraphs":["Intro"]}`) {
		t.Fatalf("document context not appended:\n%s", withDoc)
	}
}

func TestState_String(t *testing.T) {
	want := map[runner.State]string{
		runner.StateStreaming:      "streaming",
		runner.StateToolInvoked:    "tool_invoked",
		runner.StateAwaitingResult: "awaiting_result",
		runner.StateResultAppended: "result_appended",
		runner.StateDone:           "done",
		runner.StateAborted:        "aborted",
	}
	for s, w := range want {
		if s.String() != w {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), w)
		}
	}
}
