// Package history inspects a session's provider conversation: it checks that
// every tool call is answered by the following turn and estimates how large
// the next request is.
package history

import (
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// ErrUnpairedToolUse means an assistant tool_use is not answered by the
// leading tool_result blocks of the next user message.
var ErrUnpairedToolUse = errors.New("history: tool_use without matching tool_result")

// CheckPairs verifies the tool_use/tool_result pairing across msgs.
//
// Rules:
//   - an assistant message with tool_use blocks must be followed by a user
//     message;
//   - that user message's leading tool_result blocks answer exactly those
//     tool_use ids, with no extras;
//   - no tool_result may appear after a non-result block.
func CheckPairs(msgs []anthropic.MessageParam) error {
	for i, m := range msgs {
		if m.Role != anthropic.MessageParamRoleAssistant {
			continue
		}
		uses := toolUseIDs(m)
		if len(uses) == 0 {
			continue
		}
		if i+1 >= len(msgs) || msgs[i+1].Role != anthropic.MessageParamRoleUser {
			return fmt.Errorf("%w: message %d is not followed by a user turn", ErrUnpairedToolUse, i)
		}
		results, ordered := leadingResultIDs(msgs[i+1])
		if !ordered {
			return fmt.Errorf("%w: message %d has a tool_result after other content", ErrUnpairedToolUse, i+1)
		}
		for id := range uses {
			if _, ok := results[id]; !ok {
				return fmt.Errorf("%w: call %s unanswered at message %d", ErrUnpairedToolUse, id, i+1)
			}
		}
		for id := range results {
			if _, ok := uses[id]; !ok {
				return fmt.Errorf("%w: result %s answers no call at message %d", ErrUnpairedToolUse, id, i+1)
			}
		}
	}
	return nil
}

func toolUseIDs(m anthropic.MessageParam) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, blk := range m.Content {
		if tu := blk.OfToolUse; tu != nil && tu.ID != "" {
			ids[tu.ID] = struct{}{}
		}
	}
	return ids
}

func leadingResultIDs(m anthropic.MessageParam) (ids map[string]struct{}, ordered bool) {
	ids = make(map[string]struct{})
	seenOther := false
	for _, blk := range m.Content {
		if tr := blk.OfToolResult; tr != nil {
			if seenOther {
				return ids, false
			}
			if tr.ToolUseID != "" {
				ids[tr.ToolUseID] = struct{}{}
			}
			continue
		}
		seenOther = true
	}
	return ids, true
}
