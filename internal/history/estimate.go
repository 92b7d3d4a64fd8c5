package history

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
)

// Fixed per-block overhead; the estimate is for logs, not billing.
const blockOverhead = 4

// Estimate returns a deterministic size estimate for system plus msgs, in
// runes: text and tool_result text by rune count, tool_use by the length of
// its encoded input, every block plus a small overhead.
func Estimate(system string, msgs []anthropic.MessageParam) int {
	total := utf8.RuneCountInString(system)
	for _, m := range msgs {
		for _, blk := range m.Content {
			total += countBlock(blk)
		}
	}
	return total
}

func countBlock(blk anthropic.ContentBlockParamUnion) int {
	switch {
	case blk.OfText != nil:
		return utf8.RuneCountInString(blk.OfText.Text) + blockOverhead
	case blk.OfToolResult != nil:
		n := 0
		for _, c := range blk.OfToolResult.Content {
			if c.OfText != nil {
				n += utf8.RuneCountInString(c.OfText.Text)
			}
		}
		return n + blockOverhead
	case blk.OfToolUse != nil:
		b, err := json.Marshal(blk.OfToolUse.Input)
		if err != nil {
			return blockOverhead
		}
		return utf8.RuneCount(b) + utf8.RuneCountInString(blk.OfToolUse.Name) + blockOverhead
	default:
		return blockOverhead
	}
}
