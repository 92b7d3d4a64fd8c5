package runner

import (
	"encoding/json"
	"strings"
)

const basePrompt = `You are an editing assistant working inside a Microsoft Word document.
You change the document only by calling the provided tools; each tool call is
carried out by the Word add-in and its result is returned to you.
Work in small steps and call one tool at a time. Read the document before
editing it when you are unsure of its contents.
When the request is fully handled, call task_complete with a short summary of
what you changed. If no edit is needed, answer in plain text.`

// SystemPrompt returns the fixed instructions, followed by the document
// context when the add-in supplied one.
func SystemPrompt(document json.RawMessage) string {
	if len(document) == 0 {
		return basePrompt
	}
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\nCurrent document context (JSON):\n")
	b.Write(document)
	return b.String()
}
