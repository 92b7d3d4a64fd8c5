package tools

// Registry returns all tool definitions offered to the model.
func Registry() []ToolDefinition {
	return []ToolDefinition{
		ReadDocumentDefinition,
		InsertTextDefinition,
		ReplaceTextDefinition,
		DeleteTextDefinition,
		FormatTextDefinition,
		InsertParagraphDefinition,
		ApplyStyleDefinition,
		InsertTableDefinition,
		InsertListDefinition,
		AddCommentDefinition,
		TaskCompleteDefinition,
	}
}

// TerminalName returns the name of the terminal tool in defs, or "" if none.
func TerminalName(defs []ToolDefinition) string {
	for _, d := range defs {
		if d.Terminal {
			return d.Name
		}
	}
	return ""
}
