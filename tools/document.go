package tools

type ReadDocumentInput struct {
	Scope string `json:"scope,omitempty" jsonschema:"enum=all,enum=selection" jsonschema_description:"What to read: the whole body (default) or the current selection."`
}

var ReadDocumentDefinition = ToolDefinition{
	Name:        "read_document",
	Description: "Read the current text of the document body or the user's selection, with paragraph indices.",
	InputSchema: GenerateSchema[ReadDocumentInput](),
}

type InsertTextInput struct {
	Text           string `json:"text" jsonschema_description:"Text to insert."`
	Location       string `json:"location" jsonschema:"enum=start,enum=end,enum=cursor,enum=after_paragraph" jsonschema_description:"Where to insert the text."`
	ParagraphIndex int    `json:"paragraph_index,omitempty" jsonschema_description:"0-based paragraph index; required when location is after_paragraph."`
}

var InsertTextDefinition = ToolDefinition{
	Name:        "insert_text",
	Description: "Insert plain text at the start or end of the document, at the cursor, or after a given paragraph.",
	InputSchema: GenerateSchema[InsertTextInput](),
}

type ReplaceTextInput struct {
	Search      string `json:"search" jsonschema_description:"Exact text to find."`
	Replacement string `json:"replacement" jsonschema_description:"Text to put in place of every match."`
	MatchCase   bool   `json:"match_case,omitempty" jsonschema_description:"Match letter case exactly (default false)."`
}

var ReplaceTextDefinition = ToolDefinition{
	Name:        "replace_text",
	Description: "Replace every occurrence of search with replacement. Fails when search is not found.",
	InputSchema: GenerateSchema[ReplaceTextInput](),
}

type DeleteTextInput struct {
	Search    string `json:"search" jsonschema_description:"Exact text to delete."`
	MatchCase bool   `json:"match_case,omitempty" jsonschema_description:"Match letter case exactly (default false)."`
}

var DeleteTextDefinition = ToolDefinition{
	Name:        "delete_text",
	Description: "Delete every occurrence of the given text.",
	InputSchema: GenerateSchema[DeleteTextInput](),
}

type FormatTextInput struct {
	Search    string  `json:"search" jsonschema_description:"Exact text whose formatting changes."`
	Bold      *bool   `json:"bold,omitempty"`
	Italic    *bool   `json:"italic,omitempty"`
	Underline *bool   `json:"underline,omitempty"`
	FontSize  float64 `json:"font_size,omitempty" jsonschema_description:"Font size in points."`
	Color     string  `json:"color,omitempty" jsonschema_description:"Font color as #RRGGBB."`
	Highlight string  `json:"highlight,omitempty" jsonschema_description:"Highlight color name, e.g. yellow."`
}

var FormatTextDefinition = ToolDefinition{
	Name:        "format_text",
	Description: "Change character formatting of every occurrence of the given text. Omitted properties are left unchanged.",
	InputSchema: GenerateSchema[FormatTextInput](),
}

type InsertParagraphInput struct {
	Text       string `json:"text" jsonschema_description:"Paragraph text."`
	AfterIndex int    `json:"after_index,omitempty" jsonschema_description:"0-based index of the paragraph to insert after; -1 inserts at the start."`
	Style      string `json:"style,omitempty" jsonschema_description:"Built-in style name, e.g. Heading 1, Normal, Quote."`
}

var InsertParagraphDefinition = ToolDefinition{
	Name:        "insert_paragraph",
	Description: "Insert a new paragraph, optionally styled, after the given paragraph index.",
	InputSchema: GenerateSchema[InsertParagraphInput](),
}

type ApplyStyleInput struct {
	ParagraphIndex int    `json:"paragraph_index" jsonschema_description:"0-based paragraph index."`
	Style          string `json:"style" jsonschema_description:"Built-in style name."`
}

var ApplyStyleDefinition = ToolDefinition{
	Name:        "apply_style",
	Description: "Apply a built-in paragraph style to one paragraph.",
	InputSchema: GenerateSchema[ApplyStyleInput](),
}

type InsertTableInput struct {
	AfterIndex int        `json:"after_index" jsonschema_description:"0-based index of the paragraph to insert the table after."`
	Rows       [][]string `json:"rows" jsonschema_description:"Cell text, row-major. The first row is the header when header is true."`
	Header     bool       `json:"header,omitempty" jsonschema_description:"Format the first row as a header row."`
}

var InsertTableDefinition = ToolDefinition{
	Name:        "insert_table",
	Description: "Insert a table filled with the given cell text after a paragraph.",
	InputSchema: GenerateSchema[InsertTableInput](),
}

type InsertListInput struct {
	AfterIndex int      `json:"after_index" jsonschema_description:"0-based index of the paragraph to insert the list after."`
	Items      []string `json:"items" jsonschema_description:"List item text, one entry per item."`
	Ordered    bool     `json:"ordered,omitempty" jsonschema_description:"Numbered list when true, bulleted otherwise."`
}

var InsertListDefinition = ToolDefinition{
	Name:        "insert_list",
	Description: "Insert a bulleted or numbered list after a paragraph.",
	InputSchema: GenerateSchema[InsertListInput](),
}

type AddCommentInput struct {
	Search  string `json:"search" jsonschema_description:"Exact text to anchor the comment to (first occurrence)."`
	Comment string `json:"comment" jsonschema_description:"Comment body."`
}

var AddCommentDefinition = ToolDefinition{
	Name:        "add_comment",
	Description: "Attach a review comment to the first occurrence of the given text.",
	InputSchema: GenerateSchema[AddCommentInput](),
}

// TaskCompleteName is the terminal tool. Its summary becomes the session's
// completion payload.
const TaskCompleteName = "task_complete"

type TaskCompleteInput struct {
	Summary string `json:"summary" jsonschema_description:"Short description of what was changed in the document."`
}

var TaskCompleteDefinition = ToolDefinition{
	Name:        TaskCompleteName,
	Description: "Call exactly once when the requested edits are finished. Ends the session.",
	InputSchema: GenerateSchema[TaskCompleteInput](),
	Terminal:    true,
}
