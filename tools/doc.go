// Package tools declares the document-editing tool catalogue offered to the
// model.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, terminal flag.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - Document tools: read, insert, replace, delete, format, style, tables,
//     lists, comments. They run in the document add-in, not here.
//   - task_complete: the terminal tool that ends a session.
//
// Invariants:
//   - Exactly one definition in Registry is terminal.
//   - Tool names are unique.
package tools
