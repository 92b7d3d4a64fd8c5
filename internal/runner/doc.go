// Package runner drives one orchestration session: it streams model output to
// the add-in, hands each tool invocation to the remote executor, and waits for
// the executor's result to come back through the rendezvous store.
//
// Invariants:
//   - at most one tool invocation is acted on per model turn;
//   - an assistant tool_use is always followed by the user tool_result that
//     answers it, so the history sent on the next turn stays well formed;
//   - the session ends in exactly one of DONE (complete event) or ABORTED
//     (at most one error event).
//
// Flow:
//
//	STREAMING -> TOOL_INVOKED -> AWAITING_RESULT -> RESULT_APPENDED -> STREAMING ...
//	STREAMING -> DONE      (no tool call, or the terminal tool)
//	any       -> ABORTED   (iteration ceiling, provider error, closed stream)
package runner
