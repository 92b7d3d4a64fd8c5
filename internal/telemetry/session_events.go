package telemetry

import (
	"context"

	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/metrics"
)

// EmitSessionStarted records the opening of a session. The latest user
// message is reduced to its text features.
func EmitSessionStarted(ctx context.Context, model string, messages int, latestUser string, hasDocument bool) {
	if !ObserveEnabled() {
		return
	}
	sessionID, _ := SessionIDFromContext(ctx)
	f := metrics.CountFeatures(latestUser)
	Emit("session_started", map[string]any{
		"session_id":   sessionID,
		"model":        model,
		"messages":     messages,
		"has_document": hasDocument,
		"user": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
		},
	})
}

// EmitToolUse records a tool invocation sent to the executor.
func EmitToolUse(ctx context.Context, iteration int, callID, tool string, inputSize int, terminal bool) {
	sessionID, _ := SessionIDFromContext(ctx)
	Emit("tool_use", map[string]any{
		"session_id": sessionID,
		"iteration":  iteration,
		"call_id":    callID,
		"tool":       tool,
		"input_size": inputSize,
		"terminal":   terminal,
	})
}

// EmitRendezvous records how a wait for a tool result ended: "delivered",
// "timeout" or "canceled".
func EmitRendezvous(ctx context.Context, callID, status string, waitedMs int64, resultSize int) {
	sessionID, _ := SessionIDFromContext(ctx)
	Emit("rendezvous", map[string]any{
		"session_id":  sessionID,
		"call_id":     callID,
		"status":      status,
		"waited_ms":   waitedMs,
		"result_size": resultSize,
	})
}

// EmitSessionFinished records the terminal state of a session. errStr is
// empty on success.
func EmitSessionFinished(ctx context.Context, state string, iterations, invocations int, errStr string) {
	sessionID, _ := SessionIDFromContext(ctx)
	fields := map[string]any{
		"session_id":  sessionID,
		"state":       state,
		"iterations":  iterations,
		"invocations": invocations,
	}
	if errStr != "" {
		fields["error"] = errStr
	} else {
		fields["error"] = nil
	}
	Emit("session_finished", fields)
}
