package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/metrics"
)

// FailureResult replaces a result the executor sent without a usable value.
const FailureResult = `{"success":false,"message":"no usable result returned by the executor"}`

type toolResultRequest struct {
	CallID string          `json:"callId"`
	Result json.RawMessage `json:"result"`
}

type toolResultResponse struct {
	Success bool   `json:"success"`
	CallID  string `json:"callId"`
}

// handleToolResult deposits an executor result. It does not know which
// session, if any, is waiting for callId.
func (h *handlers) handleToolResult(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxRequestBodyBytes)
	var req toolResultRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	callID := strings.TrimSpace(req.CallID)
	if callID == "" {
		writeError(w, http.StatusBadRequest, errorCodeInvalidRequest, "callId is required")
		return
	}

	value, shape := normalizeResult(req.Result)
	metrics.ResultsStored.WithLabelValues(shape).Inc()
	if shape != "object" {
		h.logger.Warn("tool result replaced with failure payload", "call_id", callID, "shape", shape)
	}
	h.store.Put(callID, value)
	h.logger.Debug("tool result stored", "call_id", callID, "bytes", len(value))

	writeJSON(w, http.StatusOK, toolResultResponse{Success: true, CallID: callID})
}

// normalizeResult returns the value to store and a label for its shape.
// Anything other than a JSON object becomes FailureResult.
func normalizeResult(raw json.RawMessage) (json.RawMessage, string) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return json.RawMessage(FailureResult), "missing"
	case bytes.Equal(trimmed, []byte("null")):
		return json.RawMessage(FailureResult), "null"
	case trimmed[0] != '{':
		return json.RawMessage(FailureResult), "non_object"
	}
	return json.RawMessage(bytes.Clone(trimmed)), "object"
}
