package httpapi

import (
	"net/http"

	"github.com/benreeve-ow/isaac-word-agent-sub001/tools"
)

type toolsResponse struct {
	Tools []tools.ToolDefinition `json:"tools"`
}

type healthResponse struct {
	Status         string `json:"status"`
	PendingResults int    `json:"pending_results"`
}

func (h *handlers) handleTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toolsResponse{Tools: h.tools})
}

func (h *handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", PendingResults: h.store.Len()})
}
