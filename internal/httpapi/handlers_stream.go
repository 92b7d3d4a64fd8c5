package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/runner"
	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/stream"
	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/telemetry"
)

type startRequest struct {
	Messages []runner.Message `json:"messages"`
	Document json.RawMessage  `json:"document,omitempty"`
}

// handleStream starts a session and streams its events until complete or
// error. Request problems are reported as a single error event, since the
// add-in only reads the stream.
func (h *handlers) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()
	w.Header().Set(sessionIDHeader, sessionID)
	stream.PrepareHeaders(w.Header())
	w.WriteHeader(http.StatusOK)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	flusher, _ := w.(http.Flusher)
	out := stream.NewWriter(w, flusher, cancel)

	log := h.logger.With("session_id", sessionID)
	ctx = telemetry.WithSessionID(ctx, sessionID)

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxRequestBodyBytes)
	var req startRequest
	if err := decodeJSONBody(r, &req); err != nil {
		log.Warn("rejected session request", "error", err)
		_ = out.Emit(stream.Error(err.Error()))
		return
	}
	sess, err := runner.NewSession(sessionID, req.Messages, req.Document)
	if err != nil {
		log.Warn("rejected session request", "error", err)
		_ = out.Emit(stream.Error(err.Error()))
		return
	}

	var wg sync.WaitGroup
	if h.cfg.KeepAliveInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.KeepAlive(ctx, h.cfg.KeepAliveInterval)
		}()
	}
	defer wg.Wait()
	defer cancel()

	telemetry.EmitSessionStarted(ctx, string(h.runner.Model()), len(req.Messages), runner.LatestUserText(req.Messages), sess.Document != nil)
	h.runner.Run(ctx, sess, out)
}
