package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/history"
	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/metrics"
	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/rendezvous"
	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/stream"
	"github.com/benreeve-ow/isaac-word-agent-sub001/internal/telemetry"
	"github.com/benreeve-ow/isaac-word-agent-sub001/tools"
)

var (
	ErrIterationCeiling = errors.New("runner: iteration ceiling reached")
	ErrProvider         = errors.New("runner: model provider call failed")
	ErrStreamClosed     = errors.New("runner: event stream closed")
)

// TimeoutResult stands in for a result the executor never delivered.
const TimeoutResult = `{"success":true,"message":"executed (timeout waiting for result)"}`

const (
	DefaultMaxTokens        = 4096
	DefaultPollCeiling      = 30 * time.Second
	DefaultIterationCeiling = 100
)

// Config holds per-session limits.
type Config struct {
	Model            anthropic.Model
	MaxTokens        int64
	PollCeiling      time.Duration // longest wait for one tool result
	IterationCeiling int           // provider calls per session
}

// Outcome summarizes a finished session.
type Outcome struct {
	State       State
	Iterations  int
	Invocations []Invocation
	Summary     string
	Err         error
}

type Runner struct {
	Client *anthropic.Client
	Tools  []tools.ToolDefinition
	Store  *rendezvous.Store

	cfg      Config
	terminal string
	logger   *slog.Logger
}

func New(client *anthropic.Client, toolDefs []tools.ToolDefinition, store *rendezvous.Store, cfg Config, logger *slog.Logger) *Runner {
	if cfg.Model == "" {
		cfg.Model = anthropic.ModelClaude3_7SonnetLatest
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.PollCeiling <= 0 {
		cfg.PollCeiling = DefaultPollCeiling
	}
	if cfg.IterationCeiling <= 0 {
		cfg.IterationCeiling = DefaultIterationCeiling
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Client:   client,
		Tools:    toolDefs,
		Store:    store,
		cfg:      cfg,
		terminal: tools.TerminalName(toolDefs),
		logger:   logger,
	}
}

// Model returns the model sessions are run against.
func (r *Runner) Model() anthropic.Model { return r.cfg.Model }

func (r *Runner) anthropicTools() []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(r.Tools))
	for _, t := range r.Tools {
		out = append(out, t.Param())
	}
	return out
}

func (r *Runner) params(sess *Session) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     r.cfg.Model,
		MaxTokens: r.cfg.MaxTokens,
		Messages:  sess.conv,
		System:    []anthropic.TextBlockParam{{Text: sess.System}},
		Tools:     r.anthropicTools(),
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfAuto: &anthropic.ToolChoiceAutoParam{DisableParallelToolUse: anthropic.Bool(true)},
		},
	}
}

// Run drives sess until it is done or aborted, writing events to out. It
// never emits more than one error event and never emits complete after one.
func (r *Runner) Run(ctx context.Context, sess *Session, out stream.Emitter) Outcome {
	ctx = telemetry.WithSessionID(ctx, sess.ID)
	ctx, span := telemetry.StartSpan(ctx, "session", telemetry.AttrSessionID.String(sess.ID))
	log := r.logger.With("session_id", sess.ID)

	metrics.ActiveSessions.Inc()
	started := time.Now()
	log.Info("session started", "model", string(r.cfg.Model), "messages", len(sess.conv), "has_document", sess.Document != nil)

	res := r.loop(ctx, sess, out, log)
	sess.state = res.State
	res.Iterations = sess.iterations
	res.Invocations = sess.invocations

	metrics.ActiveSessions.Dec()
	metrics.SessionsTotal.WithLabelValues(res.State.String()).Inc()
	metrics.SessionIterations.Observe(float64(res.Iterations))

	errStr := ""
	if res.Err != nil {
		errStr = res.Err.Error()
		log.Warn("session aborted", "iteration", res.Iterations, "error", res.Err, "duration", time.Since(started))
	} else {
		log.Info("session finished", "iteration", res.Iterations, "invocations", len(res.Invocations), "duration", time.Since(started))
	}
	telemetry.EmitSessionFinished(ctx, res.State.String(), res.Iterations, len(res.Invocations), errStr)
	span.SetAttributes(telemetry.AttrState.String(res.State.String()), telemetry.AttrIteration.Int(res.Iterations))
	telemetry.EndSpan(span, res.Err)
	return res
}

func (r *Runner) loop(ctx context.Context, sess *Session, out stream.Emitter, log *slog.Logger) Outcome {
	for sess.iterations < r.cfg.IterationCeiling {
		sess.iterations++
		sess.state = StateStreaming
		it := sess.iterations

		ictx, span := telemetry.StartSpan(ctx, "iteration",
			telemetry.AttrSessionID.String(sess.ID), telemetry.AttrIteration.Int(it))
		res, done := r.step(ictx, sess, out, log.With("iteration", it))
		telemetry.EndSpan(span, res.Err)
		if done {
			return res
		}
	}

	err := fmt.Errorf("%w after %d iterations", ErrIterationCeiling, r.cfg.IterationCeiling)
	log.Error("iteration ceiling reached", "iteration", sess.iterations, "ceiling", r.cfg.IterationCeiling)
	return r.abort(out, err, log)
}

// step runs one iteration. done is false when the loop should continue.
func (r *Runner) step(ctx context.Context, sess *Session, out stream.Emitter, log *slog.Logger) (Outcome, bool) {
	if err := history.CheckPairs(sess.conv); err != nil {
		log.Error("conversation history is malformed", "error", err)
		return r.abort(out, err, log), true
	}
	log.Debug("calling model provider", "messages", len(sess.conv), "estimated_size", history.Estimate(sess.System, sess.conv))

	t, err := r.streamTurn(ctx, sess, out, log)
	switch {
	case errors.Is(err, ErrStreamClosed):
		log.Warn("event stream closed by peer", "error", err)
		return Outcome{State: StateAborted, Err: err}, true
	case err != nil && ctx.Err() != nil:
		log.Info("session canceled", "error", ctx.Err())
		return Outcome{State: StateAborted, Err: ctx.Err()}, true
	case err != nil:
		metrics.ProviderErrors.Inc()
		log.Error("model provider call failed", "error", err)
		return r.abort(out, fmt.Errorf("%w: %w", ErrProvider, err), log), true
	}

	if t.invalid {
		// Dropped without touching history; the next iteration retries the turn.
		return Outcome{}, false
	}

	if t.call == nil {
		text := t.text.String()
		if text != "" {
			sess.conv = append(sess.conv, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		}
		return r.finish(out, text, sess.iterations, log)
	}

	call := *t.call
	sess.state = StateToolInvoked
	sess.invocations = append(sess.invocations, call)
	terminal := call.Name == r.terminal
	metrics.ToolInvocations.WithLabelValues(call.Name).Inc()
	telemetry.EmitToolUse(ctx, sess.iterations, call.ID, call.Name, len(call.Input), terminal)
	log.Info("tool invoked", "call_id", call.ID, "tool", call.Name)

	if err := out.Emit(stream.ToolUse(call.ID, call.Name, call.Input)); err != nil {
		log.Warn("event stream closed by peer", "call_id", call.ID, "error", err)
		return Outcome{State: StateAborted, Err: fmt.Errorf("%w: %w", ErrStreamClosed, err)}, true
	}

	if terminal {
		summary := gjson.GetBytes(call.Input, "summary").String()
		return r.finish(out, summary, sess.iterations, log)
	}

	if sess.iterations >= r.cfg.IterationCeiling {
		// No turn is left to consume the result.
		log.Info("not waiting for tool result on final iteration", "call_id", call.ID, "tool", call.Name)
		return Outcome{}, false
	}

	sess.state = StateAwaitingResult
	result, ok := r.await(ctx, call, log)
	if !ok {
		log.Info("session canceled while awaiting result", "call_id", call.ID, "tool", call.Name)
		return Outcome{State: StateAborted, Err: ctx.Err()}, true
	}

	assistant := make([]anthropic.ContentBlockParamUnion, 0, 2)
	if text := t.text.String(); text != "" {
		assistant = append(assistant, anthropic.NewTextBlock(text))
	}
	assistant = append(assistant, anthropic.NewToolUseBlock(call.ID, call.Input, call.Name))
	isError := reportsFailure(result)
	sess.conv = append(sess.conv,
		anthropic.NewAssistantMessage(assistant...),
		anthropic.NewUserMessage(anthropic.NewToolResultBlock(call.ID, string(result), isError)),
	)
	sess.state = StateResultAppended
	return Outcome{}, false
}

// await blocks for the executor's result. ok is false only when ctx ended;
// a timeout yields TimeoutResult.
func (r *Runner) await(ctx context.Context, call Invocation, log *slog.Logger) (json.RawMessage, bool) {
	ctx, span := telemetry.StartSpan(ctx, "rendezvous",
		telemetry.AttrCallID.String(call.ID), telemetry.AttrTool.String(call.Name))
	start := time.Now()
	result, ok := r.Store.Wait(ctx, call.ID, r.cfg.PollCeiling)
	waited := time.Since(start)

	status := "delivered"
	switch {
	case ok:
	case ctx.Err() != nil:
		status = "canceled"
	default:
		status = "timeout"
		result = json.RawMessage(TimeoutResult)
		metrics.ResultTimeouts.Inc()
		log.Warn("no tool result before poll ceiling, using fallback", "call_id", call.ID, "tool", call.Name, "ceiling", r.cfg.PollCeiling)
	}
	metrics.RendezvousWait.WithLabelValues(status).Observe(waited.Seconds())
	telemetry.EmitRendezvous(ctx, call.ID, status, waited.Milliseconds(), len(result))
	span.SetAttributes(attribute.String("wordagent.rendezvous.status", status))

	if status == "canceled" {
		telemetry.EndSpan(span, ctx.Err())
		return nil, false
	}
	telemetry.EndSpan(span, nil)
	return result, true
}

func (r *Runner) finish(out stream.Emitter, summary string, iterations int, log *slog.Logger) (Outcome, bool) {
	if err := out.Emit(stream.Complete(summary, iterations)); err != nil {
		log.Warn("event stream closed before complete", "error", err)
		return Outcome{State: StateAborted, Summary: summary, Err: fmt.Errorf("%w: %w", ErrStreamClosed, err)}, true
	}
	return Outcome{State: StateDone, Summary: summary}, true
}

func (r *Runner) abort(out stream.Emitter, cause error, log *slog.Logger) Outcome {
	if err := out.Emit(stream.Error(cause.Error())); err != nil {
		log.Warn("could not deliver error event", "error", err)
	}
	return Outcome{State: StateAborted, Err: cause}
}

// reportsFailure is true when the result is an object whose success field is
// literally false.
func reportsFailure(result json.RawMessage) bool {
	v := gjson.GetBytes(result, "success")
	return v.Exists() && v.Type == gjson.False
}

// isObject reports whether raw is a single well-formed JSON object, the only
// shape the provider accepts as tool input.
func isObject(raw string) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(raw), &obj) == nil && obj != nil
}

// turn accumulates one streamed model response.
type turn struct {
	text strings.Builder
	call *Invocation

	toolIndex int64
	toolOpen  bool
	toolID    string
	toolName  string
	args      strings.Builder

	invalid bool
}

// streamTurn issues one provider call and relays its text as it arrives. The
// first tool_use block is captured; later ones are logged and ignored.
func (r *Runner) streamTurn(ctx context.Context, sess *Session, out stream.Emitter, log *slog.Logger) (*turn, error) {
	t := &turn{toolIndex: -1}
	events := r.Client.Messages.NewStreaming(ctx, r.params(sess))
	defer events.Close()

	for events.Next() {
		ev := events.Current()
		switch ev.Type {
		case "content_block_start":
			start := ev.AsContentBlockStart()
			if start.ContentBlock.Type != "tool_use" {
				continue
			}
			block := start.ContentBlock.AsToolUse()
			if t.toolIndex >= 0 {
				log.Warn("ignoring additional tool call in turn", "call_id", block.ID, "tool", block.Name)
				continue
			}
			t.toolIndex = start.Index
			t.toolOpen = true
			t.toolID = block.ID
			t.toolName = block.Name

		case "content_block_delta":
			delta := ev.AsContentBlockDelta()
			switch delta.Delta.Type {
			case "text_delta":
				if delta.Delta.Text == "" {
					continue
				}
				t.text.WriteString(delta.Delta.Text)
				if err := out.Emit(stream.Content(delta.Delta.Text)); err != nil {
					return t, fmt.Errorf("%w: %w", ErrStreamClosed, err)
				}
			case "input_json_delta":
				if t.toolOpen && delta.Index == t.toolIndex {
					t.args.WriteString(delta.Delta.PartialJSON)
				}
			}

		case "content_block_stop":
			if !t.toolOpen || ev.Index != t.toolIndex {
				continue
			}
			t.toolOpen = false
			raw := strings.TrimSpace(t.args.String())
			if raw == "" {
				raw = "{}"
			}
			if !isObject(raw) {
				t.invalid = true
				log.Warn("dropping tool call with malformed arguments", "call_id", t.toolID, "tool", t.toolName, "bytes", len(raw))
				continue
			}
			t.call = &Invocation{ID: t.toolID, Name: t.toolName, Input: json.RawMessage(raw)}
		}
	}
	if err := events.Err(); err != nil {
		return t, err
	}
	if t.toolOpen {
		// Stream ended inside the tool block.
		t.invalid = true
		log.Warn("dropping tool call cut off by end of stream", "call_id", t.toolID, "tool", t.toolName)
	}
	return t, nil
}
