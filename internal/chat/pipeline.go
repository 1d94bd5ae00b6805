package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/vinamind/tamsu-api/internal/observability/metrics"
	"github.com/vinamind/tamsu-api/pkg/logging"
)

// Error codes surfaced to clients. The sanitizer sentinels double as codes
// for their own failures.
const (
	CodeMissingMessage     = "missing_message"
	CodeInvalidJSON        = "invalid_json"
	CodeTokenLimitExceeded = "token_limit_exceeded"
	CodeUpstreamError      = "upstream_error"
	CodeServerError        = "server_error"
)

// EventType identifies one frame of the abstract reply sequence.
type EventType string

const (
	EventMeta  EventType = "meta"
	EventDelta EventType = "delta"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Meta is the first frame of every successful sequence.
type Meta struct {
	TraceID   string   `json:"trace_id"`
	RiskLevel RiskTier `json:"riskLevel"`
	SOS       bool     `json:"sos,omitempty"`
}

// PipelineError is a terminal failure frame. Status is the HTTP status a
// renderer should use when the response has not started yet.
type PipelineError struct {
	Code    string
	Message string
	Status  int
	Tokens  int64
	Limit   int64
}

func (e *PipelineError) Error() string { return e.Code + ": " + e.Message }

// Event is one step of the reply sequence: meta, zero or more deltas, then
// exactly one done or error. Both renderers (JSON aggregator, SSE framer)
// consume the same sequence, so risk/quota/crisis logic exists once.
type Event struct {
	Type     EventType
	Meta     *Meta
	Text     string
	Response *ChatResponse
	Err      *PipelineError
}

// Request is one inbound chat turn after HTTP decoding.
type Request struct {
	TraceID       string
	Message       string
	History       []ChatMessage
	MemorySummary string
	Stream        bool
}

// PipelineConfig wires the orchestrator's collaborators.
type PipelineConfig struct {
	Classifier   *Classifier
	Quota        *QuotaGate
	LLM          LLMClient
	StreamLLM    StreamingLLMClient // optional; batch client is used when nil
	Model        string
	SystemPrompt string // defaults to the built-in prompt
	Metrics      *metrics.ChatMetrics
	Logger       *logging.Logger
}

// Pipeline sequences sanitize → classify → (crisis | quota → context → model
// → parse → review) → accounting and renders the result as an event stream.
type Pipeline struct {
	classifier   *Classifier
	quota        *QuotaGate
	llm          LLMClient
	streamLLM    StreamingLLMClient
	model        string
	systemPrompt string
	reviewer     *Reviewer
	metrics      *metrics.ChatMetrics
	logger       *logging.Logger
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Classifier == nil {
		panic("chat: classifier cannot be nil")
	}
	if cfg.Quota == nil {
		panic("chat: quota gate cannot be nil")
	}
	if cfg.LLM == nil {
		panic("chat: llm client cannot be nil")
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Pipeline{
		classifier:   cfg.Classifier,
		quota:        cfg.Quota,
		llm:          cfg.LLM,
		streamLLM:    cfg.StreamLLM,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		reviewer:     NewReviewer(cfg.LLM, cfg.Model, cfg.Logger),
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
}

// Run executes the pipeline for one request. The returned channel yields the
// event sequence and is closed after the terminal frame. Reading stops when
// ctx is cancelled; the model stream is released, and no usage is recorded
// for an aborted request.
func (p *Pipeline) Run(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event, 8)

	go func() {
		defer close(events)
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("pipeline panic", "trace_id", req.TraceID, "panic", r)
				p.send(ctx, events, Event{Type: EventError, Err: &PipelineError{
					Code:    CodeServerError,
					Message: "internal error",
					Status:  500,
				}})
			}
		}()
		p.run(ctx, req, events)
	}()

	return events
}

func (p *Pipeline) run(ctx context.Context, req Request, events chan<- Event) {
	logger := p.logger.WithTrace(req.TraceID)
	mode := "json"
	if req.Stream {
		mode = "sse"
	}

	clean, err := Sanitize(req.Message)
	if err != nil {
		p.metrics.ObserveRequest("none", mode, "input_error")
		p.send(ctx, events, Event{Type: EventError, Err: &PipelineError{
			Code:    err.Error(),
			Message: "message rejected by input validation",
			Status:  400,
		}})
		return
	}

	tier := p.classifier.Classify(clean, req.History)

	if tier == RiskRed {
		logger.Info("crisis short-circuit", "tier", tier)
		p.metrics.ObserveCrisis()
		p.metrics.ObserveRequest(string(tier), mode, "crisis")
		resp := CrisisResponse()
		if !p.send(ctx, events, Event{Type: EventMeta, Meta: &Meta{TraceID: req.TraceID, RiskLevel: RiskRed, SOS: true}}) {
			return
		}
		if !p.send(ctx, events, Event{Type: EventDelta, Text: resp.Reply}) {
			return
		}
		p.send(ctx, events, Event{Type: EventDone, Response: resp})
		return
	}

	quota := p.quota.CheckLimit(ctx)
	if !quota.Allowed {
		logger.Warn("monthly token quota exhausted", "tokens", quota.Tokens, "limit", quota.Limit)
		p.metrics.ObserveQuotaRejected()
		p.metrics.ObserveRequest(string(tier), mode, "quota_rejected")
		p.send(ctx, events, Event{Type: EventError, Err: &PipelineError{
			Code:    CodeTokenLimitExceeded,
			Message: "monthly token quota exhausted",
			Status:  429,
			Tokens:  quota.Tokens,
			Limit:   quota.Limit,
		}})
		return
	}

	system := p.systemPrompt
	if req.Stream {
		system += streamSystemSuffix
	}
	messages := BuildMessages(system, req.History, clean, req.MemorySummary)

	if !p.send(ctx, events, Event{Type: EventMeta, Meta: &Meta{TraceID: req.TraceID, RiskLevel: tier}}) {
		return
	}

	if req.Stream && p.streamLLM != nil {
		p.runStream(ctx, req, events, logger, tier, messages, clean)
		return
	}
	p.runBatch(ctx, req, events, logger, mode, tier, messages, clean)
}

func (p *Pipeline) runBatch(ctx context.Context, req Request, events chan<- Event, logger *logging.Logger, mode string, tier RiskTier, messages []ChatMessage, clean string) {
	llmReq := LLMRequest{Model: p.model, Messages: messages}
	applyInferenceDefaults(&llmReq)

	start := time.Now()
	resp, err := p.llm.Complete(ctx, llmReq)
	p.metrics.ObserveModelLatency("batch", time.Since(start).Seconds())
	if err != nil {
		logger.Error("model invocation failed", "error", err)
		p.metrics.ObserveRequest(string(tier), mode, "upstream_error")
		p.send(ctx, events, Event{Type: EventError, Err: &PipelineError{
			Code:    CodeUpstreamError,
			Message: "the model endpoint failed",
			Status:  502,
		}})
		return
	}

	result := ParseReply(resp.Text)
	if result.Fallback {
		logger.Warn("model reply lacked structured output, using fallback")
		p.metrics.ObserveParseFallback()
	}

	reply := result.Reply
	// Tier floor: the classifier's tier is a monotonic lower bound on the
	// model's self-assessment.
	reply.RiskLevel = MaxTier(tier, reply.RiskLevel)

	if reply.Confidence < reviewConfidenceThreshold {
		p.metrics.ObserveReview("reviewed")
		reply = p.reviewer.Review(ctx, reply, clean)
	} else {
		p.metrics.ObserveReview("skipped")
	}
	reply.RiskLevel = MaxTier(tier, reply.RiskLevel)

	final := &ChatResponse{StructuredReply: reply}
	if req.Stream {
		// Fallback rendering for SSE when no streaming provider is wired.
		if !p.send(ctx, events, Event{Type: EventDelta, Text: reply.Reply}) {
			return
		}
	}
	if !p.send(ctx, events, Event{Type: EventDone, Response: final}) {
		return
	}

	p.metrics.ObserveRequest(string(tier), mode, "ok")
	p.recordUsage(messages, clean, reply.Reply)
}

func (p *Pipeline) runStream(ctx context.Context, req Request, events chan<- Event, logger *logging.Logger, tier RiskTier, messages []ChatMessage, clean string) {
	llmReq := LLMRequest{Model: p.model, Messages: messages}
	applyInferenceDefaults(&llmReq)

	start := time.Now()
	chunks, err := p.streamLLM.CompleteStream(ctx, llmReq)
	if err != nil {
		logger.Error("model stream open failed", "error", err)
		p.metrics.ObserveRequest(string(tier), "sse", "upstream_error")
		p.send(ctx, events, Event{Type: EventError, Err: &PipelineError{
			Code:    CodeUpstreamError,
			Message: "the model endpoint failed",
			Status:  502,
		}})
		return
	}

	var transcript strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			logger.Error("model stream failed mid-flight", "error", chunk.Error)
			p.metrics.ObserveRequest(string(tier), "sse", "upstream_error")
			p.send(ctx, events, Event{Type: EventError, Err: &PipelineError{
				Code:    CodeUpstreamError,
				Message: "the model stream failed",
				Status:  502,
			}})
			return
		}
		if chunk.Text != "" {
			transcript.WriteString(chunk.Text)
			if !p.send(ctx, events, Event{Type: EventDelta, Text: chunk.Text}) {
				return
			}
		}
		if chunk.Done {
			break
		}
	}
	if ctx.Err() != nil {
		// Client went away; the provider stream is released via ctx and the
		// partial transcript is deliberately not accounted.
		return
	}
	p.metrics.ObserveModelLatency("stream", time.Since(start).Seconds())

	text := strings.TrimSpace(transcript.String())
	final := &ChatResponse{StructuredReply: StructuredReply{
		RiskLevel:  tier,
		Reply:      text,
		Actions:    []string{},
		Confidence: defaultConfidence,
	}}
	if !p.send(ctx, events, Event{Type: EventDone, Response: final}) {
		return
	}

	p.metrics.ObserveRequest(string(tier), "sse", "ok")
	p.recordUsage(messages, clean, text)
}

// recordUsage spawns best-effort token accounting after the reply sequence is
// finalized, so store latency never delays the client. The estimate covers
// the serialized context plus the final reply text.
func (p *Pipeline) recordUsage(messages []ChatMessage, currentMessage, replyText string) {
	contextJSON, err := json.Marshal(messages)
	if err != nil {
		contextJSON = nil
	}
	tokens := EstimateTokens(string(contextJSON)+currentMessage) + EstimateTokens(replyText)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		usage := p.quota.AddUsage(ctx, tokens)
		if usage.Warning && !usage.Exceeded {
			p.logger.Warn("monthly token quota above warning threshold",
				"tokens", usage.Tokens, "limit", usage.Limit)
		}
	}()
}

func (p *Pipeline) send(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
