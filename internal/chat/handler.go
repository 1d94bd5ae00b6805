package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vinamind/tamsu-api/pkg/logging"
)

// chatRequestBody is the POST /v1/chat payload. History and memory summary
// are optional; when omitted and a session id is present, the handler loads
// them from the history provider.
type chatRequestBody struct {
	Message       string        `json:"message"`
	History       []ChatMessage `json:"history,omitempty"`
	MemorySummary string        `json:"memorySummary,omitempty"`
	SessionID     string        `json:"sessionId,omitempty"`
}

// Handler exposes the pipeline over HTTP.
type Handler struct {
	pipeline *Pipeline
	history  HistoryProvider // optional
	logger   *logging.Logger
}

func NewHandler(pipeline *Pipeline, history HistoryProvider, logger *logging.Logger) *Handler {
	if pipeline == nil {
		panic("chat: pipeline cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{pipeline: pipeline, history: history, logger: logger}
}

// Chat handles POST /v1/chat. Streaming is selected with ?stream=true or an
// Accept: text/event-stream header; otherwise the full reply is returned as
// one JSON document.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.NewString()
	w.Header().Set("X-Trace-Id", traceID)
	logger := h.logger.WithTrace(traceID)

	var body chatRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, &PipelineError{
			Code:    CodeInvalidJSON,
			Message: "request body is not valid JSON",
			Status:  400,
		})
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		writeError(w, &PipelineError{
			Code:    CodeMissingMessage,
			Message: "message is required",
			Status:  400,
		})
		return
	}

	req := Request{
		TraceID:       traceID,
		Message:       body.Message,
		History:       body.History,
		MemorySummary: body.MemorySummary,
		Stream:        wantsStream(r),
	}

	if len(req.History) == 0 && body.SessionID != "" && h.history != nil {
		history, summary, err := h.history.Load(r.Context(), body.SessionID)
		if err != nil {
			logger.Warn("history load failed, continuing without", "session_id", body.SessionID, "error", err)
		} else {
			req.History = history
			if req.MemorySummary == "" {
				req.MemorySummary = summary
			}
		}
	}

	events := h.pipeline.Run(r.Context(), req)

	var final *ChatResponse
	if req.Stream {
		final = RenderSSE(w, logger, events)
	} else {
		final = RenderJSON(w, events)
	}

	if final != nil && body.SessionID != "" && h.history != nil {
		h.appendTurn(body.SessionID, body.Message, final.Reply)
	}
}

// appendTurn persists the exchange best-effort, off the request path.
func (h *Handler) appendTurn(sessionID, userMessage, replyText string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		turn := []ChatMessage{
			{Role: ChatRoleUser, Content: userMessage},
			{Role: ChatRoleAssistant, Content: replyText},
		}
		if err := h.history.Append(ctx, sessionID, turn...); err != nil {
			h.logger.Warn("history append failed", "session_id", sessionID, "error", err)
		}
	}()
}

// History handles GET /v1/chat/history?session_id=...
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, &PipelineError{
			Code:    "missing_session_id",
			Message: "session_id is required",
			Status:  400,
		})
		return
	}
	if h.history == nil {
		writeError(w, &PipelineError{
			Code:    "history_unavailable",
			Message: "no history store is configured",
			Status:  404,
		})
		return
	}

	history, summary, err := h.history.Load(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("history load failed", "session_id", sessionID, "error", err)
		writeError(w, &PipelineError{
			Code:    CodeServerError,
			Message: "failed to load history",
			Status:  500,
		})
		return
	}
	if history == nil {
		history = []ChatMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId":     sessionID,
		"history":       history,
		"memorySummary": summary,
	})
}

// ModerationScan handles POST /v1/moderation/scan: a dry-run of the input
// screens, for client-side preflight and ops debugging. It never calls the
// model and never counts against the quota.
func (h *Handler) ModerationScan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, &PipelineError{
			Code:    CodeInvalidJSON,
			Message: "request body is not valid JSON",
			Status:  400,
		})
		return
	}

	flagged, reasons := ScanInjection(body.Text)
	tier := h.pipeline.classifier.Classify(body.Text, nil)
	if reasons == nil {
		reasons = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"flagged":   flagged,
		"reasons":   reasons,
		"riskLevel": tier,
	})
}

func wantsStream(r *http.Request) bool {
	if r.URL.Query().Get("stream") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}
