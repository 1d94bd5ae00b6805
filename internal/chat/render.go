package chat

import (
	"encoding/json"
	"net/http"

	"github.com/vinamind/tamsu-api/pkg/logging"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Tokens  int64  `json:"tokens,omitempty"`
	Limit   int64  `json:"limit,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, perr *PipelineError) {
	writeJSON(w, perr.Status, errorBody{
		Error:   perr.Code,
		Message: perr.Message,
		Tokens:  perr.Tokens,
		Limit:   perr.Limit,
	})
}

// RenderJSON drains the event sequence and writes a single JSON response:
// the done payload on success, or the error frame's status and body.
// Deltas are ignored; the done frame already carries the full reply. The
// final reply is returned so the caller can persist the turn.
func RenderJSON(w http.ResponseWriter, events <-chan Event) *ChatResponse {
	for ev := range events {
		switch ev.Type {
		case EventDone:
			writeJSON(w, http.StatusOK, ev.Response)
			return ev.Response
		case EventError:
			writeError(w, ev.Err)
			return nil
		}
	}
	// Sequence closed without a terminal frame (client cancellation).
	return nil
}

// sseFrame is the wire shape of every data frame after meta. The done frame
// carries the full final response: streaming clients need the structured
// fields too (crisis hotline actions, confidence, disclaimer), not just the
// delta text they have already seen.
type sseFrame struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	Response *ChatResponse `json:"response,omitempty"`
	Error    string        `json:"error,omitempty"`
	Note     string        `json:"note,omitempty"`
}

// RenderSSE writes the event sequence as server-sent events. If the first
// event is an error the response has not started, so a plain JSON error with
// its real status goes out instead of an SSE body. After the stream starts,
// failures are reported in-band as a data frame since the 200 is already on
// the wire.
func RenderSSE(w http.ResponseWriter, logger *logging.Logger, events <-chan Event) *ChatResponse {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:   CodeServerError,
			Message: "streaming unsupported by this connection",
		})
		return nil
	}

	started := false
	for ev := range events {
		if !started {
			if ev.Type == EventError {
				writeError(w, ev.Err)
				return nil
			}
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.Header().Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
			started = true
		}

		switch ev.Type {
		case EventMeta:
			payload, err := json.Marshal(ev.Meta)
			if err != nil {
				logger.Error("sse meta marshal failed", "error", err)
				continue
			}
			if _, err := w.Write([]byte("event: meta\ndata: " + string(payload) + "\n\n")); err != nil {
				return nil
			}
		case EventDelta:
			writeSSEData(w, sseFrame{Type: "delta", Text: ev.Text})
		case EventDone:
			writeSSEData(w, sseFrame{Type: "done", Response: ev.Response})
			flusher.Flush()
			return ev.Response
		case EventError:
			writeSSEData(w, sseFrame{
				Type:  "error",
				Error: ev.Err.Code,
				Note:  ev.Err.Message,
			})
			flusher.Flush()
			return nil
		}
		flusher.Flush()
	}
	return nil
}

func writeSSEData(w http.ResponseWriter, frame sseFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	_, _ = w.Write([]byte("data: " + string(payload) + "\n\n"))
}
