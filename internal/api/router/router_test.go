package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinamind/tamsu-api/internal/chat"
)

type staticLLM struct{ text string }

func (s staticLLM) Complete(context.Context, chat.LLMRequest) (chat.LLMResponse, error) {
	return chat.LLMResponse{Text: s.text}, nil
}

type zeroUsage struct{}

func (zeroUsage) AddTokens(_ context.Context, _ string, tokens int64) (int64, error) {
	return tokens, nil
}
func (zeroUsage) GetTokens(context.Context, string) (int64, error) { return 0, nil }

func newTestRouter(t *testing.T, cfg *Config) http.Handler {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChatHandler == nil {
		pipeline := chat.NewPipeline(chat.PipelineConfig{
			Classifier: chat.NewClassifier(chat.DefaultPatternSet()),
			Quota:      chat.NewQuotaGate(zeroUsage{}, 0, nil),
			LLM:        staticLLM{text: `{"riskLevel":"green","reply":"Chào em!","confidence":0.9}`},
			Model:      "model-x",
		})
		cfg.ChatHandler = chat.NewHandler(pipeline, nil, nil)
	}
	return New(cfg)
}

func TestHealthRoute(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestChatRoute(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message":"chào bạn"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chào em!")
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))
}

func TestChatRouteMethodNotAllowed(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/chat", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestModerationRoute(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/moderation/scan", strings.NewReader(`{"text":"hôm nay vui"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"flagged":false`)
}

func TestMetricsRoute(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := newTestRouter(t, &Config{
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChatRouteRateLimited(t *testing.T) {
	r := newTestRouter(t, &Config{RateLimitPerSec: 0.001, RateLimitBurst: 1})

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message":"chào"}`))
		req.RemoteAddr = "7.7.7.7:1234"
		return req
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, newReq())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, newReq())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Other routes are not limited.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
