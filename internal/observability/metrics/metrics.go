package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the conversation pipeline.
type ChatMetrics struct {
	requestsTotal      *prometheus.CounterVec
	crisisTotal        prometheus.Counter
	quotaRejectedTotal prometheus.Counter
	parseFallbackTotal prometheus.Counter
	reviewTotal        *prometheus.CounterVec
	modelLatency       *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tamsu",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total chat requests by risk tier, delivery mode, and outcome",
		}, []string{"tier", "mode", "status"}),
		crisisTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tamsu",
			Subsystem: "chat",
			Name:      "crisis_short_circuit_total",
			Help:      "Red-tier requests answered by the fixed crisis payload",
		}),
		quotaRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tamsu",
			Subsystem: "chat",
			Name:      "quota_rejected_total",
			Help:      "Requests rejected by the monthly token quota",
		}),
		parseFallbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tamsu",
			Subsystem: "chat",
			Name:      "parse_fallback_total",
			Help:      "Model replies that lacked usable structured output",
		}),
		reviewTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tamsu",
			Subsystem: "chat",
			Name:      "self_review_total",
			Help:      "Self-review passes by outcome",
		}, []string{"outcome"}),
		modelLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tamsu",
			Subsystem: "chat",
			Name:      "model_latency_seconds",
			Help:      "Latency of model invocations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.crisisTotal, m.quotaRejectedTotal, m.parseFallbackTotal, m.reviewTotal, m.modelLatency)
	return m
}

func (m *ChatMetrics) ObserveRequest(tier, mode, status string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(tier, mode, status).Inc()
}

func (m *ChatMetrics) ObserveCrisis() {
	if m == nil {
		return
	}
	m.crisisTotal.Inc()
}

func (m *ChatMetrics) ObserveQuotaRejected() {
	if m == nil {
		return
	}
	m.quotaRejectedTotal.Inc()
}

func (m *ChatMetrics) ObserveParseFallback() {
	if m == nil {
		return
	}
	m.parseFallbackTotal.Inc()
}

func (m *ChatMetrics) ObserveReview(outcome string) {
	if m == nil {
		return
	}
	m.reviewTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveModelLatency(mode string, seconds float64) {
	if m == nil {
		return
	}
	m.modelLatency.WithLabelValues(mode).Observe(seconds)
}

// HTTPMetrics counts edge rejections that never reach the pipeline.
type HTTPMetrics struct {
	rateLimitedTotal prometheus.Counter
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tamsu",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-IP rate limiter",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.rateLimitedTotal)
	return m
}

func (m *HTTPMetrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}
