package chat

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/vinamind/tamsu-api/pkg/logging"
)

// DefaultMonthlyTokenLimit is the ceiling on estimated tokens per calendar
// month when no limit is configured.
const DefaultMonthlyTokenLimit int64 = 500_000

// warningThreshold is the fraction of the ceiling at which AddUsage starts
// flagging a warning.
const warningThreshold = 0.8

// UsageStore persists the monthly token counters. AddTokens must be an atomic
// upsert (initialize-or-add in a single call) so concurrent requests in the
// same month never lose updates.
type UsageStore interface {
	AddTokens(ctx context.Context, month string, tokens int64) (int64, error)
	GetTokens(ctx context.Context, month string) (int64, error)
}

// QuotaStatus is the result of a pre-call limit check.
type QuotaStatus struct {
	Allowed    bool    `json:"allowed"`
	Tokens     int64   `json:"tokens"`
	Limit      int64   `json:"limit"`
	Percentage float64 `json:"percentage"`
}

// UsageResult is the result of post-call accounting.
type UsageResult struct {
	Tokens   int64 `json:"tokens"`
	Limit    int64 `json:"limit"`
	Warning  bool  `json:"warning"`
	Exceeded bool  `json:"exceeded"`
}

// QuotaGate tracks a rolling monthly token counter against a fixed ceiling.
//
// Persistence failures are deliberately fail-open: a storage outage must
// never block a potentially crisis-adjacent conversation, so errors are
// logged and treated as zero usage.
type QuotaGate struct {
	store  UsageStore
	limit  int64
	logger *logging.Logger
	now    func() time.Time
}

// NewQuotaGate builds a gate over the given store. A non-positive limit
// selects DefaultMonthlyTokenLimit.
func NewQuotaGate(store UsageStore, limit int64, logger *logging.Logger) *QuotaGate {
	if store == nil {
		panic("chat: usage store cannot be nil")
	}
	if limit <= 0 {
		limit = DefaultMonthlyTokenLimit
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &QuotaGate{
		store:  store,
		limit:  limit,
		logger: logger,
		now:    time.Now,
	}
}

// monthKey returns the current UTC calendar month, e.g. "2026-08". A new key
// implicitly starts a counter at zero; no reset job is needed.
func (g *QuotaGate) monthKey() string {
	return g.now().UTC().Format("2006-01")
}

// CheckLimit answers whether the current month still has budget and exposes
// the usage percentage for dashboards.
func (g *QuotaGate) CheckLimit(ctx context.Context) QuotaStatus {
	tokens, err := g.store.GetTokens(ctx, g.monthKey())
	if err != nil {
		g.logger.Warn("quota read failed, failing open", "error", err)
		tokens = 0
	}

	return QuotaStatus{
		Allowed:    tokens < g.limit,
		Tokens:     tokens,
		Limit:      g.limit,
		Percentage: float64(tokens) / float64(g.limit) * 100,
	}
}

// AddUsage atomically adds tokens to this month's counter. Failures are
// swallowed (logged, reported as zero usage) per the fail-open contract.
func (g *QuotaGate) AddUsage(ctx context.Context, tokensToAdd int64) UsageResult {
	if tokensToAdd < 0 {
		tokensToAdd = 0
	}

	total, err := g.store.AddTokens(ctx, g.monthKey(), tokensToAdd)
	if err != nil {
		g.logger.Warn("quota write failed, usage not recorded", "error", err, "tokens", tokensToAdd)
		return UsageResult{Tokens: 0, Limit: g.limit}
	}

	return UsageResult{
		Tokens:   total,
		Limit:    g.limit,
		Warning:  float64(total) >= float64(g.limit)*warningThreshold,
		Exceeded: total >= g.limit,
	}
}

// EstimateTokens is a cheap character-count heuristic (≈4 chars per token).
// It is intentionally approximate; the quota is a cost guardrail, not a bill.
func EstimateTokens(text string) int64 {
	return int64(utf8.RuneCountInString(text)) / 4
}
