package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memUsageStore is an in-memory UsageStore with the same atomic
// initialize-or-add contract as the DynamoDB table.
type memUsageStore struct {
	mu     sync.Mutex
	counts map[string]int64
	getErr error
	addErr error
}

func newMemUsageStore() *memUsageStore {
	return &memUsageStore{counts: map[string]int64{}}
}

func (s *memUsageStore) AddTokens(_ context.Context, month string, tokens int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return 0, s.addErr
	}
	s.counts[month] += tokens
	return s.counts[month], nil
}

func (s *memUsageStore) GetTokens(_ context.Context, month string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return 0, s.getErr
	}
	return s.counts[month], nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestQuotaGateCheckLimit(t *testing.T) {
	tests := []struct {
		name        string
		used        int64
		limit       int64
		wantAllowed bool
	}{
		{"fresh month", 0, 1000, true},
		{"under limit", 999, 1000, true},
		{"at limit", 1000, 1000, false},
		{"over limit", 1500, 1000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemUsageStore()
			gate := NewQuotaGate(store, tt.limit, nil)
			gate.now = fixedClock(time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC))
			store.counts["2026-08"] = tt.used

			status := gate.CheckLimit(context.Background())

			assert.Equal(t, tt.wantAllowed, status.Allowed)
			assert.Equal(t, tt.used, status.Tokens)
			assert.Equal(t, tt.limit, status.Limit)
		})
	}
}

func TestQuotaGateMonthRollover(t *testing.T) {
	store := newMemUsageStore()
	gate := NewQuotaGate(store, 1000, nil)
	gate.now = fixedClock(time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC))
	store.counts["2026-08"] = 1000

	assert.False(t, gate.CheckLimit(context.Background()).Allowed)

	// A new month means a new key, which starts at zero without any reset job.
	gate.now = fixedClock(time.Date(2026, 9, 1, 0, 5, 0, 0, time.UTC))
	status := gate.CheckLimit(context.Background())
	assert.True(t, status.Allowed)
	assert.Zero(t, status.Tokens)
}

func TestQuotaGateFailOpen(t *testing.T) {
	store := newMemUsageStore()
	store.getErr = errors.New("dynamodb unavailable")
	gate := NewQuotaGate(store, 1000, nil)

	status := gate.CheckLimit(context.Background())

	assert.True(t, status.Allowed, "a storage outage must never block a conversation")
	assert.Zero(t, status.Tokens)
}

func TestQuotaGateAddUsage(t *testing.T) {
	store := newMemUsageStore()
	gate := NewQuotaGate(store, 1000, nil)
	gate.now = fixedClock(time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC))

	result := gate.AddUsage(context.Background(), 700)
	assert.Equal(t, int64(700), result.Tokens)
	assert.False(t, result.Warning)
	assert.False(t, result.Exceeded)

	result = gate.AddUsage(context.Background(), 150)
	assert.Equal(t, int64(850), result.Tokens)
	assert.True(t, result.Warning, "above 80%% of the ceiling")
	assert.False(t, result.Exceeded)

	result = gate.AddUsage(context.Background(), 200)
	assert.True(t, result.Exceeded)
}

func TestQuotaGateAddUsageFailOpen(t *testing.T) {
	store := newMemUsageStore()
	store.addErr = errors.New("write throttled")
	gate := NewQuotaGate(store, 1000, nil)

	result := gate.AddUsage(context.Background(), 500)

	assert.Zero(t, result.Tokens)
	assert.False(t, result.Exceeded)
}

func TestQuotaGateNegativeTokens(t *testing.T) {
	store := newMemUsageStore()
	gate := NewQuotaGate(store, 1000, nil)

	result := gate.AddUsage(context.Background(), -50)

	assert.Zero(t, result.Tokens)
}

func TestQuotaGateConcurrentAddUsage(t *testing.T) {
	store := newMemUsageStore()
	gate := NewQuotaGate(store, DefaultMonthlyTokenLimit, nil)
	gate.now = fixedClock(time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC))

	const workers = 20
	const perWorker = int64(37)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gate.AddUsage(context.Background(), perWorker)
		}()
	}
	wg.Wait()

	total, err := store.GetTokens(context.Background(), "2026-08")
	require.NoError(t, err)
	assert.Equal(t, int64(workers)*perWorker, total, "concurrent adds must not lose updates")
}

func TestQuotaGateDefaultLimit(t *testing.T) {
	gate := NewQuotaGate(newMemUsageStore(), 0, nil)
	assert.Equal(t, DefaultMonthlyTokenLimit, gate.CheckLimit(context.Background()).Limit)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, int64(0), EstimateTokens(""))
	assert.Equal(t, int64(1), EstimateTokens("abcd"))
	// Runes, not bytes: four Vietnamese letters are one token even though
	// they encode to more than four bytes.
	assert.Equal(t, int64(1), EstimateTokens("ếễộơ"))
}
