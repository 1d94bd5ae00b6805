package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	sessionTTL = 72 * time.Hour
	// historyKeepTurns bounds the stored transcript; the assembler trims
	// further to its own window.
	historyKeepTurns = 40
)

// HistoryProvider supplies the last turns of a session and the opaque
// long-term memory summary produced elsewhere.
type HistoryProvider interface {
	Load(ctx context.Context, sessionID string) ([]ChatMessage, string, error)
	Append(ctx context.Context, sessionID string, turns ...ChatMessage) error
}

// RedisHistoryStore keeps per-session transcripts in a redis list and the
// memory summary in a plain key. The summary is written by the (external)
// summarizer job; this store only reads it.
type RedisHistoryStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

var _ HistoryProvider = (*RedisHistoryStore)(nil)

func NewRedisHistoryStore(client *redis.Client, tracer trace.Tracer) *RedisHistoryStore {
	if client == nil {
		panic("chat: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("tamsu.internal.chat.history")
	}
	return &RedisHistoryStore{redis: client, tracer: tracer}
}

func historyKey(sessionID string) string {
	return fmt.Sprintf("chat:history:%s", sessionID)
}

func memoryKey(sessionID string) string {
	return fmt.Sprintf("chat:memory:%s", sessionID)
}

// Load returns the stored turns (oldest first) and the memory summary, if any.
func (s *RedisHistoryStore) Load(ctx context.Context, sessionID string) ([]ChatMessage, string, error) {
	ctx, span := s.tracer.Start(ctx, "chat.load_history")
	defer span.End()

	entries, err := s.redis.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, "", fmt.Errorf("chat: failed to load history: %w", err)
	}

	turns := make([]ChatMessage, 0, len(entries))
	for _, entry := range entries {
		var msg ChatMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			span.RecordError(err)
			return nil, "", fmt.Errorf("chat: failed to decode history entry: %w", err)
		}
		turns = append(turns, msg)
	}

	summary, err := s.redis.Get(ctx, memoryKey(sessionID)).Result()
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		return nil, "", fmt.Errorf("chat: failed to load memory summary: %w", err)
	}

	return turns, summary, nil
}

// Append pushes turns onto the session transcript, trims it to the last
// historyKeepTurns entries, and refreshes the TTL.
func (s *RedisHistoryStore) Append(ctx context.Context, sessionID string, turns ...ChatMessage) error {
	if len(turns) == 0 {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "chat.append_history")
	defer span.End()

	key := historyKey(sessionID)
	pipe := s.redis.TxPipeline()
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("chat: failed to marshal history entry: %w", err)
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, -historyKeepTurns, -1)
	pipe.Expire(ctx, key, sessionTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to persist history: %w", err)
	}
	return nil
}
