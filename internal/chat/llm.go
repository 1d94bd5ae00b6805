package chat

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is an internal message representation that can include system prompts.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// StreamChunk is one increment of a streamed completion. The final chunk has
// Done set; a chunk with a non-nil Error terminates the stream.
type StreamChunk struct {
	Text  string
	Usage TokenUsage
	Done  bool
	Error error
}

type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// StreamingLLMClient is implemented by providers that support incremental
// delivery. The returned channel is closed after the Done (or Error) chunk.
type StreamingLLMClient interface {
	LLMClient
	CompleteStream(ctx context.Context, req LLMRequest) (<-chan StreamChunk, error)
}

const (
	defaultTemperature float32 = 0.7
	defaultMaxTokens   int32   = 512
)

// applyInferenceDefaults fills unset inference options. Callers opt out of
// temperature defaulting by passing a negative value.
func applyInferenceDefaults(req *LLMRequest) {
	if req.Temperature == 0 {
		req.Temperature = defaultTemperature
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}
}
