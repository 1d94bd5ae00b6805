package chat

import (
	"context"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to OpenAI or any OpenAI-compatible endpoint (configured
// via base URL). Used where Bedrock is unavailable, e.g. local development
// against an on-prem inference server.
type OpenAIClient struct {
	client *openai.Client
}

var _ StreamingLLMClient = (*OpenAIClient)(nil)

func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}
}

func toOpenAIRequest(req LLMRequest) (openai.ChatCompletionRequest, error) {
	if strings.TrimSpace(req.Model) == "" {
		return openai.ChatCompletionRequest{}, errors.New("chat: openai model is required")
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+len(req.System))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: block,
		})
	}
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case ChatRoleSystem:
			role = openai.ChatMessageRoleSystem
		case ChatRoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: content})
	}

	out := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		out.MaxTokens = int(req.MaxTokens)
	}
	if req.Temperature > 0 {
		out.Temperature = req.Temperature
	}
	if req.TopP != 0 {
		out.TopP = req.TopP
	}
	return out, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	oaReq, err := toOpenAIRequest(req)
	if err != nil {
		return LLMResponse{}, err
	}

	resp, err := c.client.CreateChatCompletion(ctx, oaReq)
	if err != nil {
		return LLMResponse{}, err
	}
	if len(resp.Choices) == 0 {
		return LLMResponse{}, errors.New("chat: openai response had no choices")
	}

	choice := resp.Choices[0]
	return LLMResponse{
		Text:       strings.TrimSpace(choice.Message.Content),
		StopReason: string(choice.FinishReason),
		Usage: TokenUsage{
			InputTokens:  int32(resp.Usage.PromptTokens),
			OutputTokens: int32(resp.Usage.CompletionTokens),
			TotalTokens:  int32(resp.Usage.TotalTokens),
		},
	}, nil
}

// CompleteStream delivers partial text via the chat completions stream. The
// reader goroutine stops when ctx is cancelled.
func (c *OpenAIClient) CompleteStream(ctx context.Context, req LLMRequest) (<-chan StreamChunk, error) {
	oaReq, err := toOpenAIRequest(req)
	if err != nil {
		return nil, err
	}
	oaReq.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, oaReq)
	if err != nil {
		return nil, err
	}

	chunks := make(chan StreamChunk, 32)

	go func() {
		defer close(chunks)
		defer stream.Close()

		emit := func(chunk StreamChunk) bool {
			select {
			case chunks <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				emit(StreamChunk{Done: true})
				return
			}
			if err != nil {
				emit(StreamChunk{Error: err, Done: true})
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if delta := resp.Choices[0].Delta.Content; delta != "" {
				if !emit(StreamChunk{Text: delta}) {
					return
				}
			}
		}
	}()

	return chunks, nil
}
