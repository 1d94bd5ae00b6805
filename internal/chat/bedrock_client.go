package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
	ConverseStream(ctx context.Context, params *bedrockruntime.ConverseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseStreamOutput, error)
}

// BedrockLLMClient talks to AWS Bedrock via the Converse APIs.
type BedrockLLMClient struct {
	api bedrockConverseAPI
}

var _ StreamingLLMClient = (*BedrockLLMClient)(nil)

func NewBedrockLLMClient(api bedrockConverseAPI) *BedrockLLMClient {
	if api == nil {
		panic("chat: bedrock converse client cannot be nil")
	}
	return &BedrockLLMClient{api: api}
}

// converseParts is the provider-shaped request shared by both call modes.
type converseParts struct {
	system    []brtypes.SystemContentBlock
	messages  []brtypes.Message
	inference *brtypes.InferenceConfiguration
}

func buildConverseParts(req LLMRequest) (converseParts, error) {
	if strings.TrimSpace(req.Model) == "" {
		return converseParts{}, errors.New("chat: bedrock model id is required")
	}

	parts := converseParts{}
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		parts.system = append(parts.system, &brtypes.SystemContentBlockMemberText{Value: block})
	}

	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case ChatRoleSystem:
			parts.system = append(parts.system, &brtypes.SystemContentBlockMemberText{Value: content})
		case ChatRoleUser:
			parts.messages = append(parts.messages, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: content}},
			})
		case ChatRoleAssistant:
			parts.messages = append(parts.messages, brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: content}},
			})
		default:
			return converseParts{}, fmt.Errorf("chat: unsupported role %q", msg.Role)
		}
	}

	inference := &brtypes.InferenceConfiguration{}
	if req.MaxTokens > 0 {
		inference.MaxTokens = aws.Int32(req.MaxTokens)
	}
	// Callers opt out of temperature by passing a negative value.
	if req.Temperature >= 0 {
		inference.Temperature = aws.Float32(req.Temperature)
	}
	if req.TopP != 0 {
		inference.TopP = aws.Float32(req.TopP)
	}
	if inference.MaxTokens != nil || inference.Temperature != nil || inference.TopP != nil {
		parts.inference = inference
	}

	return parts, nil
}

func (c *BedrockLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	parts, err := buildConverseParts(req)
	if err != nil {
		return LLMResponse{}, err
	}

	out, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(req.Model),
		System:          parts.system,
		Messages:        parts.messages,
		InferenceConfig: parts.inference,
	})
	if err != nil {
		return LLMResponse{}, err
	}

	text, err := converseOutputText(out)
	if err != nil {
		return LLMResponse{}, err
	}

	resp := LLMResponse{Text: strings.TrimSpace(text)}
	if out.StopReason != "" {
		resp.StopReason = string(out.StopReason)
	}
	if out.Usage != nil {
		resp.Usage = TokenUsage{
			InputTokens:  int32OrZero(out.Usage.InputTokens),
			OutputTokens: int32OrZero(out.Usage.OutputTokens),
			TotalTokens:  int32OrZero(out.Usage.TotalTokens),
		}
	}
	return resp, nil
}

// CompleteStream delivers partial text via Bedrock's ConverseStream API. The
// reader goroutine stops (and releases the provider stream) as soon as ctx is
// cancelled, so an aborted client never leaves a background read running.
func (c *BedrockLLMClient) CompleteStream(ctx context.Context, req LLMRequest) (<-chan StreamChunk, error) {
	parts, err := buildConverseParts(req)
	if err != nil {
		return nil, err
	}

	out, err := c.api.ConverseStream(ctx, &bedrockruntime.ConverseStreamInput{
		ModelId:         aws.String(req.Model),
		System:          parts.system,
		Messages:        parts.messages,
		InferenceConfig: parts.inference,
	})
	if err != nil {
		return nil, err
	}

	chunks := make(chan StreamChunk, 32)

	go func() {
		defer close(chunks)

		stream := out.GetStream()
		if stream == nil {
			chunks <- StreamChunk{Error: errors.New("chat: bedrock stream is nil"), Done: true}
			return
		}
		defer stream.Close()

		emit := func(chunk StreamChunk) bool {
			select {
			case chunks <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var usage TokenUsage
		for event := range stream.Events() {
			switch v := event.(type) {
			case *brtypes.ConverseStreamOutputMemberContentBlockDelta:
				if textDelta, ok := v.Value.Delta.(*brtypes.ContentBlockDeltaMemberText); ok {
					if !emit(StreamChunk{Text: textDelta.Value}) {
						return
					}
				}
			case *brtypes.ConverseStreamOutputMemberMetadata:
				if v.Value.Usage != nil {
					usage = TokenUsage{
						InputTokens:  int32OrZero(v.Value.Usage.InputTokens),
						OutputTokens: int32OrZero(v.Value.Usage.OutputTokens),
						TotalTokens:  int32OrZero(v.Value.Usage.TotalTokens),
					}
				}
			}
		}

		if err := stream.Err(); err != nil {
			emit(StreamChunk{Error: err, Done: true})
			return
		}
		emit(StreamChunk{Done: true, Usage: usage})
	}()

	return chunks, nil
}

func converseOutputText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", errors.New("chat: bedrock response is nil")
	}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("chat: bedrock response did not include a message output")
	}

	var builder strings.Builder
	for _, block := range msgOut.Value.Content {
		if textBlock, ok := block.(*brtypes.ContentBlockMemberText); ok {
			builder.WriteString(textBlock.Value)
		}
	}
	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("chat: bedrock response contained no text content blocks")
	}
	return text, nil
}

func int32OrZero(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}
