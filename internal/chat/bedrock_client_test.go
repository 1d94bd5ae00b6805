package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBedrock struct {
	out       *bedrockruntime.ConverseOutput
	err       error
	lastInput *bedrockruntime.ConverseInput
}

func (f *fakeBedrock) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.lastInput = in
	return f.out, f.err
}

func (f *fakeBedrock) ConverseStream(context.Context, *bedrockruntime.ConverseStreamInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseStreamOutput, error) {
	return nil, errors.New("not used in this test")
}

func converseTextOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: text}},
			},
		},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(120),
			OutputTokens: aws.Int32(45),
			TotalTokens:  aws.Int32(165),
		},
	}
}

func TestBedrockComplete(t *testing.T) {
	fake := &fakeBedrock{out: converseTextOutput("  Chào em!  ")}
	client := NewBedrockLLMClient(fake)

	req := LLMRequest{Model: "anthropic.claude-3-haiku", Messages: []ChatMessage{
		{Role: ChatRoleSystem, Content: "bạn là trợ lý"},
		{Role: ChatRoleUser, Content: "chào"},
	}}
	applyInferenceDefaults(&req)

	resp, err := client.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Chào em!", resp.Text)
	assert.Equal(t, string(brtypes.StopReasonEndTurn), resp.StopReason)
	assert.Equal(t, int32(165), resp.Usage.TotalTokens)

	in := fake.lastInput
	require.NotNil(t, in)
	assert.Equal(t, "anthropic.claude-3-haiku", *in.ModelId)
	// System-role turns become Converse system blocks, not messages.
	require.Len(t, in.System, 1)
	require.Len(t, in.Messages, 1)
	assert.Equal(t, brtypes.ConversationRoleUser, in.Messages[0].Role)
	require.NotNil(t, in.InferenceConfig)
	assert.NotNil(t, in.InferenceConfig.MaxTokens)
}

func TestBedrockCompleteErrors(t *testing.T) {
	t.Run("missing model", func(t *testing.T) {
		client := NewBedrockLLMClient(&fakeBedrock{})
		_, err := client.Complete(context.Background(), LLMRequest{})
		assert.Error(t, err)
	})

	t.Run("api failure", func(t *testing.T) {
		client := NewBedrockLLMClient(&fakeBedrock{err: errors.New("throttled")})
		_, err := client.Complete(context.Background(), LLMRequest{
			Model:    "m",
			Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
		})
		assert.ErrorContains(t, err, "throttled")
	})

	t.Run("no text blocks", func(t *testing.T) {
		client := NewBedrockLLMClient(&fakeBedrock{out: &bedrockruntime.ConverseOutput{
			Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{}},
		}})
		_, err := client.Complete(context.Background(), LLMRequest{
			Model:    "m",
			Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
		})
		assert.Error(t, err)
	})
}

func TestBuildConversePartsSkipsEmptyTurns(t *testing.T) {
	parts, err := buildConverseParts(LLMRequest{
		Model: "m",
		Messages: []ChatMessage{
			{Role: ChatRoleUser, Content: "   "},
			{Role: ChatRoleUser, Content: "thật ra là"},
			{Role: ChatRoleAssistant, Content: "ừ"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, parts.messages, 2)
}

func TestBuildConversePartsRejectsUnknownRole(t *testing.T) {
	_, err := buildConverseParts(LLMRequest{
		Model:    "m",
		Messages: []ChatMessage{{Role: "tool", Content: "x"}},
	})
	assert.Error(t, err)
}
