package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages(t *testing.T) {
	history := []ChatMessage{
		{Role: ChatRoleUser, Content: "hôm qua mình cãi nhau với mẹ"},
		{Role: ChatRoleAssistant, Content: "nghe có vẻ căng thẳng, em kể thêm đi"},
	}

	messages := BuildMessages("system text", history, "giờ mình không biết làm gì", "")

	require.Len(t, messages, 4)
	assert.Equal(t, ChatRoleSystem, messages[0].Role)
	assert.Equal(t, "system text", messages[0].Content)
	assert.Equal(t, history[0], messages[1])
	assert.Equal(t, history[1], messages[2])
	assert.Equal(t, ChatMessage{Role: ChatRoleUser, Content: "giờ mình không biết làm gì"}, messages[3])
}

func TestBuildMessagesCapsHistory(t *testing.T) {
	history := make([]ChatMessage, 50)
	for i := range history {
		role := ChatRoleUser
		if i%2 == 1 {
			role = ChatRoleAssistant
		}
		history[i] = ChatMessage{Role: role, Content: fmt.Sprintf("turn %d", i)}
	}

	messages := BuildMessages("sys", history, "current", "")

	// system + 8 most recent turns + current
	require.Len(t, messages, historyTurnLimit+2)
	assert.Equal(t, "turn 42", messages[1].Content)
	assert.Equal(t, "turn 49", messages[historyTurnLimit].Content)
	assert.Equal(t, "current", messages[historyTurnLimit+1].Content)
}

func TestBuildMessagesMemorySummary(t *testing.T) {
	messages := BuildMessages("sys", nil, "chào bạn", "Người dùng thích vẽ, đang ôn thi lớp 10.")

	require.NotEmpty(t, messages)
	assert.Contains(t, messages[0].Content, memoryHeading)
	assert.Contains(t, messages[0].Content, "đang ôn thi lớp 10")
	// The summary lives in the system message, never as a separate turn.
	for _, m := range messages[1:] {
		assert.NotContains(t, m.Content, memoryHeading)
	}
}

func TestBuildMessagesNormalizesRoles(t *testing.T) {
	history := []ChatMessage{
		{Role: "bot", Content: "a"},
		{Role: "", Content: "b"},
		{Role: ChatRoleUser, Content: "c"},
	}

	messages := BuildMessages("sys", history, "d", "")

	assert.Equal(t, ChatRoleAssistant, messages[1].Role)
	assert.Equal(t, ChatRoleAssistant, messages[2].Role)
	assert.Equal(t, ChatRoleUser, messages[3].Role)
}

func TestBuildMessagesEmptyCurrentMessage(t *testing.T) {
	messages := BuildMessages("sys", nil, "   ", "")

	require.Len(t, messages, 1)
	assert.Equal(t, ChatRoleSystem, messages[0].Role)
}
