package chat

import "strings"

// historyTurnLimit is a hard cap, not configurable per request. It keeps the
// model call's input size, latency, and cost predictable.
const historyTurnLimit = 8

const memoryHeading = "### Ghi nhớ dài hạn về người dùng (tóm tắt)"

// BuildMessages assembles the bounded message list sent to the model: one
// system message (with the memory summary appended under a delimited heading
// when present), the last historyTurnLimit turns in original order, then the
// current user message.
func BuildMessages(systemPrompt string, history []ChatMessage, currentMessage, memorySummary string) []ChatMessage {
	system := systemPrompt
	if summary := strings.TrimSpace(memorySummary); summary != "" {
		system = system + "\n\n" + memoryHeading + "\n" + summary
	}

	messages := make([]ChatMessage, 0, historyTurnLimit+2)
	messages = append(messages, ChatMessage{Role: ChatRoleSystem, Content: system})

	turns := history
	if len(turns) > historyTurnLimit {
		turns = turns[len(turns)-historyTurnLimit:]
	}
	for _, turn := range turns {
		role := turn.Role
		// Anything the client did not mark as the user speaking is treated
		// as an assistant turn. History is externally supplied and untrusted.
		if role != ChatRoleUser {
			role = ChatRoleAssistant
		}
		messages = append(messages, ChatMessage{Role: role, Content: turn.Content})
	}

	if current := strings.TrimSpace(currentMessage); current != "" {
		messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: current})
	}

	return messages
}
