// Package llm provides shared data models for the streaming chat core.
package llm

// Message roles accepted in a conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a chat message with role and content.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleSystem,
		Content: content,
	}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleUser,
		Content: content,
	}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleAssistant,
		Content: content,
	}
}

// ChatResult is the normalized outcome of one streamed request.
// Both fields are always set; an empty string means the model produced nothing
// for that field. An all-empty result means the request failed or yielded nothing.
type ChatResult struct {
	Answer    string `json:"answer"`
	Reasoning string `json:"reasoning"`
}

// Empty reports whether neither answer nor reasoning text was produced.
func (r ChatResult) Empty() bool {
	return r.Answer == "" && r.Reasoning == ""
}

// Chunk is one network-delivered increment, decoded once at the transport
// boundary into the same shape for every transport kind.
type Chunk struct {
	Kind TransportKind

	// Reasoning is the reasoning fragment carried by this chunk, "" when absent.
	Reasoning string

	// Choices is empty for accounting-only frames.
	Choices []Choice

	// Usage is set on frames that report token accounting.
	Usage *TokenUsage
}

// Choice holds the answer fragment of one choice in a chunk.
type Choice struct {
	Answer string
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}
