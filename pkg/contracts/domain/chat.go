package domain

// Chat roles used in transcripts.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single transcript entry.
type ChatMessage struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// Transcript is the persisted chat history. The JSON shape matches the flat session file.
type Transcript struct {
	ChatHistory []ChatMessage `json:"chat_history"`
}
