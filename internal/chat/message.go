// Package chat holds a tab's conversation with the agent: the persisted
// transcript and session id, the pending attachment slot, and the
// coordinator that runs one round trip at a time.
package chat

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the transcript. Values are never modified after
// they are appended.
type Message struct {
	Role      Role     `json:"role"`
	Text      string   `json:"text"`
	ToolCalls []string `json:"toolCalls,omitempty"`
}

// Attachment is a validated plain-text file waiting to be sent.
type Attachment struct {
	Name    string `json:"name"`
	Content string `json:"-"`
}

// Size returns the content length in bytes.
func (a Attachment) Size() int {
	return len(a.Content)
}
