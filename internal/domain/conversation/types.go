// Package conversation implements the client-side chat session store:
// multiple named conversations, durable persistence, and one-time migration
// of the legacy flat message list.
package conversation

import "unicode/utf8"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TitleSentinel is the title of a conversation before its first user message.
const TitleSentinel = "New chat"

// ImportedTitle is the title given to a conversation built from legacy data.
const ImportedTitle = "Imported chat"

// maxTitleLen is the rune length a title is truncated to.
const maxTitleLen = 48

// Message is a single immutable turn: a role tag plus text content.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// IsValid reports whether the message has a known role and text content.
// Hydration and migration drop anything that fails this check.
func (m Message) IsValid() bool {
	return m.Role == RoleUser || m.Role == RoleAssistant
}

// Conversation is an ordered, append-only thread of messages plus metadata.
// UpdatedAt is epoch milliseconds and drives the store's ordering.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UpdatedAt int64     `json:"updatedAt"`
}

// titleFrom derives a conversation title from the first user message:
// a prefix of at most maxTitleLen runes.
func titleFrom(content string) string {
	if utf8.RuneCountInString(content) <= maxTitleLen {
		return content
	}
	runes := []rune(content)
	return string(runes[:maxTitleLen])
}
