// Package core contains the shared domain types: conversation turns and
// retrieved document passages. Pure data, no external dependencies.
package core

import "fmt"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in a conversation. Immutable once created.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// String renders the turn in the canonical "role: content" form used both
// for storage and for embedding.
func (t Turn) String() string {
	return fmt.Sprintf("%s: %s", t.Role, t.Content)
}

// Passage is a retrieved document chunk with its citation metadata.
type Passage struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   int    `json:"page"`
}
