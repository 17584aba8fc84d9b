package models

import (
	"encoding/json"
	"time"
)

// MessageKind distinguishes plain chat from attachments and assistant answers.
type MessageKind string

const (
	MessageKindText       MessageKind = "text"
	MessageKindFile       MessageKind = "file"
	MessageKindAIResponse MessageKind = "ai_response"
)

// Valid reports whether k is one of the known kinds.
func (k MessageKind) Valid() bool {
	switch k {
	case MessageKindText, MessageKindFile, MessageKindAIResponse:
		return true
	}
	return false
}

// AssistantAuthorID is the author id stored on assistant answers.
const AssistantAuthorID = "assistant"

// ChatMessage is an immutable chat entry in a pod.
type ChatMessage struct {
	ID        int64           `db:"id" json:"id"`
	PodID     string          `db:"pod_id" json:"pod_id"`
	AuthorID  string          `db:"author_id" json:"author_id"`
	Content   string          `db:"content" json:"content"`
	Kind      MessageKind     `db:"kind" json:"kind"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// NewMessage carries the fields a sender supplies before the store assigns id and timestamp.
type NewMessage struct {
	PodID    string
	AuthorID string
	Content  string
	Kind     MessageKind
	Metadata json.RawMessage
}
