package models

// EventType tags frames exchanged over pod websockets.
type EventType string

const (
	EventJoinPod    EventType = "join_pod"
	EventLeavePod   EventType = "leave_pod"
	EventNewMessage EventType = "new_message"
	EventUserJoined EventType = "user_joined"
	EventUserLeft   EventType = "user_left"
)

// PodEvent is the server-to-client frame body.
type PodEvent struct {
	Type    EventType    `json:"type"`
	Message *ChatMessage `json:"message,omitempty"`
	UserID  string       `json:"userId,omitempty"`
}

// NewMessageEvent wraps a persisted message for broadcast.
func NewMessageEvent(msg ChatMessage) PodEvent {
	return PodEvent{Type: EventNewMessage, Message: &msg}
}

// PresenceEvent builds a user_joined or user_left frame.
func PresenceEvent(t EventType, userID string) PodEvent {
	return PodEvent{Type: t, UserID: userID}
}
