package ws

import "time"

// ConnInfo is handshake metadata kept for logs and events.
type ConnInfo struct {
	ConnID      string
	AuthUserID  string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
