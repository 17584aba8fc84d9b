package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is the subset of *websocket.Conn a Conn needs.
type Transport interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

type connState int

const (
	stateConnected connState = iota
	stateJoined
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateConnected:
		return "connected"
	case stateJoined:
		return "joined"
	default:
		return "closed"
	}
}

// Conn is one live socket. Its pod/user association changes only through
// the transition methods below, each of which updates the registry under mu.
type Conn struct {
	transport Transport
	info      ConnInfo

	mu     sync.Mutex
	state  connState
	userID string
	podID  string

	writeMu sync.Mutex
}

// NewConn wraps transport. info.AuthUserID is the verified token subject, or empty.
func NewConn(transport Transport, info ConnInfo) *Conn {
	if info.ConnID == "" {
		info.ConnID = newConnID()
	}
	if info.ConnectedAt.IsZero() {
		info.ConnectedAt = time.Now()
	}
	return &Conn{transport: transport, info: info}
}

func (c *Conn) ID() string {
	return c.info.ConnID
}

// UserID is the user recorded by the last join, or empty.
func (c *Conn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// PodID is the pod the connection is joined to, or empty.
func (c *Conn) PodID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateJoined {
		return ""
	}
	return c.podID
}

func (c *Conn) currentState() connState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// enter moves the connection into podID's room. A connection already in a
// room leaves it first; the previous association is returned so the caller
// can announce the departure.
func (c *Conn) enter(reg *Registry, userID, podID string) (prevPod, prevUser string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		return "", "", false
	}
	if c.state == stateJoined {
		if c.podID == podID && c.userID == userID {
			return "", "", false
		}
		if reg.Leave(c.podID, c) {
			prevPod, prevUser = c.podID, c.userID
		}
	}
	c.state = stateJoined
	c.userID = userID
	c.podID = podID
	reg.Join(podID, c)
	return prevPod, prevUser, true
}

// exit takes the connection out of its room without closing it.
func (c *Conn) exit(reg *Registry) (podID, userID string, left bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateJoined {
		return "", "", false
	}
	c.state = stateConnected
	return c.podID, c.userID, reg.Leave(c.podID, c)
}

// terminate moves the connection to Closed. Only the first call reports
// first=true; left is set when a room was vacated.
func (c *Conn) terminate(reg *Registry) (podID, userID string, left, first bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		return "", "", false, false
	}
	if c.state == stateJoined {
		left = reg.Leave(c.podID, c)
		podID, userID = c.podID, c.userID
	}
	c.state = stateClosed
	return podID, userID, left, true
}

func (c *Conn) send(payload []byte, writeWait time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if writeWait > 0 {
		_ = c.transport.SetWriteDeadline(time.Now().Add(writeWait))
	}
	return c.transport.WriteMessage(websocket.TextMessage, payload)
}

func (c *Conn) ping(writeWait time.Duration) error {
	return c.transport.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}
