// internal/lobby/directory.go
package lobby

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// Sender delivers one serialized message to a player.
type Sender interface {
	Write(msg []byte) error
}

// LobbyConnection is the websocket-backed Sender. Writes go to a buffered channel drained
// by the connection's write pump; a slow reader fails the write instead of blocking the lobby.
type LobbyConnection struct {
	PlayerID string
	OutChan  chan []byte
	Cancel   context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewLobbyConnection returns a connection with an outbound buffer of size buffer.
func NewLobbyConnection(playerID string, buffer int, cancel context.CancelFunc) *LobbyConnection {
	if buffer <= 0 {
		buffer = 1
	}
	return &LobbyConnection{
		PlayerID: playerID,
		OutChan:  make(chan []byte, buffer),
		Cancel:   cancel,
	}
}

// Write queues msg without blocking.
func (c *LobbyConnection) Write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.OutChan <- msg:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops the connection's pumps. It is safe to call more than once.
func (c *LobbyConnection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.OutChan)
	if c.Cancel != nil {
		c.Cancel()
	}
}

// Directory maps player ids to their current Sender. A player id appears at most once
// regardless of how many lobbies it has touched. Callers serialize access.
type Directory struct {
	senders map[string]Sender
}

func NewDirectory() *Directory {
	return &Directory{senders: make(map[string]Sender)}
}

// Register binds s to playerID and returns the sender it replaced, if any.
// A replaced LobbyConnection is closed.
func (d *Directory) Register(playerID string, s Sender) Sender {
	prev, ok := d.senders[playerID]
	d.senders[playerID] = s
	if ok && prev != s {
		if c, isConn := prev.(interface{ Close() }); isConn {
			c.Close()
		}
		return prev
	}
	return nil
}

// Unregister removes playerID only while it is still bound to s, so a connection that
// was replaced cannot remove its successor. It reports whether anything was removed.
func (d *Directory) Unregister(playerID string, s Sender) bool {
	cur, ok := d.senders[playerID]
	if !ok || cur != s {
		return false
	}
	delete(d.senders, playerID)
	return true
}

// Lookup returns the sender bound to playerID.
func (d *Directory) Lookup(playerID string) (Sender, bool) {
	s, ok := d.senders[playerID]
	return s, ok
}

// Len is the number of registered players.
func (d *Directory) Len() int {
	return len(d.senders)
}
