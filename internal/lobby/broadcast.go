// internal/lobby/broadcast.go
package lobby

import (
	"encoding/json"

	"github.com/jason-s-yu/habermas/internal/models"
)

// Outbound message types.
const (
	MessageLobbyState = "lobby_state"
	MessageError      = "error"
)

// ServerMessage is every message the server sends to a client.
type ServerMessage struct {
	Type    string        `json:"type"`
	Version int           `json:"version"`
	Lobby   *models.Lobby `json:"lobby,omitempty"`
	Message string        `json:"message,omitempty"`
}

// LobbyStateMessage serializes the full lobby snapshot.
func LobbyStateMessage(l *models.Lobby) ([]byte, error) {
	return json.Marshal(ServerMessage{Type: MessageLobbyState, Version: l.Version, Lobby: l})
}

// ErrorMessage serializes an error reply.
func ErrorMessage(text string) []byte {
	b, _ := json.Marshal(ServerMessage{Type: MessageError, Message: text})
	return b
}

// Broadcaster sends snapshots of a lobby to its players through the directory.
type Broadcaster struct {
	dir *Directory
}

func NewBroadcaster(dir *Directory) *Broadcaster {
	return &Broadcaster{dir: dir}
}

// Broadcast encodes one snapshot and writes it to every connected player. Players with no
// registered sender are skipped. It returns the ids of players whose write failed, in join order.
func (b *Broadcaster) Broadcast(l *models.Lobby) ([]string, error) {
	msg, err := LobbyStateMessage(l)
	if err != nil {
		return nil, err
	}

	var unreachable []string
	for _, p := range l.Players {
		s, ok := b.dir.Lookup(p.ID)
		if !ok {
			continue
		}
		if err := s.Write(msg); err != nil {
			unreachable = append(unreachable, p.ID)
		}
	}
	return unreachable, nil
}

// PruneUnreachable drops the given players from the lobby. The host is not reassigned
// and an emptied lobby is not deleted here; the next leave_lobby repairs both.
func PruneUnreachable(l *models.Lobby, playerIDs []string) int {
	n := 0
	for _, id := range playerIDs {
		if l.RemovePlayer(id) {
			n++
		}
	}
	return n
}
