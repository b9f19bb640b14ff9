// internal/models/lobby.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the coarse lifecycle of a lobby.
type Status string

const (
	StatusInLobby  Status = "in_lobby"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Phase is the sub-state of a round while the lobby is playing.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseRespond  Phase = "respond"
	PhaseRank     Phase = "rank"
	PhaseFeedback Phase = "feedback"
)

// DefaultMaxPlayers applies when a lobby is created without an explicit capacity.
const DefaultMaxPlayers = 4

// Lobby is the shared state of one game session. Players are kept in join order.
type Lobby struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	HostID     string    `json:"host_id"`
	Players    []*Player `json:"players"`
	MaxPlayers int       `json:"max_players"`
	CreatedAt  time.Time `json:"created_at"`

	Status       Status `json:"status"`
	Prompt       string `json:"prompt"`
	GamePhase    Phase  `json:"game_phase"`
	CurrentRound int    `json:"current_round"`

	ConsensusStatements []string `json:"consensus_statements"`
	WinnerStatement     string   `json:"winner_statement"`
	AllLikeWinner       bool     `json:"all_like_winner"`

	// Version counts applied mutations; it is sent next to each snapshot instead of inside it.
	Version int `json:"-"`
}

// LobbySummary is the listing view of an open lobby.
type LobbySummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PlayerCount int       `json:"player_count"`
	MaxPlayers  int       `json:"max_players"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	Prompt      string    `json:"prompt"`
}

// NewLobby creates a lobby waiting for players. The host is not added here.
func NewLobby(name, hostID string, maxPlayers int, now time.Time) *Lobby {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	id, _ := uuid.NewRandom()
	return &Lobby{
		ID:                  id,
		Name:                name,
		HostID:              hostID,
		Players:             []*Player{},
		MaxPlayers:          maxPlayers,
		CreatedAt:           now,
		Status:              StatusInLobby,
		GamePhase:           PhaseWaiting,
		CurrentRound:        1,
		ConsensusStatements: []string{},
	}
}

// Summary returns the listing view of the lobby.
func (l *Lobby) Summary() LobbySummary {
	return LobbySummary{
		ID:          l.ID,
		Name:        l.Name,
		PlayerCount: len(l.Players),
		MaxPlayers:  l.MaxPlayers,
		Status:      l.Status,
		CreatedAt:   l.CreatedAt,
		Prompt:      l.Prompt,
	}
}

// IsFull reports whether another player can join.
func (l *Lobby) IsFull() bool {
	return len(l.Players) >= l.MaxPlayers
}

// IsHost reports whether playerID is the current host.
func (l *Lobby) IsHost(playerID string) bool {
	return l.HostID == playerID
}

// IsEmpty reports whether no players remain.
func (l *Lobby) IsEmpty() bool {
	return len(l.Players) == 0
}

// FindPlayer returns the player with the given id, or nil.
func (l *Lobby) FindPlayer(playerID string) *Player {
	for _, p := range l.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// HasPlayer reports whether playerID is a member of the lobby.
func (l *Lobby) HasPlayer(playerID string) bool {
	return l.FindPlayer(playerID) != nil
}

// AddPlayer appends a player in join order. Returns false if the id is already present.
func (l *Lobby) AddPlayer(p *Player) bool {
	if l.HasPlayer(p.ID) {
		return false
	}
	l.Players = append(l.Players, p)
	return true
}

// RemovePlayer drops a player, keeping the join order of the rest. Returns false if absent.
func (l *Lobby) RemovePlayer(playerID string) bool {
	for i, p := range l.Players {
		if p.ID == playerID {
			l.Players = append(l.Players[:i], l.Players[i+1:]...)
			return true
		}
	}
	return false
}

// Responses returns the non-empty responses in join order.
func (l *Lobby) Responses() []string {
	out := make([]string, 0, len(l.Players))
	for _, p := range l.Players {
		if p.HasResponded() {
			out = append(out, p.Response)
		}
	}
	return out
}

// Clone returns a deep copy, safe to hand to code outside the lobby lock.
func (l *Lobby) Clone() *Lobby {
	cp := *l
	cp.Players = make([]*Player, len(l.Players))
	for i, p := range l.Players {
		cp.Players[i] = p.Clone()
	}
	cp.ConsensusStatements = append([]string{}, l.ConsensusStatements...)
	return &cp
}
