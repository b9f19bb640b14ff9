// internal/lobby/registry.go
package lobby

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/habermas/internal/models"
)

var (
	ErrInvalidLobbyName  = errors.New("lobby name is required")
	ErrInvalidHost       = errors.New("host_id and host_name are required")
	ErrInvalidMaxPlayers = errors.New("invalid max_players")
)

// RegistryOptions bound what Create accepts.
type RegistryOptions struct {
	DefaultMaxPlayers int
	MaxPlayersLimit   int
}

// Registry creates, finds and removes lobbies on top of a LobbyStore.
// It has no lock of its own; the Server serializes every call.
type Registry struct {
	store LobbyStore
	opts  RegistryOptions
	now   func() time.Time
}

// NewRegistry wraps store. Zero options fall back to a default of 4 players and no upper limit.
func NewRegistry(store LobbyStore, opts RegistryOptions) *Registry {
	if opts.DefaultMaxPlayers <= 0 {
		opts.DefaultMaxPlayers = models.DefaultMaxPlayers
	}
	return &Registry{store: store, opts: opts, now: time.Now}
}

// Create makes a lobby with the host seated as its first player and returns it.
func (r *Registry) Create(name, hostID, hostName string, maxPlayers int) (*models.Lobby, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidLobbyName
	}
	if hostID == "" || strings.TrimSpace(hostName) == "" {
		return nil, ErrInvalidHost
	}
	if maxPlayers == 0 {
		maxPlayers = r.opts.DefaultMaxPlayers
	}
	if maxPlayers < 2 {
		return nil, fmt.Errorf("%w: must be at least 2, got %d", ErrInvalidMaxPlayers, maxPlayers)
	}
	if r.opts.MaxPlayersLimit > 0 && maxPlayers > r.opts.MaxPlayersLimit {
		return nil, fmt.Errorf("%w: must be at most %d, got %d", ErrInvalidMaxPlayers, r.opts.MaxPlayersLimit, maxPlayers)
	}

	l := models.NewLobby(name, hostID, maxPlayers, r.now().UTC())
	l.AddPlayer(models.NewPlayer(hostID, hostName))
	r.store.Put(l)
	return l, nil
}

// Get returns the live lobby, or nil when the id is unknown.
func (r *Registry) Get(id uuid.UUID) *models.Lobby {
	l, ok := r.store.Get(id)
	if !ok {
		return nil
	}
	return l
}

// Delete removes a lobby. Deleting an unknown id is a no-op.
func (r *Registry) Delete(id uuid.UUID) bool {
	return r.store.Delete(id)
}

// ListOpen summarizes the lobbies still waiting in the lobby, oldest first.
func (r *Registry) ListOpen() []models.LobbySummary {
	lobbies := r.store.List()
	sort.Slice(lobbies, func(i, j int) bool {
		if lobbies[i].CreatedAt.Equal(lobbies[j].CreatedAt) {
			return lobbies[i].ID.String() < lobbies[j].ID.String()
		}
		return lobbies[i].CreatedAt.Before(lobbies[j].CreatedAt)
	})

	out := make([]models.LobbySummary, 0, len(lobbies))
	for _, l := range lobbies {
		if l.Status == models.StatusInLobby {
			out = append(out, l.Summary())
		}
	}
	return out
}
