// internal/lobby/lobby_store.go
package lobby

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/habermas/internal/models"
)

// LobbyStore holds the live lobbies. Implementations must be safe for concurrent use,
// although the Server only touches its store while holding its own lock.
type LobbyStore interface {
	Get(id uuid.UUID) (*models.Lobby, bool)
	Put(lobby *models.Lobby)
	Delete(id uuid.UUID) bool
	List() []*models.Lobby
}

// MemoryStore is an in-memory LobbyStore. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	lobbies map[uuid.UUID]*models.Lobby
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lobbies: make(map[uuid.UUID]*models.Lobby),
	}
}

func (s *MemoryStore) Get(id uuid.UUID) (*models.Lobby, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lobbies[id]
	return l, ok
}

// Put inserts or replaces a lobby keyed by its id.
func (s *MemoryStore) Put(lobby *models.Lobby) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[lobby.ID] = lobby
}

// Delete removes the lobby and reports whether it existed.
func (s *MemoryStore) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.lobbies[id]; !exists {
		return false
	}
	delete(s.lobbies, id)
	return true
}

// List returns every stored lobby in no particular order.
func (s *MemoryStore) List() []*models.Lobby {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Lobby, 0, len(s.lobbies))
	for _, l := range s.lobbies {
		out = append(out, l)
	}
	return out
}
