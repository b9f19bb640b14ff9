// internal/lobby/server.go
package lobby

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/habermas/internal/game"
	"github.com/jason-s-yu/habermas/internal/models"
	"github.com/sirupsen/logrus"
)

// ActionCreateLobby is the journal action type for a lobby creation.
const ActionCreateLobby = "create_lobby"

// Options configure a Server.
type Options struct {
	Registry  RegistryOptions
	Rules     game.Rules
	Generator game.StatementGenerator
	Journal   Journal
	// JournalBuffer and JournalTimeout tune the queue in front of Journal.
	JournalBuffer  int
	JournalTimeout time.Duration
}

// Server is the single owner of all lobby state. One mutex covers the registry and the
// session directory, so an event is validated, applied and broadcast before the next
// event for any lobby is looked at.
type Server struct {
	mu          sync.Mutex
	registry    *Registry
	sessions    *Directory
	broadcaster *Broadcaster
	engine      *game.Engine

	// journal is only called with mu held, so records are queued in apply order.
	journal      Journal
	asyncJournal *AsyncJournal

	logger *logrus.Logger
	now    func() time.Time
}

// NewServer builds a server over store. A nil journal discards records; any other journal
// is fed through an AsyncJournal so a slow sink never holds up a lobby.
func NewServer(store LobbyStore, opts Options, logger *logrus.Logger) *Server {
	dir := NewDirectory()
	s := &Server{
		registry:    NewRegistry(store, opts.Registry),
		sessions:    dir,
		broadcaster: NewBroadcaster(dir),
		engine:      game.NewEngine(opts.Generator, opts.Rules),
		journal:     NopJournal{},
		logger:      logger,
		now:         time.Now,
	}
	if opts.Journal != nil {
		s.asyncJournal = NewAsyncJournal(opts.Journal, opts.JournalBuffer, opts.JournalTimeout, logger)
		s.journal = s.asyncJournal
	}
	return s
}

// Close flushes queued journal records. Dispatching after Close still works but
// records are no longer journaled.
func (s *Server) Close() {
	if s.asyncJournal != nil {
		s.asyncJournal.Close()
	}
}

// CreateLobby registers a new lobby with the host seated as its first player.
func (s *Server) CreateLobby(ctx context.Context, name, hostID, hostName string, maxPlayers int) (models.LobbySummary, error) {
	s.mu.Lock()
	l, err := s.registry.Create(name, hostID, hostName, maxPlayers)
	if err != nil {
		s.mu.Unlock()
		return models.LobbySummary{}, err
	}
	summary := l.Summary()
	s.record(ctx, models.NewActionRecord(l, hostID, ActionCreateLobby, map[string]interface{}{
		"host_name":   hostName,
		"max_players": l.MaxPlayers,
	}, s.now().UTC()))
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"lobby_id": summary.ID,
		"host_id":  hostID,
	}).Infof("Created lobby %q (max %d players)", name, summary.MaxPlayers)
	return summary, nil
}

// ListOpen returns the lobbies that have not started yet, oldest first.
func (s *Server) ListOpen() []models.LobbySummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.ListOpen()
}

// Snapshot returns a copy of the lobby, or false when it does not exist.
func (s *Server) Snapshot(lobbyID uuid.UUID) (*models.Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.registry.Get(lobbyID)
	if l == nil {
		return nil, false
	}
	return l.Clone(), true
}

// Connect binds sender to playerID and, if the lobby exists, sends it the current
// snapshot. A previous connection of the same player is replaced and closed.
func (s *Server) Connect(lobbyID uuid.UUID, playerID string, sender Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev := s.sessions.Register(playerID, sender); prev != nil {
		s.logger.WithField("player_id", playerID).Info("Replaced existing connection")
	}
	l := s.registry.Get(lobbyID)
	if l == nil {
		return
	}
	msg, err := LobbyStateMessage(l)
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode lobby snapshot")
		return
	}
	if err := sender.Write(msg); err != nil {
		s.logger.WithError(err).WithField("player_id", playerID).Warn("Failed to send initial snapshot")
	}
}

// Disconnect handles the transport closing sender. When sender is still the player's
// current connection it is unregistered and the player leaves the lobby; a stale
// connection that was already replaced changes nothing and Disconnect returns false.
func (s *Server) Disconnect(ctx context.Context, lobbyID uuid.UUID, playerID string, sender Sender) bool {
	s.mu.Lock()
	if !s.sessions.Unregister(playerID, sender) {
		s.mu.Unlock()
		return false
	}
	s.dispatchLocked(ctx, lobbyID, game.Event{Type: game.EventLeaveLobby, PlayerID: playerID})
	return true
}

// Dispatch applies one inbound event and broadcasts the result. Rejections are returned
// in the Result for the caller to report to the requesting connection only.
func (s *Server) Dispatch(ctx context.Context, lobbyID uuid.UUID, ev game.Event) game.Result {
	s.mu.Lock()
	return s.dispatchLocked(ctx, lobbyID, ev)
}

// dispatchLocked runs with mu held and releases it.
func (s *Server) dispatchLocked(ctx context.Context, lobbyID uuid.UUID, ev game.Event) game.Result {
	l := s.registry.Get(lobbyID)
	res := s.engine.Apply(l, ev)

	log := s.logger.WithFields(logrus.Fields{
		"lobby_id":  lobbyID,
		"player_id": ev.PlayerID,
		"event":     ev.Type,
	})

	switch {
	case res.Rejected != nil:
		log.WithError(res.Rejected).Warn("Rejected event")
	case res.Ignored != nil:
		log.WithError(res.Ignored).Debug("Ignored event")
	}
	if !res.Applied() {
		s.mu.Unlock()
		return res
	}

	rec := models.NewActionRecord(l, ev.PlayerID, string(ev.Type), ev.Payload(), s.now().UTC())

	if res.LobbyEmpty {
		s.registry.Delete(lobbyID)
		log.Info("Last player left, lobby deleted")
	}
	if res.Transition != game.TransitionNone {
		log.WithFields(logrus.Fields{
			"round": l.CurrentRound,
			"phase": l.GamePhase,
		}).Infof("Lobby transition: %s", res.Transition)
	}
	if res.Broadcast {
		s.broadcastLocked(l, log)
	}

	s.record(ctx, rec)
	s.mu.Unlock()
	return res
}

func (s *Server) broadcastLocked(l *models.Lobby, log *logrus.Entry) {
	failed, err := s.broadcaster.Broadcast(l)
	if err != nil {
		log.WithError(err).Error("Failed to encode lobby snapshot")
		return
	}
	if len(failed) == 0 {
		return
	}
	n := PruneUnreachable(l, failed)
	log.WithField("pruned", failed).Warnf("Pruned %d unreachable player(s)", n)
}

// record must be called with mu held. The journal only enqueues.
func (s *Server) record(ctx context.Context, rec models.ActionRecord) {
	if err := s.journal.Record(ctx, rec); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"lobby_id":     rec.LobbyID,
			"action_index": rec.ActionIndex,
		}).Warn("Failed to journal lobby action")
	}
}
