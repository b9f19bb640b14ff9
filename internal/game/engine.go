// internal/game/engine.go
package game

import (
	"errors"

	"github.com/jason-s-yu/habermas/internal/models"
)

// MinPlayersToStart is the smallest lobby the host may start.
const MinPlayersToStart = 2

// Rejections are reported back to the requesting connection.
var (
	ErrLobbyNotFound  = errors.New("lobby not found")
	ErrLobbyFull      = errors.New("lobby is full")
	ErrGameInProgress = errors.New("game already in progress")
)

// ClientMessage is the text sent in an error message for a rejection.
func ClientMessage(err error) string {
	switch {
	case errors.Is(err, ErrLobbyNotFound):
		return "Lobby not found"
	case errors.Is(err, ErrLobbyFull):
		return "Lobby is full"
	case errors.Is(err, ErrGameInProgress):
		return "Game already in progress"
	default:
		return err.Error()
	}
}

// Ignore reasons are silent: nothing changes and nothing is sent.
var (
	ErrNotHost          = errors.New("only the host may do this")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrAlreadyStarted   = errors.New("game already started")
	ErrAlreadyJoined    = errors.New("player already in lobby")
	ErrPlayerNotInLobby = errors.New("player not in lobby")
	ErrMissingVerdict   = errors.New("likes_winner is required")
	ErrGameFinished     = errors.New("game already finished")
	ErrUnsupportedEvent = errors.New("unsupported event")
)

// Transition names a phase change caused by an event.
type Transition string

const (
	TransitionNone         Transition = ""
	TransitionGameStarted  Transition = "game_started"
	TransitionRankingOpen  Transition = "ranking_open"
	TransitionFeedbackOpen Transition = "feedback_open"
	TransitionNewRound     Transition = "new_round"
	TransitionFinished     Transition = "finished"
)

// Result is the outcome of applying one event to a lobby.
type Result struct {
	// Broadcast is true when the lobby changed and every player should get a snapshot.
	Broadcast bool
	// Ignored names why an event was dropped without any change.
	Ignored error
	// Rejected is an error to report to the requester only. No state changed.
	Rejected error
	// LobbyEmpty is set when the last player left; the caller removes the lobby.
	LobbyEmpty bool
	// Transition is the phase change this event caused, if any.
	Transition Transition
}

// Applied reports whether the event mutated the lobby.
func (r Result) Applied() bool {
	return r.Ignored == nil && r.Rejected == nil
}

func ignored(err error) Result  { return Result{Ignored: err} }
func rejected(err error) Result { return Result{Rejected: err} }
func changed(t Transition) Result {
	return Result{Broadcast: true, Transition: t}
}

// Rules are the product switches of the engine.
type Rules struct {
	// AllowLateJoin lets players join after the game has started. They take part
	// in every later readiness check.
	AllowLateJoin bool
}

// DefaultRules keeps late joins open.
func DefaultRules() Rules {
	return Rules{AllowLateJoin: true}
}

// Engine applies events to lobbies. It holds no lobby state; callers serialize access.
type Engine struct {
	Generator StatementGenerator
	Rules     Rules
}

// NewEngine returns an engine using gen, or the placeholder generator when gen is nil.
func NewEngine(gen StatementGenerator, rules Rules) *Engine {
	if gen == nil {
		gen = PlaceholderGenerator{}
	}
	return &Engine{Generator: gen, Rules: rules}
}

// Apply validates ev against lobby and mutates it. lobby may be nil when the id is unknown.
func (e *Engine) Apply(lobby *models.Lobby, ev Event) Result {
	if lobby == nil {
		if ev.Type == EventJoinLobby {
			return rejected(ErrLobbyNotFound)
		}
		return ignored(ErrLobbyNotFound)
	}

	var res Result
	switch ev.Type {
	case EventJoinLobby:
		res = e.join(lobby, ev)
	case EventUpdatePrompt:
		res = e.updatePrompt(lobby, ev)
	case EventStartGame:
		res = e.startGame(lobby, ev)
	case EventSubmitResponse:
		res = e.submitResponse(lobby, ev)
	case EventSubmitRanking:
		res = e.submitRanking(lobby, ev)
	case EventSubmitFeedback:
		res = e.submitFeedback(lobby, ev)
	case EventLeaveLobby:
		res = e.leave(lobby, ev)
	default:
		return ignored(ErrUnsupportedEvent)
	}
	if res.Applied() {
		lobby.Version++
	}
	return res
}

func (e *Engine) join(lobby *models.Lobby, ev Event) Result {
	if lobby.HasPlayer(ev.PlayerID) {
		return ignored(ErrAlreadyJoined)
	}
	if lobby.IsFull() {
		return rejected(ErrLobbyFull)
	}
	if !e.Rules.AllowLateJoin && lobby.Status != models.StatusInLobby {
		return rejected(ErrGameInProgress)
	}
	lobby.AddPlayer(models.NewPlayer(ev.PlayerID, ev.PlayerName))
	return changed(TransitionNone)
}

func (e *Engine) updatePrompt(lobby *models.Lobby, ev Event) Result {
	if !lobby.IsHost(ev.PlayerID) {
		return ignored(ErrNotHost)
	}
	lobby.Prompt = ev.Prompt
	return changed(TransitionNone)
}

func (e *Engine) startGame(lobby *models.Lobby, ev Event) Result {
	if !lobby.IsHost(ev.PlayerID) {
		return ignored(ErrNotHost)
	}
	if lobby.Status != models.StatusInLobby {
		return ignored(ErrAlreadyStarted)
	}
	if len(lobby.Players) < MinPlayersToStart {
		return ignored(ErrNotEnoughPlayers)
	}
	lobby.Status = models.StatusPlaying
	lobby.GamePhase = models.PhaseRespond
	return changed(TransitionGameStarted)
}

func (e *Engine) submitResponse(lobby *models.Lobby, ev Event) Result {
	player, err := submitter(lobby, ev.PlayerID)
	if err != nil {
		return ignored(err)
	}
	player.Response = ev.Response

	if lobby.Status == models.StatusPlaying && lobby.GamePhase == models.PhaseRespond && allPlayers(lobby, (*models.Player).HasResponded) {
		e.generateStatements(lobby)
		lobby.GamePhase = models.PhaseRank
		return changed(TransitionRankingOpen)
	}
	return changed(TransitionNone)
}

func (e *Engine) submitRanking(lobby *models.Lobby, ev Event) Result {
	player, err := submitter(lobby, ev.PlayerID)
	if err != nil {
		return ignored(err)
	}
	player.Ranking = append([]int{}, ev.Ranking...)

	n := len(lobby.ConsensusStatements)
	ranked := func(p *models.Player) bool { return p.HasRanked(n) }
	if lobby.Status == models.StatusPlaying && lobby.GamePhase == models.PhaseRank && allPlayers(lobby, ranked) {
		_, winner := ScoreRankings(n, lobby.Players)
		if winner >= 0 {
			lobby.WinnerStatement = lobby.ConsensusStatements[winner]
		}
		lobby.GamePhase = models.PhaseFeedback
		return changed(TransitionFeedbackOpen)
	}
	return changed(TransitionNone)
}

func (e *Engine) submitFeedback(lobby *models.Lobby, ev Event) Result {
	player, err := submitter(lobby, ev.PlayerID)
	if err != nil {
		return ignored(err)
	}
	if ev.LikesWinner == nil {
		return ignored(ErrMissingVerdict)
	}
	player.LikesWinner = models.VerdictFromBool(*ev.LikesWinner)
	player.Feedback = ev.Feedback

	if lobby.Status != models.StatusPlaying || lobby.GamePhase != models.PhaseFeedback || !allPlayers(lobby, (*models.Player).HasJudged) {
		return changed(TransitionNone)
	}

	lobby.AllLikeWinner = allPlayers(lobby, func(p *models.Player) bool {
		return p.LikesWinner == models.VerdictLiked
	})
	if lobby.AllLikeWinner {
		lobby.Status = models.StatusFinished
		return changed(TransitionFinished)
	}

	lobby.CurrentRound++
	e.generateStatements(lobby)
	lobby.GamePhase = models.PhaseRank
	for _, p := range lobby.Players {
		p.ResetRound()
	}
	return changed(TransitionNewRound)
}

// submitter returns the member making a submission. A finished lobby takes no more submissions.
func submitter(lobby *models.Lobby, playerID string) (*models.Player, error) {
	if lobby.Status == models.StatusFinished {
		return nil, ErrGameFinished
	}
	player := lobby.FindPlayer(playerID)
	if player == nil {
		return nil, ErrPlayerNotInLobby
	}
	return player, nil
}

// leave removes the player and repairs what broadcast pruning may have left behind:
// an empty lobby is reported for deletion and a missing host is replaced by the
// earliest remaining joiner.
func (e *Engine) leave(lobby *models.Lobby, ev Event) Result {
	removed := lobby.RemovePlayer(ev.PlayerID)
	if lobby.IsEmpty() {
		return Result{LobbyEmpty: true}
	}

	hostMissing := !lobby.HasPlayer(lobby.HostID)
	if hostMissing {
		lobby.HostID = lobby.Players[0].ID
	}
	if !removed && !hostMissing {
		return ignored(ErrPlayerNotInLobby)
	}
	return changed(TransitionNone)
}

// generateStatements asks the generator for a fresh set of statements. The generator sees
// a copy of the lobby so it cannot mutate state behind the engine's back.
func (e *Engine) generateStatements(lobby *models.Lobby) {
	statements := e.Generator.Generate(lobby.Responses(), lobby.Clone())
	if len(statements) == 0 {
		statements = DefaultStatements
	}
	lobby.ConsensusStatements = append([]string{}, statements...)
}

// allPlayers is the readiness predicate over the current player set.
func allPlayers(lobby *models.Lobby, ready func(*models.Player) bool) bool {
	for _, p := range lobby.Players {
		if !ready(p) {
			return false
		}
	}
	return true
}
