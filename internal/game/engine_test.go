package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/jason-s-yu/habermas/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

// setupTestLobby builds a lobby whose host is "p0" with numPlayers joined players p0..pN-1.
func setupTestLobby(t *testing.T, e *Engine, numPlayers, maxPlayers int) *models.Lobby {
	t.Helper()
	l := models.NewLobby("test lobby", "p0", maxPlayers, time.Now())
	for i := 0; i < numPlayers; i++ {
		id := fmt.Sprintf("p%d", i)
		res := e.Apply(l, Event{Type: EventJoinLobby, PlayerID: id, PlayerName: "player " + id})
		require.True(t, res.Broadcast, "join of %s should broadcast", id)
	}
	return l
}

// startedLobby returns a lobby already in the respond phase.
func startedLobby(t *testing.T, e *Engine, numPlayers int) *models.Lobby {
	t.Helper()
	l := setupTestLobby(t, e, numPlayers, 4)
	res := e.Apply(l, Event{Type: EventStartGame, PlayerID: "p0"})
	require.Equal(t, TransitionGameStarted, res.Transition)
	return l
}

// rankingLobby returns a lobby in the rank phase with every player having responded.
func rankingLobby(t *testing.T, e *Engine, numPlayers int) *models.Lobby {
	t.Helper()
	l := startedLobby(t, e, numPlayers)
	for _, p := range append([]*models.Player{}, l.Players...) {
		e.Apply(l, Event{Type: EventSubmitResponse, PlayerID: p.ID, Response: "response from " + p.ID})
	}
	require.Equal(t, models.PhaseRank, l.GamePhase)
	return l
}

// feedbackLobby returns a lobby in the feedback phase.
func feedbackLobby(t *testing.T, e *Engine, numPlayers int) *models.Lobby {
	t.Helper()
	l := rankingLobby(t, e, numPlayers)
	for _, p := range append([]*models.Player{}, l.Players...) {
		e.Apply(l, Event{Type: EventSubmitRanking, PlayerID: p.ID, Ranking: []int{0, 1, 2}})
	}
	require.Equal(t, models.PhaseFeedback, l.GamePhase)
	return l
}

func TestApply_NilLobby(t *testing.T) {
	e := NewEngine(nil, DefaultRules())

	res := e.Apply(nil, Event{Type: EventJoinLobby, PlayerID: "p1", PlayerName: "alice"})
	assert.ErrorIs(t, res.Rejected, ErrLobbyNotFound)
	assert.False(t, res.Broadcast)

	for _, typ := range []EventType{EventStartGame, EventLeaveLobby, EventUpdatePrompt, EventSubmitResponse, EventSubmitRanking, EventSubmitFeedback} {
		res := e.Apply(nil, Event{Type: typ, PlayerID: "p1"})
		assert.ErrorIs(t, res.Ignored, ErrLobbyNotFound, "event %s", typ)
		assert.Nil(t, res.Rejected)
		assert.False(t, res.Broadcast)
	}
}

func TestJoin_CapacityNeverExceeded(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := setupTestLobby(t, e, 3, 3)

	res := e.Apply(l, Event{Type: EventJoinLobby, PlayerID: "late", PlayerName: "late"})
	assert.ErrorIs(t, res.Rejected, ErrLobbyFull)
	assert.False(t, res.Broadcast)
	assert.Len(t, l.Players, 3)
	assert.False(t, l.HasPlayer("late"))
}

func TestJoin_Idempotent(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := setupTestLobby(t, e, 2, 4)
	version := l.Version

	res := e.Apply(l, Event{Type: EventJoinLobby, PlayerID: "p1", PlayerName: "renamed"})
	assert.ErrorIs(t, res.Ignored, ErrAlreadyJoined)
	assert.False(t, res.Broadcast)
	assert.Len(t, l.Players, 2)
	assert.Equal(t, "player p1", l.Players[1].Name)
	assert.Equal(t, version, l.Version)
}

func TestJoin_DuplicateInFullLobbyIsNotAnError(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := setupTestLobby(t, e, 2, 2)

	res := e.Apply(l, Event{Type: EventJoinLobby, PlayerID: "p1", PlayerName: "again"})
	assert.Nil(t, res.Rejected)
	assert.ErrorIs(t, res.Ignored, ErrAlreadyJoined)
}

func TestJoin_LateJoinPolicy(t *testing.T) {
	open := NewEngine(nil, DefaultRules())
	l := startedLobby(t, open, 2)
	res := open.Apply(l, Event{Type: EventJoinLobby, PlayerID: "late", PlayerName: "late"})
	assert.True(t, res.Broadcast)
	assert.True(t, l.HasPlayer("late"))

	closed := NewEngine(nil, Rules{AllowLateJoin: false})
	l2 := startedLobby(t, closed, 2)
	res = closed.Apply(l2, Event{Type: EventJoinLobby, PlayerID: "late", PlayerName: "late"})
	assert.ErrorIs(t, res.Rejected, ErrGameInProgress)
	assert.False(t, l2.HasPlayer("late"))
}

func TestHostOnlyActions(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := setupTestLobby(t, e, 2, 4)

	res := e.Apply(l, Event{Type: EventUpdatePrompt, PlayerID: "p1", Prompt: "hijack"})
	assert.ErrorIs(t, res.Ignored, ErrNotHost)
	assert.Empty(t, l.Prompt)

	res = e.Apply(l, Event{Type: EventStartGame, PlayerID: "p1"})
	assert.ErrorIs(t, res.Ignored, ErrNotHost)
	assert.Equal(t, models.StatusInLobby, l.Status)

	res = e.Apply(l, Event{Type: EventUpdatePrompt, PlayerID: "p0", Prompt: "How should the city spend its budget?"})
	assert.True(t, res.Broadcast)
	assert.Equal(t, "How should the city spend its budget?", l.Prompt)
}

func TestStartGame(t *testing.T) {
	e := NewEngine(nil, DefaultRules())

	solo := setupTestLobby(t, e, 1, 4)
	res := e.Apply(solo, Event{Type: EventStartGame, PlayerID: "p0"})
	assert.ErrorIs(t, res.Ignored, ErrNotEnoughPlayers)
	assert.Equal(t, models.PhaseWaiting, solo.GamePhase)

	l := setupTestLobby(t, e, 2, 4)
	res = e.Apply(l, Event{Type: EventStartGame, PlayerID: "p0"})
	assert.True(t, res.Broadcast)
	assert.Equal(t, models.StatusPlaying, l.Status)
	assert.Equal(t, models.PhaseRespond, l.GamePhase)

	res = e.Apply(l, Event{Type: EventStartGame, PlayerID: "p0"})
	assert.ErrorIs(t, res.Ignored, ErrAlreadyStarted)
}

func TestSubmitResponse_TransitionsToRankOnce(t *testing.T) {
	calls := 0
	gen := GeneratorFunc(func(responses []string, prior *models.Lobby) []string {
		calls++
		return PlaceholderGenerator{}.Generate(responses, prior)
	})
	e := NewEngine(gen, DefaultRules())
	l := startedLobby(t, e, 2)

	res := e.Apply(l, Event{Type: EventSubmitResponse, PlayerID: "p0", Response: "parks"})
	assert.True(t, res.Broadcast)
	assert.Equal(t, TransitionNone, res.Transition)
	assert.Equal(t, models.PhaseRespond, l.GamePhase)

	res = e.Apply(l, Event{Type: EventSubmitResponse, PlayerID: "p1", Response: "libraries"})
	assert.Equal(t, TransitionRankingOpen, res.Transition)
	assert.Equal(t, models.PhaseRank, l.GamePhase)
	assert.Len(t, l.ConsensusStatements, StatementCount)

	res = e.Apply(l, Event{Type: EventSubmitResponse, PlayerID: "p1", Response: "bike lanes"})
	assert.True(t, res.Broadcast)
	assert.Equal(t, TransitionNone, res.Transition)
	assert.Equal(t, 1, calls)
}

func TestSubmitResponse_EmptyResponseDoesNotCount(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := startedLobby(t, e, 2)

	e.Apply(l, Event{Type: EventSubmitResponse, PlayerID: "p0", Response: "parks"})
	e.Apply(l, Event{Type: EventSubmitResponse, PlayerID: "p1", Response: ""})
	assert.Equal(t, models.PhaseRespond, l.GamePhase)
}

func TestSubmission_FromNonMemberIgnored(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := startedLobby(t, e, 2)

	res := e.Apply(l, Event{Type: EventSubmitResponse, PlayerID: "stranger", Response: "hi"})
	assert.ErrorIs(t, res.Ignored, ErrPlayerNotInLobby)
	assert.False(t, res.Broadcast)
}

func TestSubmitRanking_MalformedStallsRound(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := rankingLobby(t, e, 2)

	e.Apply(l, Event{Type: EventSubmitRanking, PlayerID: "p0", Ranking: []int{0, 1, 2}})
	res := e.Apply(l, Event{Type: EventSubmitRanking, PlayerID: "p1", Ranking: []int{0, 0, 1}})
	assert.True(t, res.Broadcast)
	assert.Equal(t, models.PhaseRank, l.GamePhase)
	assert.Empty(t, l.WinnerStatement)

	res = e.Apply(l, Event{Type: EventSubmitRanking, PlayerID: "p1", Ranking: []int{2, 1, 0}})
	assert.Equal(t, TransitionFeedbackOpen, res.Transition)
	assert.Equal(t, models.PhaseFeedback, l.GamePhase)
}

func TestSubmitRanking_BordaTieGoesToLowestIndex(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := rankingLobby(t, e, 2)

	e.Apply(l, Event{Type: EventSubmitRanking, PlayerID: "p0", Ranking: []int{0, 1, 2}})
	e.Apply(l, Event{Type: EventSubmitRanking, PlayerID: "p1", Ranking: []int{1, 0, 2}})

	require.Equal(t, models.PhaseFeedback, l.GamePhase)
	assert.Equal(t, l.ConsensusStatements[0], l.WinnerStatement)
}

func TestSubmitFeedback_AllLikeFinishes(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := feedbackLobby(t, e, 2)

	res := e.Apply(l, Event{Type: EventSubmitFeedback, PlayerID: "p0", LikesWinner: boolPtr(true)})
	assert.Equal(t, TransitionNone, res.Transition)
	res = e.Apply(l, Event{Type: EventSubmitFeedback, PlayerID: "p1", LikesWinner: boolPtr(true), Feedback: "great"})

	assert.Equal(t, TransitionFinished, res.Transition)
	assert.Equal(t, models.StatusFinished, l.Status)
	assert.True(t, l.AllLikeWinner)
	assert.Equal(t, 1, l.CurrentRound)
	assert.Equal(t, models.PhaseFeedback, l.GamePhase)
}

func TestSubmitFeedback_DisagreementStartsNewRound(t *testing.T) {
	var priorFeedback []string
	gen := GeneratorFunc(func(responses []string, prior *models.Lobby) []string {
		for _, p := range prior.Players {
			if p.Feedback != "" {
				priorFeedback = append(priorFeedback, p.Feedback)
			}
		}
		return PlaceholderGenerator{}.Generate(responses, prior)
	})
	e := NewEngine(gen, DefaultRules())
	l := feedbackLobby(t, e, 2)

	e.Apply(l, Event{Type: EventSubmitFeedback, PlayerID: "p0", LikesWinner: boolPtr(true)})
	res := e.Apply(l, Event{Type: EventSubmitFeedback, PlayerID: "p1", LikesWinner: boolPtr(false), Feedback: "ignores renters"})

	assert.Equal(t, TransitionNewRound, res.Transition)
	assert.Equal(t, 2, l.CurrentRound)
	assert.Equal(t, models.PhaseRank, l.GamePhase)
	assert.Equal(t, models.StatusPlaying, l.Status)
	assert.False(t, l.AllLikeWinner)
	assert.Len(t, l.ConsensusStatements, StatementCount)
	assert.Equal(t, []string{"ignores renters"}, priorFeedback)
	for _, p := range l.Players {
		assert.Equal(t, []int{}, p.Ranking)
		assert.Empty(t, p.Feedback)
		assert.Equal(t, models.VerdictUnset, p.LikesWinner)
		assert.NotEmpty(t, p.Response)
	}
}

func TestSubmitFeedback_MissingVerdictIgnored(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := feedbackLobby(t, e, 2)

	res := e.Apply(l, Event{Type: EventSubmitFeedback, PlayerID: "p0", Feedback: "no verdict"})
	assert.ErrorIs(t, res.Ignored, ErrMissingVerdict)
	assert.Empty(t, l.Players[0].Feedback)
}

func TestLeave_HostReassignedToEarliestJoiner(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := setupTestLobby(t, e, 3, 4)

	res := e.Apply(l, Event{Type: EventLeaveLobby, PlayerID: "p0"})
	assert.True(t, res.Broadcast)
	assert.False(t, res.LobbyEmpty)
	assert.Equal(t, "p1", l.HostID)
	assert.Len(t, l.Players, 2)
}

func TestLeave_NonHostKeepsHost(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := setupTestLobby(t, e, 3, 4)

	e.Apply(l, Event{Type: EventLeaveLobby, PlayerID: "p1"})
	assert.Equal(t, "p0", l.HostID)
	assert.Equal(t, []string{"p0", "p2"}, []string{l.Players[0].ID, l.Players[1].ID})
}

func TestLeave_LastPlayerEmptiesLobby(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := setupTestLobby(t, e, 1, 4)

	res := e.Apply(l, Event{Type: EventLeaveLobby, PlayerID: "p0"})
	assert.True(t, res.LobbyEmpty)
	assert.False(t, res.Broadcast)
}

func TestLeave_RepairsHostAfterPrune(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := setupTestLobby(t, e, 3, 4)
	// the broadcaster pruned the host without reassigning
	l.RemovePlayer("p0")

	res := e.Apply(l, Event{Type: EventLeaveLobby, PlayerID: "p0"})
	assert.True(t, res.Broadcast)
	assert.Equal(t, "p1", l.HostID)

	res = e.Apply(l, Event{Type: EventLeaveLobby, PlayerID: "p0"})
	assert.ErrorIs(t, res.Ignored, ErrPlayerNotInLobby)
}

func TestApply_VersionCountsMutations(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := setupTestLobby(t, e, 2, 4)
	require.Equal(t, 2, l.Version)

	e.Apply(l, Event{Type: EventStartGame, PlayerID: "p1"})
	assert.Equal(t, 2, l.Version)
	e.Apply(l, Event{Type: EventStartGame, PlayerID: "p0"})
	assert.Equal(t, 3, l.Version)
}

func TestApply_UnknownEvent(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := setupTestLobby(t, e, 1, 4)

	res := e.Apply(l, Event{Type: "dance", PlayerID: "p0"})
	assert.ErrorIs(t, res.Ignored, ErrUnsupportedEvent)
}

func TestClientMessage(t *testing.T) {
	assert.Equal(t, "Lobby not found", ClientMessage(ErrLobbyNotFound))
	assert.Equal(t, "Lobby is full", ClientMessage(ErrLobbyFull))
	assert.Equal(t, "Game already in progress", ClientMessage(ErrGameInProgress))
}

// finishedLobby returns a lobby where every player accepted the winner.
func finishedLobby(t *testing.T, e *Engine) *models.Lobby {
	t.Helper()
	l := feedbackLobby(t, e, 2)
	e.Apply(l, Event{Type: EventSubmitFeedback, PlayerID: "p0", LikesWinner: boolPtr(true)})
	res := e.Apply(l, Event{Type: EventSubmitFeedback, PlayerID: "p1", LikesWinner: boolPtr(true)})
	require.Equal(t, TransitionFinished, res.Transition)
	return l
}

func TestFinishedLobby_IgnoresSubmissions(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := finishedLobby(t, e)
	version := l.Version
	winner := l.WinnerStatement

	for _, ev := range []Event{
		{Type: EventSubmitFeedback, PlayerID: "p1", LikesWinner: boolPtr(false), Feedback: "changed my mind"},
		{Type: EventSubmitRanking, PlayerID: "p0", Ranking: []int{2, 1, 0}},
		{Type: EventSubmitResponse, PlayerID: "p0", Response: "something else"},
	} {
		res := e.Apply(l, ev)
		assert.ErrorIs(t, res.Ignored, ErrGameFinished, "event %s", ev.Type)
		assert.False(t, res.Broadcast)
	}

	assert.Equal(t, models.StatusFinished, l.Status)
	assert.Equal(t, models.PhaseFeedback, l.GamePhase)
	assert.Equal(t, 1, l.CurrentRound)
	assert.True(t, l.AllLikeWinner)
	assert.Equal(t, winner, l.WinnerStatement)
	assert.Equal(t, version, l.Version)
	assert.Equal(t, models.VerdictLiked, l.Players[1].LikesWinner)
}

func TestFinishedLobby_LateJoinerCannotReopen(t *testing.T) {
	e := NewEngine(nil, DefaultRules())
	l := finishedLobby(t, e)

	res := e.Apply(l, Event{Type: EventJoinLobby, PlayerID: "late", PlayerName: "late"})
	require.True(t, res.Broadcast)

	res = e.Apply(l, Event{Type: EventSubmitFeedback, PlayerID: "late", LikesWinner: boolPtr(false)})
	assert.ErrorIs(t, res.Ignored, ErrGameFinished)
	assert.Equal(t, TransitionNone, res.Transition)
	assert.Equal(t, models.StatusFinished, l.Status)
	assert.Equal(t, 1, l.CurrentRound)
}
