// internal/game/events.go
package game

// EventType identifies an inbound client event.
type EventType string

const (
	EventJoinLobby      EventType = "join_lobby"
	EventStartGame      EventType = "start_game"
	EventLeaveLobby     EventType = "leave_lobby"
	EventUpdatePrompt   EventType = "update_prompt"
	EventSubmitResponse EventType = "submit_response"
	EventSubmitRanking  EventType = "submit_ranking"
	EventSubmitFeedback EventType = "submit_feedback"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventJoinLobby, EventStartGame, EventLeaveLobby, EventUpdatePrompt,
		EventSubmitResponse, EventSubmitRanking, EventSubmitFeedback:
		return true
	}
	return false
}

// Event is one inbound event from a player. Only the fields relevant to Type are read.
type Event struct {
	Type     EventType
	PlayerID string

	PlayerName string // join_lobby
	Prompt     string // update_prompt
	Response   string // submit_response
	Ranking    []int  // submit_ranking

	// LikesWinner is required for submit_feedback; nil marks a malformed payload.
	LikesWinner *bool
	Feedback    string
}

// Payload returns the event's type-specific fields for journaling.
func (ev Event) Payload() map[string]interface{} {
	switch ev.Type {
	case EventJoinLobby:
		return map[string]interface{}{"player_name": ev.PlayerName}
	case EventUpdatePrompt:
		return map[string]interface{}{"prompt": ev.Prompt}
	case EventSubmitResponse:
		return map[string]interface{}{"response": ev.Response}
	case EventSubmitRanking:
		return map[string]interface{}{"ranking": ev.Ranking}
	case EventSubmitFeedback:
		payload := map[string]interface{}{"feedback": ev.Feedback}
		if ev.LikesWinner != nil {
			payload["likes_winner"] = *ev.LikesWinner
		}
		return payload
	default:
		return map[string]interface{}{}
	}
}
