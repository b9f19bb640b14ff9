// internal/models/action.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ActionRecord is one applied lobby event, as it is queued for the historian.
// ActionIndex is the lobby version after the event, so records of one lobby
// are totally ordered.
type ActionRecord struct {
	LobbyID         uuid.UUID              `json:"lobby_id"`
	LobbyName       string                 `json:"lobby_name"`
	ActionIndex     int                    `json:"action_index"`
	ActorID         string                 `json:"actor_id"`
	ActionType      string                 `json:"action_type"`
	ActionPayload   map[string]interface{} `json:"action_payload"`
	Status          Status                 `json:"status"`
	GamePhase       Phase                  `json:"game_phase"`
	CurrentRound    int                    `json:"current_round"`
	WinnerStatement string                 `json:"winner_statement,omitempty"`
	Timestamp       time.Time              `json:"timestamp"`
}

// NewActionRecord captures the lobby state right after an event was applied.
func NewActionRecord(l *Lobby, actorID, actionType string, payload map[string]interface{}, at time.Time) ActionRecord {
	return ActionRecord{
		LobbyID:         l.ID,
		LobbyName:       l.Name,
		ActionIndex:     l.Version,
		ActorID:         actorID,
		ActionType:      actionType,
		ActionPayload:   payload,
		Status:          l.Status,
		GamePhase:       l.GamePhase,
		CurrentRound:    l.CurrentRound,
		WinnerStatement: l.WinnerStatement,
		Timestamp:       at,
	}
}
