// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jason-s-yu/habermas/internal/lobby"
	"github.com/sirupsen/logrus"
)

// createLobbyRequest is the body of POST /lobbies. max_players may be omitted.
type createLobbyRequest struct {
	Name       string `json:"name"`
	HostName   string `json:"host_name"`
	HostID     string `json:"host_id"`
	MaxPlayers int    `json:"max_players"`
}

type createLobbyResponse struct {
	LobbyID string `json:"lobby_id"`
	HostID  string `json:"host_id"`
	Message string `json:"message"`
}

// RootHandler identifies the API.
func RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Habermas Machine API"})
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateLobbyHandler creates an in-memory lobby with the host already seated.
func CreateLobbyHandler(srv *lobby.Server, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createLobbyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				http.Error(w, "missing request body", http.StatusBadRequest)
				return
			}
			http.Error(w, "bad lobby request payload", http.StatusBadRequest)
			return
		}

		summary, err := srv.CreateLobby(r.Context(), req.Name, req.HostID, req.HostName, req.MaxPlayers)
		switch {
		case errors.Is(err, lobby.ErrInvalidLobbyName),
			errors.Is(err, lobby.ErrInvalidHost),
			errors.Is(err, lobby.ErrInvalidMaxPlayers):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			logger.WithError(err).Error("failed to create lobby")
			http.Error(w, "failed to create lobby", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, createLobbyResponse{
			LobbyID: summary.ID.String(),
			HostID:  req.HostID,
			Message: "Lobby created successfully",
		})
	}
}

// ListLobbiesHandler returns the lobbies that are still waiting for players.
func ListLobbiesHandler(srv *lobby.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"lobbies": srv.ListOpen()})
	}
}
