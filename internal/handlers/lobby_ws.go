// internal/handlers/lobby_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/habermas/internal/game"
	"github.com/jason-s-yu/habermas/internal/lobby"
	"github.com/jason-s-yu/habermas/internal/middleware"
	"github.com/sirupsen/logrus"
)

const (
	pingInterval = 30 * time.Second
	pingTimeout  = 15 * time.Second
	writeTimeout = 5 * time.Second
)

// clientMessage is every inbound message; Type selects which fields are read.
type clientMessage struct {
	Type        string `json:"type"`
	PlayerName  string `json:"player_name"`
	Prompt      string `json:"prompt"`
	Response    string `json:"response"`
	Ranking     []int  `json:"ranking"`
	LikesWinner *bool  `json:"likes_winner"`
	Feedback    string `json:"feedback"`
}

func (m clientMessage) event(playerID string) game.Event {
	return game.Event{
		Type:        game.EventType(m.Type),
		PlayerID:    playerID,
		PlayerName:  m.PlayerName,
		Prompt:      m.Prompt,
		Response:    m.Response,
		Ranking:     m.Ranking,
		LikesWinner: m.LikesWinner,
		Feedback:    m.Feedback,
	}
}

// parseClientMessage decodes msg and returns the text to send back when it is unusable.
func parseClientMessage(msg []byte) (clientMessage, string) {
	var m clientMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return m, fmt.Sprintf("Invalid value for field %q", typeErr.Field)
		}
		return m, "Invalid JSON format"
	}
	if !game.EventType(m.Type).Valid() {
		return m, fmt.Sprintf("Unknown message type: %q", m.Type)
	}
	return m, ""
}

// LobbyWSHandler serves /ws/{lobbyID}/{playerID}. Any lobby id is accepted; one that is
// not a known lobby simply gets no initial snapshot and "Lobby not found" on join.
func LobbyWSHandler(logger *logrus.Logger, srv *lobby.Server, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "playerID")
		lobbyID, err := uuid.Parse(chi.URLParam(r, "lobbyID"))
		if err != nil {
			lobbyID = uuid.Nil
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns(opts.CORSOrigins),
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		conn := lobby.NewLobbyConnection(playerID, opts.SendBuffer, cancel)

		srv.Connect(lobbyID, playerID, conn)
		go writePump(ctx, c, conn, logger)

		readErr := readPump(ctx, c, srv, conn, lobbyID, logger)

		current := srv.Disconnect(context.Background(), lobbyID, playerID, conn)
		conn.Close()
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)

		if !current {
			c.Close(SessionReplacedError, "connected from another session")
			return
		}
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readPump handles inbound messages until the socket closes. Each message is fully
// dispatched, broadcast included, before the next one is read.
func readPump(ctx context.Context, c *websocket.Conn, srv *lobby.Server, conn *lobby.LobbyConnection, lobbyID uuid.UUID, logger *logrus.Logger) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			logger.Warnf("Lobby %s: Received non-text message from player %s. Ignoring.", lobbyID, conn.PlayerID)
			continue
		}

		m, problem := parseClientMessage(msg)
		if problem != "" {
			logger.Debugf("Lobby %s: bad message from player %s: %s", lobbyID, conn.PlayerID, problem)
			replyError(conn, lobbyID, problem, logger)
			continue
		}

		res := srv.Dispatch(ctx, lobbyID, m.event(conn.PlayerID))
		if res.Rejected != nil {
			replyError(conn, lobbyID, game.ClientMessage(res.Rejected), logger)
		}
	}
}

// replyError queues an error for the sender only. A full or closed queue is not fatal here;
// the write pump or the next broadcast deals with the connection.
func replyError(conn *lobby.LobbyConnection, lobbyID uuid.UUID, text string, logger *logrus.Logger) {
	if err := conn.Write(lobby.ErrorMessage(text)); err != nil {
		logger.Debugf("Lobby %s: failed to queue error for player %s: %v", lobbyID, conn.PlayerID, err)
	}
}

// writePump drains the connection's outbound queue and keeps the socket alive with pings.
// Any write or ping failure ends the connection.
func writePump(ctx context.Context, c *websocket.Conn, conn *lobby.LobbyConnection, logger *logrus.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer conn.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.OutChan:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write to websocket for player %s: %v", conn.PlayerID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Failed to send ping to player %s: %v. Assuming disconnect.", conn.PlayerID, err)
				return
			}
		}
	}
}
