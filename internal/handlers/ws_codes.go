// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the lobby socket.
const (
	// SessionReplacedError closes a socket after the same player connected again.
	SessionReplacedError websocket.StatusCode = 3004
)
