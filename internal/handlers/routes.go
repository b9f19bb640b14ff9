// internal/handlers/routes.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/habermas/internal/lobby"
	"github.com/jason-s-yu/habermas/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Options configure the HTTP surface.
type Options struct {
	CORSOrigins []string
	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int
}

// NewRouter wires every route onto a chi router.
func NewRouter(logger *logrus.Logger, srv *lobby.Server, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.LogMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/", RootHandler)
	r.Get("/healthz", HealthHandler)
	r.Get("/lobbies", ListLobbiesHandler(srv))
	r.Post("/lobbies", CreateLobbyHandler(srv, logger))
	r.Get("/ws/{lobbyID}/{playerID}", LobbyWSHandler(logger, srv, opts))
	return r
}
