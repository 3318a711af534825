package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dekarrin/sequitur/server/api"
	"github.com/dekarrin/sequitur/server/middle"
)

// Server is the sequitur debug server: a chi router in front of a single
// in-memory grammar instance, grounded on the teacher's server/server.go
// route-tree construction but with the game/session machinery stripped out.
type Server struct {
	router http.Handler
	auth   *middle.AuthHandler
}

// New builds a Server from cfg. It returns an error if the configured admin
// secret cannot be hashed.
func New(cfg Config) (*Server, error) {
	auth, err := middle.NewAuthHandler(cfg.AdminSecret, []byte(cfg.JWTSecret), cfg.UnauthDelay())
	if err != nil {
		return nil, err
	}

	a := api.New()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler { return middle.WithRequestID(uuid.NewString)(next) })

	r.Route(api.PathPrefix, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth())
			r.Post("/append", a.HandleAppend)
		})
		r.Get("/grammar", a.HandleGrammar)
		r.Get("/grammar.bin", a.HandleGrammarBinary)
		r.Get("/walk", a.HandleWalk)
	})

	return &Server{router: r, auth: auth}, nil
}

// IssueToken mints a bearer token for the given admin secret.
func (s *Server) IssueToken(adminSecret string) (string, error) {
	return s.auth.IssueToken(adminSecret)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
