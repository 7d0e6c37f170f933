package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/synco-server/attendance"
	"github.com/jrsteele09/synco-server/auth"
	"github.com/jrsteele09/synco-server/internal/config"
	"github.com/jrsteele09/synco-server/permissions"
	"github.com/jrsteele09/synco-server/sessions"
	"github.com/jrsteele09/synco-server/token"
	"github.com/jrsteele09/synco-server/users"
	"github.com/rs/zerolog/log"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Config      config.Config
	Auth        *auth.Service
	Codec       *token.Codec
	Users       *users.Service
	Permissions *permissions.Checker
	Attendance  *attendance.Service
	Cookie      sessions.CookieConfig

	// Healthcheck probes the backing store for /health. Nil reports healthy.
	Healthcheck func(context.Context) error
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

type Server struct {
	env    string
	router chi.Router
	routes []string
	deps   Deps
}

func New(deps Deps) (*Server, error) {
	switch {
	case deps.Config == nil:
		return nil, fmt.Errorf("[Server New] config is required")
	case deps.Auth == nil || deps.Codec == nil:
		return nil, fmt.Errorf("[Server New] auth service and token codec are required")
	case deps.Users == nil || deps.Permissions == nil || deps.Attendance == nil:
		return nil, fmt.Errorf("[Server New] users, permissions and attendance services are required")
	}

	s := &Server{
		env:    deps.Config.GetEnv(),
		router: chi.NewRouter(),
		deps:   deps,
	}
	s.router.Use(middleware.RequestID, middleware.RealIP, s.LoggingMiddleware, middleware.Recoverer)
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, "not_found", "route not found", http.StatusNotFound)
	})

	s.initRoutes()
	s.logRoutes()
	log.Info().Stringer("allowed_origins", deps.Config.GetAllowedOrigins()).Msg("cors configured")

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRouteHandler registers handler for a "METHOD /path" pattern.
func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	method, path, ok := cutPattern(pattern)
	if !ok {
		s.router.Handle(pattern, handler)
		return
	}
	s.router.Method(method, path, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.RegisterRouteHandler(pattern, http.HandlerFunc(handler))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, _ := cutPattern(route)
		log.Debug().Msgf("[%-19s] %s", colourMethod(method), path)
	}
}

// cutPattern splits "METHOD /path" into its parts. A bare path has no method.
func cutPattern(pattern string) (method, path string, ok bool) {
	method, path, ok = strings.Cut(pattern, " ")
	if !ok {
		return "", pattern, false
	}
	return method, path, true
}
