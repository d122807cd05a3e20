package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jrsteele09/go-intercom-bridge/auth"
	"github.com/jrsteele09/go-intercom-bridge/doorlog"
	"github.com/jrsteele09/go-intercom-bridge/events"
	"github.com/jrsteele09/go-intercom-bridge/internal/config"
	"github.com/jrsteele09/go-intercom-bridge/token"
	"github.com/jrsteele09/go-intercom-bridge/token/jwt"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Poller is the part of the door log poller the API reports on and triggers.
type Poller interface {
	Running() bool
	PollOnce(ctx context.Context) (*doorlog.Entry, error)
}

// Deps are the bridge components the API serves.
type Deps struct {
	Auth    *auth.Service
	Bus     *events.Bus
	Poller  Poller                  // optional
	Revoked token.RevokedTokenCache // optional, defaults to in-memory
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	auth      *auth.Service
	bus       *events.Bus
	poller    Poller
	creator   *jwt.Creator // nil when API auth is disabled
	inspector *jwt.Inspector
	revoked   token.RevokedTokenCache
	upgrader  websocket.Upgrader
	nowTime   func() time.Time
}

func New(config config.Config, deps Deps) (*Server, error) {
	if deps.Auth == nil {
		return nil, errors.New("[Server New] auth service is required")
	}
	if deps.Bus == nil {
		return nil, errors.New("[Server New] event bus is required")
	}
	if deps.Revoked == nil {
		deps.Revoked = token.NewInMemoryRevokedTokenCache()
	}

	s := &Server{
		env:     config.GetEnv(),
		mux:     http.NewServeMux(),
		config:  config,
		auth:    deps.Auth,
		bus:     deps.Bus,
		poller:  deps.Poller,
		revoked: deps.Revoked,
		nowTime: time.Now,
	}

	if config.GetRequireAPIAuth() {
		creator, err := jwt.NewCreator(config.GetAPISecret(), config.GetAPITokenExpiry())
		if err != nil {
			return nil, fmt.Errorf("[Server New] failed to create token creator: %w", err)
		}
		s.creator = creator
		s.inspector = jwt.NewInspector(config.GetAPISecret(), s.revoked)
	} else {
		log.Warn().Msg("BRIDGE_API_SECRET not set, API is unauthenticated")
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

// checkOrigin lets non-browser clients through and holds browsers to the
// CORS allow list.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	allowed := s.config.GetAllowedOrigins()
	return allowed.IsAllowedOrigin(origin) || allowed.IsAllowedOrigin("*")
}
