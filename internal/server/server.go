package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"tripchat/internal/chat"
	"tripchat/internal/config"
	"tripchat/internal/database"
	"tripchat/internal/handlers"
	"tripchat/internal/handlers/auth"
	"tripchat/internal/handlers/room"
	"tripchat/internal/handlers/user"
	"tripchat/internal/middleware"
	"tripchat/internal/ws"
)

type Server struct {
	cfg     *config.Config
	db      *sql.DB
	gateway *chat.Gateway
	users   *database.UserStore
	members *database.MemberStore
	history *database.MessageStore
	log     *logrus.Logger
	http    *http.Server
}

// NewServer mounts the HTTP surface over the process's single gateway and
// store handles.
func NewServer(cfg *config.Config, db *sql.DB, gateway *chat.Gateway, stores database.Stores, log *logrus.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		db:      db,
		gateway: gateway,
		users:   stores.Users,
		members: stores.Members,
		history: stores.Messages,
		log:     log,
	}
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// middlewares
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Origins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Method(http.MethodGet, "/health", &handlers.HealthHandler{DB: s.db, Gateway: s.gateway})

	// auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Method(http.MethodPost, "/signup", &auth.SignupHandler{Users: s.users, Log: s.log})
		r.Method(http.MethodPost, "/login", &auth.LoginHandler{
			Users:     s.users,
			JWTSecret: s.cfg.JWTSecret,
			JWTTTLHrs: s.cfg.JWTTTLHrs,
			Log:       s.log,
		})
	})

	// authenticated routes grouped by feature
	r.Route("/user", func(r chi.Router) {
		r.Use(middleware.AuthJWT(s.cfg.JWTSecret))
		r.Method(http.MethodGet, "/me", &user.MeHandler{Users: s.users, Log: s.log})
	})

	r.Route("/rooms", func(r chi.Router) {
		r.Use(middleware.AuthJWT(s.cfg.JWTSecret))
		r.Method(http.MethodGet, "/", &room.RoomListHandler{Trips: s.members, Log: s.log})
		r.Method(http.MethodGet, "/{id}/check", &room.RoomCheckHandler{Members: s.members, Log: s.log})
		r.Method(http.MethodGet, "/{id}/messages", &room.RoomMessagesHandler{Members: s.members, History: s.history, Log: s.log})
		r.Method(http.MethodGet, "/{id}/online", &room.RoomOnlineHandler{Members: s.members, Presence: s.gateway, Log: s.log})
	})

	// WebSocket endpoint authenticates its own token before the upgrade
	r.Method(http.MethodGet, "/ws", ws.NewHandler(s.gateway, s.cfg.JWTSecret, ws.Options{
		MaxBodyLength:  s.cfg.MaxBodyLength,
		MaxFrameBytes:  s.cfg.MaxFrameBytes,
		PongWait:       s.cfg.PongWait,
		WriteWait:      s.cfg.WriteWait,
		PingPeriod:     s.cfg.PingPeriod(),
		AllowedOrigins: s.cfg.Origins(),
	}, s.log))

	return r
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	s.log.WithField("addr", s.http.Addr).Info("server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight HTTP handlers.
// Hijacked websocket connections are closed by the gateway instead.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
