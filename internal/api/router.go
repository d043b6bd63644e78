package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/roomchat/internal/api/apierr"
	"github.com/mcoot/roomchat/internal/api/handler"
	"github.com/mcoot/roomchat/internal/api/middleware"
	"github.com/mcoot/roomchat/internal/api/ws"
	"github.com/mcoot/roomchat/internal/channel"
	"github.com/mcoot/roomchat/internal/dependencies/clock"
	httpmw "github.com/mcoot/roomchat/internal/middleware"
	"github.com/mcoot/roomchat/internal/services/auth"
	"github.com/mcoot/roomchat/internal/services/chat"
	"github.com/mcoot/roomchat/internal/services/registry"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Clock       clock.Clock
	AuthService *auth.Service
	Gateway     *chat.Gateway
	Registry    *registry.Registry
	Hubs        *channel.HubManager
	WebSocket   ws.Config
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	userHandler := handler.NewUserHandler(cfg.AuthService, cfg.Gateway)
	roomHandler := handler.NewRoomHandler(cfg.Gateway)
	sessionHandler := handler.NewSessionHandler(cfg.Gateway)
	healthHandler := handler.NewHealthHandler(cfg.Registry)
	wsHandler := ws.NewHandler(cfg.Gateway, cfg.Hubs, cfg.Clock, cfg.WebSocket, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := httpmw.Logging(cfg.Logger)
	recoveryMiddleware := httpmw.Recovery(cfg.Logger, apierr.WritePanic)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)

	// User routes (no auth required for registering/logging in)
	api.HandleFunc("/users/register", userHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/users/login", userHandler.Login).Methods(http.MethodPost)

	// Protected user routes
	users := api.PathPrefix("/users").Subrouter()
	users.Use(authMiddleware)
	users.HandleFunc("/logout", userHandler.Logout).Methods(http.MethodPost)
	users.HandleFunc("/me", userHandler.GetMe).Methods(http.MethodGet)

	// Room routes (all require auth)
	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.Use(authMiddleware)
	rooms.HandleFunc("", roomHandler.List).Methods(http.MethodGet)
	rooms.HandleFunc("", roomHandler.Create).Methods(http.MethodPost)
	rooms.HandleFunc("/{code}", roomHandler.Get).Methods(http.MethodGet)
	rooms.HandleFunc("/{code}/join", roomHandler.Join).Methods(http.MethodPost)
	rooms.HandleFunc("/{code}/leave", roomHandler.Leave).Methods(http.MethodPost)
	rooms.HandleFunc("/{code}/messages", roomHandler.SendMessage).Methods(http.MethodPost)
	rooms.Handle("/{code}", middleware.RequireAdmin(http.HandlerFunc(roomHandler.Delete))).Methods(http.MethodDelete)

	// Session routes
	session := api.PathPrefix("/session").Subrouter()
	session.Use(authMiddleware)
	session.HandleFunc("", sessionHandler.Get).Methods(http.MethodGet)
	session.HandleFunc("/room", sessionHandler.ClearRoom).Methods(http.MethodDelete)

	// Streaming transport
	api.Handle("/ws", authMiddleware(wsHandler)).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	return r
}
