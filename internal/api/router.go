package api

import (
	"chatbox-backend/internal/config"
	"chatbox-backend/internal/handlers"
	"chatbox-backend/internal/logging"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler      *handlers.AuthHandler
	MessageHandlers  *handlers.MessageHandlers
	WebsocketHandler http.Handler
	Config           *config.Config
	Logger           *zap.Logger
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	if deps.AuthHandler == nil || deps.MessageHandlers == nil {
		panic("AuthHandler and MessageHandlers dependencies are required in router setup")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	jwtAuth := JwtAuthMiddleware(deps.Config.JWTSecret, logger)

	// Long-lived websocket connections stay outside the request timeout.
	if deps.WebsocketHandler != nil {
		r.With(jwtAuth).Get("/ws", deps.WebsocketHandler.ServeHTTP)
	} else {
		logger.Warn("WebsocketHandler dependency is nil, skipping /ws route")
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// --- Public Routes (No JWT Required) ---
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		})

		r.Route("/v1/auth", func(r chi.Router) {
			r.Post("/signup", deps.AuthHandler.HandleSignup)
			r.Post("/login", deps.AuthHandler.HandleLogin)
		})

		// --- Authenticated Routes (JWT Required) ---
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth)
			r.Get("/messages", deps.MessageHandlers.HandleListMessages)
			r.Post("/message", deps.MessageHandlers.HandleCreateMessage)
		})
	})

	return r
}
