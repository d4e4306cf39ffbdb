package http

import (
	"log"
	"net/http"

	_ "aptbot/docs"
	"aptbot/internal/api/http/chat"
	"aptbot/internal/api/http/logger"
	"aptbot/internal/api/http/middleware"
	sessionapi "aptbot/internal/api/http/session"
	"aptbot/internal/api/http/websocket"
	"aptbot/internal/auth"
	"aptbot/internal/config"
	"aptbot/internal/core/session"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// @title Apartment Chatbot API
// @version 1.0
// @description Gemini-backed assistant for residents and staff of managed apartment buildings
// @BasePath /
// @schemes http

type RouterDeps struct {
	Sessions     session.SessionServiceHandler
	Pinger       Pinger
	Verifier     auth.Verifier
	AuthRequired bool
	RateLimit    config.RateLimitConfig
	Audit        logger.Logger
	Metrics      http.Handler
	Node         string
	Logger       zerolog.Logger
}

func NewApiRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()
	handler := NewRequestHandler(deps.Sessions, deps.Pinger, deps.Logger)
	chatHandler := chat.NewRequestHandler(deps.Sessions, deps.Logger)
	sessionHandler := sessionapi.NewRequestHandler(deps.Sessions)
	wsHandler := websocket.NewRequestHandler(deps.Sessions, deps.Logger)
	authenticator := middleware.NewAuthenticator(deps.Verifier, deps.AuthRequired, deps.Logger)
	limiter := middleware.NewLimiter(deps.RateLimit.RPS, deps.RateLimit.Burst)

	// middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestLogger(&chimiddleware.DefaultLogFormatter{
		Logger:  log.New(deps.Logger, "", 0),
		NoColor: true,
	}))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)
	if deps.Audit != nil {
		r.Use(logger.LoggerMiddleware(deps.Audit, config.AppName, deps.Node))
	}
	r.Use(authenticator.Handler)

	// == service ==
	r.Get("/", handler.Root)
	r.Get("/health", handler.Health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	// == swagger ==
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// == chat ==
	r.With(limiter.Handler).Post("/chat", chatHandler.Chat)
	r.With(limiter.Handler).Method(http.MethodGet, "/ws/chat", wsHandler)

	// == session ==
	r.Post("/session/new", sessionHandler.NewSession)
	r.Delete("/session/{session_id}", sessionHandler.DeleteSession)
	r.Post("/session/{session_id}/reset", sessionHandler.ResetSession)
	r.Get("/sessions", sessionHandler.GetSessionList)

	return r
}

// NewServerHandler wraps the router with OpenTelemetry HTTP instrumentation.
func NewServerHandler(deps RouterDeps) http.Handler {
	return otelhttp.NewHandler(NewApiRouter(deps), config.AppName)
}
