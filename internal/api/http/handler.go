package http

import (
	"context"
	"net/http"
	"time"

	apimodel "aptbot/internal/api/http/utils"
	"aptbot/internal/config"
	"aptbot/internal/core/session"

	"github.com/rs/zerolog"
)

const pingTimeout = 5 * time.Second

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewRequestHandler(sessionHandler session.SessionServiceHandler, pinger Pinger, logger zerolog.Logger) *RequestHandler {
	return &RequestHandler{
		sessionHandler: sessionHandler,
		pinger:         pinger,
		logger:         logger,
	}
}

type RequestHandler struct {
	sessionHandler session.SessionServiceHandler
	pinger         Pinger
	logger         zerolog.Logger
}

// Root godoc
// @Summary service banner
// @Tags service
// @Produce json
// @Success 200 {object} apimodel.ApiResponse{data=RootResponse}
// @Router / [get]
func (h *RequestHandler) Root(w http.ResponseWriter, r *http.Request) {
	apimodel.RespondSuccess(w, http.StatusOK, "running", RootResponse{
		Message:   "Apartment Chatbot API is running!",
		Version:   config.Version,
		Endpoints: endpoints,
	})
}

// Health godoc
// @Summary health check
// @Description liveness, and database reachability when deep=1
// @Tags service
// @Param deep query string false "ping the database"
// @Produce json
// @Success 200 {object} apimodel.ApiResponse{data=HealthResponse}
// @Failure 503 {object} apimodel.ApiResponse{data=HealthResponse}
// @Router /health [get]
func (h *RequestHandler) Health(w http.ResponseWriter, r *http.Request) {
	res := HealthResponse{
		Status:         "healthy",
		ActiveSessions: h.sessionHandler.Count(),
	}

	switch r.URL.Query().Get("deep") {
	case "1", "true":
		if h.pinger == nil {
			res.Database = "not configured"
			break
		}
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("database ping failed")
			res.Status = "unhealthy"
			res.Database = "down"
			apimodel.RespondFail(w, http.StatusServiceUnavailable, "database unreachable", res)
			return
		}
		res.Database = "up"
	}

	apimodel.RespondSuccess(w, http.StatusOK, "healthy", res)
}
