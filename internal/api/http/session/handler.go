package session

import (
	"errors"
	"net/http"

	"aptbot/internal/api/http/logger"
	apimodel "aptbot/internal/api/http/utils"
	"aptbot/internal/core/session"
	"aptbot/internal/tenant"

	"github.com/go-chi/chi/v5"
)

func NewRequestHandler(sessionHandler session.SessionServiceHandler) *RequestHandler {
	return &RequestHandler{
		sessionHandler: sessionHandler,
	}
}

type RequestHandler struct {
	sessionHandler session.SessionServiceHandler
}

// NewSession godoc
// @Summary create a session
// @Description create a chat session bound to the caller's building
// @Tags sessions
// @Produce json
// @Success 201 {object} apimodel.ApiResponse{data=NewSessionResponse}
// @Router /session/new [post]
func (h *RequestHandler) NewSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionHandler.Create(r.Context(), tenant.FromContext(r.Context()))
	if err != nil {
		apimodel.RespondFail(w, http.StatusInternalServerError, "create failed: "+err.Error(), nil)
		return
	}
	logger.SetTarget(r.Context(), logger.Target{SessionId: view.SessionId})

	apimodel.RespondSuccess(w, http.StatusCreated, "Session created successfully", NewSessionResponse{
		SessionId:     view.SessionId,
		Authenticated: view.Authenticated,
		BuildingId:    view.BuildingId,
	})
}

// DeleteSession godoc
// @Summary delete a session
// @Description delete a session and its persisted history
// @Tags sessions
// @Param session_id path string true "Session ID"
// @Produce json
// @Success 200 {object} apimodel.ApiResponse{data=SessionActionResponse}
// @Failure 404 {object} apimodel.ApiResponse
// @Router /session/{session_id} [delete]
func (h *RequestHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionId := chi.URLParam(r, "session_id")
	if sessionId == "" {
		apimodel.RespondFail(w, http.StatusBadRequest, "missing session_id", nil)
		return
	}
	logger.SetTarget(r.Context(), logger.Target{SessionId: sessionId})

	if err := h.sessionHandler.Delete(sessionId); err != nil {
		h.respondError(w, err)
		return
	}
	apimodel.RespondSuccess(w, http.StatusOK, "Session "+sessionId+" deleted", SessionActionResponse{SessionId: sessionId})
}

// ResetSession godoc
// @Summary reset a session
// @Description clear the conversation but keep the session id
// @Tags sessions
// @Param session_id path string true "Session ID"
// @Produce json
// @Success 200 {object} apimodel.ApiResponse{data=SessionActionResponse}
// @Failure 404 {object} apimodel.ApiResponse
// @Router /session/{session_id}/reset [post]
func (h *RequestHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	sessionId := chi.URLParam(r, "session_id")
	if sessionId == "" {
		apimodel.RespondFail(w, http.StatusBadRequest, "missing session_id", nil)
		return
	}
	logger.SetTarget(r.Context(), logger.Target{SessionId: sessionId})

	if err := h.sessionHandler.Reset(sessionId); err != nil {
		h.respondError(w, err)
		return
	}
	apimodel.RespondSuccess(w, http.StatusOK, "Session "+sessionId+" reset successfully", SessionActionResponse{SessionId: sessionId})
}

// GetSessionList godoc
// @Summary list sessions
// @Description list active and persisted sessions
// @Tags sessions
// @Produce json
// @Success 200 {object} apimodel.ApiResponse{data=SessionListResponse}
// @Router /sessions [get]
func (h *RequestHandler) GetSessionList(w http.ResponseWriter, r *http.Request) {
	views := h.sessionHandler.List()
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.SessionId)
	}
	apimodel.RespondSuccess(w, http.StatusOK, "session list", SessionListResponse{
		TotalSessions: len(ids),
		SessionIds:    ids,
	})
}

func (h *RequestHandler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		apimodel.RespondFail(w, http.StatusNotFound, "Session not found", nil)
		return
	}
	apimodel.RespondFail(w, apimodel.StatusForError(err), err.Error(), nil)
}
