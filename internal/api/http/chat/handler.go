package chat

import (
	"net/http"
	"strings"

	"aptbot/internal/api/http/logger"
	apimodel "aptbot/internal/api/http/utils"
	"aptbot/internal/core/chatbot"
	"aptbot/internal/core/session"
	"aptbot/internal/tenant"

	"github.com/rs/zerolog"
)

func NewRequestHandler(sessionHandler session.SessionServiceHandler, log zerolog.Logger) *RequestHandler {
	return &RequestHandler{
		sessionHandler: sessionHandler,
		logger:         log.With().Str("component", "chat").Logger(),
	}
}

type RequestHandler struct {
	sessionHandler session.SessionServiceHandler
	logger         zerolog.Logger
}

// Chat godoc
// @Summary send a chat message
// @Description send a message to the assistant; a new session is created when session_id is empty or unknown
// @Tags chat
// @Accept json
// @Produce json
// @Param request body ChatRequest true "Chat message"
// @Success 200 {object} apimodel.ApiResponse{data=ChatResponse}
// @Failure 400 {object} apimodel.ApiResponse
// @Failure 502 {object} apimodel.ApiResponse{data=ChatErrorResponse}
// @Router /chat [post]
func (h *RequestHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := apimodel.DecodeRequestBody(w, r, &req); err != nil {
		apimodel.RespondFail(w, http.StatusBadRequest, "invalid json: "+err.Error(), nil)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		apimodel.RespondFail(w, http.StatusBadRequest, chatbot.ErrEmptyMessage.Error(), nil)
		return
	}

	res, status, err := Turn(r, h.sessionHandler, req)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", res.SessionId).Msg("chat turn failed")
		logger.SetReason(r.Context(), err.Error())
		if status == http.StatusBadRequest {
			apimodel.RespondFail(w, status, err.Error(), nil)
			return
		}
		apimodel.RespondFail(w, status, "chat failed", ChatErrorResponse{
			SessionId: res.SessionId,
			Response:  FallbackResponse,
			Error:     err.Error(),
		})
		return
	}

	apimodel.RespondSuccess(w, http.StatusOK, "chat completed", res)
}

// Turn runs one chat turn for the caller identity in r and records it on the
// audit event. Failures report the status the caller should see.
func Turn(r *http.Request, sessionHandler session.SessionServiceHandler, req ChatRequest) (ChatResponse, int, error) {
	ctx := r.Context()
	identity := tenant.FromContext(ctx)

	outcome, err := sessionHandler.Chat(ctx, req.SessionId, identity, req.Message)
	res := ChatResponse{
		SessionId:     outcome.SessionId,
		Response:      outcome.Result.Response,
		FunctionCalls: outcome.Result.FunctionCalls,
		TurnId:        outcome.Result.TurnID,
	}
	if res.FunctionCalls == nil {
		res.FunctionCalls = []chatbot.CallLog{}
	}

	tools := make([]string, 0, len(res.FunctionCalls))
	for _, c := range res.FunctionCalls {
		tools = append(tools, c.Function)
	}
	logger.SetTarget(ctx, logger.Target{SessionId: res.SessionId, TurnId: res.TurnId, Tools: tools})
	logger.PutExtra(ctx, "function_calls", len(tools))
	switch {
	case len(tools) > 0:
		logger.SetAction(ctx, "chat.tool")
	case !identity.Authenticated:
		logger.SetAction(ctx, "chat.guest")
	}

	if err != nil {
		status := apimodel.StatusForError(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		return res, status, err
	}
	return res, http.StatusOK, nil
}
