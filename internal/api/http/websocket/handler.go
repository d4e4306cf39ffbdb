package websocket

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"aptbot/internal/api/http/chat"
	apimodel "aptbot/internal/api/http/utils"
	"aptbot/internal/core/chatbot"
	"aptbot/internal/core/session"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	maxFrameBytes = 64 * 1024
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
)

func NewRequestHandler(sessionHandler session.SessionServiceHandler, logger zerolog.Logger) *Handler {
	return &Handler{
		sessionHandler: sessionHandler,
		Upgrader:       websocket.Upgrader{},
		logger:         logger.With().Str("component", "ws").Logger(),
	}
}

type Handler struct {
	sessionHandler session.SessionServiceHandler
	Upgrader       websocket.Upgrader
	logger         zerolog.Logger
}

// ServeHTTP handles GET /ws/chat (WebSocket). Every text frame is one chat
// turn; the session id sticks to the connection after the first reply.
//
// @Summary chat over websocket
// @Description each text frame is a message (plain text or {"message": ...}); each reply frame carries the /chat envelope
// @Tags chat
// @Param session_id query string false "Session ID"
// @Success 101
// @Router /ws/chat [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionId := r.URL.Query().Get("session_id")

	up := h.Upgrader
	if up.CheckOrigin == nil {
		up.CheckOrigin = func(r *http.Request) bool { return true }
	}

	ws, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	ws.SetReadLimit(maxFrameBytes)
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	out := newWSJsonWriter(ws)
	done := make(chan struct{})
	defer close(done)
	go keepalive(ws, done)

	for {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		mt, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug().Err(err).Msg("websocket closed")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		req := decodeFrame(data, sessionId)
		if len(bytes.TrimSpace([]byte(req.Message))) == 0 {
			if err := out.Write(apimodel.ApiResponse{Status: "fail", Message: chatbot.ErrEmptyMessage.Error()}); err != nil {
				return
			}
			continue
		}

		res, _, err := chat.Turn(r, h.sessionHandler, req)
		if res.SessionId != "" {
			sessionId = res.SessionId
		}

		var frame apimodel.ApiResponse
		if err != nil {
			h.logger.Error().Err(err).Str("session_id", res.SessionId).Msg("chat turn failed")
			frame = apimodel.ApiResponse{
				Status:  "fail",
				Message: "chat failed",
				Data: chat.ChatErrorResponse{
					SessionId: res.SessionId,
					Response:  chat.FallbackResponse,
					Error:     err.Error(),
				},
			}
		} else {
			frame = apimodel.ApiResponse{Status: "success", Message: "chat completed", Data: res}
		}
		if err := out.Write(frame); err != nil {
			return
		}
	}
}

// decodeFrame accepts plain text or a JSON object with a message field.
func decodeFrame(data []byte, sessionId string) chat.ChatRequest {
	req := chat.ChatRequest{SessionId: sessionId}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var in chat.ChatRequest
		if err := json.Unmarshal(trimmed, &in); err == nil {
			req.Message = in.Message
			if in.SessionId != "" {
				req.SessionId = in.SessionId
			}
			return req
		}
	}
	req.Message = string(trimmed)
	return req
}

func keepalive(ws *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// wsJsonWriter serializes JSON frames onto the connection.
type wsJsonWriter struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func newWSJsonWriter(ws *websocket.Conn) *wsJsonWriter {
	return &wsJsonWriter{ws: ws}
}

func (w *wsJsonWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_ = w.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return w.ws.WriteJSON(v)
}
