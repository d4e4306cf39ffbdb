package http

type RootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
	Database       string `json:"database,omitempty"`
}

var endpoints = map[string]string{
	"POST /chat":                       "Gửi tin nhắn đến chatbot",
	"POST /session/new":                "Tạo session mới",
	"DELETE /session/{session_id}":     "Xóa session",
	"POST /session/{session_id}/reset": "Bắt đầu lại cuộc hội thoại",
	"GET /sessions":                    "Xem tất cả sessions",
	"GET /ws/chat":                     "Chat qua WebSocket",
	"GET /health":                      "Kiểm tra trạng thái",
}
