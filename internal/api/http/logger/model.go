package logger

type Logger interface {
	Write(event Event)
}

type Event struct {
	TS            string `json:"ts"`
	EventId       string `json:"event_id"`
	CorrelationId string `json:"correlation_id,omitempty"`
	Severity      string `json:"severity"`

	Actor Actor `json:"actor"`

	Action string `json:"action,omitempty"`
	Target Target `json:"target,omitempty"`

	Request Request `json:"request"`
	Result  Result  `json:"result"`

	Runtime Runtime `json:"runtime"`

	Extra map[string]any `json:"extra,omitempty"`
}

type Actor struct {
	PeerIp        string `json:"peer_ip,omitempty"`
	BuildingId    string `json:"building_id,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

type Target struct {
	SessionId string   `json:"session_id,omitempty"`
	TurnId    string   `json:"turn_id,omitempty"`
	Tools     []string `json:"tools,omitempty"`
}

type Request struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	Host      string `json:"host,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

type Result struct {
	Status    string `json:"status"`
	Code      int    `json:"code"`
	Reason    string `json:"reason,omitempty"`
	Bytes     int    `json:"bytes,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type Runtime struct {
	Component string `json:"component,omitempty"`
	Node      string `json:"node,omitempty"`
}

type ctxKey int

var Severity = map[int]string{
	0: "information",
	1: "low",
	2: "medium",
	3: "high",
	4: "critical",
}

const (
	SEV_INFO     = 0
	SEV_LOW      = 1
	SEV_MEDIUM   = 2
	SEV_HIGH     = 3
	SEV_CRITICAL = 4
)

type Rule struct {
	Method   string
	Pattern  string
	Action   string
	Severity int
}

var rules = []Rule{
	// service
	{"GET", "/", "service.info", SEV_INFO},
	{"GET", "/health", "service.health", SEV_INFO},
	{"GET", "/metrics", "service.metrics", SEV_INFO},

	// chat
	{"POST", "/chat", "chat.message", SEV_LOW},
	{"GET", "/ws/chat", "ws.chat", SEV_LOW},

	// session
	{"POST", "/session/new", "session.create", SEV_LOW},
	{"GET", "/sessions", "session.list", SEV_MEDIUM},
	{"POST", "/session/{session_id}/reset", "session.reset", SEV_LOW},
	{"DELETE", "/session/{session_id}", "session.delete", SEV_MEDIUM},
}

var actionSeverity = map[string]int{
	"chat.tool":     SEV_MEDIUM,
	"chat.guest":    SEV_INFO,
	"auth.rejected": SEV_HIGH,
}
