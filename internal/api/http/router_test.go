package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"aptbot/internal/api/http/logger"
	"aptbot/internal/config"
	"aptbot/internal/core/apartment"
	"aptbot/internal/core/chatbot"
	"aptbot/internal/core/session"
	"aptbot/internal/db"
	"aptbot/internal/llm"
	"aptbot/internal/metrics"
	"aptbot/internal/prompt"
	"aptbot/internal/tenant"

	"github.com/rs/zerolog"
)

type fakeVerifier struct{}

func (fakeVerifier) Verify(ctx context.Context, raw string) (map[string]any, error) {
	if raw != "good-token" {
		return nil, errors.New("bad token")
	}
	return map[string]any{"sub": "u-1", "building_id": "sunrise_a"}, nil
}

type floorsQuerier struct {
	mu      sync.Mutex
	schemas []string
}

func (q *floorsQuerier) Query(ctx context.Context, query string, args ...any) ([]db.Row, error) {
	bound, err := db.InjectSchema(ctx, query)
	if err != nil {
		return nil, err
	}
	q.mu.Lock()
	q.schemas = append(q.schemas, bound)
	q.mu.Unlock()
	return []db.Row{{"floor_id": 1, "floor_number": 1}, {"floor_id": 2, "floor_number": 2}}, nil
}

func (q *floorsQuerier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return 0, nil
}

func (q *floorsQuerier) QueryUnscoped(ctx context.Context, query string, args ...any) ([]db.Row, error) {
	return nil, nil
}

func (q *floorsQuerier) Ping(ctx context.Context) error { return nil }

func (q *floorsQuerier) Close() error { return nil }

// floorsModel asks for get_floors once per user message, then answers.
type floorsModel struct{}

func (floorsModel) Generate(ctx context.Context, req llm.Request) (llm.Message, error) {
	last := req.History[len(req.History)-1]
	if last.IsUserText() {
		return llm.Message{Role: llm.RoleModel, Parts: []llm.Part{{FunctionCall: &llm.FunctionCall{Name: "get_floors"}}}}, nil
	}
	return llm.ModelText("Tòa nhà có 2 tầng."), nil
}

type memAudit struct {
	mu     sync.Mutex
	events []logger.Event
}

func (m *memAudit) Write(ev logger.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *memAudit) last() logger.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[len(m.events)-1]
}

type downPinger struct{}

func (downPinger) Ping(ctx context.Context) error { return errors.New("connection refused") }

type testServer struct {
	handler http.Handler
	audit   *memAudit
	querier *floorsQuerier
}

func newTestServer(t *testing.T, required bool, rl config.RateLimitConfig, pinger Pinger) *testServer {
	t.Helper()
	collector := metrics.NewCollector()
	reg, err := metrics.NewRegistry(collector)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	querier := &floorsQuerier{}
	tools := apartment.NewApartmentService(querier, zerolog.Nop())
	catalog := prompt.Default()
	factory := func(id tenant.Identity) chatbot.ChatbotHandler {
		return chatbot.NewChatbot(id, chatbot.Deps{
			Model:    floorsModel{},
			Catalog:  catalog,
			Tools:    tools,
			Config:   chatbot.Config{MaxToolRounds: 4, MaxHistory: 40, MaxMessageLength: 4000},
			Logger:   zerolog.Nop(),
			Observer: collector,
		})
	}
	sessions := session.NewSessionService(factory, nil, config.SessionConfig{}, collector, zerolog.Nop())
	audit := &memAudit{}

	h := NewServerHandler(RouterDeps{
		Sessions:     sessions,
		Pinger:       pinger,
		Verifier:     fakeVerifier{},
		AuthRequired: required,
		RateLimit:    rl,
		Audit:        audit,
		Metrics:      metrics.Handler(reg),
		Node:         "test",
		Logger:       zerolog.Nop(),
	})
	return &testServer{handler: h, audit: audit, querier: querier}
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid json: %v (%s)", err, w.Body.String())
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("invalid data: %v (%s)", err, env.Data)
	}
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t, false, config.RateLimitConfig{}, nil)

	w := s.do(http.MethodGet, "/", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var root RootResponse
	decodeData(t, w, &root)
	if root.Version != config.Version || root.Endpoints["POST /chat"] == "" {
		t.Fatalf("unexpected root: %+v", root)
	}

	w = s.do(http.MethodGet, "/health?deep=1", "", "")
	var health HealthResponse
	decodeData(t, w, &health)
	if w.Code != http.StatusOK || health.Status != "healthy" || health.Database != "not configured" {
		t.Fatalf("unexpected health: %d %+v", w.Code, health)
	}
}

func TestHealthDeepDatabaseDown(t *testing.T) {
	s := newTestServer(t, false, config.RateLimitConfig{}, downPinger{})

	if w := s.do(http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
		t.Fatalf("expected shallow health 200, got %d", w.Code)
	}
	w := s.do(http.MethodGet, "/health?deep=1", "", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestChatAuthenticatedUsesTenantSchema(t *testing.T) {
	s := newTestServer(t, false, config.RateLimitConfig{}, nil)

	w := s.do(http.MethodPost, "/chat", `{"message":"Tòa nhà có mấy tầng?"}`, "good-token")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		SessionId     string            `json:"session_id"`
		Response      string            `json:"response"`
		FunctionCalls []chatbot.CallLog `json:"function_calls"`
	}
	decodeData(t, w, &res)
	if res.Response != "Tòa nhà có 2 tầng." || len(res.FunctionCalls) != 1 || res.FunctionCalls[0].Function != "get_floors" {
		t.Fatalf("unexpected response: %+v", res)
	}
	if len(s.querier.schemas) != 1 || !strings.Contains(s.querier.schemas[0], "[sunrise_a].floors") {
		t.Fatalf("expected tenant-bound query, got %v", s.querier.schemas)
	}

	ev := s.audit.last()
	if ev.Action != "chat.tool" || !ev.Actor.Authenticated || ev.Actor.BuildingId != "sunrise_a" || ev.Target.SessionId != res.SessionId {
		t.Fatalf("unexpected audit event: %+v", ev)
	}

	w = s.do(http.MethodGet, "/sessions", "", "")
	var list struct {
		TotalSessions int      `json:"total_sessions"`
		SessionIds    []string `json:"session_ids"`
	}
	decodeData(t, w, &list)
	if list.TotalSessions != 1 || list.SessionIds[0] != res.SessionId {
		t.Fatalf("unexpected session list: %+v", list)
	}
}

func TestChatGuestNeverQueries(t *testing.T) {
	s := newTestServer(t, false, config.RateLimitConfig{}, nil)

	w := s.do(http.MethodPost, "/chat", `{"message":"Tòa nhà có mấy tầng?"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res struct {
		Response string `json:"response"`
	}
	decodeData(t, w, &res)
	if res.Response != prompt.Default().UnauthenticatedReply() {
		t.Fatalf("expected unauthenticated reply, got %q", res.Response)
	}
	if len(s.querier.schemas) != 0 {
		t.Fatalf("expected no database access for guests, got %v", s.querier.schemas)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, true, config.RateLimitConfig{}, nil)

	if w := s.do(http.MethodPost, "/chat", `{"message":"hi"}`, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	ev := s.audit.last()
	if ev.Result.Status != "deny" || ev.Action != "auth.rejected" {
		t.Fatalf("unexpected audit event: %+v", ev)
	}

	if w := s.do(http.MethodPost, "/chat", `{"message":"hi"}`, "bad"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
		t.Fatalf("expected public health, got %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/session/new", "", "good-token"); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t, false, config.RateLimitConfig{}, nil)

	w := s.do(http.MethodPost, "/session/new", "", "good-token")
	var created struct {
		SessionId     string `json:"session_id"`
		Authenticated bool   `json:"authenticated"`
	}
	decodeData(t, w, &created)
	if !created.Authenticated || created.SessionId == "" {
		t.Fatalf("unexpected session: %+v", created)
	}

	if w := s.do(http.MethodPost, "/session/"+created.SessionId+"/reset", "", ""); w.Code != http.StatusOK {
		t.Fatalf("expected reset 200, got %d", w.Code)
	}
	if w := s.do(http.MethodDelete, "/session/"+created.SessionId, "", ""); w.Code != http.StatusOK {
		t.Fatalf("expected delete 200, got %d", w.Code)
	}
	if w := s.do(http.MethodDelete, "/session/"+created.SessionId, "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected second delete 404, got %d", w.Code)
	}
}

func TestRateLimitAppliesToChatOnly(t *testing.T) {
	s := newTestServer(t, false, config.RateLimitConfig{RPS: 1, Burst: 1}, nil)

	if w := s.do(http.MethodPost, "/chat", `{"message":"hi"}`, ""); w.Code != http.StatusOK {
		t.Fatalf("expected first chat 200, got %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/chat", `{"message":"hi"}`, ""); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	for i := 0; i < 3; i++ {
		if w := s.do(http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
			t.Fatalf("expected health unaffected, got %d", w.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, true, config.RateLimitConfig{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected %q, got %q", "*", got)
	}
}

func TestMetricsAndSwagger(t *testing.T) {
	s := newTestServer(t, false, config.RateLimitConfig{}, nil)
	s.do(http.MethodPost, "/chat", `{"message":"hi"}`, "good-token")

	w := s.do(http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{"aptbot_chat_turns_total", "aptbot_tool_calls_total", "aptbot_active_sessions"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in metrics output", name)
		}
	}

	w = s.do(http.MethodGet, "/swagger/doc.json", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Apartment Chatbot API") {
		t.Fatalf("expected swagger doc, got %d", w.Code)
	}
}
