package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"aptbot/internal/core/session"
	"aptbot/internal/tenant"

	"github.com/go-chi/chi/v5"
)

type fakeSessions struct {
	known   map[string]bool
	created tenant.Identity
	resets  []string
}

func (f *fakeSessions) Create(ctx context.Context, identity tenant.Identity) (session.SessionView, error) {
	f.created = identity
	return session.SessionView{SessionId: "s-new", Authenticated: identity.Authenticated, BuildingId: identity.BuildingID}, nil
}

func (f *fakeSessions) Chat(ctx context.Context, sessionId string, identity tenant.Identity, message string) (session.ChatOutcome, error) {
	return session.ChatOutcome{}, nil
}

func (f *fakeSessions) Delete(sessionId string) error {
	if !f.known[sessionId] {
		return session.ErrNotFound
	}
	delete(f.known, sessionId)
	return nil
}

func (f *fakeSessions) Reset(sessionId string) error {
	if !f.known[sessionId] {
		return session.ErrNotFound
	}
	f.resets = append(f.resets, sessionId)
	return nil
}

func (f *fakeSessions) List() []session.SessionView {
	return []session.SessionView{{SessionId: "a"}, {SessionId: "b"}}
}

func (f *fakeSessions) Count() int { return len(f.known) }

func newRouter(h *RequestHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/session/new", h.NewSession)
	r.Delete("/session/{session_id}", h.DeleteSession)
	r.Post("/session/{session_id}/reset", h.ResetSession)
	r.Get("/sessions", h.GetSessionList)
	return r
}

func TestNewSession(t *testing.T) {
	fake := &fakeSessions{}
	r := newRouter(NewRequestHandler(fake))

	identity := tenant.Identity{Authenticated: true, BuildingID: "sunrise_a", Schema: "sunrise_a"}
	req := httptest.NewRequest(http.MethodPost, "/session/new", nil)
	req = req.WithContext(tenant.WithIdentity(req.Context(), identity))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var env struct {
		Data NewSessionResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if env.Data.SessionId != "s-new" || !env.Data.Authenticated || env.Data.BuildingId != "sunrise_a" {
		t.Fatalf("unexpected data: %+v", env.Data)
	}
	if fake.created.Schema != "sunrise_a" {
		t.Fatalf("expected identity forwarded, got %+v", fake.created)
	}
}

func TestSessionActions(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		expect int
	}{
		{name: "delete known", method: http.MethodDelete, path: "/session/a", expect: http.StatusOK},
		{name: "delete unknown", method: http.MethodDelete, path: "/session/zzz", expect: http.StatusNotFound},
		{name: "reset known", method: http.MethodPost, path: "/session/a/reset", expect: http.StatusOK},
		{name: "reset unknown", method: http.MethodPost, path: "/session/zzz/reset", expect: http.StatusNotFound},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeSessions{known: map[string]bool{"a": true}}
			r := newRouter(NewRequestHandler(fake))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			if w.Code != tc.expect {
				t.Fatalf("expected %d, got %d", tc.expect, w.Code)
			}
			if tc.expect == http.StatusNotFound {
				var env struct {
					Message string `json:"message"`
				}
				_ = json.Unmarshal(w.Body.Bytes(), &env)
				if env.Message != "Session not found" {
					t.Fatalf("expected %q, got %q", "Session not found", env.Message)
				}
			}
		})
	}
}

func TestGetSessionList(t *testing.T) {
	r := newRouter(NewRequestHandler(&fakeSessions{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions", nil))

	var env struct {
		Data SessionListResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if env.Data.TotalSessions != 2 || len(env.Data.SessionIds) != 2 || env.Data.SessionIds[0] != "a" {
		t.Fatalf("unexpected data: %+v", env.Data)
	}
}
