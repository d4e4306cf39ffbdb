package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

type memLogger struct {
	events []Event
}

func (m *memLogger) Write(event Event) {
	m.events = append(m.events, event)
}

func TestPeerIp(t *testing.T) {
	req := &http.Request{RemoteAddr: "192.168.0.1:1234"}
	if got := peerIp(req); got != "192.168.0.1" {
		t.Fatalf("expected host only, got %q", got)
	}

	req = &http.Request{RemoteAddr: "not-a-host-port"}
	if got := peerIp(req); got != "not-a-host-port" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestSeverityForAction(t *testing.T) {
	if got := severityForAction("chat.tool"); got != SEV_MEDIUM {
		t.Fatalf("expected %d, got %d", SEV_MEDIUM, got)
	}
	if got := severityForAction("unknown.action"); got != SEV_LOW {
		t.Fatalf("expected %d, got %d", SEV_LOW, got)
	}
}

func TestBump(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "info", input: "information", expect: "low"},
		{name: "low", input: "low", expect: "medium"},
		{name: "medium", input: "medium", expect: "high"},
		{name: "high", input: "high", expect: "critical"},
		{name: "unknown", input: "custom", expect: "custom"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := bump(tc.input)
			if got != tc.expect {
				t.Fatalf("expected %q, got %q", tc.expect, got)
			}
		})
	}
}

func TestLoggerMiddleware(t *testing.T) {
	cases := []struct {
		name       string
		method     string
		path       string
		status     int
		expectAct  string
		expectSev  string
		expectRes  string
		setActor   bool
		setHandler bool
	}{
		{name: "rule match", method: http.MethodGet, path: "/health", status: http.StatusOK, expectAct: "service.health", expectSev: "information", expectRes: "allow"},
		{name: "pattern match", method: http.MethodDelete, path: "/session/abc", status: http.StatusNotFound, expectAct: "session.delete", expectSev: "high", expectRes: "error"},
		{name: "deny", method: http.MethodPost, path: "/chat", status: http.StatusUnauthorized, expectAct: "chat.message", expectSev: "medium", expectRes: "deny"},
		{name: "handler override", method: http.MethodPost, path: "/chat", status: http.StatusOK, expectAct: "chat.tool", expectSev: "medium", expectRes: "allow", setActor: true, setHandler: true},
		{name: "unknown route", method: http.MethodGet, path: "/nope", status: http.StatusNotFound, expectAct: "unknown", expectSev: "medium", expectRes: "error"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			sink := &memLogger{}
			r := chi.NewRouter()
			r.Use(LoggerMiddleware(sink, "", "node-1"))
			handler := func(w http.ResponseWriter, r *http.Request) {
				if tc.setActor {
					SetActor(r.Context(), "sunrise_a", "user-1", true)
				}
				if tc.setHandler {
					SetAction(r.Context(), "chat.tool")
					SetTarget(r.Context(), Target{SessionId: "s-1", Tools: []string{"get_floors"}})
					SetReason(r.Context(), "tools used")
				}
				w.WriteHeader(tc.status)
			}
			r.Get("/health", handler)
			r.Post("/chat", handler)
			r.Delete("/session/{session_id}", handler)

			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.RemoteAddr = "10.0.0.9:5555"
			r.ServeHTTP(httptest.NewRecorder(), req)

			if len(sink.events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(sink.events))
			}
			ev := sink.events[0]
			if ev.Action != tc.expectAct {
				t.Fatalf("expected %q, got %q", tc.expectAct, ev.Action)
			}
			if ev.Severity != tc.expectSev {
				t.Fatalf("expected %q, got %q", tc.expectSev, ev.Severity)
			}
			if ev.Result.Status != tc.expectRes {
				t.Fatalf("expected %q, got %q", tc.expectRes, ev.Result.Status)
			}
			if ev.Result.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, ev.Result.Code)
			}
			if ev.Actor.PeerIp != "10.0.0.9" {
				t.Fatalf("expected %q, got %q", "10.0.0.9", ev.Actor.PeerIp)
			}
			if ev.Runtime.Component != "aptbot" {
				t.Fatalf("expected %q, got %q", "aptbot", ev.Runtime.Component)
			}
			if tc.setActor && (!ev.Actor.Authenticated || ev.Actor.BuildingId != "sunrise_a") {
				t.Fatalf("unexpected actor: %+v", ev.Actor)
			}
			if tc.setHandler && (ev.Target.SessionId != "s-1" || ev.Result.Reason != "tools used") {
				t.Fatalf("unexpected target: %+v", ev.Target)
			}
		})
	}
}

func TestJsonLineLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewJsonLineLogger(&buf)
	l.Write(Event{EventId: "a", Severity: "low"})
	l.Write(Event{EventId: "b", Severity: "low"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var ev Event
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("invalid json line: %v", err)
	}
	if ev.EventId != "b" {
		t.Fatalf("expected %q, got %q", "b", ev.EventId)
	}
}
