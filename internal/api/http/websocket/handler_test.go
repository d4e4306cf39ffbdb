package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"aptbot/internal/core/chatbot"
	"aptbot/internal/core/session"
	"aptbot/internal/tenant"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type fakeSessions struct {
	mu       sync.Mutex
	ids      []string
	messages []string
}

func (f *fakeSessions) Create(ctx context.Context, identity tenant.Identity) (session.SessionView, error) {
	return session.SessionView{}, nil
}

func (f *fakeSessions) Chat(ctx context.Context, sessionId string, identity tenant.Identity, message string) (session.ChatOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, sessionId)
	f.messages = append(f.messages, message)
	if sessionId == "" {
		sessionId = "ws-session"
	}
	return session.ChatOutcome{SessionId: sessionId, Result: chatbot.ChatResult{Response: "echo: " + message}}, nil
}

func (f *fakeSessions) Delete(sessionId string) error { return nil }

func (f *fakeSessions) Reset(sessionId string) error { return nil }

func (f *fakeSessions) List() []session.SessionView { return nil }

func (f *fakeSessions) Count() int { return 0 }

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return frame
}

func TestChatFrames(t *testing.T) {
	fake := &fakeSessions{}
	srv := httptest.NewServer(NewRequestHandler(fake, zerolog.Nop()))
	defer srv.Close()
	conn := dial(t, srv.URL+"/ws/chat")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("xin chào")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	frame := readFrame(t, conn)
	if frame["status"] != "success" {
		t.Fatalf("expected success frame, got %v", frame)
	}
	data := frame["data"].(map[string]any)
	if data["session_id"] != "ws-session" || data["response"] != "echo: xin chào" {
		t.Fatalf("unexpected data: %v", data)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"tầng mấy?"}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	readFrame(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`   `)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	frame = readFrame(t, conn)
	if frame["status"] != "fail" {
		t.Fatalf("expected fail frame for empty message, got %v", frame)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.ids) != 2 || fake.ids[0] != "" || fake.ids[1] != "ws-session" {
		t.Fatalf("expected session id to stick, got %v", fake.ids)
	}
	if fake.messages[1] != "tầng mấy?" {
		t.Fatalf("expected %q, got %q", "tầng mấy?", fake.messages[1])
	}
}

func TestSessionIdFromQuery(t *testing.T) {
	fake := &fakeSessions{}
	srv := httptest.NewServer(NewRequestHandler(fake, zerolog.Nop()))
	defer srv.Close()
	conn := dial(t, srv.URL+"/ws/chat?session_id=abc")

	_ = conn.WriteMessage(websocket.TextMessage, []byte("hi"))
	readFrame(t, conn)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.ids[0] != "abc" {
		t.Fatalf("expected %q, got %q", "abc", fake.ids[0])
	}
}

func TestDecodeFrame(t *testing.T) {
	cases := []struct {
		name      string
		input     string
		expectMsg string
		expectId  string
	}{
		{name: "plain", input: " hello ", expectMsg: "hello", expectId: "s"},
		{name: "json", input: `{"message":"hi"}`, expectMsg: "hi", expectId: "s"},
		{name: "json with session", input: `{"message":"hi","session_id":"x"}`, expectMsg: "hi", expectId: "x"},
		{name: "broken json", input: `{"message":`, expectMsg: `{"message":`, expectId: "s"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := decodeFrame([]byte(tc.input), "s")
			if got.Message != tc.expectMsg {
				t.Fatalf("expected %q, got %q", tc.expectMsg, got.Message)
			}
			if got.SessionId != tc.expectId {
				t.Fatalf("expected %q, got %q", tc.expectId, got.SessionId)
			}
		})
	}
}
