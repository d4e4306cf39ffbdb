package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"aptbot/internal/core/chatbot"
	"aptbot/internal/tenant"
)

var ErrNotFound = errors.New("session not found")

const (
	TurnSuccess = "success"
	TurnError   = "error"
)

// BotFactory builds the chatbot for a new session bound to identity.
type BotFactory func(identity tenant.Identity) chatbot.ChatbotHandler

type SessionView struct {
	SessionId     string    `json:"session_id"`
	Authenticated bool      `json:"authenticated"`
	BuildingId    string    `json:"building_id,omitempty"`
	Messages      int       `json:"messages"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ChatOutcome struct {
	SessionId string
	Result    chatbot.ChatResult
}

type liveSession struct {
	mu        sync.Mutex
	id        string
	bot       chatbot.ChatbotHandler
	createdAt time.Time
	// unix nanos, read without l.mu by List and Sweep
	updatedAt atomic.Int64
	messages  atomic.Int64
}

func (l *liveSession) touch(t time.Time) {
	l.updatedAt.Store(t.UnixNano())
}

func (l *liveSession) lastUsed() time.Time {
	return time.Unix(0, l.updatedAt.Load())
}

func (l *liveSession) view() SessionView {
	id := l.bot.Identity()
	return SessionView{
		SessionId:     l.id,
		Authenticated: id.Authenticated,
		BuildingId:    id.BuildingID,
		Messages:      int(l.messages.Load()),
		CreatedAt:     l.createdAt,
		UpdatedAt:     l.lastUsed(),
	}
}

type nopMetrics struct{}

func (nopMetrics) SessionsActive(int) {}

func (nopMetrics) ChatTurn(string) {}

func (nopMetrics) SessionsExpired(int) {}
