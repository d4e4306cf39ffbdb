package session

import (
	"context"

	"aptbot/internal/tenant"
)

type SessionServiceHandler interface {
	Create(ctx context.Context, identity tenant.Identity) (SessionView, error)
	Chat(ctx context.Context, sessionId string, identity tenant.Identity, message string) (ChatOutcome, error)
	Delete(sessionId string) error
	Reset(sessionId string) error
	List() []SessionView
	Count() int
}

// Metrics receives session lifecycle counts. A nil Metrics is allowed.
type Metrics interface {
	SessionsActive(n int)
	ChatTurn(result string)
	SessionsExpired(n int)
}
