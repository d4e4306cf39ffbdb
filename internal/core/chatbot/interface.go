package chatbot

import (
	"context"
	"time"

	"aptbot/internal/llm"
	"aptbot/internal/tenant"
)

type ChatbotHandler interface {
	Chat(ctx context.Context, message string) (ChatResult, error)
	Reset()
	History() []llm.Message
	Restore(history []llm.Message)
	Identity() tenant.Identity
}

// Observer receives per-turn measurements. A nil Observer is allowed.
type Observer interface {
	ObserveGenerate(d time.Duration, err error)
	ObserveToolCall(function string, success bool)
}
