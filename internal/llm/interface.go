package llm

import "context"

// Model produces the next model turn for a conversation.
type Model interface {
	Generate(ctx context.Context, req Request) (Message, error)
}
