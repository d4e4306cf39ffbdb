package chatbot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"aptbot/internal/llm"
	"aptbot/internal/tenant"
	"aptbot/internal/utils"

	"github.com/rs/zerolog"
)

func NewChatbot(identity tenant.Identity, deps Deps) *Chatbot {
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	return &Chatbot{
		identity: identity,
		deps:     deps,
		logger: deps.Logger.With().
			Str("component", "chatbot").
			Bool("authenticated", identity.Authenticated).
			Str("building_id", identity.BuildingID).
			Logger(),
	}
}

// Chatbot keeps one conversation. Tenant bots see every tool; guest bots
// see none and never execute a function call.
type Chatbot struct {
	mu       sync.Mutex
	identity tenant.Identity
	deps     Deps
	logger   zerolog.Logger
	history  []llm.Message
}

func (b *Chatbot) Identity() tenant.Identity {
	return b.identity
}

func (b *Chatbot) Chat(ctx context.Context, message string) (ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatResult{}, ErrEmptyMessage
	}
	if limit := b.deps.Config.MaxMessageLength; limit > 0 && utf8.RuneCountInString(message) > limit {
		return ChatResult{}, fmt.Errorf("%w: %d characters, limit %d", ErrMessageTooLong, utf8.RuneCountInString(message), limit)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.identity.Authenticated {
		ctx = tenant.WithIdentity(ctx, b.identity)
	} else {
		ctx = tenant.WithIdentity(ctx, tenant.Guest())
	}

	result := ChatResult{
		TurnID:        utils.NewUlid(),
		FunctionCalls: []CallLog{},
		Data:          map[string]any{},
	}
	logger := b.logger.With().Str("turn_id", result.TurnID).Logger()

	start := len(b.history)
	b.history = append(b.history, llm.UserText(message))

	for round := 0; ; round++ {
		reply, err := b.generate(ctx)
		if err != nil {
			b.history = b.history[:start]
			logger.Error().Err(err).Int("round", round).Msg("model request failed")
			return ChatResult{}, err
		}

		calls := reply.FunctionCalls()
		if len(calls) == 0 {
			b.history = append(b.history, reply)
			b.trim()
			result.Response = reply.Text()
			return result, nil
		}

		if !b.identity.Authenticated {
			logger.Warn().Int("calls", len(calls)).Msg("guest model requested functions, dropping")
			answer := b.deps.Catalog.UnauthenticatedReply()
			b.history = append(b.history, llm.ModelText(answer))
			b.trim()
			result.Response = answer
			return result, nil
		}

		if round >= b.deps.Config.MaxToolRounds {
			b.history = b.history[:start]
			logger.Error().Int("rounds", round).Msg("function call rounds exceeded")
			return ChatResult{}, ErrToolRoundsExceeded
		}

		b.history = append(b.history, reply)
		b.history = append(b.history, b.execute(ctx, logger, calls, &result))
	}
}

func (b *Chatbot) generate(ctx context.Context) (llm.Message, error) {
	req := llm.Request{
		Model:             b.deps.Catalog.Model(),
		SystemInstruction: b.deps.Catalog.Instruction(b.identity.Authenticated),
		History:           append([]llm.Message(nil), b.history...),
	}
	if b.identity.Authenticated {
		req.Tools = b.deps.Catalog.Tools()
	}

	started := time.Now()
	reply, err := b.deps.Model.Generate(ctx, req)
	b.deps.Observer.ObserveGenerate(time.Since(started), err)
	return reply, err
}

// execute runs every call of one model reply and returns the user message
// carrying their responses.
func (b *Chatbot) execute(ctx context.Context, logger zerolog.Logger, calls []llm.FunctionCall, result *ChatResult) llm.Message {
	resp := llm.Message{Role: llm.RoleUser}
	for _, call := range calls {
		args := call.Args
		if args == nil {
			args = map[string]any{}
		}
		result.FunctionCalls = append(result.FunctionCalls, CallLog{Function: call.Name, Args: args})
		logger.Info().Str("function", call.Name).Interface("args", args).Msg("function call")

		var payload any
		res, ok := b.deps.Tools.Invoke(ctx, call.Name, args)
		if ok {
			result.Data[call.Name] = res
			payload = res.Map()
		} else {
			payload = map[string]any{"error": fmt.Sprintf("Function %s not found", call.Name)}
		}
		b.deps.Observer.ObserveToolCall(call.Name, ok && res.Success)

		resp.Parts = append(resp.Parts, llm.Part{
			FunctionResponse: &llm.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: map[string]any{"result": payload},
			},
		})
	}
	return resp
}

// trim drops the oldest turns so history fits MaxHistory, cutting only
// where a typed user message starts a turn.
func (b *Chatbot) trim() {
	limit := b.deps.Config.MaxHistory
	if limit <= 0 || len(b.history) <= limit {
		return
	}
	start := len(b.history) - limit
	for i := start; i < len(b.history); i++ {
		if b.history[i].IsUserText() {
			b.history = append([]llm.Message(nil), b.history[i:]...)
			return
		}
	}
	// The newest turn alone exceeds the limit: keep only that turn.
	for i := start - 1; i > 0; i-- {
		if b.history[i].IsUserText() {
			b.history = append([]llm.Message(nil), b.history[i:]...)
			return
		}
	}
}

func (b *Chatbot) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = nil
}

func (b *Chatbot) History() []llm.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]llm.Message(nil), b.history...)
}

func (b *Chatbot) Restore(history []llm.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append([]llm.Message(nil), history...)
	b.trim()
}
