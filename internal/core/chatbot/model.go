package chatbot

import (
	"errors"
	"time"

	"aptbot/internal/core/apartment"
	"aptbot/internal/llm"
	"aptbot/internal/prompt"

	"github.com/rs/zerolog"
)

var (
	ErrEmptyMessage       = errors.New("message must not be empty")
	ErrMessageTooLong     = errors.New("message is too long")
	ErrToolRoundsExceeded = errors.New("too many function call rounds in one turn")
)

type Config struct {
	MaxToolRounds    int
	MaxHistory       int
	MaxMessageLength int
}

type Deps struct {
	Model    llm.Model
	Catalog  *prompt.Catalog
	Tools    apartment.ToolInvoker
	Config   Config
	Logger   zerolog.Logger
	Observer Observer
}

type CallLog struct {
	Function string         `json:"function"`
	Args     map[string]any `json:"args"`
}

type ChatResult struct {
	TurnID        string         `json:"turn_id"`
	Response      string         `json:"response"`
	FunctionCalls []CallLog      `json:"function_calls"`
	Data          map[string]any `json:"data"`
}

type nopObserver struct{}

func (nopObserver) ObserveGenerate(time.Duration, error) {}

func (nopObserver) ObserveToolCall(string, bool) {}
