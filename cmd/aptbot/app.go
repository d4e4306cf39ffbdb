package main

import (
	"context"
	"fmt"

	"aptbot/internal/config"
	"aptbot/internal/core/apartment"
	"aptbot/internal/core/chatbot"
	"aptbot/internal/db"
	"aptbot/internal/llm"
	"aptbot/internal/prompt"
	"aptbot/internal/tenant"

	"github.com/rs/zerolog"
)

// components are the pieces every command that talks to the model shares.
type components struct {
	db       *db.Database
	catalog  *prompt.Catalog
	model    llm.Model
	tools    *apartment.ApartmentService
	observer chatbot.Observer
}

func buildComponents(ctx context.Context, cfg *config.Config, logger zerolog.Logger, observer chatbot.Observer) (*components, error) {
	database, err := db.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	if !cfg.DBConfigured() {
		logger.Warn().Msg("database is not configured, tool calls will fail")
	}

	catalog := prompt.Default()
	if cfg.PromptsFile != "" {
		catalog, err = prompt.LoadFile(cfg.PromptsFile)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("load prompts: %w", err)
		}
	}

	model, err := llm.NewGeminiModel(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	return &components{
		db:       database,
		catalog:  catalog,
		model:    model,
		tools:    apartment.NewApartmentService(database, logger),
		observer: observer,
	}, nil
}

func (c *components) newBot(cfg *config.Config, logger zerolog.Logger) func(tenant.Identity) chatbot.ChatbotHandler {
	return func(identity tenant.Identity) chatbot.ChatbotHandler {
		return chatbot.NewChatbot(identity, chatbot.Deps{
			Model:   c.model,
			Catalog: c.catalog,
			Tools:   c.tools,
			Config: chatbot.Config{
				MaxToolRounds:    cfg.Chat.MaxToolRounds,
				MaxHistory:       cfg.Chat.MaxHistory,
				MaxMessageLength: cfg.Chat.MaxMessageLength,
			},
			Logger:   logger,
			Observer: c.observer,
		})
	}
}

func (c *components) Close() error {
	return c.db.Close()
}
