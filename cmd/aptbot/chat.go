package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"aptbot/internal/auth"
	"aptbot/internal/core/chatbot"
	"aptbot/internal/tenant"

	"github.com/spf13/cobra"
)

var (
	chatToken    string
	chatBuilding string

	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant from the console",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			identity, err := chatIdentity(ctx, chatToken, chatBuilding)
			if err != nil {
				return err
			}

			comps, err := buildComponents(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer comps.Close()

			bot := comps.newBot(cfg, logger)(identity)
			return chatLoop(ctx, bot, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
)

func init() {
	chatCmd.Flags().StringVar(&chatToken, "token", "", "bearer token to chat as its building")
	chatCmd.Flags().StringVar(&chatBuilding, "building", "", "building id to chat as, without a token")
}

func chatIdentity(ctx context.Context, token string, building string) (tenant.Identity, error) {
	switch {
	case token != "":
		verifier, err := auth.NewVerifier(ctx, cfg.Keycloak, cfg.Auth, logger)
		if err != nil {
			return tenant.Identity{}, err
		}
		claims, err := verifier.Verify(ctx, token)
		if err != nil {
			return tenant.Identity{}, err
		}
		identity := auth.IdentityFromClaims(claims)
		if !identity.Authenticated {
			return tenant.Identity{}, fmt.Errorf("token has no usable building id")
		}
		return identity, nil
	case building != "":
		schema := tenant.SchemaForBuilding(building)
		if err := tenant.ValidateSchema(schema); err != nil {
			return tenant.Identity{}, err
		}
		return tenant.Identity{Authenticated: true, BuildingID: building, Schema: schema}, nil
	default:
		return tenant.Guest(), nil
	}
}

type consoleAction int

const (
	actionSend consoleAction = iota
	actionSkip
	actionExit
	actionReset
)

func classifyInput(line string) consoleAction {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return actionSkip
	case "exit", "quit", "thoát", "thoat", "bye":
		return actionExit
	case "reset", "mới", "moi", "new":
		return actionReset
	default:
		return actionSend
	}
}

func chatLoop(ctx context.Context, bot chatbot.ChatbotHandler, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Apartment chatbot. Gõ 'exit', 'quit' hoặc 'thoát' để kết thúc, 'reset' hoặc 'mới' để bắt đầu lại.")
	if !bot.Identity().Authenticated {
		fmt.Fprintln(out, "(guest mode: no building data)")
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nBạn: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\nTạm biệt!")
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch classifyInput(line) {
		case actionSkip:
			continue
		case actionExit:
			fmt.Fprintln(out, "Cảm ơn bạn đã sử dụng chatbot! Tạm biệt!")
			return nil
		case actionReset:
			bot.Reset()
			fmt.Fprintln(out, "Đã bắt đầu cuộc hội thoại mới.")
			continue
		}

		res, err := bot.Chat(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "Lỗi: %v\n", err)
			continue
		}
		if len(res.FunctionCalls) > 0 {
			names := make([]string, 0, len(res.FunctionCalls))
			for _, c := range res.FunctionCalls {
				names = append(names, c.Function)
			}
			fmt.Fprintf(out, "[functions: %s]\n", strings.Join(names, ", "))
		}
		fmt.Fprintf(out, "Bot: %s\n", res.Response)
	}
}
