package main

import (
	"fmt"
	"os"

	"aptbot/internal/config"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger

	rootCmd = &cobra.Command{
		Use:           config.AppName,
		Short:         "Apartment management chatbot service",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = loaded
			logger = newLogger(cfg.Log, os.Stderr)
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml or .env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(dbcheckCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
