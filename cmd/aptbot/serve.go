package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "aptbot/internal/api/http"
	auditlog "aptbot/internal/api/http/logger"
	"aptbot/internal/auth"
	"aptbot/internal/core/session"
	"aptbot/internal/env"
	"aptbot/internal/metrics"
	"aptbot/internal/store/ssm"
	"aptbot/internal/tracing"
	"aptbot/internal/utils"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	logger.Info().Str("version", rootCmd.Version).Msg("starting")

	// == bootstrap ==
	bootstrap := env.NewBootstrapManager(cfg.StateDir, cfg.Log.AuditPath)
	if err := bootstrap.SetupRuntime(cfg.Session.Persist); err != nil {
		return err
	}

	shutdownTracer, err := tracing.InitTracer(cfg.Tracing.ServiceName)
	if err != nil {
		return err
	}
	defer shutdownTracer(context.Background())

	collector := metrics.NewCollector()
	reg, err := metrics.NewRegistry(collector)
	if err != nil {
		return err
	}

	comps, err := buildComponents(ctx, cfg, logger, collector)
	if err != nil {
		return err
	}
	defer comps.Close()

	if cfg.PromptsFile != "" {
		go func() {
			if err := comps.catalog.Watch(ctx, cfg.PromptsFile, logger); err != nil {
				logger.Error().Err(err).Msg("prompt watch stopped")
			}
		}()
	}

	verifier, err := auth.NewVerifier(ctx, cfg.Keycloak, cfg.Auth, logger)
	if err != nil {
		if !errors.Is(err, auth.ErrNoVerifier) {
			return err
		}
		logger.Warn().Err(err).Msg("bearer tokens will be ignored")
		verifier = nil
	}

	audit, err := openAudit(cfg.Log.AuditPath)
	if err != nil {
		return err
	}
	defer audit.Close()

	// == sessions ==
	sessions := session.NewSessionService(
		comps.newBot(cfg, logger),
		ssm.NewSsmManager(ssm.NewSsmStore(utils.SessionStorePath(cfg.StateDir))),
		cfg.Session,
		collector,
		logger,
	)
	go sessions.Run(ctx)

	var pinger httpapi.Pinger
	if cfg.DBConfigured() {
		pinger = comps.db
	}
	node, _ := os.Hostname()

	// == rest api ==
	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: httpapi.NewServerHandler(httpapi.RouterDeps{
			Sessions:     sessions,
			Pinger:       pinger,
			Verifier:     verifier,
			AuthRequired: cfg.Auth.Required,
			RateLimit:    cfg.RateLimit,
			Audit:        auditlog.NewJsonLineLogger(audit),
			Metrics:      metrics.Handler(reg),
			Node:         node,
			Logger:       logger,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("api server listening")
		var err error
		if cfg.Server.TLSCert != "" {
			err = srv.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
