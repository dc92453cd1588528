package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	claimform "github.com/goliatone/go-claimform"
	"github.com/goliatone/go-claimform/internal/auth"
	"github.com/goliatone/go-claimform/internal/claims"
	"github.com/goliatone/go-claimform/internal/config"
	"github.com/goliatone/go-claimform/internal/document"
	"github.com/goliatone/go-claimform/internal/httpapi"
	"github.com/goliatone/go-claimform/internal/logging"
	"github.com/goliatone/go-claimform/internal/mailing"
	"github.com/goliatone/go-claimform/internal/storage/sqlite"
	"github.com/goliatone/go-claimform/pkg/progress"
	"github.com/goliatone/go-claimform/pkg/visibility/expr"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("claimsd: %v", err)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logging.WithError(logger, err).Error("claimsd stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	handler, closeFn, err := build(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "env", string(cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func build(cfg config.Config, logger *slog.Logger) (http.Handler, func(), error) {
	templates, err := claimform.LoadTemplates(cfg.TemplatesDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load templates: %w", err)
	}
	logger.Info("templates loaded", "count", templates.Len(), "keys", templates.Keys())

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			logging.WithError(logger, err).Warn("close store")
		}
	}
	fail := func(err error) (http.Handler, func(), error) {
		closeFn()
		return nil, nil, err
	}

	authSvc, err := auth.NewService(store, cfg.SessionSecret, cfg.SessionTTL, auth.WithLogger(logger))
	if err != nil {
		return fail(err)
	}

	engine := expr.New()
	docs, err := document.New(templates, document.WithVisibility(engine))
	if err != nil {
		return fail(err)
	}

	var client mailing.Client
	if !cfg.Env.Offline() {
		client, err = mailing.NewHTTPClient(cfg.MailBaseURL, cfg.MailAPIKey, cfg.MailTimeout, nil)
		if err != nil {
			return fail(err)
		}
	}
	mailer, err := mailing.NewService(client, docs, store, mailing.WithLogger(logger))
	if err != nil {
		return fail(err)
	}
	if mailer.TestMode() {
		logger.Warn("mail vendor disabled, letters are recorded but not sent")
	}

	claimSvc, err := claims.NewService(store, templates,
		claims.WithLogger(logger),
		claims.WithMailer(mailer),
		claims.WithUsers(store),
		claims.WithDefaultForms(cfg.ClaimForms...),
		claims.WithEvaluator(progress.New(progress.WithLogger(logger), progress.WithVisibility(engine))),
	)
	if err != nil {
		return fail(err)
	}

	api, err := httpapi.New(authSvc, claimSvc,
		httpapi.WithLogger(logger),
		httpapi.WithSecureCookies(cfg.Env == config.EnvProduction),
		httpapi.WithClaimForms(cfg.ClaimForms...),
	)
	if err != nil {
		return fail(err)
	}
	return api.Handler(), closeFn, nil
}
