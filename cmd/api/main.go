package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loangraph/portal/internal/backend"
	"github.com/loangraph/portal/internal/config"
	"github.com/loangraph/portal/internal/db"
	admindomain "github.com/loangraph/portal/internal/domain/admin"
	"github.com/loangraph/portal/internal/domain/document"
	"github.com/loangraph/portal/internal/domain/repayment"
	"github.com/loangraph/portal/internal/http/handlers"
	"github.com/loangraph/portal/internal/http/middleware"
	"github.com/loangraph/portal/internal/observability"
	postgresrepo "github.com/loangraph/portal/internal/repository/postgres"
	"github.com/loangraph/portal/internal/score"
	"github.com/loangraph/portal/internal/server"
	"github.com/loangraph/portal/internal/session"
	"github.com/loangraph/portal/internal/wizard"
	"github.com/loangraph/portal/internal/ws"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env, cfg.LogLevel)

	client, err := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout)
	if err != nil {
		logger.Error("invalid backend config", "err", err)
		os.Exit(1)
	}

	catalog := wizard.DefaultCatalog()
	if cfg.WizardCatalogPath != "" {
		catalog, err = wizard.LoadCatalog(cfg.WizardCatalogPath)
		if err != nil {
			logger.Error("failed to load wizard catalog", "path", cfg.WizardCatalogPath, "err", err)
			os.Exit(1)
		}
	}

	checks := map[string]handlers.Pinger{"backend": client}
	var auditRepo admindomain.AuditRepository = admindomain.NewLogAuditRepository(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.NewPostgresPool(ctx, cfg)
	switch {
	case errors.Is(err, db.ErrNotConfigured):
		logger.Info("no DATABASE_URL, admin audit goes to the log")
	case err != nil:
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	default:
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Error("failed to migrate postgres", "err", err)
			os.Exit(1)
		}
		auditRepo = postgresrepo.NewAdminAuditRepository(pool)
		checks["database"] = pool
	}

	var notifier *ws.Notifier
	var wsHandler *ws.Handler
	if cfg.WSEnabled {
		hub := ws.NewHub()
		notifier = ws.NewNotifier(hub, logger)
		wsHandler = ws.NewHandler(hub)
	}

	sessions := middleware.Sessions{Cookies: session.CookieConfig{
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
		TTL:    cfg.SessionTTL,
	}}
	registry := wizard.NewRegistry(wizard.Options{
		Catalog:            catalog,
		Deriver:            score.NewHashScorer(),
		MaxAttachmentBytes: cfg.MaxAttachmentBytes,
	}, cfg.WizardIdleTTL)

	adminService := admindomain.NewService(client, auditRepo, notifier, logger)
	r := server.NewRouter(cfg, logger, server.Dependencies{
		Checks:           checks,
		Sessions:         sessions,
		SessionHandler:   handlers.NewSessionHandler(sessions),
		WizardHandler:    handlers.NewWizardHandler(registry, catalog, client, notifier, cfg.MaxAttachmentBytes, logger),
		DashboardHandler: handlers.NewDashboardHandler(client, logger),
		LoanAdminHandler: handlers.NewLoanAdminHandler(adminService, client, logger),
		EMIHandler:       handlers.NewEMIHandler(repayment.NewService(client, notifier, logger), logger),
		DocumentHandler:  handlers.NewDocumentHandler(document.NewService(client, cfg.MaxAttachmentBytes, logger), cfg.MaxAttachmentBytes, logger),
		WSHandler:        wsHandler,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := registry.Run(sigCtx, time.Minute); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("wizard sweeper stopped", "err", err)
		}
	}()

	go func() {
		logger.Info("portal server starting", "addr", cfg.Addr(), "backend", cfg.BackendBaseURL, "realtime", cfg.WSEnabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-sigCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info("portal server stopped")
}
