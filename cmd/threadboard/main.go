package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/threadboard/threadboard/internal/adapter/driven/github"
	sqliteadapter "github.com/threadboard/threadboard/internal/adapter/driven/sqlite"
	httphandler "github.com/threadboard/threadboard/internal/adapter/driving/http"
	"github.com/threadboard/threadboard/internal/application"
	"github.com/threadboard/threadboard/internal/config"
	"github.com/threadboard/threadboard/internal/domain/model"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"page_size", cfg.PageSize,
		"user", cfg.UserID,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	commentStore := sqliteadapter.NewCommentRepo(db)
	directory := sqliteadapter.NewDirectoryRepo(db)

	// 6. Start the GitHub issue import service when a binding is configured.
	var importSvc *application.ImportService
	if cfg.HasIssueSync() {
		ghClient := githubadapter.NewClient(cfg.GitHubToken)
		importSvc = application.NewImportService(ghClient, commentStore, application.ImportBinding{
			ProjectID:    cfg.SyncProject,
			RepoFullName: cfg.SyncRepo,
			IssueNumber:  cfg.SyncIssue,
		}, cfg.SyncInterval)
		go importSvc.Start(ctx)
		slog.Info("issue sync enabled",
			"repo", cfg.SyncRepo,
			"issue", cfg.SyncIssue,
			"project", cfg.SyncProject,
			"interval", cfg.SyncInterval,
		)
	} else {
		slog.Info("issue sync not configured")
	}

	// 7. Create HTTP handler with all routes and middleware.
	user := model.User{ID: cfg.UserID, Name: cfg.UserName}
	apiHandler := httphandler.NewHandler(commentStore, directory, importSvc, user, cfg.PageSize, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("threadboard started", "listen_addr", cfg.ListenAddr)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 9. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
