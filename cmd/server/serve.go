package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zigav/inventar/internal/api"
	"github.com/zigav/inventar/internal/auth"
	"github.com/zigav/inventar/internal/config"
	"github.com/zigav/inventar/internal/db"
	"github.com/zigav/inventar/internal/store"
	"github.com/zigav/inventar/internal/upload"
)

var flagConfigFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags(), flagConfigFile)
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagConfigFile, "config", "", "config file (default: ./inventar.yaml)")
	serveCmd.Flags().String(config.KeyAddr, ":8080", "listen address")
	serveCmd.Flags().String(config.KeyDBPath, "inventar.sqlite3", "SQLite database path")
	serveCmd.Flags().String(config.KeyJWTSecret, "", "JWT signing secret (default: persisted, auto-generated)")
	serveCmd.Flags().Duration(config.KeyTokenTTL, auth.DefaultTokenTTL, "bearer token lifetime")
	serveCmd.Flags().String(config.KeyUploadDir, "uploads", "directory for uploaded images")
	serveCmd.Flags().Int(config.KeyBcryptCost, 0, "bcrypt cost (0 = library default)")
	serveCmd.Flags().String(config.KeyLogPath, "", "log file path (default: stdout/stderr only)")
}

func serve(cfg *config.Config) error {
	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		return err
	}
	defer closeLog()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	// An explicitly configured secret wins; otherwise use the one persisted
	// in the database so tokens survive restarts.
	secret := cfg.JWTSecret
	if secret == "" {
		secret, err = store.GetJWTSecret(context.Background(), database)
		if err != nil {
			return fmt.Errorf("loading JWT secret: %w", err)
		}
	}

	authSvc := auth.NewService(secret, cfg.TokenTTL, cfg.BcryptCost)
	uploads := upload.NewStore(cfg.UploadDir)
	handler := api.LoggingMiddleware(api.NewRouter(database, authSvc, uploads))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
