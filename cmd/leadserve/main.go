// leadscope-leadserve
//
// HTTP API for the lead dashboard. Assembles the loader fallback chain
// (remote store, local export process, bundled snapshot) behind the request
// pipeline and serves:
//   - GET /api/v1/leads     (filtered, scored lead payload)
//   - GET /api/v1/verticals (vertical playbook catalog)
//   - GET /health           (liveness)
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"leadscope/internal/config"
	"leadscope/internal/pipeline"
	"leadscope/internal/server"
	"leadscope/internal/source"
	"leadscope/internal/vertical"
)

const version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[leadserve] No .env file found, using environment variables")
	}

	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[leadserve] Config error: %v", err)
	}
	if err := vertical.LoadOverrides(cfg.VerticalsFile); err != nil {
		log.Fatalf("[leadserve] Verticals file: %v", err)
	}

	// ── Loader chain ────────────────────────────────────────────────────────
	pipe := pipeline.New(cfg.LoaderTimeout,
		source.NewRemoteStore(source.RemoteConfig{
			BaseURL:    cfg.Store.URL,
			APIKey:     cfg.Store.Key,
			UserID:     cfg.Store.UserID,
			UserEmail:  cfg.Store.UserEmail,
			FetchLimit: cfg.Store.FetchLimit,
		}),
		source.NewLocalExport(source.LocalExportConfig{
			Command: cfg.Export.Command,
			Args:    cfg.Export.Args,
			Dir:     cfg.Export.Dir,
			Timeout: cfg.Export.Timeout,
		}),
		source.NewSnapshot(cfg.SnapshotPath),
	)

	// ── HTTP server ─────────────────────────────────────────────────────────
	h := server.NewHandler(pipe, "leadserve", version)
	srv := server.New(server.Config{
		Addr:           ":" + cfg.Server.Port,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, h)

	go func() {
		log.Printf("[leadserve] v%s listening on :%s", version, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[leadserve] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ───────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[leadserve] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[leadserve] Shutdown error: %v", err)
	}
	log.Println("[leadserve] Stopped.")
}
