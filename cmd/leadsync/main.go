// leadscope-leadsync
//
// Background sync daemon. On a fixed cadence it reads collector artifacts,
// classifies the rows and pushes new leads into the managed store, skipping
// low scores, competitors and rows the store already holds. Keeps a heartbeat
// file fresh for dashboards and publishes EVENT_LEADS_SYNCED to Redis when
// new rows land. Run with -once for a single cycle.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"leadscope/internal/cloudsync"
	"leadscope/internal/config"
	"leadscope/internal/db"
	"leadscope/internal/scheduler"
	"leadscope/internal/store"
	"leadscope/internal/vertical"
)

const version = "1.0.0"

// storeTimeout is the sync worker's request budget. Batch inserts are slower
// than reads, so it is looser than the API server's loader budget.
const storeTimeout = 45 * time.Second

func main() {
	once := flag.Bool("once", false, "run one sync cycle, print the result and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("[leadsync] No .env file found, using environment variables")
	}

	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[leadsync] Config error: %v", err)
	}
	if err := vertical.LoadOverrides(cfg.VerticalsFile); err != nil {
		log.Fatalf("[leadsync] Verticals file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Redis (optional) ────────────────────────────────────────────────────
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		log.Println("[leadsync] Connecting to Redis…")
		rdb, err = db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("[leadsync] Redis: %v", err)
		}
		defer rdb.Close()
		log.Println("[leadsync] Redis connected ✓")
	}

	// ── Worker ──────────────────────────────────────────────────────────────
	st := store.NewClient(cfg.Store.URL, cfg.Store.Key, storeTimeout)
	worker := cloudsync.New(st, rdb, cloudsync.Config{
		UserID:        cfg.Store.UserID,
		UserEmail:     cfg.Store.UserEmail,
		MinScore:      cfg.Sync.MinScore,
		BatchSize:     cfg.Sync.BatchSize,
		DryRun:        cfg.Sync.DryRun,
		Vertical:      cfg.Sync.Vertical,
		Interval:      cfg.Sync.Interval,
		HeartbeatPath: cfg.Sync.HeartbeatPath,
		DataDir:       cfg.DataDir,
	})

	if *once {
		res, err := worker.RunOnce(ctx)
		if err != nil {
			log.Fatalf("[leadsync] Sync failed: %v", err)
		}
		out, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(out))
		return
	}

	// ── Scheduler ───────────────────────────────────────────────────────────
	sched := scheduler.New(worker, cfg.Sync.Interval)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[leadsync] Scheduler: %v", err)
	}
	log.Printf("[leadsync] v%s syncing every %s", version, cfg.Sync.Interval)

	// ── Graceful shutdown ───────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[leadsync] Shutting down…")
	sched.Stop()
	cancel()
	log.Println("[leadsync] Stopped.")
}
