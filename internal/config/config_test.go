package config_test

import (
	"strings"
	"testing"
	"time"

	"leadscope/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	// Clear everything Load reads so host environment can't leak in.
	for _, key := range []string{
		"LEADSERVE_PORT", "SERVER_CORS_ORIGINS", "SERVER_REQUEST_TIMEOUT",
		"REMOTE_STORE_URL", "REMOTE_STORE_KEY", "REMOTE_USER_ID", "REMOTE_USER_EMAIL", "REMOTE_FETCH_LIMIT",
		"EXPORT_CMD", "EXPORT_ARGS", "EXPORT_DIR", "EXPORT_TIMEOUT",
		"SYNC_INTERVAL", "SYNC_MIN_SCORE", "SYNC_BATCH_SIZE", "SYNC_DRY_RUN", "SYNC_VERTICAL", "SYNC_HEARTBEAT_PATH",
		"SNAPSHOT_PATH", "LOADER_TIMEOUT", "REDIS_URL", "VERTICALS_FILE", "DATA_DIR",
	} {
		t.Setenv(key, "")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("cors = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Store.FetchLimit != 500 {
		t.Errorf("fetch limit = %d", cfg.Store.FetchLimit)
	}
	if cfg.Export.Timeout != 60*time.Second {
		t.Errorf("export timeout = %v", cfg.Export.Timeout)
	}
	if cfg.Sync.Interval != 5*time.Minute || cfg.Sync.MinScore != 60 || cfg.Sync.BatchSize != 200 {
		t.Errorf("sync = %+v", cfg.Sync)
	}
	if cfg.Sync.DryRun {
		t.Error("dry run should default off")
	}
	if cfg.SnapshotPath != "data/leads_snapshot.json" {
		t.Errorf("snapshot path = %q", cfg.SnapshotPath)
	}
	if cfg.Sync.Vertical != "study_abroad" {
		t.Errorf("sync vertical = %q", cfg.Sync.Vertical)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("LEADSERVE_PORT", "9090")
	t.Setenv("REMOTE_STORE_URL", "https://store.example.com")
	t.Setenv("REMOTE_STORE_KEY", "secret")
	t.Setenv("REMOTE_USER_EMAIL", "dev@example.com")
	t.Setenv("REMOTE_FETCH_LIMIT", "50")
	t.Setenv("EXPORT_CMD", "/usr/local/bin/leadexport")
	t.Setenv("EXPORT_ARGS", "--quiet, --retries=2")
	t.Setenv("SYNC_INTERVAL", "90s")
	t.Setenv("SYNC_DRY_RUN", "true")
	t.Setenv("SERVER_CORS_ORIGINS", "https://app.example.com,https://staging.example.com")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Store.URL != "https://store.example.com" || cfg.Store.Key != "secret" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.FetchLimit != 50 {
		t.Errorf("fetch limit = %d", cfg.Store.FetchLimit)
	}
	if len(cfg.Export.Args) != 2 || cfg.Export.Args[0] != "--quiet" || cfg.Export.Args[1] != "--retries=2" {
		t.Errorf("export args = %v, want trimmed comma-split values", cfg.Export.Args)
	}
	if cfg.Sync.Interval != 90*time.Second || !cfg.Sync.DryRun {
		t.Errorf("sync = %+v", cfg.Sync)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Errorf("cors = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric fetch limit", "REMOTE_FETCH_LIMIT", "many"},
		{"zero fetch limit", "REMOTE_FETCH_LIMIT", "0"},
		{"bad sync interval", "SYNC_INTERVAL", "ten minutes"},
		{"negative sync interval", "SYNC_INTERVAL", "-5m"},
		{"sync score out of range", "SYNC_MIN_SCORE", "150"},
		{"non-boolean dry run", "SYNC_DRY_RUN", "maybe"},
		{"zero batch size", "SYNC_BATCH_SIZE", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)

			_, err := config.Load()
			if err == nil {
				t.Fatalf("Load accepted %s=%q", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Errorf("error %q should name %s", err, tc.key)
			}
		})
	}
}
