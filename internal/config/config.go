// Package config loads and validates environment variables at startup.
// Collaborators are optional: an unset store or export command just disables
// that loader. Malformed values fail fast so a typo never silently runs the
// service with defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration shared by the leadscope binaries.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Export ExportConfig
	Sync   SyncConfig

	SnapshotPath  string
	LoaderTimeout time.Duration
	RedisURL      string
	VerticalsFile string
	DataDir       string
}

// ServerConfig holds the HTTP listener settings for leadserve.
type ServerConfig struct {
	Port           string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// StoreConfig identifies the remote record store. An empty URL or Key
// disables the remote loader and the cloud side of the sync worker.
type StoreConfig struct {
	URL        string
	Key        string
	UserID     string
	UserEmail  string
	FetchLimit int
}

// ExportConfig describes the local export collaborator. An empty Command
// disables the local-process loader.
type ExportConfig struct {
	Command string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// SyncConfig drives the leadsync worker.
type SyncConfig struct {
	Interval      time.Duration
	MinScore      int
	BatchSize     int
	DryRun        bool
	Vertical      string
	HeartbeatPath string
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	fetchLimit, err := getEnvAsInt("REMOTE_FETCH_LIMIT", 500)
	if err != nil {
		return nil, err
	}
	if fetchLimit < 1 {
		return nil, fmt.Errorf("REMOTE_FETCH_LIMIT must be a positive integer, got %d", fetchLimit)
	}

	exportTimeout, err := getEnvAsDuration("EXPORT_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	loaderTimeout, err := getEnvAsDuration("LOADER_TIMEOUT", 90*time.Second)
	if err != nil {
		return nil, err
	}
	requestTimeout, err := getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	syncInterval, err := getEnvAsDuration("SYNC_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	syncMinScore, err := getEnvAsInt("SYNC_MIN_SCORE", 60)
	if err != nil {
		return nil, err
	}
	if syncMinScore < 0 || syncMinScore > 100 {
		return nil, fmt.Errorf("SYNC_MIN_SCORE must be in [0,100], got %d", syncMinScore)
	}
	syncBatch, err := getEnvAsInt("SYNC_BATCH_SIZE", 200)
	if err != nil {
		return nil, err
	}
	if syncBatch < 1 {
		return nil, fmt.Errorf("SYNC_BATCH_SIZE must be a positive integer, got %d", syncBatch)
	}
	syncDryRun, err := getEnvAsBool("SYNC_DRY_RUN", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("LEADSERVE_PORT", "8080"),
			CORSOrigins:    getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
			RequestTimeout: requestTimeout,
		},
		Store: StoreConfig{
			URL:        getEnv("REMOTE_STORE_URL", ""),
			Key:        getEnv("REMOTE_STORE_KEY", ""),
			UserID:     getEnv("REMOTE_USER_ID", ""),
			UserEmail:  getEnv("REMOTE_USER_EMAIL", ""),
			FetchLimit: fetchLimit,
		},
		Export: ExportConfig{
			Command: getEnv("EXPORT_CMD", ""),
			Args:    getEnvAsSlice("EXPORT_ARGS", nil),
			Dir:     getEnv("EXPORT_DIR", ""),
			Timeout: exportTimeout,
		},
		Sync: SyncConfig{
			Interval:      syncInterval,
			MinScore:      syncMinScore,
			BatchSize:     syncBatch,
			DryRun:        syncDryRun,
			Vertical:      getEnv("SYNC_VERTICAL", "study_abroad"),
			HeartbeatPath: getEnv("SYNC_HEARTBEAT_PATH", "data/sync_heartbeat.json"),
		},
		SnapshotPath:  getEnv("SNAPSHOT_PATH", "data/leads_snapshot.json"),
		LoaderTimeout: loaderTimeout,
		RedisURL:      getEnv("REDIS_URL", ""),
		VerticalsFile: getEnv("VERTICALS_FILE", ""),
		DataDir:       getEnv("DATA_DIR", "data"),
	}, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 90s or 5m, got %q", key, raw)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, raw)
	}
	return value, nil
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
