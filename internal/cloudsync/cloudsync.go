// Package cloudsync pushes freshly collected leads into the managed store on
// a fixed cadence. Each cycle reads the collector artifacts, classifies the
// rows, drops low scores, competitors and duplicates, and inserts the rest in
// batches with all structured fields encoded into the notes column. A
// heartbeat file tracks liveness for dashboards; without store credentials
// the worker degrades to local-only mode and keeps reporting counts.
package cloudsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"leadscope/internal/artifact"
	"leadscope/internal/lead"
	"leadscope/internal/notes"
	"leadscope/internal/store"
	"leadscope/internal/vertical"
)

// Modes a cycle can run in.
const (
	ModeCloudSync = "cloud_sync"
	ModeLocalOnly = "local_only"
)

// Heartbeat statuses, in lifecycle order.
const (
	StatusBooting   = "booting"
	StatusOK        = "ok"
	StatusLocalOnly = "local_only"
	StatusError     = "error"
)

const timeLayout = "2006-01-02T15:04:05"

// Config carries the worker's knobs. UserID wins over UserEmail; with
// neither set a configured store cannot be scoped and every cycle errors.
type Config struct {
	UserID        string
	UserEmail     string
	MinScore      int
	BatchSize     int
	DryRun        bool
	Vertical      string
	Interval      time.Duration
	HeartbeatPath string
	DataDir       string
}

// Result summarizes one sync cycle.
type Result struct {
	UserID            string `json:"user_id"`
	SourceTotal       int    `json:"source_total"`
	Prepared          int    `json:"prepared"`
	Inserted          int    `json:"inserted"`
	SkippedLowScore   int    `json:"skipped_low_score"`
	SkippedCompetitor int    `json:"skipped_competitor"`
	SkippedDuplicate  int    `json:"skipped_duplicate"`
	DryRun            bool   `json:"dry_run"`
	CloudEnabled      bool   `json:"cloud_enabled"`
	Mode              string `json:"mode"`
}

// Heartbeat is the liveness file rewritten after every cycle.
type Heartbeat struct {
	UpdatedAt     string  `json:"updated_at"`
	Status        string  `json:"status"`
	LoopCount     int     `json:"loop_count"`
	IntervalSec   int     `json:"interval_sec"`
	StartedAt     string  `json:"started_at"`
	LastSuccessAt string  `json:"last_success_at,omitempty"`
	LastError     string  `json:"last_error,omitempty"`
	ErrorStreak   int     `json:"error_streak"`
	LastResult    *Result `json:"last_result,omitempty"`
}

// Worker runs sync cycles against one store tenant. RunCycle serializes
// itself, so an overlong cycle delays the next tick instead of racing it.
type Worker struct {
	store *store.Client
	rdb   *redis.Client
	cfg   Config

	mu            sync.Mutex
	startedAt     string
	loopCount     int
	errorStreak   int
	lastError     string
	lastSuccessAt string
	lastResult    *Result
}

func New(st *store.Client, rdb *redis.Client, cfg Config) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	return &Worker{store: st, rdb: rdb, cfg: cfg}
}

// Boot records the start time and writes the initial heartbeat, so monitors
// see the worker before the first cycle completes.
func (w *Worker) Boot() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.startedAt = time.Now().Format(timeLayout)
	w.writeHeartbeat(StatusBooting)
}

// RunCycle executes one cycle and folds the outcome into the heartbeat.
// Errors are absorbed here: the scheduler keeps ticking and the streak
// counter carries the failure signal instead.
func (w *Worker) RunCycle(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.loopCount++
	res, err := w.RunOnce(ctx)
	if err != nil {
		w.errorStreak++
		w.lastError = err.Error()
		w.writeHeartbeat(StatusError)
		log.Printf("[cloudsync] cycle %d failed: %v", w.loopCount, err)
		return
	}

	w.errorStreak = 0
	w.lastError = ""
	w.lastSuccessAt = time.Now().Format(timeLayout)
	w.lastResult = res

	status := StatusOK
	if res.Mode == ModeLocalOnly {
		status = StatusLocalOnly
	}
	w.writeHeartbeat(status)
	log.Printf("[cloudsync] cycle %d: %d collected, %d prepared, %d inserted (%s)",
		w.loopCount, res.SourceTotal, res.Prepared, res.Inserted, res.Mode)

	w.publish(ctx, res)
}

// RunOnce performs a single sync pass and returns its counters. Rows too
// short to classify count toward source_total only.
func (w *Worker) RunOnce(ctx context.Context) (*Result, error) {
	fields := artifact.Collect(w.cfg.DataDir)
	pb := vertical.Get(w.cfg.Vertical)

	rows := make([]lead.Row, 0, len(fields))
	for _, f := range fields {
		if row, ok := lead.Build(f, pb); ok {
			rows = append(rows, row)
		}
	}

	cloud := w.store.Configured()
	res := &Result{
		SourceTotal:  len(fields),
		DryRun:       w.cfg.DryRun,
		CloudEnabled: cloud,
		Mode:         ModeCloudSync,
	}

	existing := map[string]bool{}
	if cloud {
		userID, err := w.resolveUserID(ctx)
		if err != nil {
			return nil, err
		}
		res.UserID = userID
		existing, err = w.store.ExistingExternalIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
	} else {
		res.Mode = ModeLocalOnly
		res.UserID = localUserID(w.cfg.UserEmail)
	}

	seen := make(map[string]bool, len(rows))
	var inserts []store.LeadInsert
	for _, row := range rows {
		switch {
		case row.Score < w.cfg.MinScore:
			res.SkippedLowScore++
		case row.IsCompetitor:
			res.SkippedCompetitor++
		case existing[row.ExternalID] || seen[row.ExternalID]:
			res.SkippedDuplicate++
		default:
			seen[row.ExternalID] = true
			inserts = append(inserts, store.LeadInsert{
				UserID: res.UserID,
				Name:   row.Author,
				Email:  "",
				Phone:  row.Contact,
				Status: "new",
				Notes:  composeNote(row),
			})
		}
	}
	res.Prepared = len(inserts)

	if !cloud || w.cfg.DryRun {
		return res, nil
	}

	for start := 0; start < len(inserts); start += w.cfg.BatchSize {
		end := start + w.cfg.BatchSize
		if end > len(inserts) {
			end = len(inserts)
		}
		if err := w.store.InsertLeads(ctx, inserts[start:end]); err != nil {
			return nil, fmt.Errorf("insert batch %d..%d: %w", start, end, err)
		}
		res.Inserted += end - start
	}
	return res, nil
}

func (w *Worker) resolveUserID(ctx context.Context) (string, error) {
	if id := strings.TrimSpace(w.cfg.UserID); id != "" {
		return id, nil
	}
	email := strings.TrimSpace(w.cfg.UserEmail)
	if email == "" {
		return "", errors.New("store configured but neither REMOTE_USER_ID nor REMOTE_USER_EMAIL set")
	}
	return w.store.LookupUserID(ctx, email)
}

// localUserID labels local-only results so heartbeats still distinguish
// operators when no store credentials are present.
func localUserID(email string) string {
	if e := strings.ToLower(strings.TrimSpace(email)); e != "" {
		return e
	}
	return "local-guest"
}

// composeNote renders the CRM note for one row. The intent written here is
// the score bucket the CRM displays, not the text classifier's level: the
// final score already folds in reachability and contact signals, so it is
// the better temperature gauge for a human working the list.
func composeNote(row lead.Row) string {
	return notes.Compose(notes.ComposeInput{
		Platform:    row.Platform,
		Score:       row.Score,
		Intent:      intentFor(row.Score),
		Keyword:     row.Keyword,
		DMReady:     row.DMReady,
		PostURL:     row.PostURL,
		AuthorURL:   row.AuthorURL,
		SourceURL:   row.SourceURL,
		CollectedAt: row.CollectedAt,
		ExternalID:  row.ExternalID,
		Content:     row.Content,
	})
}

func intentFor(score int) string {
	switch {
	case score >= 80:
		return "high"
	case score >= 60:
		return "medium"
	default:
		return "low"
	}
}

// publish announces inserted leads on Redis for downstream listeners
// (non-fatal). The event id lets at-least-once consumers dedupe.
func (w *Worker) publish(ctx context.Context, res *Result) {
	if w.rdb == nil || res.Inserted == 0 {
		return
	}
	event, _ := json.Marshal(map[string]any{
		"type":     "EVENT_LEADS_SYNCED",
		"eventId":  uuid.NewString(),
		"userId":   res.UserID,
		"inserted": res.Inserted,
		"prepared": res.Prepared,
	})
	if err := w.rdb.Publish(ctx, "EVENT_LEADS_SYNCED", event).Err(); err != nil {
		slog.Warn("publish EVENT_LEADS_SYNCED failed", "err", err)
	}
}

// writeHeartbeat rewrites the liveness file. Best-effort: a broken disk must
// not take the sync loop down, so failures are logged and dropped.
func (w *Worker) writeHeartbeat(status string) {
	if w.cfg.HeartbeatPath == "" {
		return
	}
	hb := Heartbeat{
		UpdatedAt:     time.Now().Format(timeLayout),
		Status:        status,
		LoopCount:     w.loopCount,
		IntervalSec:   int(w.cfg.Interval / time.Second),
		StartedAt:     w.startedAt,
		LastSuccessAt: w.lastSuccessAt,
		LastError:     w.lastError,
		ErrorStreak:   w.errorStreak,
		LastResult:    w.lastResult,
	}
	raw, err := json.MarshalIndent(hb, "", "  ")
	if err != nil {
		return
	}
	if dir := filepath.Dir(w.cfg.HeartbeatPath); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	if err := os.WriteFile(w.cfg.HeartbeatPath, raw, 0o644); err != nil {
		log.Printf("[cloudsync] heartbeat write failed: %v", err)
	}
}
