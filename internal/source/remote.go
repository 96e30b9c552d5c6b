package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadscope/internal/lead"
	"leadscope/internal/store"
	"leadscope/internal/vertical"
)

const (
	remoteTimeout     = 15 * time.Second
	defaultFetchLimit = 500 // newest-first fetch bound per request
)

// RemoteConfig locates and scopes the managed store. Leads are tenant-scoped:
// either UserID is known directly, or UserEmail is resolved against the
// users table first.
type RemoteConfig struct {
	BaseURL    string
	APIKey     string
	UserID     string
	UserEmail  string
	FetchLimit int
}

// RemoteStore reads synced lead records from the managed store's REST read
// API. Records come back as loosely-typed rows whose structured lead data
// travels inside the notes column; mapping and classification happen via
// lead.MapRecord.
type RemoteStore struct {
	cfg    RemoteConfig
	client *store.Client
}

// NewRemoteStore constructs the loader with its own short-budget store client.
func NewRemoteStore(cfg RemoteConfig) *RemoteStore {
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = defaultFetchLimit
	}
	return &RemoteStore{
		cfg:    cfg,
		client: store.NewClient(cfg.BaseURL, cfg.APIKey, remoteTimeout),
	}
}

func (s *RemoteStore) Name() string { return "remote_store" }

// Load fetches the newest records for the configured user, maps each through
// the note codec and classifier, and returns the deduplicated, sorted rows.
func (s *RemoteStore) Load(ctx context.Context, q Query) ([]lead.Row, string, error) {
	if !s.client.Configured() {
		return nil, "", fmt.Errorf("%w: REMOTE_STORE_URL / REMOTE_STORE_KEY not set", ErrNotConfigured)
	}

	userID := strings.TrimSpace(s.cfg.UserID)
	if userID == "" {
		email := strings.TrimSpace(s.cfg.UserEmail)
		if email == "" {
			return nil, "", fmt.Errorf("%w: neither REMOTE_USER_ID nor REMOTE_USER_EMAIL set", ErrNotConfigured)
		}
		var err error
		userID, err = s.client.LookupUserID(ctx, email)
		if err != nil {
			return nil, "", err
		}
	}

	records, err := s.client.FetchLeads(ctx, userID, s.cfg.FetchLimit)
	if err != nil {
		return nil, "", err
	}

	pb := vertical.Get(q.Vertical)
	rows := make([]lead.Row, 0, len(records))
	for _, rec := range records {
		if row, ok := lead.MapRecord(rec, pb); ok {
			rows = append(rows, row)
		}
	}
	rows = lead.Dedupe(rows)
	lead.Sort(rows)

	detail := fmt.Sprintf("%d records fetched, %d rows mapped", len(records), len(rows))
	return rows, detail, nil
}
