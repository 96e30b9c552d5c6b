package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"leadscope/internal/lead"
)

// DefaultSnapshotPath is where the demo dataset ships relative to the
// working directory.
const DefaultSnapshotPath = "data/leads_snapshot.json"

// Snapshot serves the static dataset bundled with the deployment, so an
// instance with neither store credentials nor a local exporter still answers
// with deterministic demo rows.
type Snapshot struct {
	Path string
}

func NewSnapshot(path string) *Snapshot {
	if path == "" {
		path = DefaultSnapshotPath
	}
	return &Snapshot{Path: path}
}

func (s *Snapshot) Name() string { return "bundled_snapshot" }

// Load reads and re-normalizes the snapshot rows. An unreadable snapshot is
// a failure, not a configuration gap: the file is supposed to ship with
// every deployment.
func (s *Snapshot) Load(ctx context.Context, q Query) ([]lead.Row, string, error) {
	rows, err := readPayloadRows(s.Path)
	if err != nil {
		return nil, "", err
	}
	return lead.NormalizeRows(rows), s.Path, nil
}

// payloadFile is the slice of the payload format the loaders care about.
type payloadFile struct {
	Rows []lead.Row `json:"rows"`
}

func readPayloadRows(path string) ([]lead.Row, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var pf payloadFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return pf.Rows, nil
}
