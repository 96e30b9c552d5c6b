package source

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"leadscope/internal/lead"
)

const defaultExportTimeout = 60 * time.Second

// LocalExportConfig describes how to invoke the export executable. An empty
// Command disables the loader. Extra Args come before the generated flags so
// interpreter-style commands ("python tools/export.py") keep working.
type LocalExportConfig struct {
	Command string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// LocalExport invokes the black-box export process with the request's filter
// parameters and reads the payload file it writes. Only relevant in
// developer environments where the collector toolchain is present.
type LocalExport struct {
	cfg LocalExportConfig
}

func NewLocalExport(cfg LocalExportConfig) *LocalExport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultExportTimeout
	}
	return &LocalExport{cfg: cfg}
}

func (l *LocalExport) Name() string { return "local_export" }

// Load runs the export command against a temporary output path, then parses
// and re-normalizes the rows it produced. Boolean flags are passed as 0/1 in
// --flag=value form, which both this module's exporter and the original
// Python tooling accept.
func (l *LocalExport) Load(ctx context.Context, q Query) ([]lead.Row, string, error) {
	if l.cfg.Command == "" {
		return nil, "", fmt.Errorf("%w: EXPORT_CMD not set", ErrNotConfigured)
	}

	tmp, err := os.CreateTemp("", "leadscope_export_*.json")
	if err != nil {
		return nil, "", fmt.Errorf("create temp output: %w", err)
	}
	outPath := tmp.Name()
	tmp.Close()
	defer os.Remove(outPath)

	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	f := q.Filter.Clamp()
	args := append([]string{}, l.cfg.Args...)
	args = append(args,
		"--output="+outPath,
		"--limit="+strconv.Itoa(f.Limit),
		"--min-score="+strconv.Itoa(f.MinScore),
		"--only-target="+boolArg(f.OnlyTarget),
		"--exclude-competitors="+boolArg(f.ExcludeCompetitors),
		"--vertical="+q.Vertical,
	)

	cmd := exec.CommandContext(ctx, l.cfg.Command, args...)
	cmd.Dir = l.cfg.Dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, "", fmt.Errorf("run %s: %w: %s", filepath.Base(l.cfg.Command), err, truncateBody(out))
	}

	rows, err := readPayloadRows(outPath)
	if err != nil {
		return nil, "", err
	}
	rows = lead.NormalizeRows(rows)

	detail := fmt.Sprintf("%s produced %d rows", filepath.Base(l.cfg.Command), len(rows))
	return rows, detail, nil
}

func boolArg(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// truncateBody bounds captured process output for error messages.
func truncateBody(body []byte) string {
	const max = 300
	s := string(body)
	if len(s) > max {
		return s[:max]
	}
	return s
}
