package lead

import (
	"strconv"
	"strings"

	"leadscope/internal/notes"
	"leadscope/internal/vertical"
)

// defaultRemoteScore is assumed when a synced note carries no score field.
// Remote records passed the collector's own threshold once, so they start
// above the middle of the raw scale.
const defaultRemoteScore = 70

// RawRecord is the typed intermediate every source loader coerces its
// records into. Fields mirror the remote store's contact columns; all of the
// structured lead data travels inside Notes.
type RawRecord struct {
	Name      string
	Phone     string
	Notes     string
	CreatedAt string
}

// MapRecord reconstructs a classified Row from one store record. The second
// return is false when the record must be skipped: no notes at all, notes
// without pipeline provenance, or a body too short to classify. A skipped
// record appears in no output and no counter.
func MapRecord(rec RawRecord, pb vertical.Playbook) (Row, bool) {
	raw := strings.TrimSpace(rec.Notes)
	if raw == "" {
		return Row{}, false
	}

	meta := notes.ParseMeta(raw)
	if !meta.HasProvenance() {
		return Row{}, false
	}

	body := notes.ExtractBody(raw)
	if body == "" {
		// Metadata-only notes still carried prose once; keep the tail of
		// the raw field so the record is not silently emptied.
		body = raw
		if r := []rune(raw); len(r) > 280 {
			body = string(r[len(r)-280:])
		}
	}

	f := Fields{
		Platform:    coalesce(meta.Get("source"), meta.Get("platform")),
		Author:      rec.Name,
		Content:     body,
		Keyword:     meta.Get("keyword"),
		Contact:     rec.Phone,
		AuthorURL:   meta.Get("author_url"),
		PostURL:     meta.Get("post_url"),
		SourceURL:   meta.Get("source_url"),
		Score:       parseScore(meta.Get("score"), defaultRemoteScore),
		CollectedAt: coalesce(meta.Get("collected_at"), rec.CreatedAt),
		SourceFile:  "remote_store",
		ExternalID:  meta.Get("external_id"),
		DMReady:     metaDMReady(meta),
	}
	return Build(f, pb)
}

// metaDMReady reads the explicit reachability signals a synced note can
// carry; the URL-shape heuristic in Build covers the rest.
func metaDMReady(meta notes.Meta) bool {
	if meta.Get("dm_ready") == "true" {
		return true
	}
	return strings.Contains(meta.Get("access_hint"), "personal_profile_ready")
}

// parseScore coerces a score string to int, accepting float spellings like
// "82.5" by truncation. Unparseable input yields def.
func parseScore(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return int(fl)
	}
	return def
}

func coalesce(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
