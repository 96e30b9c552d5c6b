// Package artifact reads collector output from the local data directory.
// The collector toolchain drops files in varying shapes and formats (JSON
// dumps, CSV exports, nested report objects), so row harvesting is by field
// sniffing and every field access tries several key spellings.
package artifact

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"leadscope/internal/lead"
)

// textKeys are the fields that may carry the post body, in preference order.
var textKeys = []string{"content", "text", "comment", "title", "evidence_text"}

// rowMarkers is the sniff set: any object carrying one of these keys is
// treated as a lead row during the JSON walk.
var rowMarkers = []string{"content", "text", "comment", "title", "author", "name", "platform"}

const defaultScore = 65

// CandidateFiles returns the artifact files to read, in priority order:
// the collector's latest dump, then the fixed high-value export, then the
// newest timestamped high-value export. CSV beats JSON at each step and
// duplicate paths collapse to their first mention.
func CandidateFiles(dataDir string) []string {
	collectorDir := filepath.Join(dataDir, "collector")
	exportsDir := filepath.Join(dataDir, "exports")

	var out []string
	if p := firstExisting(
		filepath.Join(collectorDir, "leads_latest.csv"),
		filepath.Join(collectorDir, "leads_latest.json"),
	); p != "" {
		out = append(out, p)
	}
	if p := firstExisting(
		filepath.Join(exportsDir, "high_value_leads_latest.csv"),
		filepath.Join(exportsDir, "high_value_leads_latest.json"),
	); p != "" {
		out = append(out, p)
	}
	if p := newestMatch(exportsDir, "high_value_leads_*.csv"); p != "" {
		out = append(out, p)
	} else if p := newestMatch(exportsDir, "high_value_leads_*.json"); p != "" {
		out = append(out, p)
	}

	seen := make(map[string]bool, len(out))
	uniq := out[:0]
	for _, p := range out {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		uniq = append(uniq, p)
	}
	return uniq
}

// Collect harvests raw lead fields from every candidate file. Unreadable or
// unparseable files are logged and skipped; a collector that wrote nothing
// yet simply yields an empty slice.
func Collect(dataDir string) []lead.Fields {
	var out []lead.Fields
	for _, path := range CandidateFiles(dataDir) {
		rows, err := readRows(path)
		if err != nil {
			log.Printf("[artifact] skip %s: %v", path, err)
			continue
		}
		name := filepath.Base(path)
		for _, row := range rows {
			out = append(out, mapRow(row, name))
		}
	}
	return out
}

func mapRow(row map[string]any, sourceFile string) lead.Fields {
	return lead.Fields{
		Platform:    firstString(row, "platform", "source"),
		Author:      firstString(row, "author", "name", "nickname", "user"),
		Content:     firstString(row, textKeys...),
		Keyword:     firstString(row, "keyword", "query"),
		Contact:     firstString(row, "phone", "wechat", "contact", "email"),
		AuthorURL:   firstString(row, "author_url", "profile_url", "user_url"),
		PostURL:     firstString(row, "note_url", "post_url", "url", "link"),
		SourceURL:   firstString(row, "source_url", "search_url", "origin_url"),
		Score:       scoreOf(row),
		CollectedAt: firstString(row, "collected_at", "created_at", "timestamp"),
		SourceFile:  sourceFile,
	}
}

// ─── File readers ────────────────────────────────────────────────────────────

func readRows(path string) ([]map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte("\uFEFF"))

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return readCSVRows(raw)
	}
	return readJSONRows(raw)
}

func readCSVRows(raw []byte) ([]map[string]any, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]any, len(header))
		for i, key := range header {
			if i < len(rec) {
				row[strings.TrimSpace(key)] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readJSONRows accepts any JSON shape and walks it for row-looking objects,
// so a bare array, a {"rows": …} payload and a nested report all work. Map
// values are visited in sorted key order to keep the harvest deterministic.
func readJSONRows(raw []byte) ([]map[string]any, error) {
	var obj any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}

	var rows []map[string]any
	var walk func(node any)
	walk = func(node any) {
		switch v := node.(type) {
		case map[string]any:
			if looksLikeRow(v) {
				rows = append(rows, v)
			}
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(v[k])
			}
		case []any:
			for _, item := range v {
				walk(item)
			}
		}
	}
	walk(obj)
	return rows, nil
}

func looksLikeRow(m map[string]any) bool {
	for _, k := range rowMarkers {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// ─── Field coercion ──────────────────────────────────────────────────────────

// firstString returns the first non-empty value among keys, coerced to a
// trimmed string.
func firstString(row map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := row[k]
		if !ok {
			continue
		}
		if s := coerceString(v); s != "" {
			return s
		}
	}
	return ""
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// scoreOf reads score with confidence as the fallback, defaulting to 65 and
// clamping to [0,100]. Fractional values truncate.
func scoreOf(row map[string]any) int {
	n := defaultScore
	if s := firstString(row, "score", "confidence"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			n = v
		} else if f, err := strconv.ParseFloat(s, 64); err == nil {
			n = int(f)
		}
	}
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return n
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// newestMatch returns the most recently modified file matching pattern
// inside dir, or "" when nothing matches.
func newestMatch(dir, pattern string) string {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil || len(matches) == 0 {
		return ""
	}

	newest := ""
	var newestMod int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest, newestMod = m, mod
		}
	}
	return newest
}
