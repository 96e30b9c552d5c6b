package lead

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"

	"leadscope/internal/classify"
)

// Scraped author names often carry a trailing relative or absolute date from
// the page layout ("小夏 3天前", "小夏 2025-01-02"). These patterns strip it.
var (
	trailingDate     = regexp.MustCompile(`\s+(19|20)\d{2}[-/.]\d{1,2}[-/.]\d{1,2}$`)
	trailingDaysAgo  = regexp.MustCompile(`\s+\d+\s*天前$`)
	trailingHoursAgo = regexp.MustCompile(`\s+\d+\s*小时前$`)
)

// CleanAuthor trims a display name and strips trailing scrape artifacts.
// Returns "" when nothing usable remains; callers apply the "Unknown"
// default themselves.
func CleanAuthor(author string) string {
	a := strings.TrimSpace(author)
	if a == "" {
		return ""
	}
	a = strings.TrimSpace(trailingDate.ReplaceAllString(a, ""))
	a = strings.TrimSpace(trailingDaysAgo.ReplaceAllString(a, ""))
	a = strings.TrimSpace(trailingHoursAgo.ReplaceAllString(a, ""))
	return a
}

// NormalizePlatform maps free-form platform labels onto canonical lowercase
// codes, sniffing the URLs too since collectors frequently mislabel the
// platform column. Unknown labels pass through lowercased; a blank one
// becomes "unknown".
func NormalizePlatform(platform, postURL, sourceURL string) string {
	merged := strings.ToLower(platform) + " " + strings.ToLower(postURL) + " " + strings.ToLower(sourceURL)
	switch {
	case strings.Contains(merged, "xiaohongshu") || strings.Contains(merged, "xhs") || strings.Contains(merged, "小红书"):
		return "xhs"
	case strings.Contains(merged, "weibo") || strings.Contains(merged, "微博"):
		return "weibo"
	case strings.Contains(merged, "zhihu") || strings.Contains(merged, "知乎"):
		return "zhihu"
	case strings.Contains(merged, "douyin") || strings.Contains(merged, "抖音"):
		return "douyin"
	}

	p := strings.ToLower(strings.TrimSpace(platform))
	if p == "" {
		return "unknown"
	}
	return p
}

// CanonicalPostURL strips the fragment and query string so reposts of the
// same post with different tracking parameters hash identically.
func CanonicalPostURL(postURL string) string {
	u, _, _ := strings.Cut(postURL, "#")
	u, _, _ = strings.Cut(u, "?")
	return u
}

// ExternalID derives the stable dedup identity for a row that arrived
// without one: 16 hex chars of a digest over lowercase platform, author,
// canonical post URL and the first 80 runes of content.
func ExternalID(platform, author, postURL, content string) string {
	first80 := strings.ToLower(strings.TrimSpace(content))
	if r := []rune(first80); len(r) > 80 {
		first80 = string(r[:80])
	}

	body := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(platform)),
		strings.ToLower(strings.TrimSpace(author)),
		strings.ToLower(strings.TrimSpace(CanonicalPostURL(postURL))),
		first80,
	}, "|")

	sum := md5.Sum([]byte(body))
	return hex.EncodeToString(sum[:])[:16]
}

// NormalizeRows repairs rows that arrived pre-classified from an export
// artifact or snapshot: defaults and clamps are applied, the
// competitor-implies-not-target invariant is enforced, missing external IDs
// are backfilled, and the set is deduplicated and sorted exactly like rows
// built from a live source. Rows without any content are dropped since
// nothing downstream can use them.
func NormalizeRows(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		r.Content = strings.TrimSpace(r.Content)
		if r.Content == "" {
			continue
		}

		r.Platform = strings.ToLower(strings.TrimSpace(r.Platform))
		if r.Platform == "" {
			r.Platform = "unknown"
		}
		r.Author = strings.TrimSpace(r.Author)
		if r.Author == "" {
			r.Author = "Unknown"
		}

		if r.Score < 0 {
			r.Score = 0
		}
		if r.Score > 100 {
			r.Score = 100
		}

		switch r.IntentLevel {
		case classify.IntentHigh, classify.IntentMedium, classify.IntentLow:
		default:
			r.IntentLevel = classify.IntentLow
		}

		if r.IsCompetitor {
			r.IsTarget = false
		}
		if r.ExternalID == "" {
			r.ExternalID = ExternalID(r.Platform, r.Author, r.PostURL, r.Content)
		}

		out = append(out, r)
	}

	out = Dedupe(out)
	Sort(out)
	return out
}
