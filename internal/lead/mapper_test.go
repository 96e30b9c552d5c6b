package lead_test

import (
	"strings"
	"testing"

	"leadscope/internal/classify"
	"leadscope/internal/lead"
)

// ── store record mapping ──

func TestMapRecordClassifiesSyncedNote(t *testing.T) {
	rec := lead.RawRecord{
		Name:      "深圳小夏",
		Phone:     "13800000000",
		Notes:     "source=xhs | keyword=雅思 | score=80\n请问有没有靠谱的雅思中介推荐，预算一万以内",
		CreatedAt: "2025-11-02T09:00:00",
	}

	r, ok := lead.MapRecord(rec, studyAbroad)
	if !ok {
		t.Fatal("record unexpectedly skipped")
	}

	if r.Platform != "xhs" {
		t.Errorf("platform = %q, want xhs", r.Platform)
	}
	if r.Keyword != "雅思" {
		t.Errorf("keyword = %q, want 雅思", r.Keyword)
	}
	if r.IsCompetitor {
		t.Error("demand-like text should suppress the competitor keyword 中介")
	}
	if !r.IsTarget {
		t.Error("is_target = false, want true")
	}
	if r.IntentLevel != classify.IntentHigh && r.IntentLevel != classify.IntentMedium {
		t.Errorf("intent_level = %q, want medium or high", r.IntentLevel)
	}
	if r.Content != "请问有没有靠谱的雅思中介推荐，预算一万以内" {
		t.Errorf("content = %q, metadata should be stripped", r.Content)
	}
	if r.BaseScore != 80 {
		t.Errorf("base_score = %d, want 80 from meta", r.BaseScore)
	}
	if r.Contact != "13800000000" {
		t.Errorf("contact = %q", r.Contact)
	}
	if r.CollectedAt != "2025-11-02T09:00:00" {
		t.Errorf("collected_at = %q, want record timestamp fallback", r.CollectedAt)
	}
}

func TestMapRecordFlagsPromoNote(t *testing.T) {
	rec := lead.RawRecord{
		Name:  "小红薯芳芳",
		Notes: "source=weibo\n欢迎咨询，私信我获取留学套餐报价",
	}

	r, ok := lead.MapRecord(rec, studyAbroad)
	if !ok {
		t.Fatal("record unexpectedly skipped")
	}
	if !r.IsCompetitor {
		t.Error("is_competitor = false, want true for promo text")
	}
	if r.IsTarget {
		t.Error("is_target must be false for a competitor")
	}
	if r.Platform != "weibo" {
		t.Errorf("platform = %q, want weibo", r.Platform)
	}
}

func TestMapRecordSkipsUnusableRecords(t *testing.T) {
	tests := []struct {
		name string
		rec  lead.RawRecord
	}{
		{"empty notes", lead.RawRecord{Name: "a", Notes: ""}},
		{"whitespace notes", lead.RawRecord{Name: "a", Notes: "   \n  "}},
		{"human note without provenance", lead.RawRecord{Name: "a", Notes: "客户说下周再联系，记得跟进"}},
		{"unknown pairs only", lead.RawRecord{Name: "a", Notes: "budget=5w\n聊过一次，人还不错的样子"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := lead.MapRecord(tt.rec, studyAbroad); ok {
				t.Error("record should have been skipped")
			}
		})
	}
}

func TestMapRecordFallsBackToNoteTail(t *testing.T) {
	raw := "source=xhs\npost_url=https://a.com/p/1\nexternal_id=abcdefabcdefabcd"
	r, ok := lead.MapRecord(lead.RawRecord{Name: "深圳小夏", Notes: raw}, studyAbroad)
	if !ok {
		t.Fatal("record unexpectedly skipped")
	}
	if r.Content != raw {
		t.Errorf("content = %q, want raw note tail", r.Content)
	}
}

func TestMapRecordTailFallbackIsBounded(t *testing.T) {
	// The remark line contains "=", so body extraction drops it and the
	// mapper must fall back to the bounded raw tail.
	long := strings.Repeat("学", 500)
	raw := "source=xhs\nremark=" + long

	r, ok := lead.MapRecord(lead.RawRecord{Name: "深圳小夏", Notes: raw}, studyAbroad)
	if !ok {
		t.Fatal("record unexpectedly skipped")
	}
	if got := len([]rune(r.Content)); got != 280 {
		t.Errorf("fallback content = %d runes, want 280", got)
	}
}

func TestMapRecordDefaultsScore(t *testing.T) {
	r, ok := lead.MapRecord(lead.RawRecord{
		Name:  "深圳小夏",
		Notes: "source=xhs\n想找人帮忙看看申请材料",
	}, studyAbroad)
	if !ok {
		t.Fatal("record unexpectedly skipped")
	}
	if r.BaseScore != 70 {
		t.Errorf("base_score = %d, want default 70", r.BaseScore)
	}
}

func TestMapRecordReadsReachabilitySignals(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"explicit flag", "source=xhs\ndm_ready=true\n想找人帮忙看看申请材料", true},
		{"access hint", "source=xhs\naccess_hint=personal_profile_ready\n想找人帮忙看看申请材料", true},
		{"profile url", "source=xhs\nauthor_url=https://www.xiaohongshu.com/user/profile/9\n想找人帮忙看看申请材料", true},
		{"nothing", "source=xhs\n想找人帮忙看看申请材料", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := lead.MapRecord(lead.RawRecord{Name: "深圳小夏", Notes: tt.raw}, studyAbroad)
			if !ok {
				t.Fatal("record unexpectedly skipped")
			}
			if r.DMReady != tt.want {
				t.Errorf("dm_ready = %v, want %v", r.DMReady, tt.want)
			}
		})
	}
}

func TestMapRecordPrefersMetaExternalID(t *testing.T) {
	r, ok := lead.MapRecord(lead.RawRecord{
		Name:  "深圳小夏",
		Notes: "source=xhs | external_id=feedbeeffeedbeef\n想找人帮忙看看申请材料",
	}, studyAbroad)
	if !ok {
		t.Fatal("record unexpectedly skipped")
	}
	if r.ExternalID != "feedbeeffeedbeef" {
		t.Errorf("external_id = %q, want the synced one", r.ExternalID)
	}
}

func TestMapRecordPrefersMetaCollectedAt(t *testing.T) {
	r, ok := lead.MapRecord(lead.RawRecord{
		Name:      "深圳小夏",
		Notes:     "source=xhs | collected_at=2025-10-30T12:00:00\n想找人帮忙看看申请材料",
		CreatedAt: "2025-11-02T09:00:00",
	}, studyAbroad)
	if !ok {
		t.Fatal("record unexpectedly skipped")
	}
	if r.CollectedAt != "2025-10-30T12:00:00" {
		t.Errorf("collected_at = %q, want the meta value", r.CollectedAt)
	}
}
