package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"leadscope/internal/classify"
	"leadscope/internal/lead"
	"leadscope/internal/pipeline"
	"leadscope/internal/source"
)

// stubLoader records how it was called and returns a canned result.
type stubLoader struct {
	name   string
	rows   []lead.Row
	detail string
	err    error

	calls       int
	got         source.Query
	hadDeadline bool
}

func (s *stubLoader) Name() string { return s.name }

func (s *stubLoader) Load(ctx context.Context, q source.Query) ([]lead.Row, string, error) {
	s.calls++
	s.got = q
	_, s.hadDeadline = ctx.Deadline()
	return s.rows, s.detail, s.err
}

type panicLoader struct{ calls int }

func (p *panicLoader) Name() string { return "remote_store" }

func (p *panicLoader) Load(context.Context, source.Query) ([]lead.Row, string, error) {
	p.calls++
	panic("nil map write")
}

func stubRow(id string, score int) lead.Row {
	return lead.Row{
		ExternalID:  id,
		Platform:    "xhs",
		Author:      "测试用户",
		Content:     "想找留学顾问聊聊申请规划，预算可以商量",
		Score:       score,
		IntentLevel: classify.IntentHigh,
		IsTarget:    true,
		CollectedAt: "2025-11-01 10:00:00",
	}
}

func TestFetchFirstSuccessWins(t *testing.T) {
	remote := &stubLoader{name: "remote_store", rows: []lead.Row{stubRow("a1", 80)}, detail: "3 records fetched, 1 rows mapped"}
	local := &stubLoader{name: "local_export"}
	snap := &stubLoader{name: "bundled_snapshot"}

	p := pipeline.New(0, remote, local, snap)
	res, err := p.Fetch(context.Background(), source.Query{Filter: lead.DefaultFilter(), Vertical: "study_abroad"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if res.Source != "remote_store" || res.SourceDetail != remote.detail {
		t.Errorf("envelope = %s / %q", res.Source, res.SourceDetail)
	}
	if len(res.Rows) != 1 || res.Rows[0].ExternalID != "a1" {
		t.Errorf("rows = %+v", res.Rows)
	}
	if local.calls != 0 || snap.calls != 0 {
		t.Errorf("later loaders invoked after success: local=%d snapshot=%d", local.calls, snap.calls)
	}
	if !remote.hadDeadline {
		t.Error("loader context carried no deadline")
	}

	// The envelope marshals flat: payload fields and the source tag are
	// siblings, not nested.
	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)
	for _, want := range []string{`"source":"remote_store"`, `"generated_at":`, `"rows":[`} {
		if !strings.Contains(body, want) {
			t.Errorf("envelope JSON missing %s:\n%s", want, body)
		}
	}
}

func TestFetchZeroRowSuccessStopsChain(t *testing.T) {
	remote := &stubLoader{name: "remote_store", detail: "0 records fetched, 0 rows mapped"}
	snap := &stubLoader{name: "bundled_snapshot", rows: []lead.Row{stubRow("s1", 90)}}

	p := pipeline.New(0, remote, snap)
	res, err := p.Fetch(context.Background(), source.Query{Filter: lead.DefaultFilter()})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if res.Source != "remote_store" {
		t.Errorf("source = %s, want the empty-but-healthy store", res.Source)
	}
	if res.Summary.TotalRows != 0 || len(res.Rows) != 0 {
		t.Errorf("payload not empty: total=%d rows=%d", res.Summary.TotalRows, len(res.Rows))
	}
	if snap.calls != 0 {
		t.Error("empty success fell through to the snapshot")
	}
}

func TestFetchFallsBackInOrder(t *testing.T) {
	remote := &stubLoader{name: "remote_store", err: errors.New("store returned 500 for leads")}
	local := &stubLoader{name: "local_export", err: fmt.Errorf("%w: EXPORT_CMD not set", source.ErrNotConfigured)}
	snap := &stubLoader{name: "bundled_snapshot", rows: []lead.Row{stubRow("s1", 90)}, detail: "data/leads_snapshot.json"}

	p := pipeline.New(0, remote, local, snap)
	res, err := p.Fetch(context.Background(), source.Query{Filter: lead.DefaultFilter()})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if res.Source != "bundled_snapshot" {
		t.Errorf("source = %s", res.Source)
	}
	if res.SourceDetail == "" {
		t.Error("snapshot success should carry its path as detail")
	}
	if remote.calls != 1 || local.calls != 1 || snap.calls != 1 {
		t.Errorf("call counts = %d/%d/%d, want 1/1/1", remote.calls, local.calls, snap.calls)
	}
}

func TestFetchTotalFailure(t *testing.T) {
	remote := &stubLoader{name: "remote_store", err: errors.New("connection refused")}
	local := &stubLoader{name: "local_export", err: fmt.Errorf("%w: EXPORT_CMD not set", source.ErrNotConfigured)}
	snap := &stubLoader{name: "bundled_snapshot", err: errors.New("read data/leads_snapshot.json: no such file")}

	p := pipeline.New(0, remote, local, snap)
	_, err := p.Fetch(context.Background(), source.Query{Filter: lead.DefaultFilter()})
	if err == nil {
		t.Fatal("want error when every loader fails")
	}

	var ue *pipeline.UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %T, want *pipeline.UnavailableError", err)
	}
	if len(ue.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, want one per attempted loader", len(ue.Outcomes))
	}

	wantStatus := []source.Status{source.StatusFailed, source.StatusNotConfigured, source.StatusFailed}
	for i, o := range ue.Outcomes {
		if o.Status != wantStatus[i] {
			t.Errorf("outcomes[%d] = %s %s, want status %s", i, o.Source, o.Status, wantStatus[i])
		}
	}
	for _, name := range []string{"remote_store", "local_export", "bundled_snapshot"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error message missing %s: %s", name, err)
		}
	}
}

func TestFetchNormalizesQuery(t *testing.T) {
	remote := &stubLoader{name: "remote_store", rows: []lead.Row{stubRow("a1", 80)}}

	p := pipeline.New(0, remote)
	res, err := p.Fetch(context.Background(), source.Query{
		Filter:   lead.Filter{Limit: 5000, MinScore: 250, OnlyTarget: true, ExcludeCompetitors: true},
		Vertical: "  Does-Not-Exist  ",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if remote.got.Vertical != "study_abroad" {
		t.Errorf("loader saw vertical %q, want the default fallback", remote.got.Vertical)
	}
	if remote.got.Filter.Limit != 1000 || remote.got.Filter.MinScore != 100 {
		t.Errorf("loader saw unclamped filter %+v", remote.got.Filter)
	}
	if res.Vertical != "study_abroad" {
		t.Errorf("payload vertical = %q", res.Vertical)
	}
}

func TestFetchRecoversPanickingLoader(t *testing.T) {
	broken := &panicLoader{}
	snap := &stubLoader{name: "bundled_snapshot", rows: []lead.Row{stubRow("s1", 90)}}

	p := pipeline.New(0, broken, snap)
	res, err := p.Fetch(context.Background(), source.Query{Filter: lead.DefaultFilter()})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Source != "bundled_snapshot" {
		t.Errorf("source = %s, want fallback past the panicking loader", res.Source)
	}
	if broken.calls != 1 || snap.calls != 1 {
		t.Errorf("call counts = %d/%d", broken.calls, snap.calls)
	}
}
