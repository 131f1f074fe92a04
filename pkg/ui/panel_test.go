package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/TulipaEnergy/tulipaviz/internal/datasource"
	"github.com/TulipaEnergy/tulipaviz/pkg/model"
	"github.com/TulipaEnergy/tulipaviz/pkg/store"
)

func sigFor(db string, apply int64) store.QuerySignature {
	return store.QuerySignature{
		Database:   db,
		Resolution: model.ResolutionHours,
		Year:       2030,
		Apply:      apply,
	}
}

func TestPanelView_NeedsFetch(t *testing.T) {
	p := NewPanelView(TestTheme(), "panel-1")

	if p.NeedsFetch(sigFor("", 1)) {
		t.Errorf("a panel without a database never fetches")
	}
	sig := sigFor("results.sqlite", 1)
	if !p.NeedsFetch(sig) {
		t.Errorf("empty view with a database should fetch")
	}

	p.Deliver(panelDataMsg{Sig: sig, Points: []datasource.SeriesPoint{{Value: 1}}})
	if p.NeedsFetch(sig) {
		t.Errorf("delivered signature should not refetch")
	}

	// An apply bump changes the signature even with identical content.
	if !p.NeedsFetch(sigFor("results.sqlite", 2)) {
		t.Errorf("newer apply token should force a refetch")
	}
}

func TestPanelView_DeliverError(t *testing.T) {
	p := NewPanelView(TestTheme(), "panel-1")
	sig := sigFor("results.sqlite", 1)

	p.Deliver(panelDataMsg{Sig: sig, Err: errors.New("query timeout")})
	if !p.NeedsFetch(sig) {
		t.Errorf("an errored fetch holds no data; the signature stays fetchable")
	}

	cfg := &model.GraphConfig{ID: "panel-1", Type: model.ChartCapacity, Database: "results.sqlite"}
	if !strings.Contains(p.View(cfg, false), "query timeout") {
		t.Errorf("error should be rendered in the panel body")
	}

	// A later successful delivery clears the error.
	p.Deliver(panelDataMsg{Sig: sig, Points: []datasource.SeriesPoint{{Value: 1}}})
	if p.err != nil {
		t.Errorf("successful delivery should clear the held error")
	}
}

func TestPanelView_UnsizedRendersContent(t *testing.T) {
	// Before the first WindowSizeMsg the panel has no width yet; every
	// line must still render instead of being clipped to nothing.
	p := NewPanelView(TestTheme(), "panel-1")
	cfg := &model.GraphConfig{ID: "panel-1", Type: model.ChartCapacity, Title: "Installed capacity", Database: "results.sqlite"}

	view := p.View(cfg, false)
	if !strings.Contains(view, "Installed capacity") {
		t.Errorf("title should survive an unsized panel, got:\n%s", view)
	}
	if !strings.Contains(view, "results.sqlite") {
		t.Errorf("meta line should survive an unsized panel, got:\n%s", view)
	}
}

func TestPanelView_StateIndicator(t *testing.T) {
	p := NewPanelView(TestTheme(), "panel-1")
	theme := p.theme
	sig := sigFor("results.sqlite", 1)

	if got := p.stateColor(); got != theme.NoData {
		t.Errorf("empty panel should read as no-data, got %v", got)
	}

	p.fetching = true
	if got := p.stateColor(); got != theme.Pending {
		t.Errorf("in-flight fetch should read as pending, got %v", got)
	}
	p.fetching = false

	p.Deliver(panelDataMsg{Sig: sig, Points: []datasource.SeriesPoint{{Value: 1}}})
	if got := p.stateColor(); got != theme.Fresh {
		t.Errorf("delivered data should read as fresh, got %v", got)
	}

	p.SetPending(true)
	if got := p.stateColor(); got != theme.Pending {
		t.Errorf("unapplied edits should read as pending, got %v", got)
	}
	p.SetPending(false)

	p.Deliver(panelDataMsg{Sig: sig, Err: errors.New("boom")})
	if got := p.stateColor(); got != theme.Stale {
		t.Errorf("a failed fetch should read as stale, got %v", got)
	}
}

func TestPanelView_CompactHidesTitle(t *testing.T) {
	p := NewPanelView(TestTheme(), "panel-1")
	p.SetSize(60, 12)
	p.compact = true

	cfg := &model.GraphConfig{ID: "panel-1", Type: model.ChartCapacity, Title: "Installed capacity"}
	view := p.View(cfg, false)
	if strings.Contains(view, "Installed capacity") {
		t.Errorf("compact panels should drop the title header, got:\n%s", view)
	}
	if !strings.Contains(view, "Capacity · hours") {
		t.Errorf("compact panels keep the meta line, got:\n%s", view)
	}
}

func TestPanelView_Invalidate(t *testing.T) {
	p := NewPanelView(TestTheme(), "panel-1")
	sig := sigFor("results.sqlite", 1)

	p.Deliver(panelDataMsg{Sig: sig, Points: []datasource.SeriesPoint{{Value: 1}}})
	if p.NeedsFetch(sig) {
		t.Fatalf("unexpected refetch before invalidation")
	}

	p.Invalidate()
	if !p.NeedsFetch(sig) {
		t.Errorf("invalidation should force a refetch of the same signature")
	}
}

func TestPanelView_GroupTotalsOrdering(t *testing.T) {
	p := NewPanelView(TestTheme(), "panel-1")
	p.points = []datasource.SeriesPoint{
		{Group: "wind", Bucket: 0, Value: 10},
		{Group: "wind", Bucket: 1, Value: 20},
		{Group: "solar", Bucket: 0, Value: 50},
		{Group: datasource.OtherGroup, Bucket: 0, Value: 99},
	}

	got := p.groupTotals()
	if len(got) != 3 {
		t.Fatalf("expected 3 series, got %v", got)
	}
	if got[0].name != "solar" || got[0].total != 50 {
		t.Errorf("largest series first, got %+v", got[0])
	}
	if got[1].name != "wind" || got[1].total != 30 {
		t.Errorf("buckets should sum per series, got %+v", got[1])
	}
	if got[2].name != datasource.OtherGroup {
		t.Errorf("other is pinned last regardless of size, got %+v", got[2])
	}
}

func TestPanelView_ViewStates(t *testing.T) {
	p := NewPanelView(TestTheme(), "panel-1")
	p.SetSize(60, 12)

	cfg := &model.GraphConfig{ID: "panel-1", Type: model.ChartCapacity, Title: "Capacity"}
	if !strings.Contains(p.View(cfg, false), "no database") {
		t.Errorf("unassigned panel should prompt for a database")
	}

	cfg.Database = "results.sqlite"
	if !strings.Contains(p.View(cfg, false), "loading") {
		// Not yet fetching, so this renders the no-data branch instead.
		if !strings.Contains(p.View(cfg, false), "no data") {
			t.Errorf("panel without data should say so")
		}
	}

	p.Deliver(panelDataMsg{
		Sig:    sigFor("results.sqlite", 1),
		Points: []datasource.SeriesPoint{{Group: "wind", Value: 30}, {Group: "solar", Value: 12}},
	})
	view := p.View(cfg, true)
	if !strings.Contains(view, "wind") || !strings.Contains(view, "solar") {
		t.Errorf("series labels should be rendered, got:\n%s", view)
	}
}
