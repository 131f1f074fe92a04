package ui

import (
	"testing"

	"github.com/TulipaEnergy/tulipaviz/internal/datasource"
	"github.com/TulipaEnergy/tulipaviz/pkg/config"
	"github.com/TulipaEnergy/tulipaviz/pkg/model"
	"github.com/TulipaEnergy/tulipaviz/pkg/store"
)

func newTestDashboard(t *testing.T, panels int) (*Dashboard, []string) {
	t.Helper()
	st := store.New()
	var ids []string
	for i := 0; i < panels; i++ {
		change, err := st.Dispatch(store.AddPanel{Type: model.ChartCapacity})
		if err != nil {
			t.Fatalf("add panel: %v", err)
		}
		ids = append(ids, change.PanelID)
	}
	d := NewDashboard(TestTheme(), config.DefaultConfig(), st, nil, map[string]*datasource.Reader{})
	return d, ids
}

func TestDashboard_StaleFetchResultDropped(t *testing.T) {
	d, ids := newTestDashboard(t, 1)
	id := ids[0]

	d.store.Dispatch(store.SetDatabase{PanelID: id, Database: "results.sqlite"})
	d.store.Dispatch(store.Apply{PanelID: id})

	key, _ := d.store.Key(id)
	sig, _ := d.store.Signature(id)
	d.Update(panelDataMsg{PanelID: id, Key: key, Sig: sig, Points: []datasource.SeriesPoint{{Value: 1}}})
	if !d.views[id].hasData {
		t.Fatalf("current-key result should be delivered")
	}

	// A newer apply makes the old key stale; its late result must be
	// discarded, not rendered.
	d.store.Dispatch(store.Apply{PanelID: id})
	d.views[id].Invalidate()
	d.Update(panelDataMsg{PanelID: id, Key: key, Sig: sig, Points: []datasource.SeriesPoint{{Value: 2}}})
	if d.views[id].hasData {
		t.Errorf("stale-key result should have been dropped")
	}
}

func TestDashboard_DatabaseChangeInvalidatesViews(t *testing.T) {
	d, ids := newTestDashboard(t, 2)

	d.store.Dispatch(store.SetDatabase{PanelID: ids[0], Database: "a.sqlite"})
	d.store.Dispatch(store.SetDatabase{PanelID: ids[1], Database: "b.sqlite"})
	for _, id := range ids {
		key, _ := d.store.Key(id)
		sig, _ := d.store.Signature(id)
		d.Update(panelDataMsg{PanelID: id, Key: key, Sig: sig, Points: []datasource.SeriesPoint{{Value: 1}}})
	}

	d.Update(databaseChangedMsg{Database: "a.sqlite"})

	if d.views[ids[0]].hasData {
		t.Errorf("panel on the rewritten database should be invalidated")
	}
	if !d.views[ids[1]].hasData {
		t.Errorf("panel on an unrelated database must keep its data")
	}
}

func TestDashboard_DatabaseChangeRebuildsOpenEditor(t *testing.T) {
	d, ids := newTestDashboard(t, 1)
	d.store.Dispatch(store.SetDatabase{PanelID: ids[0], Database: "a.sqlite"})

	d.Update(keyMsg("f"))
	if d.mode != ModeFilter {
		t.Fatalf("expected filter mode, got %v", d.mode)
	}
	before := d.filterPane

	// The open editor holds the forest that was just dropped; it must
	// be rebuilt, not left pointing at stale category keys.
	d.Update(databaseChangedMsg{Database: "a.sqlite"})
	if d.mode != ModeFilter {
		t.Errorf("editor should stay open across a database reload")
	}
	if d.filterPane == before {
		t.Errorf("filter editor should be rebuilt against the fresh forest")
	}

	rebuilt := d.filterPane
	d.Update(databaseChangedMsg{Database: "b.sqlite"})
	if d.filterPane != rebuilt {
		t.Errorf("editor must not be rebuilt for an unrelated database")
	}

	d.Update(keyMsg("esc"))
	d.Update(keyMsg("b"))
	if d.mode != ModeBreakdown {
		t.Fatalf("expected breakdown mode, got %v", d.mode)
	}
	beforeBreakdown := d.breakdownPane
	d.Update(databaseChangedMsg{Database: "a.sqlite"})
	if d.breakdownPane == beforeBreakdown {
		t.Errorf("breakdown editor should be rebuilt against the fresh forest")
	}
}

func TestDashboard_NewPanelUsesConfiguredDefaults(t *testing.T) {
	st := store.New()
	cfg := config.DefaultConfig()
	cfg.Defaults.Resolution = "months"
	cfg.Defaults.Year = 2040
	d := NewDashboard(TestTheme(), cfg, st, nil, map[string]*datasource.Reader{})

	d.createPanel(model.ChartCapacity, "Capacity", "")

	panels := d.store.Panels()
	if len(panels) != 1 {
		t.Fatalf("expected 1 panel, got %d", len(panels))
	}
	if panels[0].Options.Resolution != model.ResolutionMonths {
		t.Errorf("expected configured default resolution, got %v", panels[0].Options.Resolution)
	}
	if panels[0].Options.Year != 2040 {
		t.Errorf("expected configured default year, got %d", panels[0].Options.Year)
	}
}

func TestDashboard_FavoriteKeyAssignsDatabase(t *testing.T) {
	st := store.New()
	change, err := st.Dispatch(store.AddPanel{Type: model.ChartCapacity})
	if err != nil {
		t.Fatalf("add panel: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.SetFavorite(2, "/data/base-case.sqlite")
	sources := []datasource.DataSource{{ID: "base-case.sqlite", Path: "/data/base-case.sqlite"}}
	d := NewDashboard(TestTheme(), cfg, st, sources, map[string]*datasource.Reader{})

	d.Update(keyMsg("2"))
	panel, _ := d.store.Panel(change.PanelID)
	if panel.Database != "base-case.sqlite" {
		t.Errorf("favorite key should assign its database, got %q", panel.Database)
	}

	d.Update(keyMsg("5")) // unbound key
	panel, _ = d.store.Panel(change.PanelID)
	if panel.Database != "base-case.sqlite" {
		t.Errorf("an unbound favorite key must not change the database, got %q", panel.Database)
	}
}

func TestDashboard_HeadlessPanelsAreCompact(t *testing.T) {
	st := store.New()
	change, err := st.Dispatch(store.AddPanel{Type: model.ChartCapacity})
	if err != nil {
		t.Fatalf("add panel: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.UI.Headless = true
	d := NewDashboard(TestTheme(), cfg, st, nil, map[string]*datasource.Reader{})

	if !d.views[change.PanelID].compact {
		t.Errorf("headless config should render compact panels")
	}
}

func TestDashboard_FocusNavigation(t *testing.T) {
	d, _ := newTestDashboard(t, 3)

	if d.focus != 0 {
		t.Fatalf("focus should start at 0, got %d", d.focus)
	}
	d.Update(keyMsg("l"))
	d.Update(keyMsg("l"))
	if d.focus != 2 {
		t.Errorf("expected focus 2, got %d", d.focus)
	}
	d.Update(keyMsg("l"))
	if d.focus != 2 {
		t.Errorf("focus must not run past the last panel, got %d", d.focus)
	}
	d.Update(keyMsg("h"))
	if d.focus != 1 {
		t.Errorf("expected focus 1, got %d", d.focus)
	}
}

func TestDashboard_RemoveFocusedPanel(t *testing.T) {
	d, ids := newTestDashboard(t, 2)

	d.Update(keyMsg("l"))
	d.Update(keyMsg("x"))

	if d.store.Len() != 1 {
		t.Fatalf("expected 1 panel left, got %d", d.store.Len())
	}
	if _, ok := d.views[ids[1]]; ok {
		t.Errorf("removed panel's view should be dropped")
	}
	if d.focusedPanel() == nil {
		t.Errorf("focus should clamp onto the surviving panel")
	}
}

func TestDashboard_CycleResolutionIsPending(t *testing.T) {
	d, ids := newTestDashboard(t, 1)
	id := ids[0]

	before, _ := d.store.Panel(id)
	d.Update(keyMsg("u"))
	after, _ := d.store.Panel(id)

	if after.Options.Resolution == before.Options.Resolution {
		t.Errorf("resolution should advance")
	}
	if after.LastApply != before.LastApply {
		t.Errorf("cycling resolution is a pending edit, the apply token must not move")
	}
}

func TestDashboard_EmptyDashboardKeysAreSafe(t *testing.T) {
	d, _ := newTestDashboard(t, 0)

	for _, k := range []string{"x", "l", "h", "d", "y", "u", "A", "c", "f", "b"} {
		d.Update(keyMsg(k)) // must not panic
	}
	if d.store.Len() != 0 {
		t.Errorf("no panels should appear from navigation keys")
	}
}
