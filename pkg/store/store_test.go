package store

import (
	"errors"
	"testing"
	"time"

	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

func addPanel(t *testing.T, s *Store, typ model.ChartType) string {
	t.Helper()
	change, err := s.Dispatch(AddPanel{Type: typ, Title: string(typ)})
	if err != nil {
		t.Fatalf("AddPanel: %v", err)
	}
	return change.PanelID
}

func TestAddPanel_Defaults(t *testing.T) {
	s := New()
	id := addPanel(t, s, model.ChartCapacity)

	cfg, ok := s.Panel(id)
	if !ok {
		t.Fatal("panel not found after AddPanel")
	}
	if cfg.Database != "" {
		t.Errorf("expected no database, got %q", cfg.Database)
	}
	if len(cfg.Filters) != 0 || len(cfg.Breakdown) != 0 {
		t.Error("expected empty filters and breakdown on a new panel")
	}
	if cfg.LastApply == 0 {
		t.Error("expected apply token initialized at creation")
	}
	if cfg.Options.Resolution != model.ResolutionHours {
		t.Errorf("expected hours resolution default, got %v", cfg.Options.Resolution)
	}
}

func TestRemovePanel(t *testing.T) {
	s := New()
	id := addPanel(t, s, model.ChartCapacity)
	keep := addPanel(t, s, model.ChartSystemCost)

	if _, err := s.Dispatch(RemovePanel{PanelID: id}); err != nil {
		t.Fatalf("RemovePanel: %v", err)
	}
	if _, ok := s.Panel(id); ok {
		t.Error("expected panel gone after removal")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 panel left, got %d", s.Len())
	}
	if panels := s.Panels(); len(panels) != 1 || panels[0].ID != keep {
		t.Errorf("expected order to contain only %s", keep)
	}

	_, err := s.Dispatch(Apply{PanelID: id})
	if !errors.Is(err, ErrUnknownPanel) {
		t.Errorf("expected ErrUnknownPanel for removed panel, got %v", err)
	}
}

func TestSetFilter_StoreAndClear(t *testing.T) {
	s := New()
	id := addPanel(t, s, model.ChartCapacity)

	if _, err := s.Dispatch(SetFilter{PanelID: id, RootKey: 1, Keys: []int{2, 3}}); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	cfg, _ := s.Panel(id)
	if got := cfg.Filters[1]; len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("expected filter [2 3], got %v", got)
	}

	// Empty keys return the dimension to unfiltered.
	if _, err := s.Dispatch(SetFilter{PanelID: id, RootKey: 1, Keys: nil}); err != nil {
		t.Fatalf("SetFilter clear: %v", err)
	}
	cfg, _ = s.Panel(id)
	if _, ok := cfg.Filters[1]; ok {
		t.Error("expected root entry removed by empty SetFilter")
	}
}

func TestPanel_ReturnsClone(t *testing.T) {
	s := New()
	id := addPanel(t, s, model.ChartCapacity)
	s.Dispatch(SetFilter{PanelID: id, RootKey: 1, Keys: []int{2}})

	cfg, _ := s.Panel(id)
	cfg.Filters[1][0] = 999
	cfg.Breakdown = append(cfg.Breakdown, 5)

	fresh, _ := s.Panel(id)
	if fresh.Filters[1][0] != 2 {
		t.Error("mutating a returned config leaked into the store")
	}
	if len(fresh.Breakdown) != 0 {
		t.Error("appending to a returned config leaked into the store")
	}
}

func TestSetBreakdown_RequiresRoot(t *testing.T) {
	s := New()
	id := addPanel(t, s, model.ChartCapacity)

	if _, err := s.Dispatch(SetBreakdown{PanelID: id, Keys: []int{4}}); err == nil {
		t.Fatal("expected error for breakdown keys without a root")
	}

	// Empty keys are fine without a root.
	if _, err := s.Dispatch(SetBreakdown{PanelID: id, Keys: nil}); err != nil {
		t.Fatalf("empty SetBreakdown: %v", err)
	}

	s.Dispatch(SetBreakdownRoot{PanelID: id, Root: "technology"})
	if _, err := s.Dispatch(SetBreakdown{PanelID: id, Keys: []int{4, 5}}); err != nil {
		t.Fatalf("SetBreakdown with root: %v", err)
	}
}

func TestSetBreakdownRoot_SwitchClears(t *testing.T) {
	s := New()
	id := addPanel(t, s, model.ChartCapacity)
	s.Dispatch(SetBreakdownRoot{PanelID: id, Root: "technology"})
	s.Dispatch(SetBreakdown{PanelID: id, Keys: []int{4, 5}})

	s.Dispatch(SetBreakdownRoot{PanelID: id, Root: "location"})
	cfg, _ := s.Panel(id)
	if len(cfg.Breakdown) != 0 {
		t.Errorf("expected breakdown cleared on root switch, got %v", cfg.Breakdown)
	}

	// Same root again must not clear.
	s.Dispatch(SetBreakdown{PanelID: id, Keys: []int{7}})
	s.Dispatch(SetBreakdownRoot{PanelID: id, Root: "location"})
	cfg, _ = s.Panel(id)
	if len(cfg.Breakdown) != 1 {
		t.Errorf("expected breakdown kept on same-root set, got %v", cfg.Breakdown)
	}
}

func TestSetDatabase_ClearsSelectionsAtomically(t *testing.T) {
	s := New()
	id := addPanel(t, s, model.ChartCapacity)
	s.Dispatch(SetDatabase{PanelID: id, Database: "run-a"})
	s.Dispatch(SetOptions{PanelID: id, Options: model.ChartOptions{Resolution: model.ResolutionDays, Year: 2030}})
	s.Dispatch(SetFilter{PanelID: id, RootKey: 1, Keys: []int{2}})
	s.Dispatch(SetBreakdownRoot{PanelID: id, Root: "technology"})
	s.Dispatch(SetBreakdown{PanelID: id, Keys: []int{4}})

	s.Dispatch(SetDatabase{PanelID: id, Database: "run-b"})

	cfg, _ := s.Panel(id)
	if cfg.Database != "run-b" {
		t.Errorf("expected database run-b, got %q", cfg.Database)
	}
	if len(cfg.Filters) != 0 {
		t.Errorf("expected filters cleared, got %v", cfg.Filters)
	}
	if len(cfg.Breakdown) != 0 || cfg.BreakdownRoot != "" {
		t.Error("expected breakdown and root cleared")
	}
	if cfg.Options.Year != 0 || cfg.Options.Resolution != model.ResolutionHours {
		t.Errorf("expected options reset, got %+v", cfg.Options)
	}
}

func TestApply_BumpsTokenMonotonically(t *testing.T) {
	s := New()
	// Frozen clock: tokens must still strictly increase.
	s.now = func() time.Time { return time.UnixMilli(1_000_000) }

	id := addPanel(t, s, model.ChartCapacity)
	cfg, _ := s.Panel(id)
	before := cfg.LastApply

	var tokens []int64
	for i := 0; i < 5; i++ {
		s.Dispatch(Apply{PanelID: id})
		cfg, _ = s.Panel(id)
		tokens = append(tokens, cfg.LastApply)
	}

	last := before
	for i, tok := range tokens {
		if tok <= last {
			t.Fatalf("apply %d: token %d not strictly greater than %d", i, tok, last)
		}
		last = tok
	}
}

func TestApply_ClockRetreat(t *testing.T) {
	s := New()
	now := time.UnixMilli(2_000_000)
	s.now = func() time.Time { return now }

	id := addPanel(t, s, model.ChartCapacity)
	s.Dispatch(Apply{PanelID: id})
	cfg, _ := s.Panel(id)
	first := cfg.LastApply

	now = time.UnixMilli(1_000_000) // clock goes backwards
	s.Dispatch(Apply{PanelID: id})
	cfg, _ = s.Panel(id)
	if cfg.LastApply <= first {
		t.Errorf("expected token to keep increasing under clock retreat, got %d after %d", cfg.LastApply, first)
	}
}

func TestApply_NotifiesEverySubscriberOnce(t *testing.T) {
	s := New()
	id := addPanel(t, s, model.ChartCapacity)

	var a, b []Change
	s.Subscribe(func(c Change) { a = append(a, c) })
	s.Subscribe(func(c Change) { b = append(b, c) })

	beforeA, _ := s.Key(id)
	s.Dispatch(Apply{PanelID: id})

	countApplied := func(changes []Change) int {
		n := 0
		for _, c := range changes {
			if c.Kind == ChangeApplied && c.PanelID == id {
				n++
			}
		}
		return n
	}
	if countApplied(a) != 1 || countApplied(b) != 1 {
		t.Fatalf("expected each subscriber to observe one apply, got %d and %d", countApplied(a), countApplied(b))
	}

	after, _ := s.Key(id)
	if after.Apply <= beforeA.Apply {
		t.Error("expected both observers to see a strictly greater token")
	}
}

func TestSubscribe_Cancel(t *testing.T) {
	s := New()
	var got []Change
	cancel := s.Subscribe(func(c Change) { got = append(got, c) })
	cancel()
	addPanel(t, s, model.ChartCapacity)
	if len(got) != 0 {
		t.Errorf("expected no notifications after cancel, got %v", got)
	}
}

func TestEditsDoNotBumpApplyToken(t *testing.T) {
	s := New()
	id := addPanel(t, s, model.ChartCapacity)
	cfg, _ := s.Panel(id)
	before := cfg.LastApply

	s.Dispatch(SetDatabase{PanelID: id, Database: "run-a"})
	s.Dispatch(SetOptions{PanelID: id, Options: model.ChartOptions{Resolution: model.ResolutionYears}})
	s.Dispatch(SetFilter{PanelID: id, RootKey: 1, Keys: []int{2, 3}})
	s.Dispatch(SetBreakdownRoot{PanelID: id, Root: "technology"})
	s.Dispatch(SetBreakdown{PanelID: id, Keys: []int{4}})

	cfg, _ = s.Panel(id)
	if cfg.LastApply != before {
		t.Error("pending edits must not bump the apply token")
	}
}

func TestFresh_StaleAfterDatabaseChangeAndApply(t *testing.T) {
	s := New()
	id := addPanel(t, s, model.ChartCapacity)
	s.Dispatch(SetDatabase{PanelID: id, Database: "run-a"})

	key, ok := s.Key(id)
	if !ok || !s.Fresh(id, key) {
		t.Fatal("expected current key to be fresh")
	}

	s.Dispatch(SetDatabase{PanelID: id, Database: "run-b"})
	if s.Fresh(id, key) {
		t.Error("expected key stale after database change")
	}

	key, _ = s.Key(id)
	s.Dispatch(Apply{PanelID: id})
	if s.Fresh(id, key) {
		t.Error("expected key stale after a newer apply")
	}

	key, _ = s.Key(id)
	s.Dispatch(RemovePanel{PanelID: id})
	if s.Fresh(id, key) {
		t.Error("expected key stale after panel removal")
	}
}

func TestSignature_ApplyForcesChangeOnIdenticalContent(t *testing.T) {
	s := New()
	id := addPanel(t, s, model.ChartCapacity)
	s.Dispatch(SetDatabase{PanelID: id, Database: "run-a"})
	s.Dispatch(SetFilter{PanelID: id, RootKey: 1, Keys: []int{2, 3}})
	s.Dispatch(Apply{PanelID: id})
	first, _ := s.Signature(id)

	// Deselect then reselect the same nodes: content identical.
	s.Dispatch(SetFilter{PanelID: id, RootKey: 1, Keys: nil})
	s.Dispatch(SetFilter{PanelID: id, RootKey: 1, Keys: []int{2, 3}})
	s.Dispatch(Apply{PanelID: id})
	second, _ := s.Signature(id)

	if first.Filters != second.Filters {
		t.Errorf("expected identical filter digests, got %q vs %q", first.Filters, second.Filters)
	}
	if first == second {
		t.Error("expected apply token to differentiate otherwise identical signatures")
	}
}

func TestSignature_DigestsStableAcrossMapOrder(t *testing.T) {
	s := New()
	id := addPanel(t, s, model.ChartCapacity)
	s.Dispatch(SetFilter{PanelID: id, RootKey: 5, Keys: []int{50}})
	s.Dispatch(SetFilter{PanelID: id, RootKey: 1, Keys: []int{10, 11}})

	first, _ := s.Signature(id)
	for i := 0; i < 10; i++ {
		sig, _ := s.Signature(id)
		if sig.Filters != first.Filters {
			t.Fatalf("filter digest unstable: %q vs %q", sig.Filters, first.Filters)
		}
	}
	if first.Filters != "1=10,11;5=50" {
		t.Errorf("unexpected canonical digest %q", first.Filters)
	}
}
