package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/TulipaEnergy/tulipaviz/pkg/metrics"
	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

// LayoutVersion is the current schema version for dashboard layout
// persistence.
const LayoutVersion = 1

// Layout is the serialized form of a dashboard: the panel configs in
// creation order. Only stores configuration; fetched data is always
// re-derived.
type Layout struct {
	Version int                  `json:"version"`
	Panels  []*model.GraphConfig `json:"panels"`
}

// SaveLayout writes the current panels to path, creating parent
// directories as needed.
func (s *Store) SaveLayout(path string) error {
	defer metrics.Timer(metrics.LayoutSave)()

	layout := Layout{Version: LayoutVersion, Panels: s.Panels()}
	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create layout directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}
	return nil
}

// LoadLayout replaces the store's panels with the layout at path. A
// missing file is not an error: first run keeps the empty dashboard. A
// corrupted or future-versioned file is reported so the caller can warn
// and keep defaults.
func (s *Store) LoadLayout(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read layout: %w", err)
	}

	var layout Layout
	if err := json.Unmarshal(data, &layout); err != nil {
		return fmt.Errorf("invalid layout file: %w", err)
	}
	if layout.Version != LayoutVersion {
		return fmt.Errorf("unsupported layout version %d", layout.Version)
	}

	s.panels = make(map[string]*model.GraphConfig, len(layout.Panels))
	s.order = s.order[:0]
	for _, cfg := range layout.Panels {
		if cfg == nil || cfg.ID == "" {
			continue
		}
		if _, dup := s.panels[cfg.ID]; dup {
			continue
		}
		s.panels[cfg.ID] = cfg.Clone()
		s.order = append(s.order, cfg.ID)

		// Keep id generation and the apply floor ahead of everything
		// restored, so new panels and new applies stay unique.
		if n, ok := panelSeq(cfg.ID); ok && n > s.seq {
			s.seq = n
		}
		if cfg.LastApply > s.lastApply {
			s.lastApply = cfg.LastApply
		}
	}

	s.notify(Change{Kind: ChangeRestored})
	return nil
}

func panelSeq(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, "panel-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
