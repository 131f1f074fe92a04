// Package store is the single source of truth for chart panels and the
// edit/apply invalidation protocol between selection editors and chart
// data consumers.
//
// The store is confined to the UI event loop: every mutation is
// synchronous with the user action that triggered it, and subscriber
// notification happens before Dispatch returns. That ordering is what
// guarantees edits from one gesture are visible before the next apply
// token is observable; edits can never leak into a refetch triggered
// by a later, unrelated apply.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

// ErrUnknownPanel is returned when a command names a panel id the store
// does not hold, typically because the panel was removed while an editor
// for it was still open.
var ErrUnknownPanel = errors.New("unknown panel")

// ChangeKind classifies what a dispatched command did, so consumers can
// tell pending edits apart from an apply.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeRemoved
	ChangeDatabase
	ChangeOptions
	ChangeFilter
	ChangeBreakdown
	ChangeApplied
	ChangeRestored
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeDatabase:
		return "database"
	case ChangeOptions:
		return "options"
	case ChangeFilter:
		return "filter"
	case ChangeBreakdown:
		return "breakdown"
	case ChangeApplied:
		return "applied"
	case ChangeRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// Change describes one applied command. PanelID is empty for
// store-wide changes (layout restore).
type Change struct {
	Kind    ChangeKind
	PanelID string
}

// Subscriber receives every applied change, synchronously, in dispatch
// order. Subscribers must not dispatch from inside the callback.
type Subscriber func(Change)

// FetchKey identifies the world a fetch was issued against. A consumer
// snapshots the key when it starts an asynchronous query and drops the
// result if the key no longer matches: the panel was removed, its
// database changed, or a newer apply superseded the request.
type FetchKey struct {
	Database string
	Apply    int64
}

// Store owns every GraphConfig. Panels reference configs by id only;
// accessors hand out clones so nothing outside the store can alias its
// state.
type Store struct {
	panels map[string]*model.GraphConfig
	order  []string

	seq       int
	lastApply int64

	subs    map[int]Subscriber
	nextSub int

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		panels: make(map[string]*model.GraphConfig),
		subs:   make(map[int]Subscriber),
		now:    time.Now,
	}
}

// Subscribe registers a subscriber and returns its cancel function.
func (s *Store) Subscribe(fn Subscriber) func() {
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

// Panel returns a clone of one panel's config.
func (s *Store) Panel(id string) (*model.GraphConfig, bool) {
	cfg, ok := s.panels[id]
	if !ok {
		return nil, false
	}
	return cfg.Clone(), true
}

// Panels returns clones of all panel configs in creation order.
func (s *Store) Panels() []*model.GraphConfig {
	out := make([]*model.GraphConfig, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.panels[id].Clone())
	}
	return out
}

// Len returns the number of panels.
func (s *Store) Len() int { return len(s.panels) }

// Key returns the current fetch key for a panel. Consumers snapshot it
// before issuing a query.
func (s *Store) Key(panelID string) (FetchKey, bool) {
	cfg, ok := s.panels[panelID]
	if !ok {
		return FetchKey{}, false
	}
	return FetchKey{Database: cfg.Database, Apply: cfg.LastApply}, true
}

// Fresh reports whether a result fetched under the given key is still
// current for the panel. A removed panel is never fresh.
func (s *Store) Fresh(panelID string, key FetchKey) bool {
	current, ok := s.Key(panelID)
	return ok && current == key
}

// Dispatch applies one command and notifies all subscribers before
// returning. The returned Change carries the panel id, which for
// AddPanel is the only way to learn the new panel's id.
func (s *Store) Dispatch(cmd Command) (Change, error) {
	change, err := s.reduce(cmd)
	if err != nil {
		return Change{}, err
	}
	s.notify(change)
	return change, nil
}

// reduce is the single reducer: every mutation of panel state goes
// through here.
func (s *Store) reduce(cmd Command) (Change, error) {
	switch c := cmd.(type) {
	case AddPanel:
		s.seq++
		id := fmt.Sprintf("panel-%d", s.seq)
		s.panels[id] = &model.GraphConfig{
			ID:        id,
			Type:      c.Type,
			Title:     c.Title,
			Options:   model.ChartOptions{Resolution: model.ResolutionHours},
			LastApply: s.nextApplyToken(),
			CreatedAt: s.now(),
		}
		s.order = append(s.order, id)
		return Change{Kind: ChangeAdded, PanelID: id}, nil

	case RemovePanel:
		if _, ok := s.panels[c.PanelID]; !ok {
			return Change{}, fmt.Errorf("%w: %s", ErrUnknownPanel, c.PanelID)
		}
		delete(s.panels, c.PanelID)
		for i, id := range s.order {
			if id == c.PanelID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return Change{Kind: ChangeRemoved, PanelID: c.PanelID}, nil

	case SetDatabase:
		cfg, ok := s.panels[c.PanelID]
		if !ok {
			return Change{}, fmt.Errorf("%w: %s", ErrUnknownPanel, c.PanelID)
		}
		cfg.Database = c.Database
		// Selections carry node keys from the previous database's
		// forest; clearing must be atomic with the reassignment.
		cfg.Options = model.ChartOptions{Resolution: model.ResolutionHours}
		cfg.Filters = nil
		cfg.Breakdown = nil
		cfg.BreakdownRoot = ""
		return Change{Kind: ChangeDatabase, PanelID: c.PanelID}, nil

	case SetOptions:
		cfg, ok := s.panels[c.PanelID]
		if !ok {
			return Change{}, fmt.Errorf("%w: %s", ErrUnknownPanel, c.PanelID)
		}
		cfg.Options = c.Options
		return Change{Kind: ChangeOptions, PanelID: c.PanelID}, nil

	case SetFilter:
		cfg, ok := s.panels[c.PanelID]
		if !ok {
			return Change{}, fmt.Errorf("%w: %s", ErrUnknownPanel, c.PanelID)
		}
		if len(c.Keys) == 0 {
			delete(cfg.Filters, c.RootKey)
		} else {
			if cfg.Filters == nil {
				cfg.Filters = make(map[int][]int)
			}
			cfg.Filters[c.RootKey] = append([]int(nil), c.Keys...)
		}
		return Change{Kind: ChangeFilter, PanelID: c.PanelID}, nil

	case SetBreakdownRoot:
		cfg, ok := s.panels[c.PanelID]
		if !ok {
			return Change{}, fmt.Errorf("%w: %s", ErrUnknownPanel, c.PanelID)
		}
		if cfg.BreakdownRoot != c.Root {
			cfg.BreakdownRoot = c.Root
			cfg.Breakdown = nil
		}
		return Change{Kind: ChangeBreakdown, PanelID: c.PanelID}, nil

	case SetBreakdown:
		cfg, ok := s.panels[c.PanelID]
		if !ok {
			return Change{}, fmt.Errorf("%w: %s", ErrUnknownPanel, c.PanelID)
		}
		if len(c.Keys) > 0 && cfg.BreakdownRoot == "" {
			return Change{}, fmt.Errorf("panel %s: breakdown keys without a breakdown root", c.PanelID)
		}
		cfg.Breakdown = append([]int(nil), c.Keys...)
		return Change{Kind: ChangeBreakdown, PanelID: c.PanelID}, nil

	case Apply:
		cfg, ok := s.panels[c.PanelID]
		if !ok {
			return Change{}, fmt.Errorf("%w: %s", ErrUnknownPanel, c.PanelID)
		}
		cfg.LastApply = s.nextApplyToken()
		return Change{Kind: ChangeApplied, PanelID: c.PanelID}, nil

	default:
		return Change{}, fmt.Errorf("unknown command %T", cmd)
	}
}

// nextApplyToken returns a strictly increasing token. Wall-clock
// milliseconds when the clock cooperates, last+1 when it does not
// (double applies inside one millisecond, clock retreat). Consumers
// never interpret the value, they only compare it.
func (s *Store) nextApplyToken() int64 {
	token := s.now().UnixMilli()
	if token <= s.lastApply {
		token = s.lastApply + 1
	}
	s.lastApply = token
	return token
}

func (s *Store) notify(change Change) {
	for _, fn := range s.subs {
		fn(change)
	}
}
