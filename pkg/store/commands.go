package store

import "github.com/TulipaEnergy/tulipaviz/pkg/model"

// Command is a state mutation dispatched to the store's single reducer.
// Commands are plain values so the whole edit/apply protocol can be
// exercised without mounting any UI.
type Command interface {
	command()
}

// AddPanel creates a new panel with defaults: no database, empty
// filters, empty breakdown, apply token set to creation time.
type AddPanel struct {
	Type  model.ChartType
	Title string
}

// RemovePanel destroys a panel. Any in-flight fetch for it becomes
// stale and its result must be discarded.
type RemovePanel struct {
	PanelID string
}

// SetDatabase reassigns a panel's database. Options, filters and
// breakdown are cleared atomically with the reassignment: stale
// selections reference node keys from the previous database's forest
// and would be silently wrong.
type SetDatabase struct {
	PanelID  string
	Database string
}

// SetOptions updates the panel's resolution/year knobs. A pending edit
// like any other: no consumer refetches until Apply.
type SetOptions struct {
	PanelID string
	Options model.ChartOptions
}

// SetFilter stores the canonical rolled-up selection for one category
// root. Empty keys remove the root's entry, returning that dimension to
// "unfiltered". The keys come from selection.FilterState and are stored
// verbatim.
type SetFilter struct {
	PanelID string
	RootKey int
	Keys    []int
}

// SetBreakdownRoot pins which category root the panel breaks down by.
// Changing the root clears the breakdown key list.
type SetBreakdownRoot struct {
	PanelID string
	Root    string
}

// SetBreakdown stores the group-by key list. Requires a pinned
// breakdown root unless the list is empty.
type SetBreakdown struct {
	PanelID string
	Keys    []int
}

// Apply bumps the panel's apply token. This is the only command that
// makes consumers refetch; every other command is a pending edit.
type Apply struct {
	PanelID string
}

func (AddPanel) command()         {}
func (RemovePanel) command()      {}
func (SetDatabase) command()      {}
func (SetOptions) command()       {}
func (SetFilter) command()        {}
func (SetBreakdownRoot) command() {}
func (SetBreakdown) command()     {}
func (Apply) command()            {}
