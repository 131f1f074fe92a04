package ui

import (
	"github.com/TulipaEnergy/tulipaviz/internal/datasource"
	"github.com/TulipaEnergy/tulipaviz/pkg/store"
)

// panelDataMsg carries the result of one asynchronous aggregation. The
// fetch key pins the world the query ran against; the dashboard drops
// the message when the key is no longer current for the panel.
type panelDataMsg struct {
	PanelID string
	Key     store.FetchKey
	Sig     store.QuerySignature
	Points  []datasource.SeriesPoint
	Err     error
}

// databaseChangedMsg reports that a watched result database was
// rewritten on disk.
type databaseChangedMsg struct {
	Database string
}

// watcherErrMsg reports a watcher failure (typically file removal).
type watcherErrMsg struct {
	Database string
	Err      error
}

// layoutSavedMsg reports the outcome of a layout save.
type layoutSavedMsg struct {
	Err error
}

// clipboardMsg reports the outcome of a copy-to-clipboard action.
type clipboardMsg struct {
	Err error
}
