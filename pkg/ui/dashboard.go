package ui

import (
	"fmt"
	"log"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TulipaEnergy/tulipaviz/internal/datasource"
	"github.com/TulipaEnergy/tulipaviz/pkg/category"
	"github.com/TulipaEnergy/tulipaviz/pkg/config"
	"github.com/TulipaEnergy/tulipaviz/pkg/debug"
	"github.com/TulipaEnergy/tulipaviz/pkg/metrics"
	"github.com/TulipaEnergy/tulipaviz/pkg/model"
	"github.com/TulipaEnergy/tulipaviz/pkg/store"
	"github.com/TulipaEnergy/tulipaviz/pkg/watcher"
)

// Mode is the dashboard's input mode.
type Mode int

const (
	ModeDashboard Mode = iota
	ModeFilter
	ModeBreakdown
	ModeAddPanel
	ModeHelp
)

// Dashboard is the root bubbletea model: a grid of chart panels over
// the panel store, plus the modal editors.
type Dashboard struct {
	theme Theme
	cfg   config.Config
	store *store.Store

	sources  []datasource.DataSource
	readers  map[string]*datasource.Reader
	forests  map[string]*model.Forest
	watchers map[string]*watcher.Watcher

	views map[string]*PanelView
	focus int

	mode          Mode
	filterPane    *FilterPane
	breakdownPane *BreakdownPane
	addForm       *AddPanelForm
	help          *HelpView

	layoutPath string
	status     string

	width  int
	height int
}

// NewDashboard wires the root model. Readers are keyed by source ID and
// stay open for the program's lifetime.
func NewDashboard(theme Theme, cfg config.Config, st *store.Store, sources []datasource.DataSource, readers map[string]*datasource.Reader) *Dashboard {
	d := &Dashboard{
		theme:      theme,
		cfg:        cfg,
		store:      st,
		sources:    sources,
		readers:    readers,
		forests:    make(map[string]*model.Forest),
		watchers:   make(map[string]*watcher.Watcher),
		views:      make(map[string]*PanelView),
		layoutPath: config.LayoutPath(),
	}
	for _, panel := range st.Panels() {
		view := NewPanelView(theme, panel.ID)
		view.compact = cfg.UI.Headless
		d.views[panel.ID] = view
	}
	return d
}

// Init implements tea.Model.
func (d *Dashboard) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, cfg := range d.store.Panels() {
		if cfg.Database != "" {
			if cmd := d.ensureWatch(cfg.Database); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}
	cmds = append(cmds, d.fetchStale()...)
	return tea.Batch(cmds...)
}

// forestFor returns the cached category forest for a database, building
// it on first use. One forest per database: every panel pointed at the
// same database shares it.
func (d *Dashboard) forestFor(db string) *model.Forest {
	if f, ok := d.forests[db]; ok {
		return f
	}
	reader, ok := d.readers[db]
	if !ok || !reader.HasMetadata() {
		f := model.NewForest()
		d.forests[db] = f
		return f
	}
	rows, err := reader.Categories()
	if err != nil {
		log.Printf("categories for %s: %v", db, err)
		f := model.NewForest()
		d.forests[db] = f
		return f
	}
	forest, diags := category.Build(rows)
	for _, diag := range diags {
		log.Printf("category metadata %s: %s", db, diag)
	}
	d.forests[db] = forest
	return forest
}

// ensureWatch starts a watcher for a database and returns the command
// that waits for its first change signal.
func (d *Dashboard) ensureWatch(db string) tea.Cmd {
	if _, ok := d.watchers[db]; ok {
		return nil
	}
	reader, ok := d.readers[db]
	if !ok {
		return nil
	}
	w, err := watcher.New(reader.Source().Path,
		watcher.WithOnError(func(err error) {
			log.Printf("watch %s: %v", db, err)
		}),
	)
	if err != nil {
		log.Printf("watch %s: %v", db, err)
		return nil
	}
	if err := w.Start(); err != nil {
		log.Printf("watch %s: %v", db, err)
		return nil
	}
	d.watchers[db] = w
	return d.awaitChange(db)
}

// awaitChange blocks on the watcher's change channel as a command.
func (d *Dashboard) awaitChange(db string) tea.Cmd {
	w := d.watchers[db]
	if w == nil {
		return nil
	}
	ch := w.Changed()
	return func() tea.Msg {
		<-ch
		return databaseChangedMsg{Database: db}
	}
}

// focusedPanel returns the focused panel's config, nil when the
// dashboard is empty.
func (d *Dashboard) focusedPanel() *model.GraphConfig {
	panels := d.store.Panels()
	if len(panels) == 0 {
		return nil
	}
	if d.focus >= len(panels) {
		d.focus = len(panels) - 1
	}
	if d.focus < 0 {
		d.focus = 0
	}
	return panels[d.focus]
}

// fetchStale issues fetches for every panel whose signature moved away
// from its delivered data.
func (d *Dashboard) fetchStale() []tea.Cmd {
	var cmds []tea.Cmd
	for _, cfg := range d.store.Panels() {
		view := d.views[cfg.ID]
		if view == nil {
			continue
		}
		sig, ok := d.store.Signature(cfg.ID)
		if !ok || !view.NeedsFetch(sig) {
			continue
		}
		reader, ok := d.readers[cfg.Database]
		if !ok {
			continue
		}
		key, ok := d.store.Key(cfg.ID)
		if !ok {
			continue
		}
		cmds = append(cmds, view.FetchCmd(reader, cfg, key, sig))
	}
	return cmds
}

// Update implements tea.Model.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.resizePanes()
		return d, nil

	case panelDataMsg:
		view := d.views[msg.PanelID]
		if view == nil {
			return d, nil
		}
		// Stale-response guard: the world may have moved while the
		// query ran.
		if !d.store.Fresh(msg.PanelID, msg.Key) {
			return d, nil
		}
		view.Deliver(msg)
		return d, nil

	case databaseChangedMsg:
		// The file was rewritten: cached forest and fetched data are
		// both stale now.
		debug.Log("database %s changed on disk", msg.Database)
		delete(d.forests, msg.Database)
		for _, cfg := range d.store.Panels() {
			if cfg.Database == msg.Database {
				if view := d.views[cfg.ID]; view != nil {
					view.Invalidate()
				}
			}
		}
		d.rebuildOpenEditor(msg.Database)
		d.status = fmt.Sprintf("%s changed on disk, reloading", msg.Database)
		cmds := append(d.fetchStale(), d.awaitChange(msg.Database))
		return d, tea.Batch(cmds...)

	case layoutSavedMsg:
		if msg.Err != nil {
			d.status = "layout save failed: " + msg.Err.Error()
		} else {
			d.status = "layout saved"
		}
		return d, nil

	case clipboardMsg:
		if msg.Err != nil {
			d.status = "copy failed: " + msg.Err.Error()
		} else {
			d.status = "panel parameters copied"
		}
		return d, nil

	case tea.KeyMsg:
		return d.handleKey(msg)
	}

	// Modal sub-models receive non-key messages too (timers, blink).
	if d.mode == ModeAddPanel && d.addForm != nil {
		form, cmd := d.addForm.Update(msg)
		d.addForm = form
		return d, cmd
	}
	return d, nil
}

// rebuildOpenEditor reseeds the filter or breakdown pane when the
// database it was built against is rewritten. The old pane holds keys
// from the dropped forest; uncommitted edits are discarded with it.
func (d *Dashboard) rebuildOpenEditor(db string) {
	cfg := d.focusedPanel()
	if cfg == nil || cfg.Database != db {
		return
	}
	switch d.mode {
	case ModeFilter:
		d.filterPane = NewFilterPane(d.theme, d.forestFor(db))
		d.filterPane.Seed(cfg.Filters)
		d.resizePanes()
	case ModeBreakdown:
		d.breakdownPane = NewBreakdownPane(d.theme, d.forestFor(db))
		d.breakdownPane.Seed(cfg.BreakdownRoot, cfg.Breakdown)
		d.resizePanes()
	}
}

func (d *Dashboard) resizePanes() {
	paneW := d.width - SpaceLG
	paneH := d.height - SpaceLG - SpaceMD
	if d.filterPane != nil {
		d.filterPane.SetSize(paneW, paneH)
	}
	if d.breakdownPane != nil {
		d.breakdownPane.SetSize(paneW, paneH)
	}
	for _, view := range d.views {
		view.SetSize(d.panelWidth(), d.panelHeight())
	}
}

func (d *Dashboard) panelWidth() int {
	n := d.store.Len()
	if n <= 1 {
		return d.width - SpaceSM
	}
	return d.width/2 - SpaceSM
}

func (d *Dashboard) panelHeight() int {
	rows := (d.store.Len() + 1) / 2
	if rows < 1 {
		rows = 1
	}
	return (d.height - 3) / rows
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch d.mode {
	case ModeHelp:
		switch msg.String() {
		case "up", "k":
			d.help.ScrollUp()
		case "down", "j":
			d.help.ScrollDown()
		default:
			d.mode = ModeDashboard
		}
		return d, nil

	case ModeAddPanel:
		return d.handleAddPanelKey(msg)

	case ModeFilter:
		return d.handleFilterKey(msg)

	case ModeBreakdown:
		return d.handleBreakdownKey(msg)
	}
	return d.handleDashboardKey(msg)
}

func (d *Dashboard) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if d.cfg.AutosaveLayout() && d.layoutPath != "" {
			if err := d.store.SaveLayout(d.layoutPath); err != nil {
				log.Printf("autosave layout: %v", err)
			}
		}
		d.stopWatchers()
		return d, tea.Quit

	case "?":
		d.help = NewHelpView(d.width, d.height-2)
		d.mode = ModeHelp
		return d, nil

	case "a":
		d.addForm = NewAddPanelForm(d.sources)
		d.mode = ModeAddPanel
		return d, d.addForm.Init()

	case "x":
		cfg := d.focusedPanel()
		if cfg == nil {
			return d, nil
		}
		if _, err := d.store.Dispatch(store.RemovePanel{PanelID: cfg.ID}); err == nil {
			delete(d.views, cfg.ID)
			d.status = "removed " + cfg.ID
		}
		return d, nil

	case "h", "left":
		if d.focus > 0 {
			d.focus--
		}
		return d, nil

	case "l", "right":
		if d.focus < d.store.Len()-1 {
			d.focus++
		}
		return d, nil

	case "d":
		return d, d.cycleDatabase()

	case "y":
		d.cycleYear()
		return d, nil

	case "u":
		d.cycleResolution()
		return d, nil

	case "f":
		cfg := d.focusedPanel()
		if cfg == nil || cfg.Database == "" {
			d.status = "assign a database first"
			return d, nil
		}
		d.filterPane = NewFilterPane(d.theme, d.forestFor(cfg.Database))
		d.filterPane.Seed(cfg.Filters)
		d.resizePanes()
		d.mode = ModeFilter
		return d, nil

	case "b":
		cfg := d.focusedPanel()
		if cfg == nil || cfg.Database == "" {
			d.status = "assign a database first"
			return d, nil
		}
		d.breakdownPane = NewBreakdownPane(d.theme, d.forestFor(cfg.Database))
		d.breakdownPane.Seed(cfg.BreakdownRoot, cfg.Breakdown)
		d.resizePanes()
		d.mode = ModeBreakdown
		return d, nil

	case "A":
		return d, d.applyFocused()

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return d, d.assignFavorite(int(msg.String()[0] - '0'))

	case "S":
		if d.layoutPath == "" {
			d.status = "no layout path"
			return d, nil
		}
		path := d.layoutPath
		st := d.store
		return d, func() tea.Msg { return layoutSavedMsg{Err: st.SaveLayout(path)} }

	case "c":
		return d, d.copyPanelParams()
	}
	return d, nil
}

func (d *Dashboard) handleAddPanelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		d.mode = ModeDashboard
		d.addForm = nil
		return d, nil
	}
	form, cmd := d.addForm.Update(msg)
	d.addForm = form

	if d.addForm.Aborted() {
		d.mode = ModeDashboard
		d.addForm = nil
		return d, cmd
	}
	if !d.addForm.Done() {
		return d, cmd
	}

	chartType, title, database := d.addForm.Values()
	d.mode = ModeDashboard
	d.addForm = nil

	return d, tea.Batch(cmd, d.createPanel(chartType, title, database))
}

// createPanel adds a panel seeded with the configured default
// resolution and year, optionally bound to a database.
func (d *Dashboard) createPanel(chartType model.ChartType, title, database string) tea.Cmd {
	change, err := d.store.Dispatch(store.AddPanel{Type: chartType, Title: title})
	if err != nil {
		d.status = err.Error()
		return nil
	}
	d.store.Dispatch(store.SetOptions{PanelID: change.PanelID, Options: model.ChartOptions{
		Resolution: d.cfg.DefaultResolution(),
		Year:       d.cfg.Defaults.Year,
	}})
	view := NewPanelView(d.theme, change.PanelID)
	view.compact = d.cfg.UI.Headless
	d.views[change.PanelID] = view
	d.focus = d.store.Len() - 1

	var cmds []tea.Cmd
	if database != "" {
		d.store.Dispatch(store.SetDatabase{PanelID: change.PanelID, Database: database})
		if wc := d.ensureWatch(database); wc != nil {
			cmds = append(cmds, wc)
		}
	}
	d.resizePanes()
	cmds = append(cmds, d.fetchStale()...)
	return tea.Batch(cmds...)
}

// assignFavorite points the focused panel at the database bound to a
// number key in the config.
func (d *Dashboard) assignFavorite(n int) tea.Cmd {
	cfg := d.focusedPanel()
	if cfg == nil {
		return nil
	}
	path := d.cfg.FavoriteDatabase(n)
	if path == "" {
		d.status = fmt.Sprintf("no favorite on key %d", n)
		return nil
	}
	var db string
	for _, src := range d.sources {
		if src.Path == path || src.ID == path {
			db = src.ID
			break
		}
	}
	if db == "" {
		d.status = fmt.Sprintf("favorite %d not among discovered databases: %s", n, path)
		return nil
	}
	if _, err := d.store.Dispatch(store.SetDatabase{PanelID: cfg.ID, Database: db}); err != nil {
		d.status = err.Error()
		return nil
	}
	d.status = "database: " + db

	cmds := []tea.Cmd{}
	if wc := d.ensureWatch(db); wc != nil {
		cmds = append(cmds, wc)
	}
	cmds = append(cmds, d.fetchStale()...)
	return tea.Batch(cmds...)
}

func (d *Dashboard) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		d.commitFilters()
		d.mode = ModeDashboard
		return d, nil
	case "A":
		d.commitFilters()
		d.mode = ModeDashboard
		return d, d.applyFocused()
	}
	d.filterPane.HandleKey(msg)
	return d, nil
}

func (d *Dashboard) handleBreakdownKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if d.breakdownPane.picking {
			d.commitBreakdown()
			d.mode = ModeDashboard
			return d, nil
		}
	case "A":
		d.commitBreakdown()
		d.mode = ModeDashboard
		return d, d.applyFocused()
	}
	d.breakdownPane.HandleKey(msg)
	return d, nil
}

// commitFilters pushes the filter editor's pending state into the
// store. No apply token moves here: the data a panel shows stays pinned
// to the last apply.
func (d *Dashboard) commitFilters() {
	cfg := d.focusedPanel()
	if cfg == nil || d.filterPane == nil {
		return
	}
	pending := d.filterPane.Filters()
	// Clear dimensions that went back to unfiltered.
	for rootKey := range cfg.Filters {
		if _, ok := pending[rootKey]; !ok {
			d.store.Dispatch(store.SetFilter{PanelID: cfg.ID, RootKey: rootKey})
		}
	}
	for rootKey, keys := range pending {
		d.store.Dispatch(store.SetFilter{PanelID: cfg.ID, RootKey: rootKey, Keys: keys})
	}
}

// commitBreakdown pushes the breakdown editor's pending state into the
// store.
func (d *Dashboard) commitBreakdown() {
	cfg := d.focusedPanel()
	if cfg == nil || d.breakdownPane == nil {
		return
	}
	d.store.Dispatch(store.SetBreakdownRoot{PanelID: cfg.ID, Root: d.breakdownPane.RootName()})
	d.store.Dispatch(store.SetBreakdown{PanelID: cfg.ID, Keys: d.breakdownPane.Keys()})
}

// applyFocused bumps the focused panel's apply token and refetches
// whatever became stale.
func (d *Dashboard) applyFocused() tea.Cmd {
	cfg := d.focusedPanel()
	if cfg == nil {
		return nil
	}
	if _, err := d.store.Dispatch(store.Apply{PanelID: cfg.ID}); err != nil {
		d.status = err.Error()
		return nil
	}
	d.status = "applied"
	return tea.Batch(d.fetchStale()...)
}

// cycleDatabase assigns the next discovered source to the focused
// panel. The store clears selections atomically with the switch.
func (d *Dashboard) cycleDatabase() tea.Cmd {
	cfg := d.focusedPanel()
	if cfg == nil || len(d.sources) == 0 {
		return nil
	}
	next := 0
	for i, src := range d.sources {
		if src.ID == cfg.Database {
			next = (i + 1) % len(d.sources)
			break
		}
	}
	db := d.sources[next].ID
	if _, err := d.store.Dispatch(store.SetDatabase{PanelID: cfg.ID, Database: db}); err != nil {
		d.status = err.Error()
		return nil
	}
	d.status = "database: " + db

	cmds := []tea.Cmd{}
	if wc := d.ensureWatch(db); wc != nil {
		cmds = append(cmds, wc)
	}
	cmds = append(cmds, d.fetchStale()...)
	return tea.Batch(cmds...)
}

// cycleYear steps the focused panel through the years present in its
// result table.
func (d *Dashboard) cycleYear() {
	cfg := d.focusedPanel()
	if cfg == nil || cfg.Database == "" {
		return
	}
	reader, ok := d.readers[cfg.Database]
	if !ok {
		return
	}
	years, err := reader.Years(datasource.RequestFor(cfg).Table)
	if err != nil || len(years) == 0 {
		d.status = "no years available"
		return
	}
	next := years[0]
	for i, y := range years {
		if y == cfg.Options.Year {
			next = years[(i+1)%len(years)]
			break
		}
	}
	opts := cfg.Options
	opts.Year = next
	d.store.Dispatch(store.SetOptions{PanelID: cfg.ID, Options: opts})
	d.status = fmt.Sprintf("year: %d (pending, press A)", next)
}

// cycleResolution steps the focused panel through the supported
// resolutions.
func (d *Dashboard) cycleResolution() {
	cfg := d.focusedPanel()
	if cfg == nil {
		return
	}
	next := model.Resolutions[0]
	for i, r := range model.Resolutions {
		if r == cfg.Options.Resolution {
			next = model.Resolutions[(i+1)%len(model.Resolutions)]
			break
		}
	}
	opts := cfg.Options
	opts.Resolution = next
	d.store.Dispatch(store.SetOptions{PanelID: cfg.ID, Options: opts})
	d.status = fmt.Sprintf("resolution: %s (pending, press A)", next)
}

// copyPanelParams writes the focused panel's query parameters to the
// system clipboard.
func (d *Dashboard) copyPanelParams() tea.Cmd {
	cfg := d.focusedPanel()
	if cfg == nil {
		return nil
	}
	sig, ok := d.store.Signature(cfg.ID)
	if !ok {
		return nil
	}
	text := fmt.Sprintf("type=%s database=%s resolution=%s year=%d filters=%s breakdown=%s",
		cfg.Type, sig.Database, sig.Resolution, sig.Year, sig.Filters, sig.Breakdown)
	return func() tea.Msg {
		return clipboardMsg{Err: clipboard.WriteAll(text)}
	}
}

func (d *Dashboard) stopWatchers() {
	for _, w := range d.watchers {
		w.Stop()
	}
}

// View implements tea.Model.
func (d *Dashboard) View() string {
	defer metrics.Timer(metrics.UIRender)()
	switch d.mode {
	case ModeHelp:
		if d.help != nil {
			return d.help.View()
		}
	case ModeAddPanel:
		if d.addForm != nil {
			return d.addForm.View()
		}
	case ModeFilter:
		if d.filterPane != nil {
			return d.editorChrome("Filters", d.filterPane.View())
		}
	case ModeBreakdown:
		if d.breakdownPane != nil {
			return d.editorChrome("Breakdown", d.breakdownPane.View())
		}
	}
	return d.dashboardView()
}

func (d *Dashboard) editorChrome(name, body string) string {
	cfg := d.focusedPanel()
	title := name
	if cfg != nil {
		title = fmt.Sprintf("%s · %s", name, cfg.ID)
	}
	var b strings.Builder
	b.WriteString(d.theme.Header.Render(title))
	b.WriteByte('\n')
	b.WriteString(body)
	b.WriteByte('\n')
	b.WriteString(RenderDivider(d.width - SpaceSM))
	b.WriteByte('\n')
	hint := "space toggle · tab dimension · r reset · A apply · esc back"
	b.WriteString(d.theme.Renderer.NewStyle().Foreground(d.theme.Subtext).Render(hint))
	return b.String()
}

func (d *Dashboard) dashboardView() string {
	panels := d.store.Panels()
	if len(panels) == 0 {
		empty := d.theme.MutedText.Render("no panels yet: press a to add one, ? for help")
		return empty
	}

	var cells []string
	for i, cfg := range panels {
		view := d.views[cfg.ID]
		if view == nil {
			continue
		}
		if sig, ok := d.store.Signature(cfg.ID); ok {
			view.SetPending(view.NeedsFetch(sig))
		}
		cells = append(cells, view.View(cfg, i == d.focus))
	}

	var b strings.Builder
	for i := 0; i < len(cells); i += 2 {
		if i+1 < len(cells) {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells[i], cells[i+1]))
		} else {
			b.WriteString(cells[i])
		}
		b.WriteByte('\n')
	}

	if d.status != "" {
		status := d.status
		if d.width > 2 {
			status = truncate(status, d.width-2)
		}
		b.WriteString(d.theme.InfoText.Render(status))
	}
	return b.String()
}
