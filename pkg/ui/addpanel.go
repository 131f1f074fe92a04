package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/TulipaEnergy/tulipaviz/internal/datasource"
	"github.com/TulipaEnergy/tulipaviz/pkg/model"
)

// AddPanelForm is the modal for creating a panel: chart type, title and
// an optional database picked from the discovered sources.
type AddPanelForm struct {
	form *huh.Form

	chartType string
	title     string
	database  string
}

// NewAddPanelForm builds the modal. Sources may be empty; the database
// can still be assigned later.
func NewAddPanelForm(sources []datasource.DataSource) *AddPanelForm {
	f := &AddPanelForm{
		chartType: string(model.ChartCapacity),
	}

	typeOptions := make([]huh.Option[string], len(model.ChartTypes))
	for i, ct := range model.ChartTypes {
		typeOptions[i] = huh.NewOption(ct.String(), string(ct))
	}

	dbOptions := []huh.Option[string]{huh.NewOption("(assign later)", "")}
	for _, src := range sources {
		label := src.ID + " · " + FormatTimeRel(src.ModTime)
		if !src.HasMetadata {
			label += " (no metadata)"
		}
		dbOptions = append(dbOptions, huh.NewOption(label, src.ID))
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Chart type").
				Options(typeOptions...).
				Value(&f.chartType),
			huh.NewInput().
				Title("Title").
				Placeholder("defaults to the chart type").
				CharLimit(60).
				Value(&f.title),
			huh.NewSelect[string]().
				Title("Database").
				Options(dbOptions...).
				Value(&f.database),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(true)

	return f
}

// Init implements tea.Model.
func (f *AddPanelForm) Init() tea.Cmd {
	return f.form.Init()
}

// Update forwards messages to the form.
func (f *AddPanelForm) Update(msg tea.Msg) (*AddPanelForm, tea.Cmd) {
	m, cmd := f.form.Update(msg)
	if form, ok := m.(*huh.Form); ok {
		f.form = form
	}
	return f, cmd
}

// Done reports whether the form was completed.
func (f *AddPanelForm) Done() bool {
	return f.form.State == huh.StateCompleted
}

// Aborted reports whether the form was cancelled.
func (f *AddPanelForm) Aborted() bool {
	return f.form.State == huh.StateAborted
}

// Values returns the completed form values.
func (f *AddPanelForm) Values() (model.ChartType, string, string) {
	ct := model.ChartType(f.chartType)
	title := f.title
	if title == "" {
		title = ct.String()
	}
	return ct, title, f.database
}

// View renders the form.
func (f *AddPanelForm) View() string {
	return f.form.View()
}
