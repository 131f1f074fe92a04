package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TulipaEnergy/tulipaviz/internal/datasource"
	"github.com/TulipaEnergy/tulipaviz/pkg/model"
	"github.com/TulipaEnergy/tulipaviz/pkg/store"
)

// fetchTimeout bounds one aggregation query.
const fetchTimeout = 15 * time.Second

// PanelView is the chart consumer for one panel: it holds the last
// fetched data together with the signature it was fetched under, and
// re-derives only when the panel's current signature differs. Pending
// edits change nothing here until an apply bumps the token.
type PanelView struct {
	PanelID string
	theme   Theme

	fetchedSig store.QuerySignature
	hasData    bool
	points     []datasource.SeriesPoint
	fetching   bool
	pending    bool
	err        error

	// compact drops the title header row, for dense dashboards.
	compact bool

	width  int
	height int
}

// NewPanelView creates the consumer for a panel id.
func NewPanelView(theme Theme, panelID string) *PanelView {
	return &PanelView{PanelID: panelID, theme: theme}
}

// SetSize updates the rendering dimensions.
func (p *PanelView) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetPending marks the panel as holding unapplied edits, which only
// changes the state indicator.
func (p *PanelView) SetPending(pending bool) {
	p.pending = pending
}

// clip bounds a line to the panel's inner width. Before the first
// WindowSizeMsg the width is zero; render unclipped rather than
// collapsing every line to the empty string.
func (p *PanelView) clip(s string) string {
	if p.width > 2 {
		return truncate(s, p.width-2)
	}
	return s
}

// NeedsFetch reports whether the panel's current signature differs from
// the one the held data was fetched under.
func (p *PanelView) NeedsFetch(sig store.QuerySignature) bool {
	if sig.Database == "" {
		return false
	}
	return !p.hasData || p.fetchedSig != sig
}

// FetchCmd issues the aggregation asynchronously. The key is snapshotted
// now; the dashboard validates it against the store when the result
// arrives, so a result raced by a database switch or a newer apply is
// discarded instead of rendered.
func (p *PanelView) FetchCmd(reader *datasource.Reader, cfg *model.GraphConfig, key store.FetchKey, sig store.QuerySignature) tea.Cmd {
	p.fetching = true
	req := datasource.RequestFor(cfg)
	panelID := p.PanelID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		points, err := reader.Aggregate(ctx, req)
		return panelDataMsg{PanelID: panelID, Key: key, Sig: sig, Points: points, Err: err}
	}
}

// Deliver installs a fetched result. The caller has already checked the
// fetch key against the store.
func (p *PanelView) Deliver(msg panelDataMsg) {
	p.fetching = false
	if msg.Err != nil {
		p.err = msg.Err
		return
	}
	p.err = nil
	p.points = msg.Points
	p.fetchedSig = msg.Sig
	p.hasData = true
}

// Invalidate drops held data, forcing a refetch on the next signature
// check. Used when the underlying database file was rewritten.
func (p *PanelView) Invalidate() {
	p.hasData = false
	p.points = nil
}

// stateColor maps the panel's data lifecycle onto the theme's panel
// state palette. A pending edit or in-flight fetch outranks held data.
func (p *PanelView) stateColor() lipgloss.AdaptiveColor {
	switch {
	case p.err != nil:
		return p.theme.Stale
	case p.fetching || p.pending:
		return p.theme.Pending
	case !p.hasData || len(p.points) == 0:
		return p.theme.NoData
	default:
		return p.theme.Fresh
	}
}

// groupTotal is one rendered series row.
type groupTotal struct {
	name  string
	total float64
}

// groupTotals folds the points into per-series totals, ordered largest
// first with "other" pinned last.
func (p *PanelView) groupTotals() []groupTotal {
	totals := make(map[string]float64)
	for _, pt := range p.points {
		totals[pt.Group] += pt.Value
	}
	out := make([]groupTotal, 0, len(totals))
	for name, total := range totals {
		out = append(out, groupTotal{name: name, total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].name == datasource.OtherGroup {
			return false
		}
		if out[j].name == datasource.OtherGroup {
			return true
		}
		if out[i].total != out[j].total {
			return out[i].total > out[j].total
		}
		return out[i].name < out[j].name
	})
	return out
}

// View renders the panel body: a horizontal bar per series, scaled to
// the largest series.
func (p *PanelView) View(cfg *model.GraphConfig, focused bool) string {
	var b strings.Builder

	if !p.compact {
		title := cfg.Title
		if title == "" {
			title = cfg.Type.String()
		}
		b.WriteString(p.theme.Header.Render(p.clip(title)))
		b.WriteByte('\n')
	}

	meta := fmt.Sprintf("%s · %s", cfg.Type.String(), cfg.Options.Resolution)
	if cfg.Options.Year != 0 {
		meta += fmt.Sprintf(" · %d", cfg.Options.Year)
	}
	if cfg.Database != "" {
		meta += " · " + cfg.Database
	}
	b.WriteString(p.theme.Renderer.NewStyle().Foreground(p.stateColor()).Render("● "))
	b.WriteString(p.theme.SecondaryText.Render(p.clip(meta)))
	b.WriteByte('\n')

	switch {
	case cfg.Database == "":
		b.WriteString(p.theme.MutedText.Render("no database assigned, press d"))
	case p.err != nil:
		b.WriteString(p.theme.Renderer.NewStyle().Foreground(ColorDanger).Render(p.clip("error: " + p.err.Error())))
	case p.fetching && !p.hasData:
		b.WriteString(p.theme.MutedText.Render("loading…"))
	case !p.hasData || len(p.points) == 0:
		b.WriteString(p.theme.MutedText.Render("no data for this selection"))
	default:
		b.WriteString(p.renderSeries())
	}

	body := b.String()
	style := PanelStyle
	if focused {
		style = FocusedPanelStyle
	}
	if p.width > 0 {
		style = style.Width(p.width)
	}
	return style.Render(body)
}

func (p *PanelView) renderSeries() string {
	groups := p.groupTotals()
	if len(groups) == 0 {
		return p.theme.MutedText.Render("no data")
	}

	maxTotal := 0.0
	labelWidth := 0
	for _, g := range groups {
		if g.total > maxTotal {
			maxTotal = g.total
		}
		if w := len(g.name); w > labelWidth {
			labelWidth = w
		}
	}
	if labelWidth > 16 {
		labelWidth = 16
	}
	if labelWidth == 0 {
		labelWidth = 5 // single unnamed series
	}

	barWidth := p.width - labelWidth - 12
	if barWidth < 8 {
		barWidth = 8
	}

	maxRows := p.height - SpaceLG
	if maxRows < 1 {
		maxRows = len(groups)
	}

	var b strings.Builder
	for i, g := range groups {
		if i >= maxRows {
			b.WriteString(p.theme.MutedText.Render(fmt.Sprintf("… %d more", len(groups)-i)))
			break
		}
		name := g.name
		if name == "" {
			name = "total"
		}
		frac := 0.0
		if maxTotal > 0 {
			frac = g.total / maxTotal
		}
		b.WriteString(p.theme.Base.Render(padRight(truncate(name, labelWidth), labelWidth)))
		b.WriteByte(' ')
		b.WriteString(RenderBar(frac, barWidth, SeriesColor(i), p.theme))
		b.WriteByte(' ')
		b.WriteString(p.theme.SecondaryText.Render(formatValue(g.total)))
		if i < len(groups)-1 && i < maxRows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
