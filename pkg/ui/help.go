package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# tulipaviz

Dashboard over Tulipa energy-model result databases.

## Panels

| Key | Action |
|-----|--------|
| a | add a panel |
| x | remove the focused panel |
| h / l | focus previous / next panel |
| d | cycle the focused panel's database |
| 1-9 | assign a favorite database (set in config.yaml) |
| y | cycle milestone year |
| u | cycle time resolution |
| c | copy panel parameters to clipboard |

## Selections

| Key | Action |
|-----|--------|
| f | edit filters for the focused panel |
| b | edit breakdown for the focused panel |
| space | toggle a category |
| tab | next dimension / back to root picker |
| r | reset the active filter dimension |
| enter | expand or collapse a category |
| esc | leave the editor (edits stay pending) |
| A | apply pending selections and refetch |

Filters roll up: a category implies its whole subtree, and a filter can
never be empty. Breakdowns are exact: each selected category becomes its
own series, and selecting a parent next to its child gives the parent a
"-other" bucket.

## General

| Key | Action |
|-----|--------|
| ? | toggle this help |
| S | save the dashboard layout |
| q | quit |
`

// HelpView renders the help screen with glamour inside a scrollable
// viewport, falling back to the raw markdown when the renderer cannot
// be built.
type HelpView struct {
	vp viewport.Model
}

// NewHelpView renders the help content for the given dimensions.
func NewHelpView(width, height int) *HelpView {
	wrap := width - 4
	if wrap < 40 {
		wrap = 40
	}
	if wrap > 100 {
		wrap = 100
	}
	if height < 5 {
		height = 5
	}

	rendered := helpMarkdown
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		if out, rerr := renderer.Render(helpMarkdown); rerr == nil {
			rendered = strings.TrimRight(out, "\n")
		}
	}

	vp := viewport.New(width, height)
	vp.SetContent(rendered)
	return &HelpView{vp: vp}
}

// ScrollUp moves the viewport one line up.
func (h *HelpView) ScrollUp() { h.vp.LineUp(1) }

// ScrollDown moves the viewport one line down.
func (h *HelpView) ScrollDown() { h.vp.LineDown(1) }

// View returns the visible window of the rendered help text.
func (h *HelpView) View() string {
	return h.vp.View()
}
