package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals use the
// terminal's own background instead of a down-converted approximation
// that may clash with palettes like Solarized.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Selection states in the category trees
	Checked   lipgloss.AdaptiveColor
	Partial   lipgloss.AdaptiveColor
	Unchecked lipgloss.AdaptiveColor

	// Panel states
	Fresh    lipgloss.AdaptiveColor
	Pending  lipgloss.AdaptiveColor
	Stale    lipgloss.AdaptiveColor
	NoData   lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	// Styles
	Base     lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style

	// Pre-computed styles, created once instead of per-frame
	MutedText     lipgloss.Style
	InfoText      lipgloss.Style
	SecondaryText lipgloss.Style
	PrimaryBold   lipgloss.Style
	ChipStyle     lipgloss.Style
	WarningText   lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   ColorPrimary,
		Secondary: ColorSecondary,
		Subtext:   ColorSubtext,

		Checked:   ColorSuccess,
		Partial:   ColorWarning,
		Unchecked: ColorSecondary,

		Fresh:   ColorSuccess,
		Pending: ColorWarning, // edits not applied
		Stale:   ColorDanger,  // database rewritten or fetch failed
		NoData:  lipgloss.AdaptiveColor{Light: "#888888", Dark: "#44475A"},

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: ColorBgHighlight,
		Muted:     ColorMuted,
	}

	t.Base = r.NewStyle().Foreground(ColorText)

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(ColorBg).
		Bold(true).
		Padding(0, SpaceXS)

	t.MutedText = r.NewStyle().Foreground(ColorMuted)
	t.InfoText = r.NewStyle().Foreground(ColorInfo)
	t.SecondaryText = r.NewStyle().Foreground(t.Secondary)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.ChipStyle = r.NewStyle().
		Foreground(t.Primary).
		Background(ThemeBg("#363949")).
		Padding(0, SpaceXS)
	t.WarningText = r.NewStyle().Foreground(t.Pending).Bold(true)

	return t
}

// SelectionColor returns the tree glyph color for a node state.
func (t Theme) SelectionColor(checked, partial bool) lipgloss.AdaptiveColor {
	switch {
	case checked:
		return t.Checked
	case partial:
		return t.Partial
	default:
		return t.Unchecked
	}
}

// TestTheme returns a theme suitable for use in tests (uses nil renderer).
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
