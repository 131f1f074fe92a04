package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// DESIGN TOKENS - Consistent spacing, colors, and visual language
// ══════════════════════════════════════════════════════════════════════════════

// Spacing constants for consistent layout (in characters)
const (
	SpaceXS = 1
	SpaceSM = 2
	SpaceMD = 3
	SpaceLG = 4
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// Light mode colors tuned for WCAG AA compliance (contrast ratio >= 4.5:1)
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBg          = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}
	ColorInfo      = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger    = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	// Series colors cycled through breakdown groups in a chart panel.
	SeriesColors = []lipgloss.AdaptiveColor{
		{Light: "#6B47D9", Dark: "#BD93F9"}, // purple
		{Light: "#007700", Dark: "#50FA7B"}, // green
		{Light: "#006080", Dark: "#8BE9FD"}, // cyan
		{Light: "#B06800", Dark: "#FFB86C"}, // orange
		{Light: "#CC0000", Dark: "#FF5555"}, // red
		{Light: "#0066CC", Dark: "#6699FF"}, // blue
	}
)

// ══════════════════════════════════════════════════════════════════════════════
// PANEL STYLES - For the dashboard grid
// ══════════════════════════════════════════════════════════════════════════════

var (
	// PanelStyle is the default style for unfocused panels
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBgHighlight)

	// FocusedPanelStyle is the style for the focused panel
	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)
)

// SeriesColor returns the color for the i-th breakdown series.
func SeriesColor(i int) lipgloss.AdaptiveColor {
	if i < 0 {
		i = 0
	}
	return SeriesColors[i%len(SeriesColors)]
}

// RenderChip renders one selection chip, the compact summary of an
// applied filter or breakdown entry.
func RenderChip(label string, t Theme) string {
	return t.ChipStyle.Render(label)
}

// RenderChips renders a chip row, space separated.
func RenderChips(labels []string, t Theme) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, len(labels))
	for i, label := range labels {
		parts[i] = RenderChip(label, t)
	}
	return strings.Join(parts, " ")
}

// RenderBar renders a horizontal bar for a value between 0 and 1.
func RenderBar(value float64, width int, color lipgloss.AdaptiveColor, t Theme) string {
	if width <= 0 {
		return ""
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}

	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}

	track := t.Renderer.NewStyle().Foreground(ColorBgSubtle).Render(strings.Repeat("░", width-filled))
	return t.Renderer.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) + track
}

// RenderDivider renders a horizontal divider line
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ThemeFg("#44475A")).
		Render(strings.Repeat("─", width))
}
