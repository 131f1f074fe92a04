package ui

import (
	"testing"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

func TestTermProfile_Detected(t *testing.T) {
	// TermProfile is set at init(); just verify it's a valid value
	valid := map[colorprofile.Profile]bool{
		colorprofile.NoTTY:     true,
		colorprofile.Ascii:     true,
		colorprofile.ANSI:      true,
		colorprofile.ANSI256:   true,
		colorprofile.TrueColor: true,
	}
	if !valid[TermProfile] {
		t.Errorf("TermProfile has unexpected value: %d", TermProfile)
	}
}

func TestThemeBg_TrueColor(t *testing.T) {
	saved := TermProfile
	defer func() { TermProfile = saved }()

	TermProfile = colorprofile.TrueColor
	got := ThemeBg("#282A36")
	if _, ok := got.(lipgloss.NoColor); ok {
		t.Error("ThemeBg should return hex color in TrueColor mode, got NoColor")
	}
}

func TestThemeBg_ANSI256(t *testing.T) {
	saved := TermProfile
	defer func() { TermProfile = saved }()

	TermProfile = colorprofile.ANSI256
	got := ThemeBg("#282A36")
	if _, ok := got.(lipgloss.NoColor); !ok {
		t.Errorf("ThemeBg should return NoColor below TrueColor, got %T", got)
	}
}

func TestThemeFg_ANSI256(t *testing.T) {
	saved := TermProfile
	defer func() { TermProfile = saved }()

	TermProfile = colorprofile.ANSI256
	got := ThemeFg("#FF5555")
	if _, ok := got.(lipgloss.ANSIColor); ok {
		t.Error("ThemeFg should return hex color in ANSI256 mode, got ANSIColor")
	}
}

func TestThemeFg_ANSI(t *testing.T) {
	saved := TermProfile
	defer func() { TermProfile = saved }()

	TermProfile = colorprofile.ANSI
	got := ThemeFg("#FF5555")
	ansiColor, ok := got.(lipgloss.ANSIColor)
	if !ok {
		t.Fatalf("ThemeFg should return ANSIColor in ANSI mode, got %T", got)
	}
	if ansiColor != lipgloss.ANSIColor(7) {
		t.Errorf("ThemeFg should return ANSI white (7) in ANSI mode, got %d", ansiColor)
	}
}

func TestDefaultTheme_PanelStatePalette(t *testing.T) {
	theme := TestTheme()

	distinct := map[string]bool{
		theme.Fresh.Dark:   true,
		theme.Pending.Dark: true,
		theme.Stale.Dark:   true,
		theme.NoData.Dark:  true,
	}
	if len(distinct) != 4 {
		t.Errorf("panel state colors must be distinguishable, got %v", distinct)
	}
}
