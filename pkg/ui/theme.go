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

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme holds the palette and pre-computed styles of the tree view.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	// Node states
	Leaf      lipgloss.AdaptiveColor
	Expanded  lipgloss.AdaptiveColor
	Collapsed lipgloss.AdaptiveColor

	Link   lipgloss.AdaptiveColor
	Danger lipgloss.AdaptiveColor

	Base      lipgloss.Style
	Header    lipgloss.Style
	StatusBar lipgloss.Style
	ErrorText lipgloss.Style
	HelpFrame lipgloss.Style

	// Canvas styles, created once instead of per cell
	kinds [kindCount]lipgloss.Style
}

// DefaultTheme returns the Dracula-inspired adaptive theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},
		Muted:     lipgloss.AdaptiveColor{Light: "#888888", Dark: "#44475A"},

		Leaf:      lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Expanded:  lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		Collapsed: lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},

		Link:   lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#6272A4"},
		Danger: lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.StatusBar = r.NewStyle().Foreground(t.Subtext)
	t.ErrorText = r.NewStyle().Foreground(t.Danger).Bold(true)
	t.HelpFrame = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1)

	t.kinds[kindLink] = r.NewStyle().Foreground(t.Link)
	t.kinds[kindLinkFaint] = r.NewStyle().Foreground(t.Muted)
	t.kinds[kindLeaf] = r.NewStyle().Foreground(t.Leaf)
	t.kinds[kindExpanded] = r.NewStyle().Foreground(t.Expanded)
	t.kinds[kindCollapsed] = r.NewStyle().Foreground(t.Collapsed).Bold(true)
	t.kinds[kindLabel] = t.Base
	t.kinds[kindLabelFaint] = r.NewStyle().Foreground(t.Muted)
	t.kinds[kindSelected] = r.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Background(t.Primary).
		Bold(true)

	return t
}

func (t Theme) style(k cellKind) lipgloss.Style {
	return t.kinds[k]
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
