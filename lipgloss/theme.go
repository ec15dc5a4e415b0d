// Package lipgloss provides theme implementations using the Lipgloss styling library.
package lipgloss

import (
	"fmt"

	lg "github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/codereview"
)

// Compile-time interface verification.
var _ codereview.Theme = (*Theme)(nil)

// Theme implements codereview.Theme with Lipgloss-compatible colors.
type Theme struct {
	styles  codereview.Styles
	palette codereview.Palette
}

// Styles returns the color styles for this theme.
func (t *Theme) Styles() codereview.Styles {
	return t.styles
}

// Palette returns the semantic color palette for this theme.
func (t *Theme) Palette() codereview.Palette {
	return t.palette
}

// DefaultTheme returns the default theme (dark background optimized).
func DefaultTheme() *Theme {
	return DarkTheme()
}

// ThemeByName returns the theme named "dark" or "light". An empty name
// selects the default theme.
func ThemeByName(name string) (*Theme, error) {
	switch name {
	case "", "dark":
		return DarkTheme(), nil
	case "light":
		return LightTheme(), nil
	default:
		return nil, fmt.Errorf("lipgloss: unknown theme %q (want dark or light)", name)
	}
}

// Style converts a color pair into a lipgloss style. Empty colors are left
// unset so the terminal default shows through.
func Style(pair codereview.ColorPair) lg.Style {
	s := lg.NewStyle()
	if pair.Foreground != "" {
		s = s.Foreground(lg.Color(pair.Foreground))
	}
	if pair.Background != "" {
		s = s.Background(lg.Color(pair.Background))
	}
	return s
}

// DarkTheme returns a theme optimized for dark terminal backgrounds.
// Background colors are very dark to allow syntax highlighting colors to remain readable.
func DarkTheme() *Theme {
	return &Theme{
		styles: codereview.Styles{
			Added: codereview.ColorPair{
				Foreground: "#a6e3a1", // Green
				Background: "#004000",
			},
			Deleted: codereview.ColorPair{
				Foreground: "#f38ba8", // Red
				Background: "#3f0001",
			},
			Context: codereview.ColorPair{
				Foreground: "#6c7086",
			},
			HunkHeader: codereview.ColorPair{
				Foreground: "#89b4fa", // Blue
			},
			LineNumber: codereview.ColorPair{
				Foreground: "#6c7086",
			},
			Critical: codereview.ColorPair{
				Foreground: "#1e1e2e",
				Background: "#f38ba8",
			},
			Warning: codereview.ColorPair{
				Foreground: "#1e1e2e",
				Background: "#f9e2af",
			},
			Info: codereview.ColorPair{
				Foreground: "#1e1e2e",
				Background: "#89b4fa",
			},
			Clean: codereview.ColorPair{
				Foreground: "#a6e3a1",
			},
			HasIssues: codereview.ColorPair{
				Foreground: "#fab387", // Peach
			},
			Selected: codereview.ColorPair{
				Foreground: "#cdd6f4",
				Background: "#45475a",
			},
		},
		palette: codereview.Palette{
			// Catppuccin Mocha
			Background: "#1e1e2e",
			Foreground: "#cdd6f4",

			Keyword:     "#cba6f7",
			String:      "#a6e3a1",
			Number:      "#fab387",
			Comment:     "#6c7086",
			Operator:    "#89dceb",
			Function:    "#89b4fa",
			Type:        "#f9e2af",
			Constant:    "#fab387",
			Punctuation: "#9399b2",

			UIBackground: "#313244",
			UIForeground: "#a6adc8",
			UIAccent:     "#89b4fa",
		},
	}
}

// LightTheme returns a theme optimized for light terminal backgrounds.
func LightTheme() *Theme {
	return &Theme{
		styles: codereview.Styles{
			Added: codereview.ColorPair{
				Foreground: "#40a02b",
				Background: "#d4f4d4",
			},
			Deleted: codereview.ColorPair{
				Foreground: "#d20f39",
				Background: "#f4d4d4",
			},
			Context: codereview.ColorPair{
				Foreground: "#9ca0b0",
			},
			HunkHeader: codereview.ColorPair{
				Foreground: "#1e66f5",
			},
			LineNumber: codereview.ColorPair{
				Foreground: "#9ca0b0",
			},
			Critical: codereview.ColorPair{
				Foreground: "#ffffff",
				Background: "#d20f39",
			},
			Warning: codereview.ColorPair{
				Foreground: "#4c4f69",
				Background: "#df8e1d",
			},
			Info: codereview.ColorPair{
				Foreground: "#ffffff",
				Background: "#1e66f5",
			},
			Clean: codereview.ColorPair{
				Foreground: "#40a02b",
			},
			HasIssues: codereview.ColorPair{
				Foreground: "#fe640b",
			},
			Selected: codereview.ColorPair{
				Foreground: "#4c4f69",
				Background: "#ccd0da",
			},
		},
		palette: codereview.Palette{
			// Catppuccin Latte
			Background: "#eff1f5",
			Foreground: "#4c4f69",

			Keyword:     "#8839ef",
			String:      "#40a02b",
			Number:      "#fe640b",
			Comment:     "#9ca0b0",
			Operator:    "#04a5e5",
			Function:    "#1e66f5",
			Type:        "#df8e1d",
			Constant:    "#fe640b",
			Punctuation: "#6c6f85",

			UIBackground: "#e6e9ef",
			UIForeground: "#6c6f85",
			UIAccent:     "#1e66f5",
		},
	}
}
