// Package render turns highlighted rows into ANSI-styled terminal text.
package render

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/rowlight/internal/highlight"
)

// Color tokens that are not style tags.
const (
	TokenText          = "text"
	TokenGutter        = "gutter"
	TokenGutterCurrent = "gutter.current"
	TokenStatus        = "status"
	TokenStatusBg      = "status.bg"
)

// Preset is a named set of colors keyed by style tag or token.
type Preset struct {
	Name        string
	Description string
	Colors      map[string]string
}

// Presets contains all built-in theme presets.
var Presets = map[string]Preset{
	"default":       DefaultPreset,
	"dracula":       DraculaPreset,
	"nord":          NordPreset,
	"high-contrast": HighContrastPreset,
}

// DefaultPreset is the base every other preset and override is applied on.
var DefaultPreset = Preset{
	Name:        "default",
	Description: "Default rowlight theme",
	Colors: map[string]string{
		string(highlight.StyleKeyword):      "#C678DD",
		string(highlight.StyleComment):      "#7F848E",
		string(highlight.StyleString):       "#98C379",
		string(highlight.StyleChar):         "#56B6C2",
		string(highlight.StyleNumber):       "#D19A66",
		string(highlight.StyleStatementEnd): "#ABB2BF",
		string(highlight.StyleBlockComment): "#7F848E",
		string(highlight.StyleTextBlock):    "#E5C07B",
		string(highlight.StyleFence):        "#61AFEF",
		string(highlight.StyleMarkup):       "#E06C75",
		TokenText:                           "#CCCCCC",
		TokenGutter:                         "#5C6370",
		TokenGutterCurrent:                  "#FFFFFF",
		TokenStatus:                         "#FFFFFF",
		TokenStatusBg:                       "#1A5276",
	},
}

var DraculaPreset = Preset{
	Name:        "dracula",
	Description: "Dracula",
	Colors: map[string]string{
		string(highlight.StyleKeyword):      "#FF79C6",
		string(highlight.StyleComment):      "#6272A4",
		string(highlight.StyleString):       "#F1FA8C",
		string(highlight.StyleChar):         "#F1FA8C",
		string(highlight.StyleNumber):       "#BD93F9",
		string(highlight.StyleStatementEnd): "#F8F8F2",
		string(highlight.StyleBlockComment): "#6272A4",
		string(highlight.StyleTextBlock):    "#F1FA8C",
		string(highlight.StyleFence):        "#8BE9FD",
		string(highlight.StyleMarkup):       "#50FA7B",
		TokenText:                           "#F8F8F2",
		TokenGutter:                         "#6272A4",
		TokenGutterCurrent:                  "#F8F8F2",
		TokenStatusBg:                       "#44475A",
	},
}

var NordPreset = Preset{
	Name:        "nord",
	Description: "Arctic, north-bluish palette",
	Colors: map[string]string{
		string(highlight.StyleKeyword):      "#81A1C1",
		string(highlight.StyleComment):      "#616E88",
		string(highlight.StyleString):       "#A3BE8C",
		string(highlight.StyleChar):         "#A3BE8C",
		string(highlight.StyleNumber):       "#B48EAD",
		string(highlight.StyleStatementEnd): "#ECEFF4",
		string(highlight.StyleBlockComment): "#616E88",
		string(highlight.StyleTextBlock):    "#EBCB8B",
		string(highlight.StyleFence):        "#88C0D0",
		string(highlight.StyleMarkup):       "#8FBCBB",
		TokenText:                           "#D8DEE9",
		TokenGutter:                         "#4C566A",
		TokenGutterCurrent:                  "#ECEFF4",
		TokenStatusBg:                       "#3B4252",
	},
}

// HighContrastPreset uses pure colors for low-vision and monochrome-ish terminals.
var HighContrastPreset = Preset{
	Name:        "high-contrast",
	Description: "Maximum contrast",
	Colors: map[string]string{
		string(highlight.StyleKeyword):      "#FFFF00",
		string(highlight.StyleComment):      "#00FF00",
		string(highlight.StyleString):       "#00FFFF",
		string(highlight.StyleChar):         "#00FFFF",
		string(highlight.StyleNumber):       "#FF00FF",
		string(highlight.StyleStatementEnd): "#FFFFFF",
		string(highlight.StyleBlockComment): "#00FF00",
		string(highlight.StyleTextBlock):    "#00FFFF",
		string(highlight.StyleFence):        "#FFFFFF",
		string(highlight.StyleMarkup):       "#FF0000",
		TokenText:                           "#FFFFFF",
		TokenGutter:                         "#FFFFFF",
		TokenGutterCurrent:                  "#FFFF00",
		TokenStatus:                         "#000000",
		TokenStatusBg:                       "#FFFFFF",
	},
}

// Theme resolves style tags to lipgloss styles.
type Theme struct {
	colors map[string]string
	styles map[highlight.Style]lipgloss.Style

	Text          lipgloss.Style
	Gutter        lipgloss.Style
	GutterCurrent lipgloss.Style
	Status        lipgloss.Style
}

// Tokens returns every name accepted in color overrides, sorted.
func Tokens() []string {
	return slices.Sorted(maps.Keys(DefaultPreset.Colors))
}

// NewTheme builds a theme from a preset name ("" means default) and color
// overrides keyed by token. Override keys may use '.' in place of '_'.
func NewTheme(preset string, overrides map[string]string) (*Theme, error) {
	colors := maps.Clone(DefaultPreset.Colors)

	if preset != "" && preset != DefaultPreset.Name {
		p, ok := Presets[preset]
		if !ok {
			return nil, fmt.Errorf("unknown theme preset: %s", preset)
		}
		maps.Copy(colors, p.Colors)
	}

	for key, value := range overrides {
		token, ok := resolveToken(key)
		if !ok {
			return nil, fmt.Errorf("unknown color token: %s", key)
		}
		colors[token] = value
	}

	return build(colors), nil
}

// MustTheme is NewTheme for presets known to exist.
func MustTheme(preset string) *Theme {
	t, err := NewTheme(preset, nil)
	if err != nil {
		panic(err)
	}
	return t
}

func resolveToken(key string) (string, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	if _, ok := DefaultPreset.Colors[key]; ok {
		return key, true
	}
	alt := strings.ReplaceAll(key, ".", "_")
	if _, ok := DefaultPreset.Colors[alt]; ok {
		return alt, true
	}
	return "", false
}

func build(colors map[string]string) *Theme {
	color := func(token string) lipgloss.Color { return lipgloss.Color(colors[token]) }
	// Tabs are expanded by Line, before offsets are mapped to cells.
	base := lipgloss.NewStyle().TabWidth(lipgloss.NoTabConversion)

	t := &Theme{
		colors: colors,
		styles: make(map[highlight.Style]lipgloss.Style, len(highlight.Styles())),

		Text:          base.Foreground(color(TokenText)),
		Gutter:        base.Foreground(color(TokenGutter)),
		GutterCurrent: base.Foreground(color(TokenGutterCurrent)).Bold(true),
		Status: lipgloss.NewStyle().
			Foreground(color(TokenStatus)).
			Background(color(TokenStatusBg)).
			Padding(0, 1),
	}
	for _, s := range highlight.Styles() {
		st := base.Foreground(color(string(s)))
		switch s {
		case highlight.StyleKeyword, highlight.StyleMarkup:
			st = st.Bold(true)
		case highlight.StyleComment, highlight.StyleBlockComment:
			st = st.Italic(true)
		}
		t.styles[s] = st
	}
	return t
}

// Style returns the style for a tag. Unknown tags render as plain text.
func (t *Theme) Style(s highlight.Style) lipgloss.Style {
	if st, ok := t.styles[s]; ok {
		return st
	}
	return t.Text
}

// Color returns the resolved hex color of a token.
func (t *Theme) Color(token string) string {
	return t.colors[token]
}
