package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/rowlight/internal/highlight"
)

func forceColor(t *testing.T) {
	t.Helper()
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI256)
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })
}

func TestNewTheme_PresetsAndOverrides(t *testing.T) {
	for name := range Presets {
		th, err := NewTheme(name, nil)
		require.NoError(t, err, name)
		for _, tok := range Tokens() {
			require.NotEmpty(t, th.Color(tok), "%s/%s", name, tok)
		}
	}

	th, err := NewTheme("dracula", map[string]string{"keyword": "#FF0000", "statement.end": "#00FF00"})
	require.NoError(t, err)
	require.Equal(t, "#FF0000", th.Color("keyword"))
	require.Equal(t, "#00FF00", th.Color("statement_end"))
	require.Equal(t, DraculaPreset.Colors["string"], th.Color("string"))
	require.Equal(t, DefaultPreset.Colors[TokenStatus], th.Color(TokenStatus), "unset preset tokens fall back to default")

	_, err = NewTheme("solarized", nil)
	require.ErrorContains(t, err, "unknown theme preset")

	_, err = NewTheme("", map[string]string{"nope": "#FFFFFF"})
	require.ErrorContains(t, err, "unknown color token")
}

func TestTheme_UnknownStyleIsText(t *testing.T) {
	th := MustTheme("")
	require.Equal(t, th.Text.GetForeground(), th.Style("custom").GetForeground())
	require.True(t, th.Style(highlight.StyleKeyword).GetBold())
	require.True(t, th.Style(highlight.StyleComment).GetItalic())
}

func TestExpandTabs(t *testing.T) {
	text, spans := ExpandTabs("\tif\tx", []highlight.Span{
		{Style: highlight.StyleKeyword, Offset: 1, Length: 2},
		{Style: highlight.StyleComment, Offset: 3, Length: 2},
	}, 4)
	require.Equal(t, "    if  x", text)
	require.Equal(t, []highlight.Span{
		{Style: highlight.StyleKeyword, Offset: 4, Length: 2},
		{Style: highlight.StyleComment, Offset: 6, Length: 3},
	}, spans)

	text, spans = ExpandTabs("a\tb", nil, 0)
	require.Equal(t, "a\tb", text)
	require.Nil(t, spans)
}

func TestExpandTabs_WideCharacters(t *testing.T) {
	text, spans := ExpandTabs("漢\tx", []highlight.Span{{Style: highlight.StyleString, Offset: 2, Length: 1}}, 4)
	require.Equal(t, "漢  x", text, "the wide rune fills two cells")
	require.Equal(t, []highlight.Span{{Style: highlight.StyleString, Offset: 3, Length: 1}}, spans)
}

func TestLine_StylesOnlySpans(t *testing.T) {
	forceColor(t)
	th := MustTheme("")

	text := "int x = 10; // c"
	spans := []highlight.Span{
		{Style: highlight.StyleKeyword, Offset: 0, Length: 3},
		{Style: highlight.StyleNumber, Offset: 8, Length: 2},
		{Style: highlight.StyleStatementEnd, Offset: 10, Length: 1},
		{Style: highlight.StyleComment, Offset: 12, Length: 4},
	}
	out := Line(text, spans, th, Options{})

	require.Equal(t, text, ansi.Strip(out))
	require.NotEqual(t, text, out)
	require.True(t, strings.HasPrefix(out, "\x1b["), "keyword styled")
	require.Contains(t, out, " x = ", "gap left plain")
	require.Contains(t, out, th.Style(highlight.StyleNumber).Render("10"))
}

func TestLine_NilThemeAndNoSpans(t *testing.T) {
	forceColor(t)
	require.Equal(t, "plain", Line("plain", []highlight.Span{{Style: highlight.StyleKeyword, Length: 5}}, nil, Options{}))
	require.Equal(t, "plain", Line("plain", nil, MustTheme(""), Options{}))
}

func TestLine_NonLatinOffsets(t *testing.T) {
	forceColor(t)
	out := Line(`s = "héllo" ✓`, []highlight.Span{{Style: highlight.StyleString, Offset: 4, Length: 7}}, MustTheme(""), Options{})
	require.Equal(t, `s = "héllo" ✓`, ansi.Strip(out))
	require.Contains(t, out, MustTheme("").Style(highlight.StyleString).Render(`"héllo"`))
}

func TestLine_ClipsBadSpans(t *testing.T) {
	forceColor(t)
	out := Line("abcdef", []highlight.Span{
		{Style: highlight.StyleKeyword, Offset: 0, Length: 4},
		{Style: highlight.StyleString, Offset: 2, Length: 2},
		{Style: highlight.StyleComment, Offset: 5, Length: 10},
	}, MustTheme(""), Options{})
	require.Equal(t, "abcdef", ansi.Strip(out))
}

func TestLine_Truncates(t *testing.T) {
	forceColor(t)
	out := Line("return value", []highlight.Span{{Style: highlight.StyleKeyword, Length: 6}}, MustTheme(""), Options{Width: 8})
	require.Equal(t, 8, lipgloss.Width(out))
	require.Equal(t, "return …", ansi.Strip(out))

	require.Equal(t, "short", Line("short", nil, nil, Options{Width: 8}))
}

func TestGutter(t *testing.T) {
	require.Equal(t, "  1 ", Gutter(0, 120, false, nil))
	require.Equal(t, "120 ", Gutter(119, 120, false, nil))
	require.Equal(t, "1 ", Gutter(0, 0, false, nil))
	require.Equal(t, 4, GutterWidth(120))

	forceColor(t)
	th := MustTheme("")
	require.Equal(t, " 7 ", ansi.Strip(Gutter(6, 10, true, th)))
	require.NotEqual(t, Gutter(6, 10, true, th), Gutter(6, 10, false, th))
}

// Rendering never changes the visible text, whatever the spans.
func TestLine_PreservesTextProperty(t *testing.T) {
	forceColor(t)
	th := MustTheme("nord")
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringOf(rapid.SampledFrom([]rune("ab é✓\t;"))).Draw(t, "text")
		n := len([]rune(text))
		spans := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) highlight.Span {
			return highlight.Span{
				Style:  rapid.SampledFrom(highlight.Styles()).Draw(t, "style"),
				Offset: rapid.IntRange(0, n+2).Draw(t, "offset"),
				Length: rapid.IntRange(0, n+2).Draw(t, "length"),
			}
		}), 0, 5).Draw(t, "spans")
		tab := rapid.IntRange(0, 8).Draw(t, "tab")

		want, _ := ExpandTabs(text, nil, tab)
		require.Equal(t, want, ansi.Strip(Line(text, spans, th, Options{TabWidth: tab})))
	})
}
