package render

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/rowlight/internal/highlight"
)

// Options controls how a row is laid out.
type Options struct {
	// TabWidth is the distance between tab stops. Zero keeps tabs as-is.
	TabWidth int
	// Width truncates the rendered row to this many cells. Zero means no limit.
	Width int
}

// ExpandTabs replaces tabs with spaces up to the next tab stop and moves the
// spans so they still cover the same characters. Tab stops are counted in
// terminal cells, so wide characters advance the column by two.
func ExpandTabs(text string, spans []highlight.Span, tabWidth int) (string, []highlight.Span) {
	if tabWidth <= 0 || !strings.ContainsRune(text, '\t') {
		return text, spans
	}

	runes := []rune(text)
	// col[i] is the expanded offset of rune i; col[len] is the expanded length.
	col := make([]int, len(runes)+1)
	var b strings.Builder
	c, cells := 0, 0
	for i, r := range runes {
		col[i] = c
		if r == '\t' {
			n := tabWidth - cells%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			c += n
			cells += n
			continue
		}
		b.WriteRune(r)
		c++
		cells += runewidth.RuneWidth(r)
	}
	col[len(runes)] = c

	moved := make([]highlight.Span, 0, len(spans))
	for _, s := range spans {
		start, end := clamp(s.Offset, len(runes)), clamp(s.End(), len(runes))
		moved = append(moved, highlight.Span{Style: s.Style, Offset: col[start], Length: col[end] - col[start]})
	}
	return b.String(), moved
}

// Line renders one row. Characters outside every span are left unstyled.
// Spans that overlap an earlier span or fall outside the row are clipped.
// A nil theme renders plain text.
func Line(text string, spans []highlight.Span, theme *Theme, opts Options) string {
	text, spans = ExpandTabs(text, spans, opts.TabWidth)

	var out string
	if theme == nil || len(spans) == 0 {
		out = text
	} else {
		runes := []rune(text)
		var b strings.Builder
		pos := 0
		for _, s := range spans {
			start, end := max(clamp(s.Offset, len(runes)), pos), clamp(s.End(), len(runes))
			if start >= end {
				continue
			}
			b.WriteString(string(runes[pos:start]))
			b.WriteString(theme.Style(s.Style).Render(string(runes[start:end])))
			pos = end
		}
		b.WriteString(string(runes[pos:]))
		out = b.String()
	}

	if opts.Width > 0 && lipgloss.Width(out) > opts.Width {
		out = ansi.Truncate(out, opts.Width, "…")
	}
	return out
}

// Gutter renders a right-aligned 1-based row number wide enough for total
// rows, followed by a space. A nil theme renders plain text.
func Gutter(row, total int, current bool, theme *Theme) string {
	width := len(strconv.Itoa(max(total, 1)))
	num := strconv.Itoa(row + 1)
	label := strings.Repeat(" ", max(width-len(num), 0)) + num
	if theme == nil {
		return label + " "
	}
	if current {
		return theme.GutterCurrent.Render(label) + " "
	}
	return theme.Gutter.Render(label) + " "
}

// GutterWidth is the cell width of Gutter for total rows.
func GutterWidth(total int) int {
	return len(strconv.Itoa(max(total, 1))) + 1
}

func clamp(v, n int) int {
	return min(max(v, 0), n)
}
