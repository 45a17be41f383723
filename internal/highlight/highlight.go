// Package highlight defines the per-row output of the lexer engine: style spans,
// the classifier contract every language implements, and the resume token carried
// between rows.
package highlight

import "fmt"

// Style is a symbolic style tag. Colors are resolved by the renderer.
type Style string

// Style tags emitted by the engine.
const (
	StyleKeyword      Style = "keyword"
	StyleComment      Style = "comment"
	StyleString       Style = "string"
	StyleChar         Style = "char"
	StyleNumber       Style = "number"
	StyleStatementEnd Style = "statement_end"
	StyleBlockComment Style = "block_comment"
	StyleTextBlock    Style = "text_block"
	StyleFence        Style = "fence"
	StyleMarkup       Style = "markup"
)

// Styles lists every built-in tag in a stable order.
func Styles() []Style {
	return []Style{
		StyleKeyword, StyleComment, StyleString, StyleChar, StyleNumber,
		StyleStatementEnd, StyleBlockComment, StyleTextBlock, StyleFence, StyleMarkup,
	}
}

// Span is one styled run within a single row.
// Offset and Length count code points, not bytes.
type Span struct {
	Style  Style `yaml:"style"`
	Offset int   `yaml:"offset"`
	Length int   `yaml:"length"`
}

// End returns the exclusive end offset.
func (s Span) End() int {
	return s.Offset + s.Length
}

func (s Span) String() string {
	return fmt.Sprintf("{%s %d %d}", s.Style, s.Offset, s.Length)
}

// Validate checks that spans are in bounds for a row of rowLen code points,
// sorted by offset and pairwise non-overlapping.
func Validate(spans []Span, rowLen int) error {
	prevEnd := 0
	for i, s := range spans {
		if s.Offset < 0 || s.Length < 0 {
			return fmt.Errorf("span %d %v: negative offset or length", i, s)
		}
		if s.End() > rowLen {
			return fmt.Errorf("span %d %v: ends past row length %d", i, s, rowLen)
		}
		if s.Offset < prevEnd {
			return fmt.Errorf("span %d %v: overlaps or precedes previous span ending at %d", i, s, prevEnd)
		}
		prevEnd = s.End()
	}
	return nil
}

// Classifier turns one row of text into style spans.
// Implementations may carry block state from row to row, so rows must be
// supplied in increasing order unless the classifier is restored first.
type Classifier interface {
	// Name returns the language identifier used for dispatch.
	Name() string
	// Apply returns the spans for one row.
	Apply(row int, text string) []Span
}

// Resume is an opaque token describing the block state at a row boundary.
// The zero token (Open() == false) marks a checkpoint.
type Resume interface {
	Open() bool
}

// Resumable is a Classifier whose cross-row state can be captured and replayed.
type Resumable interface {
	Classifier
	// Snapshot returns the state that the next row will start from.
	Snapshot() Resume
	// Restore rewinds the classifier to a previously captured state.
	// A nil token resets to the empty state.
	Restore(Resume)
}

// closed is the empty resume token.
type closed struct{}

func (closed) Open() bool { return false }

// Closed is the resume token of a row outside any block.
var Closed Resume = closed{}

// noop classifies nothing. Unknown languages resolve to it.
type noop struct {
	name string
}

// NoOp returns a classifier that produces no spans for any row.
func NoOp(name string) Resumable {
	return noop{name: name}
}

func (n noop) Name() string { return n.name }

func (noop) Apply(int, string) []Span { return nil }

func (noop) Snapshot() Resume { return Closed }

func (noop) Restore(Resume) {}
