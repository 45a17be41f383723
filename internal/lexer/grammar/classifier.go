package grammar

import (
	"strings"
	"unicode"

	"github.com/zjrosen/rowlight/internal/highlight"
	"github.com/zjrosen/rowlight/internal/lexer/block"
	"github.com/zjrosen/rowlight/internal/lexer/cursor"
)

// Classifier runs the shared classification loop for one descriptor.
// Each instance owns a block tracker, so use one instance per document.
type Classifier struct {
	desc    *Descriptor
	tracker *block.Tracker
}

// Ensure Classifier can be checkpointed.
var _ highlight.Resumable = (*Classifier)(nil)

// New returns a classifier for desc with no block open.
func New(desc *Descriptor) *Classifier {
	return &Classifier{
		desc:    desc,
		tracker: block.NewTracker(desc.BlockTypes()...),
	}
}

// Name implements highlight.Classifier.
func (c *Classifier) Name() string {
	return c.desc.Name
}

// Descriptor returns the rule set driving the classifier.
func (c *Classifier) Descriptor() *Descriptor {
	return c.desc
}

// Apply implements highlight.Classifier.
//
// While a payload block such as a fence is open, rows that do not close it are
// handed verbatim to the payload classifier. Otherwise rules are tried in a
// fixed order at each position: block content, line markers, line comment,
// string, char, statement end, number, identifier/keyword.
func (c *Classifier) Apply(row int, text string) []highlight.Span {
	if d := c.tracker.Delegate(); d != nil && !c.tracker.ClosesIn(text) {
		return d.Apply(row, text)
	}

	cur := cursor.New(text)
	var spans []highlight.Span
	for cur.HasNext() {
		if res, ok := c.tracker.Read(&cur); ok {
			spans = append(spans, res.Span)
			continue
		}
		if !cur.HasNext() {
			break
		}
		if s, ok := c.classify(&cur); ok {
			spans = append(spans, s)
		}
	}
	return spans
}

// classify consumes at least one character and returns the span for it, if any.
func (c *Classifier) classify(cur *cursor.Cursor) (highlight.Span, bool) {
	d := c.desc
	start := cur.Pos()
	r, _, _ := cur.Peek()

	switch {
	case c.lineMarker(cur):
		cur.NextRemaining()
		return spanOf(highlight.StyleMarkup, start, cur.Pos()), true

	case d.LineComment != "" && cur.Match(d.LineComment):
		cur.NextRemaining()
		return spanOf(highlight.StyleComment, start, cur.Pos()), true

	case d.StringDelim != 0 && r == d.StringDelim:
		c.quoted(cur, r)
		return spanOf(highlight.StyleString, start, cur.Pos()), true

	case d.CharDelim != 0 && r == d.CharDelim:
		c.quoted(cur, r)
		return spanOf(highlight.StyleChar, start, cur.Pos()), true

	case d.StatementEnd != 0 && r == d.StatementEnd:
		cur.CommitPeek()
		return spanOf(highlight.StyleStatementEnd, start, cur.Pos()), true

	case isDigit(r):
		cur.RollbackPeek()
		cur.NextWhile(isNumberPart)
		return spanOf(highlight.StyleNumber, start, cur.Pos()), true

	case d.isIdentStart(r):
		cur.RollbackPeek()
		word := cur.NextWhile(d.isIdentPart)
		word = c.extendKeyword(cur, word)
		if d.Keywords != nil && d.Keywords.Match(word) {
			return spanOf(highlight.StyleKeyword, start, cur.Pos()), true
		}
		return highlight.Span{}, false

	case d.Keywords != nil && d.Keywords.StartsWith(string(r)):
		if c.operatorKeyword(cur, r) {
			return spanOf(highlight.StyleKeyword, start, cur.Pos()), true
		}
		cur.Advance(1)
		return highlight.Span{}, false
	}

	cur.CommitPeek()
	return highlight.Span{}, false
}

func (c *Classifier) lineMarker(cur *cursor.Cursor) bool {
	if len(c.desc.LineMarkers) == 0 || !cur.Blank() {
		return false
	}
	for _, m := range c.desc.LineMarkers {
		if cur.Match(m) {
			return true
		}
	}
	return false
}

// quoted consumes a single-row quoted run starting at the opening delimiter.
// An unterminated run ends at the end of the row.
func (c *Classifier) quoted(cur *cursor.Cursor, delim rune) {
	cur.RollbackPeek()
	cur.Advance(1)
	for {
		r, ok := cur.Current()
		if !ok {
			return
		}
		if c.desc.Escape != 0 && r == c.desc.Escape {
			cur.Advance(2)
			continue
		}
		cur.Advance(1)
		if r == delim {
			return
		}
	}
}

// extendKeyword grows an identifier with trailing operator characters while
// the keyword trie still has a candidate, committing only full matches (as?).
func (c *Classifier) extendKeyword(cur *cursor.Cursor, word string) string {
	kw := c.desc.Keywords
	if kw == nil || !kw.StartsWith(word) {
		return word
	}
	var prefix strings.Builder
	prefix.WriteString(word)
	for {
		r, _, ok := cur.Peek()
		if !ok || c.desc.isIdentPart(r) {
			break
		}
		prefix.WriteRune(r)
		if !kw.StartsWith(prefix.String()) {
			break
		}
		if kw.Match(prefix.String()) {
			cur.CommitPeek()
			word = prefix.String()
		}
	}
	cur.RollbackPeek()
	return word
}

// operatorKeyword tries a keyword that starts with a non-identifier character
// (!in). The first character has already been peeked. The longest keyword
// ending on an identifier boundary is committed.
func (c *Classifier) operatorKeyword(cur *cursor.Cursor, first rune) bool {
	kw := c.desc.Keywords
	var prefix strings.Builder
	prefix.WriteRune(first)
	last := first
	matched := false
	for {
		if kw.Match(prefix.String()) && c.atBoundary(cur, last) {
			cur.CommitPeek()
			matched = true
		}
		r, _, ok := cur.Peek()
		if !ok {
			break
		}
		prefix.WriteRune(r)
		last = r
		if !kw.StartsWith(prefix.String()) {
			break
		}
	}
	cur.RollbackPeek()
	return matched
}

// atBoundary reports whether a keyword ending in last may end at the
// look-ahead position without splitting an identifier.
func (c *Classifier) atBoundary(cur *cursor.Cursor, last rune) bool {
	if !c.desc.isIdentPart(last) {
		return true
	}
	next, ok := cur.LookAhead()
	return !ok || !c.desc.isIdentPart(next)
}

// Open reports whether a block is in flight at the current row boundary.
func (c *Classifier) Open() bool {
	return c.tracker.Open()
}

// Snapshot implements highlight.Resumable.
func (c *Classifier) Snapshot() highlight.Resume {
	return c.tracker.State()
}

// Restore implements highlight.Resumable.
func (c *Classifier) Restore(r highlight.Resume) {
	if s, ok := r.(block.State); ok {
		c.tracker.Restore(s)
		return
	}
	c.tracker.Reset()
}

func spanOf(style highlight.Style, start, end int) highlight.Span {
	return highlight.Span{Style: style, Offset: start, Length: end - start}
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return unicode.IsDigit(r)
}

func isNumberPart(r rune) bool {
	return isDigit(r) || r == '.' || r == 'e' || r == 'E' || r == '_'
}
