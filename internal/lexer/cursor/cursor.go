// Package cursor implements the two-phase reader the lexer uses over a single row.
//
// A Cursor holds two indices into the row: the committed position and a
// look-ahead position. Peek moves only the look-ahead; CommitPeek accepts it and
// RollbackPeek discards it. Every other consuming call moves the committed
// position and resets the look-ahead to it. Nothing can read beyond the row, so
// constructs spanning rows have to be carried as explicit block state.
package cursor

import "unicode"

// Cursor reads one row. It is a plain value; copy it to checkpoint a position.
type Cursor struct {
	text []rune
	pos  int
	peek int

	// indent is the index of the first non-space character, or len(text).
	indent int
}

// New returns a cursor at the start of text.
func New(text string) Cursor {
	runes := []rune(text)
	indent := 0
	for indent < len(runes) && unicode.IsSpace(runes[indent]) {
		indent++
	}
	return Cursor{text: runes, indent: indent}
}

// Len returns the row length in code points.
func (c *Cursor) Len() int {
	return len(c.text)
}

// Pos returns the committed position.
func (c *Cursor) Pos() int {
	return c.pos
}

// HasNext reports whether the committed position is before the end of the row.
func (c *Cursor) HasNext() bool {
	return c.pos < len(c.text)
}

// Peek returns the next character at the look-ahead position and its index in
// the row, then advances the look-ahead. ok is false at the end of the row.
func (c *Cursor) Peek() (r rune, index int, ok bool) {
	if c.peek >= len(c.text) {
		return 0, c.peek, false
	}
	r, index = c.text[c.peek], c.peek
	c.peek++
	return r, index, true
}

// LookAhead returns the character Peek would return next, without moving.
func (c *Cursor) LookAhead() (rune, bool) {
	if c.peek >= len(c.text) {
		return 0, false
	}
	return c.text[c.peek], true
}

// Current returns the character at the committed position without touching
// the look-ahead.
func (c *Cursor) Current() (rune, bool) {
	if c.pos >= len(c.text) {
		return 0, false
	}
	return c.text[c.pos], true
}

// CommitPeek moves the committed position to the look-ahead position.
func (c *Cursor) CommitPeek() {
	c.pos = c.peek
}

// RollbackPeek discards the look-ahead.
func (c *Cursor) RollbackPeek() {
	c.peek = c.pos
}

// Peeked returns the text between the committed and look-ahead positions.
func (c *Cursor) Peeked() string {
	return string(c.text[c.pos:c.peek])
}

// Match reports whether lit occurs at the committed position.
func (c *Cursor) Match(lit string) bool {
	return c.matchAt(c.pos, lit)
}

func (c *Cursor) matchAt(i int, lit string) bool {
	if lit == "" || i < 0 {
		return false
	}
	for _, r := range lit {
		if i >= len(c.text) || c.text[i] != r {
			return false
		}
		i++
	}
	return true
}

// Index returns the row index of the first occurrence of lit at or after the
// committed position, or -1.
func (c *Cursor) Index(lit string) int {
	return c.IndexFrom(c.pos, lit)
}

// IndexFrom returns the row index of the first occurrence of lit at or after
// from, or -1.
func (c *Cursor) IndexFrom(from int, lit string) int {
	if lit == "" {
		return -1
	}
	first := []rune(lit)[0]
	for i := max(from, 0); i < len(c.text); i++ {
		if c.text[i] == first && c.matchAt(i, lit) {
			return i
		}
	}
	return -1
}

// Advance moves the committed position forward by n, clamped to the row end.
func (c *Cursor) Advance(n int) {
	c.Seek(c.pos + n)
}

// Seek moves the committed position to i, clamped to the row.
func (c *Cursor) Seek(i int) {
	c.pos = min(max(i, 0), len(c.text))
	c.peek = c.pos
}

// NextWhile consumes and returns the run of characters satisfying pred.
func (c *Cursor) NextWhile(pred func(rune) bool) string {
	start := c.pos
	for c.pos < len(c.text) && pred(c.text[c.pos]) {
		c.pos++
	}
	c.peek = c.pos
	return string(c.text[start:c.pos])
}

// NextUntil consumes and returns characters up to, not including, the first
// one satisfying pred.
func (c *Cursor) NextUntil(pred func(rune) bool) string {
	return c.NextWhile(func(r rune) bool { return !pred(r) })
}

// NextRemaining consumes and returns the rest of the row.
func (c *Cursor) NextRemaining() string {
	s := string(c.text[c.pos:])
	c.pos = len(c.text)
	c.peek = c.pos
	return s
}

// Slice returns the text between two row indices, clamped to the row.
func (c *Cursor) Slice(from, to int) string {
	from = min(max(from, 0), len(c.text))
	to = min(max(to, from), len(c.text))
	return string(c.text[from:to])
}

// Blank reports whether every character before the committed position is
// whitespace.
func (c *Cursor) Blank() bool {
	return c.pos <= c.indent
}
