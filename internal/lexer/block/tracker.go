package block

import (
	"strings"
	"unicode/utf8"

	"github.com/zjrosen/rowlight/internal/highlight"
	"github.com/zjrosen/rowlight/internal/lexer/cursor"
)

// Result is what Read reports for one block segment of a row.
type Result struct {
	Span    highlight.Span
	Type    *Type
	Payload highlight.Classifier
	// Closed is true when the segment ended with the close literal.
	Closed bool
}

// Tracker recognizes blocks from a fixed catalog and carries the one open block
// from row to row. A Tracker belongs to a single document pipeline and must be
// fed rows in increasing order; use Restore to rewind.
type Tracker struct {
	types []*Type
	state State
}

// NewTracker returns a tracker over the given catalog. Nil entries are skipped.
func NewTracker(types ...*Type) *Tracker {
	t := &Tracker{}
	for _, bt := range types {
		if bt != nil {
			t.types = append(t.types, bt)
		}
	}
	return t
}

// Read consumes block content at the cursor's committed position.
//
// With a block already open it scans for the close literal: when found the
// span runs through the close literal and the block is cleared; otherwise the
// span covers the rest of the row and the block stays open. With no block open
// it checks whether an open literal starts exactly at the cursor. Range and
// Neutral openers continue as an open block on the same row; NeutralPayload
// openers take the rest of the row as their tag. ok is false when the cursor is
// not on block content.
func (t *Tracker) Read(c *cursor.Cursor) (Result, bool) {
	if !c.HasNext() {
		return Result{}, false
	}
	if t.state.Open() {
		return t.continueBlock(c, c.Pos()), true
	}

	bt := t.opening(c)
	if bt == nil {
		return Result{}, false
	}
	start := c.Pos()
	c.Advance(utf8.RuneCountInString(bt.Open))

	switch bt.Kind {
	case Range, Neutral:
		t.state = State{Type: bt}
		return t.continueBlock(c, start), true
	case NeutralPayload:
		tag := strings.TrimSpace(c.NextRemaining())
		t.state = State{Type: bt, Tag: tag}
		if bt.Payload != nil && tag != "" {
			t.state.Payload = bt.Payload(tag)
		}
		return Result{
			Span:    spanOf(bt.Style, start, c.Pos()),
			Type:    bt,
			Payload: t.state.Payload,
		}, true
	default:
		return Result{}, false
	}
}

func (t *Tracker) continueBlock(c *cursor.Cursor, start int) Result {
	bt := t.state.Type
	if i := closeIndex(c, bt); i >= 0 {
		c.Seek(i + utf8.RuneCountInString(bt.Close))
		t.state = State{}
		return Result{Span: spanOf(bt.Style, start, c.Pos()), Type: bt, Closed: true}
	}
	c.NextRemaining()
	return Result{Span: spanOf(bt.Style, start, c.Pos()), Type: bt, Payload: t.state.Payload}
}

// opening returns the catalog entry whose open literal starts at the cursor,
// preferring the longest literal.
func (t *Tracker) opening(c *cursor.Cursor) *Type {
	r, ok := c.Current()
	if !ok {
		return nil
	}
	var best *Type
	for _, bt := range t.types {
		first, _ := utf8.DecodeRuneInString(bt.Open)
		if first != r || !c.Match(bt.Open) {
			continue
		}
		if bt.LineStart && !c.Blank() {
			continue
		}
		if best == nil || len(bt.Open) > len(best.Open) {
			best = bt
		}
	}
	return best
}

// closeIndex finds the close literal of bt at or after the committed position.
func closeIndex(c *cursor.Cursor, bt *Type) int {
	if !bt.LineStart {
		return c.Index(bt.Close)
	}
	probe := *c
	probe.NextWhile(func(r rune) bool { return r == ' ' || r == '\t' })
	if probe.Blank() && probe.Match(bt.Close) {
		return probe.Pos()
	}
	return -1
}

func spanOf(style highlight.Style, start, end int) highlight.Span {
	return highlight.Span{Style: style, Offset: start, Length: end - start}
}

// Open reports whether a block is in flight.
func (t *Tracker) Open() bool {
	return t.state.Open()
}

// Delegate returns the payload classifier of the open block, if any.
func (t *Tracker) Delegate() highlight.Classifier {
	if !t.state.Open() {
		return nil
	}
	return t.state.Payload
}

// ClosesIn reports whether text, read from its start, contains the close
// literal of the open block.
func (t *Tracker) ClosesIn(text string) bool {
	if !t.state.Open() {
		return false
	}
	c := cursor.New(text)
	return closeIndex(&c, t.state.Type) >= 0
}

// State returns the resume token for the current boundary, including the
// delegate's own state when it is resumable.
func (t *Tracker) State() State {
	s := t.state
	if r, ok := s.Payload.(highlight.Resumable); ok {
		s.Inner = r.Snapshot()
	}
	return s
}

// Restore rewinds the tracker to a captured state.
func (t *Tracker) Restore(s State) {
	inner := s.Inner
	s.Inner = nil
	t.state = s
	if r, ok := s.Payload.(highlight.Resumable); ok {
		r.Restore(inner)
	}
}

// Reset drops any open block.
func (t *Tracker) Reset() {
	t.state = State{}
}
