// Package block describes lexical regions that may span rows (block comments,
// text blocks, fenced code) and tracks the single block open at a row boundary.
package block

import (
	"fmt"

	"github.com/zjrosen/rowlight/internal/highlight"
)

// Kind is the closed set of block variants.
type Kind int

const (
	// Range blocks have distinct open and close literals, e.g. /* and */.
	Range Kind = iota
	// Neutral blocks use one literal to both open and close, e.g. """.
	// Occurrences alternate; they never nest.
	Neutral
	// NeutralPayload blocks are neutral blocks that capture the text after the
	// open literal and derive a payload from it, e.g. a fence's language tag.
	NeutralPayload
)

func (k Kind) String() string {
	switch k {
	case Range:
		return "range"
	case Neutral:
		return "neutral"
	case NeutralPayload:
		return "neutral_payload"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a kind name to its Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "range", "":
		return Range, nil
	case "neutral":
		return Neutral, nil
	case "neutral_payload", "fence":
		return NeutralPayload, nil
	default:
		return Range, fmt.Errorf("unknown block kind %q", s)
	}
}

// PayloadFunc derives a delegate classifier from the text that follows a
// NeutralPayload open literal. Returning nil means "no delegate".
type PayloadFunc func(tag string) highlight.Classifier

// Type describes one kind of block.
type Type struct {
	Name  string
	Kind  Kind
	Open  string
	Close string
	Style highlight.Style
	// LineStart limits the open literal to the first non-blank position of a row.
	LineStart bool
	// Payload is only consulted for NeutralPayload types.
	Payload PayloadFunc
}

// NewRange returns a block closed by a literal different from its opener.
func NewRange(name, open, closeLit string, style highlight.Style) *Type {
	return &Type{Name: name, Kind: Range, Open: open, Close: closeLit, Style: style}
}

// NewNeutral returns a block that toggles on each occurrence of lit.
func NewNeutral(name, lit string, style highlight.Style) *Type {
	return &Type{Name: name, Kind: Neutral, Open: lit, Close: lit, Style: style}
}

// NewNeutralPayload returns a toggling block whose opening row carries a tag
// fed through fn.
func NewNeutralPayload(name, lit string, style highlight.Style, fn PayloadFunc) *Type {
	return &Type{Name: name, Kind: NeutralPayload, Open: lit, Close: lit, Style: style, LineStart: true, Payload: fn}
}

// Validate checks the open/close invariants of the type's kind.
func (t *Type) Validate() error {
	if t.Open == "" {
		return fmt.Errorf("block %q: open literal is empty", t.Name)
	}
	switch t.Kind {
	case Range:
		if t.Close == "" || t.Close == t.Open {
			return fmt.Errorf("block %q: range close literal must differ from open %q", t.Name, t.Open)
		}
	case Neutral, NeutralPayload:
		if t.Close != t.Open {
			return fmt.Errorf("block %q: neutral close literal %q must equal open %q", t.Name, t.Close, t.Open)
		}
	default:
		return fmt.Errorf("block %q: %v", t.Name, t.Kind)
	}
	return nil
}

// State is the resume token for a row boundary. The zero value means no block
// is open. It implements highlight.Resume.
type State struct {
	Type *Type
	// Tag is the raw text captured after a NeutralPayload opener.
	Tag string
	// Payload is the delegate derived from Tag, if any.
	Payload highlight.Classifier
	// Inner is the delegate's own state at the boundary, when it has one.
	Inner highlight.Resume
}

// Open reports whether a block is in flight.
func (s State) Open() bool {
	return s.Type != nil
}

func (s State) String() string {
	if s.Type == nil {
		return "closed"
	}
	if s.Tag != "" {
		return fmt.Sprintf("%s(%s)", s.Type.Name, s.Tag)
	}
	return s.Type.Name
}
