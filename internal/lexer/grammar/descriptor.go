// Package grammar holds per-language rule sets and the shared classification
// loop that turns a row into style spans.
package grammar

import (
	"fmt"
	"strings"

	"github.com/zjrosen/rowlight/internal/lexer/block"
	"github.com/zjrosen/rowlight/internal/lexer/trie"
)

// Descriptor is one language's fixed rule set.
// A zero rune, empty string or nil field disables that rule.
type Descriptor struct {
	Name       string
	Extensions []string
	// Aliases are extra names accepted by dispatch, e.g. fence tags.
	Aliases []string

	Keywords     *trie.Trie
	Escape       rune
	CharDelim    rune
	StringDelim  rune
	TextBlock    *block.Type
	LineComment  string
	BlockComment *block.Type
	StatementEnd rune

	// Blocks are additional block types such as fences or alternate text blocks.
	Blocks []*block.Type
	// LineMarkers style a whole row when it starts with one of them, e.g.
	// markdown headings.
	LineMarkers []string
	// IdentExtra lists characters besides letters, digits and '_' that may
	// appear in identifiers.
	IdentExtra string
}

// BlockTypes returns the descriptor's block catalog in recognition order.
func (d *Descriptor) BlockTypes() []*block.Type {
	var types []*block.Type
	if d.BlockComment != nil {
		types = append(types, d.BlockComment)
	}
	if d.TextBlock != nil {
		types = append(types, d.TextBlock)
	}
	return append(types, d.Blocks...)
}

// Names returns the name followed by the aliases, lowercased.
func (d *Descriptor) Names() []string {
	names := []string{strings.ToLower(d.Name)}
	for _, a := range d.Aliases {
		names = append(names, strings.ToLower(a))
	}
	return names
}

// Validate checks that the descriptor can drive a classifier.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("grammar: name is required")
	}
	for _, bt := range d.BlockTypes() {
		if err := bt.Validate(); err != nil {
			return fmt.Errorf("grammar %s: %w", d.Name, err)
		}
	}
	if d.StringDelim != 0 && d.StringDelim == d.CharDelim {
		return fmt.Errorf("grammar %s: string and char delimiters must differ", d.Name)
	}
	return nil
}

func (d *Descriptor) isIdentStart(r rune) bool {
	return isLetter(r) || r == '_' || (d.IdentExtra != "" && strings.ContainsRune(d.IdentExtra, r))
}

func (d *Descriptor) isIdentPart(r rune) bool {
	return d.isIdentStart(r) || isDigit(r)
}
