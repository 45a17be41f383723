// Package trie provides the keyword dictionary used by grammars.
// Words are stored by Unicode code point so multi-character operator keywords
// (as?, !in) and non-Latin identifiers match as whole units.
package trie

import (
	"slices"
	"strings"
	"unicode"
)

type node struct {
	children map[rune]*node
	end      bool
}

func newNode() *node {
	return &node{children: make(map[rune]*node)}
}

// Trie is a prefix tree of keywords.
// The zero value is not usable; call New or FromList.
type Trie struct {
	root *node
	size int
}

// New returns an empty trie.
func New() *Trie {
	return &Trie{root: newNode()}
}

// FromList builds a trie from a comma and/or whitespace separated word list.
func FromList(list string) *Trie {
	t := New()
	for _, w := range Split(list) {
		t.Put(w)
	}
	return t
}

// Split breaks a keyword list on commas and whitespace, dropping empty entries.
func Split(list string) []string {
	return strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// Put inserts word. Empty words are ignored.
func (t *Trie) Put(word string) {
	if word == "" {
		return
	}
	n := t.root
	for _, r := range word {
		child, ok := n.children[r]
		if !ok {
			child = newNode()
			n.children[r] = child
		}
		n = child
	}
	if !n.end {
		n.end = true
		t.size++
	}
}

// Remove deletes word and collapses branches left without any word.
// It reports whether the word was present.
func (t *Trie) Remove(word string) bool {
	if word == "" {
		return false
	}
	runes := []rune(word)
	path := make([]*node, 0, len(runes)+1)
	n := t.root
	path = append(path, n)
	for _, r := range runes {
		child, ok := n.children[r]
		if !ok {
			return false
		}
		n = child
		path = append(path, n)
	}
	if !n.end {
		return false
	}
	n.end = false
	t.size--

	// Walk back up, unlinking nodes that no longer lead anywhere.
	for i := len(runes) - 1; i >= 0; i-- {
		child := path[i+1]
		if child.end || len(child.children) > 0 {
			break
		}
		delete(path[i].children, runes[i])
	}
	return true
}

// Match reports whether word is stored exactly.
func (t *Trie) Match(word string) bool {
	n := t.find(word)
	return n != nil && n.end && word != ""
}

// StartsWith reports whether any stored word begins with prefix.
func (t *Trie) StartsWith(prefix string) bool {
	if prefix == "" {
		return t.size > 0
	}
	return t.find(prefix) != nil
}

// Suggestions returns the code points that may follow prefix, sorted.
func (t *Trie) Suggestions(prefix string) []rune {
	n := t.find(prefix)
	if n == nil {
		return nil
	}
	keys := make([]rune, 0, len(n.children))
	for r := range n.children {
		keys = append(keys, r)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of stored words.
func (t *Trie) Len() int {
	return t.size
}

// Words returns all stored words in sorted order.
func (t *Trie) Words() []string {
	words := make([]string, 0, t.size)
	var walk func(n *node, prefix []rune)
	walk = func(n *node, prefix []rune) {
		if n.end {
			words = append(words, string(prefix))
		}
		for r, child := range n.children {
			walk(child, append(prefix, r))
		}
	}
	walk(t.root, nil)
	slices.Sort(words)
	return words
}

func (t *Trie) find(s string) *node {
	n := t.root
	for _, r := range s {
		child, ok := n.children[r]
		if !ok {
			return nil
		}
		n = child
	}
	return n
}
