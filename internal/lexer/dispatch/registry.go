// Package dispatch resolves language names, fence tags and file extensions to
// classifier instances.
package dispatch

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/zjrosen/rowlight/internal/highlight"
	"github.com/zjrosen/rowlight/internal/lexer/grammar"
	"github.com/zjrosen/rowlight/internal/log"
)

// Registry maps names to grammar descriptors.
// Registration normally happens once at startup; lookups are safe from any
// goroutine.
type Registry struct {
	mu         sync.RWMutex
	byName     map[string]*grammar.Descriptor
	byExt      map[string]*grammar.Descriptor
	canonical  []string
	noDelegate bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithoutDelegation makes payload blocks resolve to no delegate, so fenced
// rows are styled as plain block content.
func WithoutDelegation() Option {
	return func(r *Registry) {
		r.noDelegate = true
	}
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		byName: make(map[string]*grammar.Descriptor),
		byExt:  make(map[string]*grammar.Descriptor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds desc under its name, aliases and extensions. A later
// registration of the same name replaces the earlier one.
func (r *Registry) Register(desc *grammar.Descriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := strings.ToLower(desc.Name)
	if _, exists := r.byName[name]; !exists {
		r.canonical = append(r.canonical, name)
	}
	for _, n := range desc.Names() {
		r.byName[n] = desc
	}
	for _, ext := range desc.Extensions {
		r.byExt[normalizeExt(ext)] = desc
	}
	log.Debug(log.CatLexer, "Registered grammar", "name", desc.Name, "extensions", desc.Extensions)
	return nil
}

// MustRegister is Register for built-in grammars that are known to be valid.
func (r *Registry) MustRegister(desc *grammar.Descriptor) {
	if err := r.Register(desc); err != nil {
		panic(fmt.Sprintf("dispatch: %v", err))
	}
}

// Lookup returns the descriptor registered under name, alias or extension.
func (r *Registry) Lookup(name string) (*grammar.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	if d, ok := r.byName[key]; ok {
		return d, true
	}
	if d, ok := r.byExt[normalizeExt(key)]; ok {
		return d, true
	}
	return nil, false
}

// Resolve returns a fresh classifier for name. Unknown names resolve to a
// classifier that produces no spans.
func (r *Registry) Resolve(name string) highlight.Resumable {
	desc, ok := r.Lookup(name)
	if !ok {
		log.Debug(log.CatLexer, "Unknown language, using no-op classifier", "name", name)
		return highlight.NoOp(name)
	}
	return grammar.New(desc)
}

// ResolveFile picks a classifier from a file path's extension, falling back to
// the base name (Makefile, Dockerfile).
func (r *Registry) ResolveFile(path string) highlight.Resumable {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		if _, ok := r.Lookup(ext); ok {
			return r.Resolve(ext)
		}
	}
	return r.Resolve(base)
}

// Payload resolves a fence tag to a delegate classifier. It is the payload
// function attached to fence blocks.
func (r *Registry) Payload(tag string) highlight.Classifier {
	if r.noDelegate {
		return nil
	}
	// Info strings may carry attributes after the language: ```go title="x"
	if fields := strings.Fields(tag); len(fields) > 0 {
		tag = strings.Trim(fields[0], "{}.")
	}
	return r.Resolve(tag)
}

// Names returns canonical language names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := slices.Clone(r.canonical)
	slices.Sort(names)
	return names
}

func normalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(ext), ".")
}
