// Package flags holds feature toggles read from the config file.
// Flags are read-only after initialization and unknown flags are off.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/rowlight/internal/log"
)

const (
	// FlagRowCache memoizes rows that start and end outside any block.
	FlagRowCache = "row-cache"

	// FlagCheckpointPersistence stores replay checkpoints in SQLite so reopening
	// an unchanged file can seek without a full replay.
	FlagCheckpointPersistence = "checkpoint-persistence"

	// FlagFenceDelegation hands fenced markdown rows to the fenced language.
	// When off, fence content is styled as plain fence text.
	FlagFenceDelegation = "fence-delegation"
)

// Defaults are the values used when the config file does not mention a flag.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagRowCache:              true,
		FlagCheckpointPersistence: false,
		FlagFenceDelegation:       true,
	}
}

// Registry holds flag state.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map. A nil map disables everything.
func New(flags map[string]bool) *Registry {
	if flags == nil {
		flags = make(map[string]bool)
	}
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.Names())
	return r
}

// WithDefaults overlays configured values on Defaults.
func WithDefaults(configured map[string]bool) *Registry {
	merged := Defaults()
	maps.Copy(merged, configured)
	return New(merged)
}

// Enabled reports whether the flag is on. Unknown flags and a nil registry
// report false.
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name)
		return false
	}
	return value
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}

// Names returns the enabled flag names, sorted.
func (r *Registry) Names() []string {
	var names []string
	for name, on := range r.All() {
		if on {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
