package document

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/rowlight/internal/cachemanager"
	"github.com/zjrosen/rowlight/internal/highlight"
	"github.com/zjrosen/rowlight/internal/log"
	"github.com/zjrosen/rowlight/internal/tracing"
)

// ErrNotReloadable is returned by Reload when the provider is not a *Lines.
var ErrNotReloadable = errors.New("provider does not support reload")

const defaultCheckpointInterval = 16

// Factory returns a classifier with no block open.
type Factory func() highlight.Resumable

// CachedRow is a row classified from the empty state. Open reports whether a
// block was still open at the end of the row, which makes the entry unusable
// as a shortcut.
type CachedRow struct {
	Spans []highlight.Span
	Open  bool
}

// RowCache stores CachedRows keyed by language and row text.
type RowCache = cachemanager.CacheManager[string, CachedRow]

// NewRowCache returns a go-cache backed RowCache shareable across documents.
func NewRowCache(expiration, cleanup time.Duration) RowCache {
	return cachemanager.NewInMemoryCacheManager[string, CachedRow]("rows", expiration, cleanup)
}

// Stats counts classifier work since the highlighter was created.
type Stats struct {
	// Classified is rows returned to callers.
	Classified int
	// Replayed is rows classified only to advance block state.
	Replayed int
	// Cached is rows served through the row cache without running the
	// document's classifier.
	Cached int
}

// Highlighter serves style spans for any row of a document.
//
// It owns one classifier and remembers the row the classifier is positioned
// before. Sequential access costs one Apply per row. Any other access
// restores the classifier at the nearest checkpoint at or before the row and
// replays forward. A checkpoint is a row whose start state is the empty
// token, so restoring one needs no saved state beyond the row index.
type Highlighter struct {
	mu sync.Mutex

	id       string
	src      Provider
	cls      highlight.Resumable
	next     int
	interval int

	// checkpoints is sorted and always starts with row 0.
	checkpoints []int

	rows     *cachemanager.ReadThroughCache[string, CachedRow, string]
	cacheTTL time.Duration

	tracer trace.Tracer
	stats  Stats
}

// Option configures a Highlighter.
type Option func(*highlighterOptions)

type highlighterOptions struct {
	cache    RowCache
	cacheTTL time.Duration
	tracer   trace.Tracer
	interval int
}

// WithRowCache memoizes rows that start and end outside any block.
func WithRowCache(cache RowCache, ttl time.Duration) Option {
	return func(o *highlighterOptions) {
		o.cache = cache
		o.cacheTTL = ttl
	}
}

// WithTracer records Range calls as spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *highlighterOptions) {
		o.tracer = t
	}
}

// WithCheckpointInterval sets the minimum distance between recorded
// checkpoints.
func WithCheckpointInterval(rows int) Option {
	return func(o *highlighterOptions) {
		if rows > 0 {
			o.interval = rows
		}
	}
}

// NewHighlighter returns a highlighter over src. newClassifier is called once
// for the document's classifier and, with a row cache, once more for the
// classifier that fills the cache.
func NewHighlighter(src Provider, newClassifier Factory, opts ...Option) *Highlighter {
	o := highlighterOptions{
		tracer:   noop.NewTracerProvider().Tracer("noop"),
		interval: defaultCheckpointInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}

	h := &Highlighter{
		id:          uuid.NewString(),
		src:         src,
		cls:         newClassifier(),
		interval:    o.interval,
		checkpoints: []int{0},
		tracer:      o.tracer,
		cacheTTL:    o.cacheTTL,
	}

	if o.cache != nil {
		scratch := newClassifier()
		h.rows = cachemanager.NewReadThroughCache[string, CachedRow, string](
			o.cache,
			func(_ context.Context, text string) (CachedRow, error) {
				scratch.Restore(nil)
				spans := scratch.Apply(0, text)
				return CachedRow{Spans: spans, Open: scratch.Snapshot().Open()}, nil
			},
			false,
		)
	}

	log.Debug(log.CatDoc, "Highlighter created", "id", h.id, "language", h.cls.Name(), "rows", src.Rows())
	return h
}

// ID identifies the document in logs and traces.
func (h *Highlighter) ID() string {
	return h.id
}

// Language returns the classifier's language name.
func (h *Highlighter) Language() string {
	return h.cls.Name()
}

// Rows returns the provider's row count.
func (h *Highlighter) Rows() int {
	return h.src.Rows()
}

// Row returns the spans of one row. Rows outside the document have none.
func (h *Highlighter) Row(row int) []highlight.Span {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.row(context.Background(), row)
}

// Range returns the spans of rows [from, to), clamped to the document.
func (h *Highlighter) Range(ctx context.Context, from, to int) [][]highlight.Span {
	h.mu.Lock()
	defer h.mu.Unlock()

	from = max(from, 0)
	to = min(to, h.src.Rows())

	ctx, span := h.tracer.Start(ctx, tracing.SpanHighlightRange, trace.WithAttributes(
		attribute.String(tracing.AttrDocumentID, h.id),
		attribute.String(tracing.AttrLanguage, h.cls.Name()),
		attribute.Int(tracing.AttrRangeFrom, from),
		attribute.Int(tracing.AttrRangeTo, to),
	))
	defer span.End()

	before := h.stats
	out := make([][]highlight.Span, 0, max(to-from, 0))
	for row := from; row < to; row++ {
		out = append(out, h.row(ctx, row))
	}

	span.SetAttributes(
		attribute.Int(tracing.AttrReplayedRows, h.stats.Replayed-before.Replayed),
		attribute.Int(tracing.AttrCachedRows, h.stats.Cached-before.Cached),
		attribute.Int(tracing.AttrCheckpoints, len(h.checkpoints)),
	)
	return out
}

// All highlights the whole document.
func (h *Highlighter) All(ctx context.Context) [][]highlight.Span {
	return h.Range(ctx, 0, h.src.Rows())
}

func (h *Highlighter) row(ctx context.Context, row int) []highlight.Span {
	if row < 0 || row >= h.src.Rows() {
		return nil
	}
	h.seek(ctx, row)
	h.stats.Classified++
	return h.apply(ctx, row)
}

// seek positions the classifier at the start of row.
func (h *Highlighter) seek(ctx context.Context, row int) {
	if h.next == row {
		return
	}
	start := h.nearestCheckpoint(row)
	if h.next < start || h.next > row {
		h.cls.Restore(nil)
		h.next = start
		trace.SpanFromContext(ctx).AddEvent(tracing.EventReplay, trace.WithAttributes(
			attribute.Int(tracing.AttrReplayFrom, start),
			attribute.Int(tracing.AttrRangeTo, row),
		))
		log.Debug(log.CatDoc, "Replaying from checkpoint", "id", h.id, "from", start, "to", row)
	}
	for h.next < row {
		h.stats.Replayed++
		h.apply(ctx, h.next)
	}
}

func (h *Highlighter) nearestCheckpoint(row int) int {
	i := sort.SearchInts(h.checkpoints, row+1)
	return h.checkpoints[max(i-1, 0)]
}

// apply classifies row, which must be h.next.
func (h *Highlighter) apply(ctx context.Context, row int) []highlight.Span {
	text := h.src.Text(row)
	closed := !h.cls.Snapshot().Open()
	if closed {
		h.addCheckpoint(row)
	}
	h.next = row + 1

	if closed && h.rows != nil {
		cached, err := h.rows.GetWithRefresh(ctx, h.cls.Name()+"\x00"+text, text, h.cacheTTL)
		if err == nil && !cached.Open {
			h.stats.Cached++
			return slices.Clone(cached.Spans)
		}
	}
	return h.cls.Apply(row, text)
}

func (h *Highlighter) addCheckpoint(row int) {
	last := h.checkpoints[len(h.checkpoints)-1]
	if row-last >= h.interval {
		h.checkpoints = append(h.checkpoints, row)
	}
}

// Invalidate discards what is known about rows after row. Call it with the
// first edited row after changing the provider's content.
func (h *Highlighter) Invalidate(row int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	row = max(row, 0)
	i := sort.SearchInts(h.checkpoints, row+1)
	dropped := len(h.checkpoints) - max(i, 1)
	h.checkpoints = h.checkpoints[:max(i, 1)]
	if h.next > row {
		h.next = -1
	}
	log.Debug(log.CatDoc, "Invalidated", "id", h.id, "row", row, "dropped_checkpoints", dropped)
}

// Reload swaps the provider's text for text and invalidates from the first
// changed row. It returns that row, or -1 when nothing changed.
func (h *Highlighter) Reload(text string) (int, error) {
	lines, ok := h.src.(*Lines)
	if !ok {
		return -1, ErrNotReloadable
	}
	first := lines.Reload(text)
	if first >= 0 {
		h.Invalidate(first)
	}
	return first, nil
}

// Checkpoints returns the recorded checkpoint rows.
func (h *Highlighter) Checkpoints() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.checkpoints)
}

// Seed installs checkpoints saved for identical content, letting the first
// random access skip most of the replay. Rows outside the document are
// ignored.
func (h *Highlighter) Seed(rows []int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.src.Rows()
	seeded := []int{0}
	for _, r := range rows {
		if r > 0 && r < n {
			seeded = append(seeded, r)
		}
	}
	slices.Sort(seeded)
	h.checkpoints = slices.Compact(seeded)
	h.next = -1
	log.Debug(log.CatDoc, "Seeded checkpoints", "id", h.id, "count", len(h.checkpoints))
}

// Stats returns work counters.
func (h *Highlighter) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}
