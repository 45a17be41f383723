package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/rowlight/internal/config"
	"github.com/zjrosen/rowlight/internal/document"
	"github.com/zjrosen/rowlight/internal/flags"
	"github.com/zjrosen/rowlight/internal/highlight"
	"github.com/zjrosen/rowlight/internal/infrastructure/sqlite"
	"github.com/zjrosen/rowlight/internal/lexer/dispatch"
	"github.com/zjrosen/rowlight/internal/lexer/languages"
	"github.com/zjrosen/rowlight/internal/log"
	"github.com/zjrosen/rowlight/internal/render"
	"github.com/zjrosen/rowlight/internal/tracing"
)

// session holds the services built from configuration for one command run.
type session struct {
	cfg      config.Config
	flags    *flags.Registry
	registry *dispatch.Registry
	theme    *render.Theme
	tracing  *tracing.Provider
	rows     document.RowCache
	store    *sqlite.DB // nil unless checkpoint persistence is on
}

func newSession(cfg config.Config) (*session, error) {
	s := &session{cfg: cfg, flags: flags.WithDefaults(cfg.Flags)}

	var regOpts []dispatch.Option
	if !s.flags.Enabled(flags.FlagFenceDelegation) {
		regOpts = append(regOpts, dispatch.WithoutDelegation())
	}
	reg, err := languages.NewRegistry(cfg.GrammarsDir, regOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading grammars: %w", err)
	}
	s.registry = reg

	theme, err := render.NewTheme(cfg.Theme.Preset, cfg.Theme.FlattenedColors())
	if err != nil {
		return nil, err
	}
	s.theme = theme

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	s.tracing = tp

	if s.flags.Enabled(flags.FlagRowCache) {
		s.rows = document.NewRowCache(cfg.Cache.Expiration, cfg.Cache.CleanupInterval)
	}

	if s.flags.Enabled(flags.FlagCheckpointPersistence) && cfg.Checkpoints.DBPath != "" {
		db, err := sqlite.NewDB(cfg.Checkpoints.DBPath)
		if err != nil {
			// Persistence only saves replay work; highlighting still works without it.
			log.ErrorErr(log.CatDB, "Checkpoint store unavailable", err, "path", cfg.Checkpoints.DBPath)
		} else {
			s.store = db
			if cfg.Checkpoints.MaxAge > 0 {
				if _, err := db.Checkpoints().PruneOlderThan(cfg.Checkpoints.MaxAge); err != nil {
					log.ErrorErr(log.CatDB, "Pruning old checkpoints failed", err, "max_age", cfg.Checkpoints.MaxAge)
				}
			}
		}
	}
	return s, nil
}

func (s *session) Close() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if err := s.tracing.Shutdown(context.Background()); err != nil {
		log.ErrorErr(log.CatTrace, "Tracing shutdown failed", err)
	}
}

// doc is an opened file with its highlighter.
type doc struct {
	path  string
	lines *document.Lines
	hl    *document.Highlighter
}

// open reads path and builds its highlighter. lang overrides detection by
// file name. Stored checkpoints for identical content are seeded.
func (s *session) open(ctx context.Context, path, lang string) (*doc, error) {
	lines, err := document.ReadFile(path)
	if err != nil {
		return nil, err
	}

	factory := func() highlight.Resumable { return s.registry.ResolveFile(path) }
	if lang != "" {
		factory = func() highlight.Resumable { return s.registry.Resolve(lang) }
	}

	opts := []document.Option{
		document.WithTracer(s.tracing.Tracer()),
		document.WithCheckpointInterval(s.cfg.Checkpoints.Interval),
	}
	if s.rows != nil {
		opts = append(opts, document.WithRowCache(s.rows, s.cfg.Cache.Expiration))
	}
	d := &doc{path: path, lines: lines, hl: document.NewHighlighter(lines, factory, opts...)}

	s.seed(ctx, d)
	return d, nil
}

func (s *session) seed(ctx context.Context, d *doc) {
	if s.store == nil {
		return
	}
	_, span := s.tracing.Tracer().Start(ctx, tracing.SpanCheckpointLoad, trace.WithAttributes(
		attribute.String(tracing.AttrDocumentPath, d.path),
		attribute.String(tracing.AttrDocumentID, d.hl.ID()),
	))
	defer span.End()

	set, err := s.store.Checkpoints().Load(d.path, document.Hash(d.lines.String()))
	switch {
	case errors.Is(err, sqlite.ErrNoCheckpoints):
		return
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatDB, "Loading checkpoints failed", err, "path", d.path)
		return
	case set.Language != d.hl.Language():
		return
	}
	d.hl.Seed(set.Rows)
	span.SetAttributes(attribute.Int(tracing.AttrCheckpoints, len(set.Rows)))
}

// save stores the document's checkpoints for its current content.
func (s *session) save(ctx context.Context, d *doc) {
	if s.store == nil {
		return
	}
	rows := d.hl.Checkpoints()
	_, span := s.tracing.Tracer().Start(ctx, tracing.SpanCheckpointSave, trace.WithAttributes(
		attribute.String(tracing.AttrDocumentPath, d.path),
		attribute.Int(tracing.AttrCheckpoints, len(rows)),
	))
	defer span.End()

	if err := s.store.Checkpoints().Save(d.path, document.Hash(d.lines.String()), d.hl.Language(), rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatDB, "Saving checkpoints failed", err, "path", d.path)
	}
}

// highlightRange returns spans for rows [from, to) under a file-level span.
func (s *session) highlightRange(ctx context.Context, d *doc, from, to int) [][]highlight.Span {
	ctx, span := s.tracing.Tracer().Start(ctx, tracing.SpanHighlightFile, trace.WithAttributes(
		attribute.String(tracing.AttrDocumentPath, d.path),
		attribute.String(tracing.AttrLanguage, d.hl.Language()),
		attribute.Int(tracing.AttrRows, d.hl.Rows()),
	))
	defer span.End()
	return d.hl.Range(ctx, from, to)
}
