package resolve

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"lorefield/internal/attr"
	"lorefield/internal/store"
)

var (
	errNoRecord = errors.New("record not found after update")
	errMismatch = errors.New("value not found after update")
)

// Host is the persistence surface the resolver writes through. UpdateRecord
// applies a patch rooted above "system"; the host may ignore, coerce or
// reject any part of it.
type Host interface {
	GetRecord(ctx context.Context, id string) (*store.Record, error)
	UpdateRecord(ctx context.Context, id string, patch *attr.Node) error
}

// Suggester picks the candidate path whose meaning is closest to any of the
// concepts. ok is false when nothing is similar enough.
type Suggester interface {
	SuggestBestPath(ctx context.Context, candidates []string, concepts []string) (path string, ok bool, err error)
}

type Options struct {
	SemanticEnabled bool
	Concepts        []string
	MaxDepth        int
}

type Result struct {
	OK         bool
	Path       string
	Value      string
	PathsTried []string
}

type Resolver struct {
	host      Host
	suggester Suggester
	opts      Options
	logger    *zap.Logger
}

func New(host Host, suggester Suggester, opts Options, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if len(opts.Concepts) == 0 {
		opts.Concepts = DefaultConcepts
	}
	return &Resolver{host: host, suggester: suggester, opts: opts, logger: logger}
}

// Candidates returns the ranked narrative paths for rec: the well-known
// paths for its kind together with every matching field found in its tree.
func (r *Resolver) Candidates(rec *store.Record) []Candidate {
	declared := wellKnownPaths(rec.Kind())
	var discovered []string
	if rec != nil {
		discovered = Scan(rec.System, store.SystemKey, ReadPattern, r.opts.MaxDepth)
	}
	return Rank(append(slices.Clone(declared), discovered...), declared)
}

// Read returns the best narrative text of rec, or "" when none is found.
func (r *Resolver) Read(ctx context.Context, rec *store.Record) string {
	return r.ReadBest(ctx, rec).Value
}

// ReadBest returns the first ranked candidate holding non-whitespace text,
// untrimmed. With semantic mapping enabled, a miss is retried once against
// the text fields of the record not already tried.
func (r *Resolver) ReadBest(ctx context.Context, rec *store.Record) Result {
	if rec == nil {
		return Result{}
	}
	root := rec.Root()
	candidates := r.Candidates(rec)

	tried := make([]string, 0, len(candidates))
	for _, c := range candidates {
		tried = append(tried, c.Path)
		if v, ok := attr.Lookup(root, c.Path); ok {
			if text, ok := attr.Text(v); ok {
				return Result{OK: true, Path: c.Path, Value: text}
			}
		}
	}

	// Only leaves that hold text can answer a read.
	pool := without(Scan(rec.System, store.SystemKey, MatchAll, r.opts.MaxDepth), tried)
	if path, ok := r.suggest(ctx, pool); ok {
		if v, found := attr.Lookup(root, path); found {
			if text, ok := attr.Text(v); ok {
				r.logger.Debug("narrative read resolved semantically",
					zap.String("record", rec.ID), zap.String("path", path))
				return Result{OK: true, Path: path, Value: text}
			}
		}
	}
	return Result{PathsTried: tried}
}

// WriteBest stores html in the best narrative field of rec. Candidates are
// tried in rank order; each attempt patches the host, re-reads the record and
// checks that the value landed. The first verified attempt refreshes rec in
// place. Failures are logged and never returned as errors.
func (r *Resolver) WriteBest(ctx context.Context, rec *store.Record, html string) Result {
	if rec == nil {
		return Result{}
	}
	candidates := r.Candidates(rec)

	tried := make([]string, 0, len(candidates)+1)
	for _, c := range candidates {
		tried = append(tried, c.Path)
		if r.attempt(ctx, rec, c.Path, html) {
			return Result{OK: true, Path: c.Path, Value: html}
		}
	}

	// Existing string leaves, blank ones included, are the fields the host
	// already knows; paths that failed are not offered again.
	pool := without(StringLeaves(rec.System, store.SystemKey, r.opts.MaxDepth), tried)
	if path, ok := r.suggest(ctx, pool); ok && !slices.Contains(tried, path) {
		tried = append(tried, path)
		if r.attempt(ctx, rec, path, html) {
			return Result{OK: true, Path: path, Value: html}
		}
	}

	r.logger.Warn("narrative write failed on every candidate",
		zap.String("record", rec.ID), zap.Strings("paths", tried))
	return Result{PathsTried: tried}
}

func (r *Resolver) attempt(ctx context.Context, rec *store.Record, path, html string) bool {
	var fresh *store.Record
	err := guard(func() error {
		if err := r.host.UpdateRecord(ctx, rec.ID, buildPatch(path, html)); err != nil {
			return fmt.Errorf("update: %w", err)
		}
		var err error
		fresh, err = r.host.GetRecord(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		if fresh == nil {
			return errNoRecord
		}
		return nil
	})
	if err != nil {
		r.logger.Debug("narrative write attempt failed",
			zap.String("record", rec.ID), zap.String("path", path), zap.Error(err))
		return false
	}

	root := fresh.Root()
	for _, check := range verificationPaths(path) {
		if got, ok := attr.StringAt(root, check); ok && got == html {
			if check != path {
				r.logger.Debug("narrative write verified through canonical field",
					zap.String("record", rec.ID), zap.String("path", path), zap.String("verified", check))
			}
			*rec = *fresh
			return true
		}
	}
	r.logger.Debug("narrative write attempt failed",
		zap.String("record", rec.ID), zap.String("path", path), zap.Error(errMismatch))
	return false
}

func (r *Resolver) suggest(ctx context.Context, pool []string) (string, bool) {
	if !r.opts.SemanticEnabled || r.suggester == nil || len(pool) == 0 {
		return "", false
	}
	var (
		path string
		ok   bool
	)
	err := guard(func() error {
		var err error
		path, ok, err = r.suggester.SuggestBestPath(ctx, pool, r.opts.Concepts)
		return err
	})
	if err != nil {
		r.logger.Debug("semantic suggestion failed", zap.Error(err))
		return "", false
	}
	if !ok || path == "" {
		return "", false
	}
	return path, true
}

// buildPatch writes html at path. The biography container and its two
// variants always receive both variants so the fields never diverge.
func buildPatch(path, html string) *attr.Node {
	patch := attr.NewNode()
	if isDualBiography(path) {
		attr.SetPath(patch, BiographyValue, attr.String(html))
		attr.SetPath(patch, BiographyPublic, attr.String(html))
		return patch
	}
	attr.SetPath(patch, path, attr.String(html))
	return patch
}

// guard runs fn and turns a panic into an error; a misbehaving host counts as
// a failed attempt.
func guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}

func without(paths, exclude []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !slices.Contains(exclude, p) && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}
