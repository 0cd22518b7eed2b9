package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"lorefield/internal/config"
	"lorefield/internal/markup"
	"lorefield/internal/parser"
	"lorefield/internal/resolve"
	"lorefield/internal/store"
)

// Store is the part of the record store ingestion writes through.
type Store interface {
	resolve.Host
	EnsureSchema(ctx context.Context, schema *config.Schema) error
	GetSourceHashes(ctx context.Context) (map[string]string, error)
	UpsertRecord(ctx context.Context, r store.Record) error
	CreateEmbedded(ctx context.Context, parentID string, entries []store.Record) error
	RemoveStaleRecords(ctx context.Context, currentSourceFiles []string) (int64, error)
	RemoveSourceRecords(ctx context.Context, sourceFile string, keepIDs []string) (int64, error)
}

type Result struct {
	RecordsUpserted   int
	EmbeddedCreated   int
	NarrativesWritten int
	RecordsRemoved    int
	FilesSkipped      int
	// NarrativeFailures lists records whose body found no field to land in.
	NarrativeFailures []string
	Errors            []error
}

type Options struct {
	Full      bool
	Suggester resolve.Suggester
	Logger    *zap.Logger
}

func Run(ctx context.Context, cfg *config.ProjectConfig, schema *config.Schema, db Store, options Options) (*Result, error) {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.EnsureSchema(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var existingHashes map[string]string
	if !options.Full {
		var err error
		existingHashes, err = db.GetSourceHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("get source hashes: %w", err)
		}
	}

	files, err := walkMarkdownFiles(cfg.Sources, cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking source files: %w", err)
	}

	resolver := resolve.New(db, options.Suggester, resolve.Options{
		SemanticEnabled: cfg.Semantic.Enabled && options.Suggester != nil,
		Concepts:        cfg.Semantic.Concepts,
	}, logger)

	result := &Result{}
	for _, path := range files {
		hash, err := computeHash(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", path, err))
			continue
		}
		if !options.Full {
			if existing, ok := existingHashes[path]; ok && existing == hash {
				result.FilesSkipped++
				continue
			}
		}

		doc, err := parser.ParseFile(path)
		if err != nil {
			if errors.Is(err, parser.ErrNoFrontmatter) || errors.Is(err, parser.ErrMissingType) {
				result.FilesSkipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
			continue
		}

		if schema != nil && !schema.IsValidRecordType(doc.Type) {
			logger.Debug("skipping unknown record type", zap.String("file", path), zap.String("type", doc.Type))
			result.FilesSkipped++
			continue
		}

		record := store.Record{
			ID:         recordID(doc, path, cfg.Sources),
			Type:       doc.Type,
			Profile:    firstNonEmpty(doc.Profile, cfg.Profile),
			Name:       doc.Title,
			Img:        doc.Img,
			SourceFile: path,
			SourceHash: hash,
			System:     doc.System,
		}
		if err := db.UpsertRecord(ctx, record); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("upserting %s: %w", path, err))
			continue
		}
		result.RecordsUpserted++

		entries := make([]store.Record, 0, len(doc.Items))
		keep := []string{record.ID}
		for _, item := range doc.Items {
			entry := store.Record{
				ID:         itemID(record.ID, item),
				Type:       item.Type,
				Profile:    record.Profile,
				Name:       item.Name,
				Img:        item.Img,
				SourceFile: path,
				SourceHash: hash,
				System:     item.System,
			}
			entries = append(entries, entry)
			keep = append(keep, entry.ID)
		}

		// Items dropped or renamed in the file, and the record itself when
		// its id changed, would otherwise outlive the edit.
		orphans, err := db.RemoveSourceRecords(ctx, path, keep)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("removing orphans of %s: %w", path, err))
		}
		result.RecordsRemoved += int(orphans)

		if err := writeNarrative(ctx, resolver, &record, doc.Body, result); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("narrative for %s: %w", path, err))
		}

		if len(entries) == 0 {
			continue
		}
		if err := db.CreateEmbedded(ctx, record.ID, entries); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("embedding items of %s: %w", path, err))
			continue
		}
		result.EmbeddedCreated += len(entries)

		for i, item := range doc.Items {
			if err := writeNarrative(ctx, resolver, &entries[i], item.Description, result); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("narrative for item %s in %s: %w", item.Name, path, err))
			}
		}
	}

	deleted, err := db.RemoveStaleRecords(ctx, files)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("removing stale records: %w", err))
	} else {
		result.RecordsRemoved += int(deleted)
	}

	logger.Info("ingest finished",
		zap.Int("upserted", result.RecordsUpserted),
		zap.Int("embedded", result.EmbeddedCreated),
		zap.Int("narratives", result.NarrativesWritten),
		zap.Int("skipped", result.FilesSkipped),
		zap.Int("removed", result.RecordsRemoved),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// writeNarrative renders markdown source, sanitizes it, and stores it in the
// record's best narrative field. Blank source is a no-op.
func writeNarrative(ctx context.Context, resolver *resolve.Resolver, rec *store.Record, source string, result *Result) error {
	rendered, err := markup.FromMarkdown(source)
	if err != nil {
		return err
	}
	html := markup.Sanitize(rendered)
	if strings.TrimSpace(html) == "" {
		return nil
	}
	res := resolver.WriteBest(ctx, rec, html)
	if !res.OK {
		result.NarrativeFailures = append(result.NarrativeFailures, rec.ID)
		return nil
	}
	result.NarrativesWritten++
	return nil
}

func recordID(doc *parser.Document, path string, roots []string) string {
	if doc.ID != "" {
		return doc.ID
	}
	rel := filepath.Clean(path)
	for _, root := range roots {
		if root == "" {
			continue
		}
		if r, err := filepath.Rel(filepath.Clean(root), rel); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
			break
		}
	}
	return slug(strings.TrimSuffix(rel, filepath.Ext(rel)))
}

func itemID(parentID string, item parser.Item) string {
	if item.ID != "" {
		return item.ID
	}
	return parentID + "." + slug(item.Name)
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func walkMarkdownFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
