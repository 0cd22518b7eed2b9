package semantic

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lorefield/internal/attr"
	"lorefield/internal/config"
	"lorefield/internal/resolve"
	"lorefield/internal/store"
)

type Options struct {
	MinScore          float64
	RequestsPerSecond float64
	Burst             int
	CacheSize         int
	Breaker           BreakerConfig
}

// Matcher scores candidate attribute paths against a concept vocabulary by
// embedding both and comparing them with cosine similarity.
type Matcher struct {
	embedder Embedder
	breaker  *Breaker
	limiter  *rate.Limiter
	cache    *lru.Cache[string, []float32]
	minScore float64
	logger   *zap.Logger
}

func NewMatcher(embedder Embedder, opts Options, logger *zap.Logger) (*Matcher, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 512
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Breaker.Timeout == 0 {
		opts.Breaker = DefaultBreakerConfig()
	}

	cache, err := lru.New[string, []float32](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Matcher{
		embedder: embedder,
		breaker:  NewBreaker(embedder.Name(), opts.Breaker, logger),
		limiter:  rate.NewLimiter(limit, opts.Burst),
		cache:    cache,
		minScore: opts.MinScore,
		logger:   logger,
	}, nil
}

// NewFromConfig builds the configured embedder and wraps it in a Matcher.
func NewFromConfig(ctx context.Context, cfg config.SemanticConfig, logger *zap.Logger) (*Matcher, error) {
	embedder, err := NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewMatcher(embedder, Options{
		MinScore:          cfg.MinScore,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		CacheSize:         cfg.CacheSize,
	}, logger)
}

// SuggestBestPath returns the candidate most similar to any concept. Ties go
// to the earlier candidate; nothing at or above the minimum score means no
// suggestion.
func (m *Matcher) SuggestBestPath(ctx context.Context, candidates []string, concepts []string) (string, bool, error) {
	if len(candidates) == 0 || len(concepts) == 0 {
		return "", false, nil
	}

	texts := make([]string, 0, len(concepts)+len(candidates))
	texts = append(texts, concepts...)
	for _, path := range candidates {
		texts = append(texts, humanize(path))
	}

	vectors, err := m.embed(ctx, texts)
	if err != nil {
		return "", false, err
	}
	conceptVecs, candidateVecs := vectors[:len(concepts)], vectors[len(concepts):]

	best, bestScore := -1, 0.0
	for i, cv := range candidateVecs {
		for _, concept := range conceptVecs {
			if score := cosine(cv, concept); best < 0 || score > bestScore {
				best, bestScore = i, score
			}
		}
	}

	m.logger.Debug("semantic path scores",
		zap.String("best", candidates[best]),
		zap.Float64("score", bestScore),
		zap.Float64("min_score", m.minScore))

	if bestScore < m.minScore {
		return "", false, nil
	}
	return candidates[best], true, nil
}

// embed resolves texts through the cache and fetches the misses in a single
// rate-limited, breaker-protected batch.
func (m *Matcher) embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	pending := make(map[string][]int)
	for i, text := range texts {
		if v, ok := m.cache.Get(text); ok {
			out[i] = v
			continue
		}
		if _, ok := pending[text]; !ok {
			missing = append(missing, text)
		}
		pending[text] = append(pending[text], i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	result, err := m.breaker.Execute(ctx, func() (interface{}, error) {
		return m.embedder.Embed(ctx, missing)
	})
	if err != nil {
		return nil, fmt.Errorf("embed with %s: %w", m.embedder.Name(), err)
	}
	vectors, _ := result.([][]float32)
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("embed with %s: got %d vectors for %d texts", m.embedder.Name(), len(vectors), len(missing))
	}

	for i, text := range missing {
		m.cache.Add(text, vectors[i])
		for _, idx := range pending[text] {
			out[idx] = vectors[i]
		}
	}
	return out, nil
}

var valueLike = map[string]struct{}{
	"value": {}, "public": {}, "text": {}, "content": {},
}

// humanize turns an attribute path into words an embedding model can place:
// "system.details.publicNotes.value" becomes "details public notes".
func humanize(path string) string {
	segments := attr.Split(path)
	if len(segments) > 0 && segments[0] == store.SystemKey {
		segments = segments[1:]
	}
	var words []string
	for i, seg := range segments {
		if _, ok := valueLike[strings.ToLower(seg)]; ok && i == len(segments)-1 && i > 0 {
			continue
		}
		for _, w := range attr.Words(seg) {
			words = append(words, strings.ToLower(w))
		}
	}
	if len(words) == 0 {
		return path
	}
	return strings.Join(words, " ")
}

// DiscoverStringPaths lists every text leaf of tree matching pattern; a nil
// pattern matches all of them.
func DiscoverStringPaths(tree *attr.Node, pattern *regexp.Regexp) []string {
	if pattern == nil {
		pattern = resolve.MatchAll
	}
	return resolve.Scan(tree, store.SystemKey, pattern, resolve.DefaultMaxDepth)
}
