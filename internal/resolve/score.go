package resolve

import (
	"sort"
	"strings"

	"lorefield/internal/attr"
)

const (
	weightBiography   = 1000
	weightDescription = 500
	weightSummary     = 120
	weightNotes       = 100
)

type Candidate struct {
	Path  string
	Score int
}

// Score weighs a path by the narrative keywords among its segments, each
// family counted once, minus the segment count so shallower paths win ties.
func Score(path string) int {
	segments := attr.Split(path)
	var biography, description, summary, notes bool
	for _, seg := range segments {
		s := strings.ToLower(seg)
		switch {
		case s == "biography" || s == "bio":
			biography = true
		case s == "description" || s == "desc":
			description = true
		case s == "summary":
			summary = true
		case strings.HasSuffix(s, "notes"):
			notes = true
		}
	}

	score := 0
	if biography {
		score += weightBiography
	}
	if description {
		score += weightDescription
	}
	if summary {
		score += weightSummary
	}
	if notes {
		score += weightNotes
	}
	return score - len(segments)
}

// Rank deduplicates paths and orders them by descending score. Equal scores
// fall back to the position in declared, then to lexical order, so the result
// depends only on the set of paths and never on how they were gathered.
func Rank(paths []string, declared []string) []Candidate {
	declaredAt := make(map[string]int, len(declared))
	for i, path := range declared {
		if _, ok := declaredAt[path]; !ok {
			declaredAt[path] = i
		}
	}

	seen := make(map[string]struct{}, len(paths))
	candidates := make([]Candidate, 0, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		candidates = append(candidates, Candidate{Path: path, Score: Score(path)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ai, aDeclared := declaredAt[a.Path]
		bi, bDeclared := declaredAt[b.Path]
		switch {
		case aDeclared && bDeclared:
			return ai < bi
		case aDeclared != bDeclared:
			return aDeclared
		}
		return a.Path < b.Path
	})
	return candidates
}
