// Package resolve finds the single best narrative field on a record whose
// attribute layout is not known in advance, and reads or writes through it.
package resolve

import (
	"regexp"
	"strings"

	"lorefield/internal/attr"
)

const DefaultMaxDepth = 6

var readVocabulary = []string{
	"biography", "bio", "backstory", "appearance", "description", "notes", "summary",
}

var narrativeVocabulary = append(append([]string{}, readVocabulary...),
	"allies", "enemies", "beliefs", "catchphrases", "dislikes", "likes",
	"organizations", "anathema", "edicts", "attitude", "birthplace",
	"personality", "traits", "background", "history", "origin", "motivation",
	"goals", "fears", "secrets", "relationships", "family", "mentor", "rival",
	"companion",
)

var (
	// ReadPattern matches keys worth considering for the single-field resolvers.
	ReadPattern = vocabularyPattern(readVocabulary)
	// NarrativePattern is the broader vocabulary used to collect every
	// narrative field of a record.
	NarrativePattern = vocabularyPattern(narrativeVocabulary)
	MatchAll         = regexp.MustCompile(`.*`)
)

func vocabularyPattern(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
}

// Scan walks tree and returns, in document order, the path of every string
// leaf with non-whitespace content whose key or full path matches pattern.
// Paths are prefixed with prefix. Nested nodes are entered while the current
// depth is below maxDepth; lists, numbers and booleans are skipped.
func Scan(tree *attr.Node, prefix string, pattern *regexp.Regexp, maxDepth int) []string {
	if tree == nil || pattern == nil {
		return nil
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var paths []string
	var walk func(node *attr.Node, base string, depth int)
	walk = func(node *attr.Node, base string, depth int) {
		for _, key := range node.Keys() {
			value, _ := node.Get(key)
			path := attr.Join(base, key)
			switch v := value.(type) {
			case attr.String:
				if strings.TrimSpace(string(v)) == "" {
					continue
				}
				if pattern.MatchString(key) || pattern.MatchString(path) {
					paths = append(paths, path)
				}
			case *attr.Node:
				if depth < maxDepth {
					walk(v, path, depth+1)
				}
			}
		}
	}
	walk(tree, prefix, 1)
	return paths
}

// StringLeaves returns the path of every string leaf under tree, blank ones
// included, within the same depth bound as Scan.
func StringLeaves(tree *attr.Node, prefix string, maxDepth int) []string {
	if tree == nil {
		return nil
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var paths []string
	var walk func(node *attr.Node, base string, depth int)
	walk = func(node *attr.Node, base string, depth int) {
		for _, key := range node.Keys() {
			value, _ := node.Get(key)
			path := attr.Join(base, key)
			switch v := value.(type) {
			case attr.String:
				paths = append(paths, path)
			case *attr.Node:
				if depth < maxDepth {
					walk(v, path, depth+1)
				}
			}
		}
	}
	walk(tree, prefix, 1)
	return paths
}
