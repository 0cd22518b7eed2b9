package resolve

import "lorefield/internal/store"

const (
	BiographyContainer = "system.details.biography"
	BiographyValue     = "system.details.biography.value"
	BiographyPublic    = "system.details.biography.public"
	ItemDescription    = "system.description.value"
)

// DefaultConcepts is the vocabulary handed to the semantic matcher.
var DefaultConcepts = []string{
	"biography",
	"backstory",
	"character history",
	"background story",
	"description",
	"appearance",
	"personality",
	"notes",
}

// wellKnownPaths lists the canonical narrative fields per record kind, the
// editable/player-visible variant first.
func wellKnownPaths(kind store.Kind) []string {
	switch kind {
	case store.KindItem:
		return []string{ItemDescription}
	default:
		return []string{BiographyValue, BiographyPublic}
	}
}

func isDualBiography(path string) bool {
	return path == BiographyContainer || path == BiographyValue || path == BiographyPublic
}

// verificationPaths are read back after a write; any exact match counts.
// The canonical pair can match a stale value left there before the write.
func verificationPaths(attempted string) []string {
	return []string{BiographyValue, BiographyPublic, attempted}
}
