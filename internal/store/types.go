package store

import (
	"strings"

	"lorefield/internal/attr"
)

// SystemKey is the root segment under which a record's attribute tree lives.
const SystemKey = "system"

type Kind string

const (
	KindCharacter Kind = "character"
	KindNPC       Kind = "npc"
	KindItem      Kind = "item"
	KindOther     Kind = "other"
)

var kindByType = map[string]Kind{
	"character":  KindCharacter,
	"pc":         KindCharacter,
	"player":     KindCharacter,
	"hero":       KindCharacter,
	"familiar":   KindCharacter,
	"npc":        KindNPC,
	"monster":    KindNPC,
	"creature":   KindNPC,
	"hazard":     KindNPC,
	"vehicle":    KindNPC,
	"item":       KindItem,
	"weapon":     KindItem,
	"armor":      KindItem,
	"equipment":  KindItem,
	"consumable": KindItem,
	"loot":       KindItem,
	"treasure":   KindItem,
	"tool":       KindItem,
	"backpack":   KindItem,
	"container":  KindItem,
	"spell":      KindItem,
	"feat":       KindItem,
	"feature":    KindItem,
	"class":      KindItem,
	"background": KindItem,
}

// Record is a host-managed entity: a character, an item, or anything else
// that carries a profile-specific attribute tree under "system".
type Record struct {
	ID         string
	Type       string
	Profile    string
	Name       string
	Img        string
	ParentID   string
	SourceFile string
	SourceHash string
	System     *attr.Node
}

func (r *Record) Kind() Kind {
	if r == nil {
		return KindOther
	}
	if kind, ok := kindByType[strings.ToLower(strings.TrimSpace(r.Type))]; ok {
		return kind
	}
	return KindOther
}

// Root exposes the record as a tree rooted above "system", so that full
// attribute paths such as system.details.biography.value resolve against it.
// The system node is shared, not copied; a record without one gets a
// detached empty node and stays unchanged.
func (r *Record) Root() *attr.Node {
	root := attr.NewNode()
	if r == nil || r.System == nil {
		root.Set(SystemKey, attr.NewNode())
		return root
	}
	root.Set(SystemKey, r.System)
	return root
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.System = r.System.Clone()
	return &out
}

type RecordSummary struct {
	ID       string
	Type     string
	Profile  string
	Name     string
	ParentID string
}

type SearchResult struct {
	ID      string
	Name    string
	Type    string
	Profile string
	Score   float64
	Snippet string
}
