package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"lorefield/internal/attr"
)

// Document is one markdown source file describing a record and, optionally,
// the records embedded in it.
type Document struct {
	Title      string
	Type       string
	Profile    string
	ID         string
	Img        string
	Tags       []string
	System     *attr.Node
	Items      []Item
	Body       string
	SourceFile string
}

// Item is an embedded record declared in a document's frontmatter.
type Item struct {
	ID          string
	Name        string
	Type        string
	Img         string
	System      *attr.Node
	Description string
}

var (
	ErrNoFrontmatter   = errors.New("no frontmatter found")
	ErrInvalidYAML     = errors.New("invalid YAML in frontmatter")
	ErrMissingTitle    = errors.New("frontmatter missing required 'title' field")
	ErrMissingType     = errors.New("frontmatter missing required 'type' field")
	ErrInvalidSystem   = errors.New("frontmatter 'system' must be a mapping")
	ErrInvalidItem     = errors.New("frontmatter item is invalid")
	ErrMissingItemName = errors.New("frontmatter item missing required 'name' field")
)

type frontmatter struct {
	Title   string            `yaml:"title"`
	Type    string            `yaml:"type"`
	Profile string            `yaml:"profile"`
	ID      string            `yaml:"id"`
	Img     string            `yaml:"img"`
	Tags    any               `yaml:"tags"`
	System  yaml.Node         `yaml:"system"`
	Items   []itemFrontmatter `yaml:"items"`
}

type itemFrontmatter struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Type        string    `yaml:"type"`
	Img         string    `yaml:"img"`
	System      yaml.Node `yaml:"system"`
	Description string    `yaml:"description"`
}

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	trimmed = bytes.ReplaceAll(trimmed, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	yamlBytes, body, ok := splitFrontmatter(rest)
	if !ok {
		return nil, ErrNoFrontmatter
	}

	var fm frontmatter
	if err := yaml.Unmarshal(yamlBytes, &fm); err != nil {
		return nil, ErrInvalidYAML
	}

	if strings.TrimSpace(fm.Title) == "" {
		return nil, ErrMissingTitle
	}
	if strings.TrimSpace(fm.Type) == "" {
		return nil, ErrMissingType
	}

	tags, err := parseTags(fm.Tags)
	if err != nil {
		return nil, err
	}

	system, err := systemTree(&fm.System)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(fm.Items))
	for i, raw := range fm.Items {
		item, err := parseItem(raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}

	return &Document{
		Title:   strings.TrimSpace(fm.Title),
		Type:    strings.TrimSpace(fm.Type),
		Profile: strings.TrimSpace(fm.Profile),
		ID:      strings.TrimSpace(fm.ID),
		Img:     strings.TrimSpace(fm.Img),
		Tags:    tags,
		System:  system,
		Items:   items,
		Body:    body,
	}, nil
}

// splitFrontmatter finds the closing "---" line; a closing marker at the very
// end of the file needs no trailing newline.
func splitFrontmatter(rest []byte) ([]byte, string, bool) {
	if bytes.HasPrefix(rest, []byte("---\n")) {
		return nil, string(rest[len("---\n"):]), true
	}
	if end := bytes.Index(rest, []byte("\n---\n")); end != -1 {
		return rest[:end+1], string(rest[end+len("\n---\n"):]), true
	}
	if bytes.HasSuffix(rest, []byte("\n---")) {
		return rest[:len(rest)-len("---")], "", true
	}
	return nil, "", false
}

func parseItem(raw itemFrontmatter) (Item, error) {
	if strings.TrimSpace(raw.Name) == "" {
		return Item{}, ErrMissingItemName
	}
	if strings.TrimSpace(raw.Type) == "" {
		return Item{}, fmt.Errorf("%w: missing 'type'", ErrInvalidItem)
	}
	system, err := systemTree(&raw.System)
	if err != nil {
		return Item{}, err
	}
	return Item{
		ID:          strings.TrimSpace(raw.ID),
		Name:        strings.TrimSpace(raw.Name),
		Type:        strings.TrimSpace(raw.Type),
		Img:         strings.TrimSpace(raw.Img),
		System:      system,
		Description: raw.Description,
	}, nil
}

func systemTree(n *yaml.Node) (*attr.Node, error) {
	if n.Kind == 0 {
		return attr.NewNode(), nil
	}
	v, err := attr.FromYAML(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSystem, err)
	}
	switch tree := v.(type) {
	case *attr.Node:
		return tree, nil
	case attr.Null:
		return attr.NewNode(), nil
	default:
		return nil, ErrInvalidSystem
	}
}

func parseTags(value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tags must be strings")
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			tags = append(tags, s)
		}
		if len(tags) == 0 {
			return nil, nil
		}
		return tags, nil
	default:
		return nil, fmt.Errorf("tags must be string or list of strings")
	}
}
