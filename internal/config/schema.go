package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Schema declares which attribute paths a record type accepts. Stores use it
// to drop undeclared patch leaves, the way a host data model strips unknown
// fields. Record types without declared fields accept every path.
type Schema struct {
	Version     int          `yaml:"version"`
	RecordTypes []RecordType `yaml:"record_types"`

	indexOnce sync.Once
	typeIndex map[string]*RecordType
}

type RecordType struct {
	Name    string  `yaml:"name"`
	Profile string  `yaml:"profile"`
	Fields  []Field `yaml:"fields"`
}

type Field struct {
	Path string `yaml:"path"`
	Type string `yaml:"type"`
}

var fieldTypes = map[string]struct{}{
	"":       {},
	"string": {},
	"html":   {},
	"number": {},
	"bool":   {},
	"object": {},
}

func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	if err := validateSchema(&schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	schema.indexOnce.Do(schema.index)
	return &schema, nil
}

func (s *Schema) index() {
	s.typeIndex = make(map[string]*RecordType)
	for i := range s.RecordTypes {
		rt := &s.RecordTypes[i]
		s.typeIndex[strings.ToLower(rt.Name)] = rt
	}
}

func validateSchema(s *Schema) error {
	if s.Version != 1 {
		return fmt.Errorf("unsupported version: %d", s.Version)
	}
	if len(s.RecordTypes) == 0 {
		return fmt.Errorf("at least one record type is required")
	}

	typeNames := make(map[string]struct{})
	for i, rt := range s.RecordTypes {
		if strings.TrimSpace(rt.Name) == "" {
			return fmt.Errorf("record type %d name is required", i)
		}
		key := strings.ToLower(rt.Name)
		if _, exists := typeNames[key]; exists {
			return fmt.Errorf("duplicate record type name: %s", rt.Name)
		}
		typeNames[key] = struct{}{}

		paths := make(map[string]struct{})
		for _, field := range rt.Fields {
			path := strings.TrimSpace(field.Path)
			if path == "" {
				return fmt.Errorf("record type %s has field with empty path", rt.Name)
			}
			if !strings.HasPrefix(path, "system.") {
				return fmt.Errorf("record type %s field %s must start with system.", rt.Name, field.Path)
			}
			if _, exists := paths[path]; exists {
				return fmt.Errorf("record type %s has duplicate field: %s", rt.Name, field.Path)
			}
			paths[path] = struct{}{}
			if _, ok := fieldTypes[strings.ToLower(field.Type)]; !ok {
				return fmt.Errorf("record type %s field %s has unknown type: %s", rt.Name, field.Path, field.Type)
			}
		}
	}

	return nil
}

func (s *Schema) RecordTypeByName(name string) (*RecordType, bool) {
	if s == nil {
		return nil, false
	}
	// Schemas built as literals are indexed on first use, possibly from
	// several goroutines at once.
	s.indexOnce.Do(s.index)
	rt, ok := s.typeIndex[strings.ToLower(name)]
	return rt, ok
}

func (s *Schema) IsValidRecordType(name string) bool {
	_, ok := s.RecordTypeByName(name)
	return ok
}

// AllowsPath reports whether a patch leaf at path survives for recordType.
// A declared "object" field admits everything below it.
func (s *Schema) AllowsPath(recordType, path string) bool {
	if !strings.HasPrefix(path, "system.") {
		return true
	}
	rt, ok := s.RecordTypeByName(recordType)
	if !ok || len(rt.Fields) == 0 {
		return true
	}
	for _, field := range rt.Fields {
		if field.Path == path {
			return true
		}
		if strings.EqualFold(field.Type, "object") && strings.HasPrefix(path, field.Path+".") {
			return true
		}
	}
	return false
}
