package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lorefield/internal/profile"
)

const configTemplate = `project: %s
version: 1

database:
  dsn: %s

profile: %s

semantic:
  enabled: false
  provider: ollama
  endpoint: http://localhost:11434
  model: nomic-embed-text
  min_score: 0.55

log:
  level: info

sources:
  - ./lore/

exclude:
  - ./assets/
`

var schemaTemplates = map[string]string{
	profile.DnD5e: `version: 1
record_types:
  - name: character
    profile: dnd5e
  - name: npc
    profile: dnd5e
  - name: weapon
    profile: dnd5e
    fields:
      - { path: system.description, type: object }
  - name: equipment
    profile: dnd5e
    fields:
      - { path: system.description, type: object }
`,
	profile.PF2e: `version: 1
record_types:
  - name: character
    profile: pf2e
  - name: npc
    profile: pf2e
  - name: equipment
    profile: pf2e
    fields:
      - { path: system.description, type: object }
`,
	"generic": `version: 1
record_types:
  - name: character
  - name: npc
  - name: item
`,
}

func initCmd() *cobra.Command {
	var projectName string
	var profileName string
	var dsn string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new lorefield project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, profileName, dsn)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&profileName, "profile", profile.DnD5e, "Schema profile (dnd5e, pf2e or generic)")
	cmd.Flags().StringVar(&dsn, "dsn", "sqlite://lorefield.db", "Database DSN")
	return cmd
}

func runInit(projectName, profileName, dsn string) error {
	schemaContents, ok := schemaTemplates[profileName]
	if !ok {
		return fmt.Errorf("unknown profile %q", profileName)
	}
	for _, path := range []string{configPath, schemaPath} {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	configContents := fmt.Sprintf(configTemplate, projectName, dsn, profileName)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(schemaPath, []byte(schemaContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", schemaPath, err)
	}
	if err := os.MkdirAll("lore", 0o755); err != nil {
		return fmt.Errorf("creating lore directory: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Initialised %s (%s).\n", projectName, profileName)
	return nil
}
