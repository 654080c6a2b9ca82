package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lorekeep/lore/internal/config"
	"github.com/lorekeep/lore/internal/tree"
	"github.com/spf13/cobra"
)

var initRoot string

var initCmd = &cobra.Command{
	Use:   "init [project-dir]",
	Short: "Initialize the memory tree for a project",
	Long: `Initialize the memory tree and project scaffolding.

Creates the domain directories with their _index.md manifests, a lore.yaml
configuration, a .gitignore for the working directory, and an agent-facing
usage guide inside the tree. Safe to run repeatedly: an existing tree is
healed, never overwritten, and a second run on a healthy tree changes
nothing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initRoot, "root", "", "memory tree root (default from lore.yaml, or 'memory')")
}

func runInit(cmd *cobra.Command, args []string) error {
	projectDir := "."
	if len(args) > 0 {
		projectDir = args[0]
		if err := os.MkdirAll(projectDir, 0755); err != nil {
			return fmt.Errorf("failed to create project directory: %w", err)
		}
	}

	cfg, err := config.Load(projectDir)
	if err != nil {
		return err
	}
	if initRoot != "" {
		cfg.Memory.Root = initRoot
	}

	// Write lore.yaml only when absent; init never clobbers configuration.
	cfgPath := filepath.Join(projectDir, config.ConfigFile)
	wroteConfig := false
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := os.WriteFile(cfgPath, []byte(configTemplate(cfg.Memory.Root)), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", config.ConfigFile, err)
		}
		wroteConfig = true
	}

	if err := ensureGitignore(projectDir); err != nil {
		return err
	}

	for _, dir := range []string{loreDir("logs"), loreDir("sessions")} {
		if err := os.MkdirAll(filepath.Join(projectDir, dir), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	t := tree.New(filepath.Join(projectDir, cfg.Memory.Root))
	report, err := t.Initialize()
	if err != nil {
		return err
	}

	if err := writeAgentGuide(t.Root); err != nil {
		return err
	}

	switch {
	case report.Created:
		fmt.Printf("Initialized memory tree at %s\n", t.Root)
	case report.Changed():
		fmt.Printf("Healed memory tree at %s (%d domains, %d indexes restored)\n",
			t.Root, len(report.DomainsCreated), len(report.IndexesCreated))
	default:
		fmt.Printf("Memory tree at %s already initialized\n", t.Root)
	}
	if wroteConfig {
		fmt.Printf("Wrote %s\n", cfgPath)
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Record an insight:  lore write -d decisions -t \"Use PostgreSQL\" -c \"...\"")
	fmt.Println("  2. Search before work: lore search <topic>")
	fmt.Println("  3. Keep the file index fresh: lore reconcile")

	return nil
}

func configTemplate(root string) string {
	return fmt.Sprintf(`# lore.yaml - Project memory configuration
name: my-project
version: "1.0"

# Memory tree
memory:
  root: %s
  rebalance_threshold: 8   # files per directory before a topic split
  match_threshold: 0.5     # dedup similarity cutoff
  max_results: 10          # search result cap
  # exclude_patterns:      # extra reconcile excludes (glob or literal)
  #   - "*.generated.go"

# Logging
logging:
  level: info
  format: text  # text | json
  # file: .lore/logs/lore.log

# Session journal
state:
  driver: sqlite
  path: .lore/state.db

# Metrics (JSONL snapshots)
metrics:
  enabled: false
  path: .lore/metrics.jsonl
`, root)
}

func ensureGitignore(projectDir string) error {
	path := filepath.Join(projectDir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	content := `# lore
.lore/logs/
.lore/sessions/
.lore/state.db
.lore/state.db-*
.lore/metrics.jsonl

# Secrets
*.env
.env.*

# OS
.DS_Store
Thumbs.db
`
	return os.WriteFile(path, []byte(content), 0644)
}

// writeAgentGuide drops a usage guide at the tree root for coding agents.
// Rewritten on every init so guide improvements reach existing trees.
func writeAgentGuide(root string) error {
	content := `# Memory Tree Guide

This directory is the project's durable memory. Each subdirectory is a
domain; every directory carries a ` + "`_index.md`" + ` listing its children.

Rules:
- Search before starting work: ` + "`lore search <topic>`" + `.
- Record insights as you find them: ` + "`lore write -d <domain> -t <title> -c <content>`" + `.
- Never edit ` + "`_index.md`" + ` files by hand; lore maintains them.
- Entries are never deleted. Supersede with ` + "`lore archive`" + `.
- The ` + "`files/`" + ` domain is generated by ` + "`lore reconcile`" + `; edit only
  the description text after a file's dash, which reconcile preserves.

Domains:
- decisions    - architectural and technical decisions
- patterns     - recurring solutions and conventions
- bugs         - known issues and their fixes
- preferences  - user and project preferences
- context      - background knowledge about the project
- sessions     - session summaries and handoffs
- research     - investigation notes and findings
- plans        - upcoming and in-flight work
- files        - generated project file index
`
	return os.WriteFile(filepath.Join(root, "AGENTS.md"), []byte(content), 0644)
}
