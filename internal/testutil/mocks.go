package testutil

import (
	"path/filepath"
	"testing"

	"github.com/lorekeep/lore/internal/config"
	"github.com/lorekeep/lore/internal/telemetry"
	"github.com/lorekeep/lore/internal/tree"
)

// TestTree returns an initialized memory tree rooted in a temp dir.
func TestTree(t *testing.T) *tree.Tree {
	t.Helper()

	tr := tree.New(filepath.Join(t.TempDir(), "memory"))
	if _, err := tr.Initialize(); err != nil {
		t.Fatal(err)
	}
	return tr
}

// FixedScorer returns the same similarity score for every comparison.
// Useful for forcing the dedup branch under test.
type FixedScorer struct {
	Value float64
}

func (s *FixedScorer) Score(title string, tags []string, otherTitle string, otherTags []string) float64 {
	return s.Value
}

// TestLogger returns a logger suitable for tests (verbose, no file output).
func TestLogger() *telemetry.Logger {
	return telemetry.NewLogger(true)
}

// TestConfig returns a minimal config for testing.
func TestConfig() *config.Config {
	cfg := config.Default()
	cfg.Name = "test-project"
	cfg.Logging.Level = "debug"
	cfg.State.Driver = "memory"
	cfg.State.Path = ""
	return cfg
}
