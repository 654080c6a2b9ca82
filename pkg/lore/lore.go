// Package lore provides a public API for the lore memory tree.
//
// Example usage:
//
//	import "github.com/lorekeep/lore/pkg/lore"
//
//	// Record a decision
//	report, err := lore.Write([]lore.Item{{
//		Domain:  "decisions",
//		Title:   "Use PostgreSQL for persistence",
//		Content: "Chosen over MySQL for JSONB support.",
//	}})
//
//	// Recall it later
//	result, err := lore.Search("postgres persistence")
package lore

import (
	"fmt"

	"github.com/lorekeep/lore/internal/config"
	"github.com/lorekeep/lore/internal/tree"
)

// Item is a proposed memory unit.
type Item = tree.Item

// WriteReport describes the per-item outcome of a Write call.
type WriteReport = tree.WriteReport

// SearchResult is a ranked set of matching entries.
type SearchResult = tree.SearchResult

// Open loads the project configuration from the current directory and
// returns a Tree bound to its memory root. Most callers can use the
// package-level helpers instead.
func Open() (*tree.Tree, error) {
	t, _, err := open()
	return t, err
}

func open() (*tree.Tree, *config.Config, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	t := tree.New(cfg.Memory.Root)
	t.Threshold = cfg.Memory.RebalanceThreshold
	t.MatchThreshold = cfg.Memory.MatchThreshold
	t.MaxResults = cfg.Memory.MaxResults
	return t, cfg, nil
}

// Init creates or heals the memory tree. Idempotent.
func Init() error {
	t, err := Open()
	if err != nil {
		return err
	}
	_, err = t.Initialize()
	return err
}

// Write records items into the memory tree, deduplicating against
// existing entries and maintaining every affected index.
func Write(items []Item) (*WriteReport, error) {
	t, err := Open()
	if err != nil {
		return nil, err
	}
	return t.WriteEntries(items)
}

// Search runs a ranked lookup over the memory tree.
func Search(query string) (*SearchResult, error) {
	t, err := Open()
	if err != nil {
		return nil, err
	}
	return t.Search(query)
}

// Reconcile brings the file-index domain in line with the project's
// current source files, preserving human-written descriptions.
func Reconcile() error {
	t, cfg, err := open()
	if err != nil {
		return err
	}
	_, err = t.Reconcile(".", cfg.Memory.ExcludePatterns)
	return err
}

// Archive marks the entry with the given title as superseded. Nothing is
// deleted; the entry stays searchable.
func Archive(domain, title string) (string, error) {
	t, err := Open()
	if err != nil {
		return "", err
	}
	return t.Archive(domain, title)
}

// Status returns per-domain entry counts.
func Status() ([]tree.DomainStat, error) {
	t, err := Open()
	if err != nil {
		return nil, err
	}
	return t.Stats()
}
