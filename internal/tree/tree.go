// Package tree implements the markdown memory tree: a root directory of
// domain subdirectories, each carrying a _index.md manifest of its immediate
// children. All maintenance operations (initialize, write, search, reconcile,
// rebalance) live here and work directly against the local filesystem.
package tree

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lorekeep/lore/internal/event"
	"github.com/lorekeep/lore/internal/telemetry"
)

const (
	// IndexFile is the per-directory manifest filename.
	IndexFile = "_index.md"

	// DefaultThreshold is the non-index file count above which a domain
	// directory is split into topic subdirectories.
	DefaultThreshold = 8

	// MaxDepth is the maximum directory depth from the memory root.
	// Rebalancing never creates directories past this depth.
	MaxDepth = 5

	// MaxResults bounds every search to a ranked top-N.
	MaxResults = 10

	// DateFormat is the date layout used in index rows and entry headers.
	DateFormat = "2006-01-02"
)

// FilesDomain is the domain owned by the file-index reconciler. Writers
// never place entries here; the reconciler never touches anything else.
const FilesDomain = "files"

// Domains is the canonical domain set created by Initialize.
var Domains = []string{
	"decisions",
	"patterns",
	"bugs",
	"preferences",
	"context",
	"sessions",
	"research",
	"plans",
	FilesDomain,
}

// domainDescriptions seeds the root index Description column.
var domainDescriptions = map[string]string{
	"decisions":   "Architectural and technical decisions",
	"patterns":    "Recurring solutions and conventions",
	"bugs":        "Known issues and their fixes",
	"preferences": "User and project preferences",
	"context":     "Background knowledge about the project",
	"sessions":    "Session summaries and handoffs",
	"research":    "Investigation notes and findings",
	"plans":       "Upcoming and in-flight work",
	FilesDomain:   "Project file index",
}

// Tree operates on a memory tree rooted at a single directory.
// The zero value is not usable; construct with New.
type Tree struct {
	Root           string
	Threshold      int     // rebalance trigger, files per domain directory
	MatchThreshold float64 // dedup cutoff, see similarity.go
	MaxResults     int     // search result cap
	Scorer         Scorer  // dedup similarity judgment
	Bus            *event.Bus
	Logger         *telemetry.Logger

	now func() time.Time
}

// New creates a Tree for the given root directory with default thresholds
// and scorer. The root does not need to exist yet; call Initialize first.
func New(root string) *Tree {
	return &Tree{
		Root:           root,
		Threshold:      DefaultThreshold,
		MatchThreshold: MatchThreshold,
		MaxResults:     MaxResults,
		Scorer:         NewTokenScorer(),
		now:            time.Now,
	}
}

// Exists reports whether the tree has been initialized (root index present).
func (t *Tree) Exists() bool {
	_, err := os.Stat(filepath.Join(t.Root, IndexFile))
	return err == nil
}

// DomainPath returns the directory for a domain.
func (t *Tree) DomainPath(domain string) string {
	return filepath.Join(t.Root, domain)
}

// DomainNames returns the domain directories currently present, sorted.
func (t *Tree) DomainNames() ([]string, error) {
	entries, err := os.ReadDir(t.Root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// DomainStat summarizes one domain directory for status reporting.
type DomainStat struct {
	Domain  string `json:"domain"`
	Entries int    `json:"entries"`
	Updated string `json:"updated,omitempty"`
}

// Stats returns per-domain entry counts, recursing into topic
// subdirectories, with the last-touched date from the root index.
func (t *Tree) Stats() ([]DomainStat, error) {
	rootIx, err := LoadIndex(t.Root)
	if err != nil {
		return nil, err
	}

	names, err := t.DomainNames()
	if err != nil {
		return nil, err
	}

	var stats []DomainStat
	for _, name := range names {
		n, err := countEntryFiles(t.DomainPath(name))
		if err != nil {
			return nil, err
		}
		st := DomainStat{Domain: name, Entries: n}
		if row := rootIx.Find(name); row != nil {
			st.Updated = row.Updated
		}
		stats = append(stats, st)
	}
	return stats, nil
}

// countEntryFiles counts non-index regular files under dir, recursively.
func countEntryFiles(dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() != IndexFile {
			n++
		}
		return nil
	})
	return n, err
}

// Audit cross-checks every manifest against the directory it describes.
// Returned strings are human-readable problems: rows pointing at missing
// files, and files or subdirectories missing from their manifest. An empty
// slice means every index is a faithful listing.
func (t *Tree) Audit() ([]string, error) {
	var problems []string

	err := filepath.WalkDir(t.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		rel, _ := filepath.Rel(t.Root, path)
		ix, err := LoadIndex(path)
		if err != nil {
			problems = append(problems, rel+": missing or unreadable "+IndexFile)
			return nil
		}

		onDisk := map[string]bool{}
		children, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		for _, c := range children {
			name := c.Name()
			if name == IndexFile {
				continue
			}
			if c.IsDir() {
				onDisk[name+"/"] = true
			} else if rel != "." {
				// root-level loose files (e.g. the agent guide) are
				// not index material
				onDisk[name] = true
			}
		}

		for _, row := range ix.Rows {
			key := row.Name
			if rel == "." {
				key = strings.TrimSuffix(key, "/") + "/"
			}
			if !onDisk[key] {
				problems = append(problems, filepath.Join(rel, row.Name)+": listed in index but absent on disk")
			}
			delete(onDisk, key)
		}
		var unlisted []string
		for name := range onDisk {
			unlisted = append(unlisted, name)
		}
		sort.Strings(unlisted)
		for _, name := range unlisted {
			problems = append(problems, filepath.Join(rel, name)+": on disk but not listed in "+IndexFile)
		}
		return nil
	})

	return problems, err
}

// depthOf returns how many levels below the memory root a path sits.
// The root itself is depth 0, a domain directory is depth 1.
func (t *Tree) depthOf(path string) int {
	rel, err := filepath.Rel(t.Root, path)
	if err != nil || rel == "." {
		return 0
	}
	return len(strings.Split(filepath.ToSlash(rel), "/"))
}

// today returns the current date in index/entry format.
func (t *Tree) today() string {
	return t.now().Format(DateFormat)
}

// emit dispatches a lifecycle event if a bus is attached.
func (t *Tree) emit(typ event.EventType, data map[string]interface{}) {
	if t.Bus == nil {
		return
	}
	_ = t.Bus.Emit(event.NewEvent(typ, data))
}

// logDebug and logWarn are nil-safe logging helpers.
func (t *Tree) logDebug(msg string, keyvals ...interface{}) {
	if t.Logger != nil {
		t.Logger.Debug(msg, keyvals...)
	}
}

func (t *Tree) logWarn(msg string, keyvals ...interface{}) {
	if t.Logger != nil {
		t.Logger.Warn(msg, keyvals...)
	}
}

// countLeafFiles counts non-index regular files directly inside dir.
func countLeafFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && e.Name() != IndexFile {
			n++
		}
	}
	return n, nil
}
