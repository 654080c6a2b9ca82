package tree

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/lorekeep/lore/internal/errors"
	"github.com/lorekeep/lore/internal/event"
)

// Reconcile outcomes.
type Outcome string

const (
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

// DefaultExcludes are path segments and suffixes skipped during the project
// walk: VCS internals, dependency caches, build output, OS metadata, the
// tool's own working directory, and compiled artifacts. The memory tree
// itself is always excluded.
var DefaultExcludes = []string{
	".git", ".hg", ".svn",
	".lore",
	"node_modules", "vendor", "__pycache__", ".venv",
	"dist", "build", "target", "out", ".next",
	".idea", ".vscode",
	".DS_Store", "Thumbs.db",
	"*.exe", "*.dll", "*.so", "*.dylib", "*.a", "*.o",
	"*.pyc", "*.class", "*.jar",
}

// fileRowPattern matches a file-index row, with or without a description:
//
//	- `auth.ts`
//	- `auth.ts` - Login handler
var fileRowPattern = regexp.MustCompile("^- `([^`]+)`(?: - (.*))?$")

// Reconcile regenerates the files-domain index from a walk of projectRoot,
// preserving every hand-authored description whose file still exists.
// The on-disk index is replaced only if something other than the timestamp
// changed, so repeated runs on an unchanged project are write-free.
//
// Only the files domain is touched, which makes this safe to run while a
// writer operates on other domains.
//
// Caller-supplied excludes extend DefaultExcludes, they never replace them.
func (t *Tree) Reconcile(projectRoot string, excludes []string) (Outcome, error) {
	merged := make([]string, 0, len(DefaultExcludes)+len(excludes))
	merged = append(merged, DefaultExcludes...)
	merged = append(merged, excludes...)
	excludes = merged

	paths, err := t.enumerate(projectRoot, excludes)
	if err != nil {
		return OutcomeUnchanged, err
	}
	sort.Strings(paths)

	filesDir := t.DomainPath(FilesDomain)
	indexFile := filepath.Join(filesDir, IndexFile)

	descriptions := map[string]string{}
	old, readErr := os.ReadFile(indexFile)
	if readErr == nil {
		descriptions = extractDescriptions(string(old))
	}

	content := t.renderFileIndex(paths, descriptions)

	if readErr == nil && stripTimestamp(string(old)) == stripTimestamp(content) {
		t.emit(event.ReconcileUnchanged, map[string]interface{}{"files": len(paths)})
		return OutcomeUnchanged, nil
	}

	if err := os.MkdirAll(filesDir, 0755); err != nil {
		return OutcomeUnchanged, errors.Wrap(errors.CodeIOFailed, "create files domain", err)
	}
	if err := os.WriteFile(indexFile, []byte(content), 0644); err != nil {
		return OutcomeUnchanged, errors.Wrap(errors.CodeIOFailed, "write file index", err)
	}

	t.emit(event.ReconcileUpdated, map[string]interface{}{"files": len(paths)})
	t.logDebug("file index reconciled", "files", len(paths))
	return OutcomeUpdated, nil
}

// ReconcileAsync dispatches Reconcile as a background task. Errors are
// logged, never returned; the caller is not blocked. The returned channel
// closes when the pass finishes, for callers that exit soon after.
func (t *Tree) ReconcileAsync(ctx context.Context, projectRoot string, excludes []string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if ctx.Err() != nil {
			return
		}
		if _, err := t.Reconcile(projectRoot, excludes); err != nil {
			t.logWarn("background reconcile failed", "error", err)
		}
	}()
	return done
}

// enumerate walks projectRoot collecting relative file paths, pruning
// excluded directories and skipping excluded files.
func (t *Tree) enumerate(projectRoot string, excludes []string) ([]string, error) {
	absRoot, err := filepath.Abs(t.Root)
	if err != nil {
		absRoot = t.Root
	}

	var paths []string
	walkErr := filepath.WalkDir(projectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		abs, absErr := filepath.Abs(path)
		if absErr == nil && abs == absRoot {
			return filepath.SkipDir
		}
		if d.IsDir() {
			if path != projectRoot && excluded(d.Name(), excludes) {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded(d.Name(), excludes) {
			return nil
		}
		rel, relErr := filepath.Rel(projectRoot, path)
		if relErr != nil {
			return relErr
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrap(errors.CodeIOFailed, "walk "+projectRoot, walkErr)
	}
	return paths, nil
}

func excluded(name string, excludes []string) bool {
	for _, pattern := range excludes {
		if strings.ContainsRune(pattern, '*') {
			if ok, _ := filepath.Match(pattern, name); ok {
				return true
			}
			continue
		}
		if name == pattern {
			return true
		}
	}
	return false
}

// renderFileIndex emits one group heading per directory change, in
// path-sorted order, attaching preserved descriptions by basename.
// If two files share a basename, the one description applies to all of
// them — a documented limitation of basename keying.
func (t *Tree) renderFileIndex(paths []string, descriptions map[string]string) string {
	var b strings.Builder
	b.WriteString("# File Index\n")
	fmt.Fprintf(&b, "**Last Updated:** %s\n", t.today())

	currentDir := "\x00"
	for _, p := range paths {
		dir := filepath.ToSlash(filepath.Dir(p))
		if dir != currentDir {
			fmt.Fprintf(&b, "\n## %s/\n", dir)
			currentDir = dir
		}
		base := filepath.Base(p)
		if desc, ok := descriptions[base]; ok {
			fmt.Fprintf(&b, "- `%s` - %s\n", base, desc)
		} else {
			fmt.Fprintf(&b, "- `%s`\n", base)
		}
	}
	return b.String()
}

// extractDescriptions pulls basename -> hand-authored description pairs out
// of a previous index. Only rows that carry text past the filename are kept;
// on duplicate basenames the first description wins.
func extractDescriptions(content string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		m := fileRowPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil || m[2] == "" {
			continue
		}
		if _, ok := out[m[1]]; !ok {
			out[m[1]] = m[2]
		}
	}
	return out
}

// stripTimestamp removes the Last Updated header line so a pure date
// refresh never counts as a change.
func stripTimestamp(content string) string {
	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "**Last Updated:**") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
