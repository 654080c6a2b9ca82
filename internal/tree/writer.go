package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lorekeep/lore/internal/errors"
	"github.com/lorekeep/lore/internal/event"
)

// Item is a proposed memory unit supplied by an extraction process.
type Item struct {
	Domain     string   `json:"domain" yaml:"domain"`
	Title      string   `json:"title" yaml:"title"`
	Content    string   `json:"content" yaml:"content"`
	Summary    string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Tags       []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Confidence string   `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Related    []string `json:"related,omitempty" yaml:"related,omitempty"`
}

// Write actions reported per item.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
)

// ItemResult records the outcome for one item.
type ItemResult struct {
	Domain string  `json:"domain"`
	Title  string  `json:"title"`
	Action string  `json:"action"`
	Path   string  `json:"path"`
	Score  float64 `json:"score,omitempty"` // dedup score against the matched entry
}

// WriteReport is the explicit per-item outcome of a WriteEntries call.
// Silence is never a terminal state: every item appears here.
type WriteReport struct {
	Results    []ItemResult       `json:"results"`
	Indexes    []string           `json:"indexes"` // index files touched, tree-relative
	Rebalanced []*RebalanceReport `json:"rebalanced,omitempty"`
	Repaired   []string           `json:"repaired,omitempty"` // paths fixed by verification
}

// Created and Updated count results by action.
func (r *WriteReport) Created() int { return r.countAction(ActionCreate) }
func (r *WriteReport) Updated() int { return r.countAction(ActionUpdate) }

func (r *WriteReport) countAction(action string) int {
	n := 0
	for _, res := range r.Results {
		if res.Action == action {
			n++
		}
	}
	return n
}

// candidate is an existing entry considered during the dedup check.
type candidate struct {
	dir   string // directory containing the entry
	name  string // filename
	entry *Entry
}

// WriteEntries processes items sequentially: dedup check, create or update,
// index chain maintenance, post-write verification, then one rebalance pass
// per touched domain. Entries are never deleted; a failed index half is
// repaired by the verification pass rather than rolled back.
func (t *Tree) WriteEntries(items []Item) (*WriteReport, error) {
	if !t.Exists() {
		return nil, errors.New(errors.CodeTreeNotFound, "memory tree not initialized at "+t.Root).
			WithSuggestion("run 'lore init' first")
	}

	report := &WriteReport{}
	touchedDomains := make(map[string]bool)
	touchedIndexes := make(map[string]bool)

	for _, item := range items {
		res, dirs, err := t.writeOne(item)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, *res)
		touchedDomains[item.Domain] = true
		for _, d := range dirs {
			touchedIndexes[d] = true
		}
	}

	// Root index rows for every touched domain get today's date.
	if len(touchedDomains) > 0 {
		rootIx, err := LoadIndex(t.Root)
		if err != nil {
			return report, err
		}
		for domain := range touchedDomains {
			rootIx.Touch(domain, domainDescriptions[domain], t.today())
		}
		if err := SaveIndex(t.Root, rootIx, t.today()); err != nil {
			return report, err
		}
		touchedIndexes[t.Root] = true
		t.emit(event.IndexUpdated, map[string]interface{}{"path": t.Root})
	}

	for dir := range touchedIndexes {
		rel, err := filepath.Rel(t.Root, filepath.Join(dir, IndexFile))
		if err != nil {
			rel = filepath.Join(dir, IndexFile)
		}
		report.Indexes = append(report.Indexes, rel)
	}

	// Verification: every written entry must be listed by its index.
	for i := range report.Results {
		repaired, err := t.verifyWritten(&report.Results[i])
		if err != nil {
			return report, err
		}
		report.Repaired = append(report.Repaired, repaired...)
	}

	// Rebalance once per touched domain, after all items landed.
	for domain := range touchedDomains {
		rb, err := t.RebalanceIfNeeded(t.DomainPath(domain))
		if err != nil {
			return report, err
		}
		if rb != nil {
			report.Rebalanced = append(report.Rebalanced, rb)
		}
	}

	return report, nil
}

// writeOne handles the dedup check and the CREATE/UPDATE branch for a single
// item. Returns the result and the directories whose indexes were rewritten.
func (t *Tree) writeOne(item Item) (*ItemResult, []string, error) {
	domainDir := t.DomainPath(item.Domain)
	if st, err := os.Stat(domainDir); err != nil || !st.IsDir() {
		return nil, nil, errors.New(errors.CodeDomainUnknown, "unknown domain: "+item.Domain).
			WithSuggestion("one of: " + strings.Join(Domains, ", "))
	}
	if item.Domain == FilesDomain {
		return nil, nil, errors.New(errors.CodeDomainUnknown, "the files domain is owned by the reconciler")
	}

	match, score, err := t.findMatch(domainDir, item)
	if err != nil {
		return nil, nil, err
	}

	if match != nil {
		return t.updateEntry(item, match, score)
	}
	return t.createEntry(item, domainDir)
}

// findMatch runs the dedup check over the domain's entries and, one level
// down, its topic subdirectories. Returns the best candidate at or above
// MatchThreshold. Borderline scores are logged and treated as CREATE —
// unrelated topics are never silently merged.
func (t *Tree) findMatch(domainDir string, item Item) (*candidate, float64, error) {
	candidates, err := t.collectCandidates(domainDir)
	if err != nil {
		return nil, 0, err
	}

	var best *candidate
	bestScore := 0.0
	for i := range candidates {
		c := &candidates[i]
		s := t.Scorer.Score(item.Title, item.Tags, c.entry.Title, c.entry.Tags)
		if s > bestScore {
			best = c
			bestScore = s
		}
	}

	if best == nil || bestScore < t.MatchThreshold {
		if best != nil && bestScore >= t.MatchThreshold-ambiguousBand {
			t.logWarn("ambiguous dedup score, creating new entry",
				"title", item.Title, "against", best.entry.Title, "score", bestScore)
		}
		return nil, 0, nil
	}
	return best, bestScore, nil
}

// collectCandidates parses every entry directly in dir plus entries in its
// immediate subdirectories (created by rebalancing — never deeper).
func (t *Tree) collectCandidates(dir string) ([]candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.CodeIOFailed, "read domain "+dir, err)
	}

	var out []candidate
	for _, e := range entries {
		if e.IsDir() {
			subs, err := os.ReadDir(filepath.Join(dir, e.Name()))
			if err != nil {
				continue
			}
			for _, s := range subs {
				if s.IsDir() || s.Name() == IndexFile {
					continue
				}
				if c, ok := t.loadCandidate(filepath.Join(dir, e.Name()), s.Name()); ok {
					out = append(out, c)
				}
			}
			continue
		}
		if e.Name() == IndexFile {
			continue
		}
		if c, ok := t.loadCandidate(dir, e.Name()); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (t *Tree) loadCandidate(dir, name string) (candidate, bool) {
	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return candidate{}, false
	}
	entry, err := ParseEntry(string(content))
	if err != nil {
		t.logWarn("skipping malformed entry during dedup", "path", filepath.Join(dir, name), "error", err)
		return candidate{}, false
	}
	return candidate{dir: dir, name: name, entry: entry}, true
}

// createEntry writes a new entry file and inserts its index row.
func (t *Tree) createEntry(item Item, domainDir string) (*ItemResult, []string, error) {
	name := Slugify(item.Title) + ".md"
	path := filepath.Join(domainDir, name)

	// A slug collision with an unmatched entry is treated as an update of
	// that entry: creating over it would destroy content.
	if _, err := os.Stat(path); err == nil {
		if c, ok := t.loadCandidate(domainDir, name); ok {
			return t.updateEntry(item, &c, 1.0)
		}
	}

	summary := item.Summary
	if summary == "" {
		summary = firstLine(item.Content)
	}
	entry := NewEntry(item.Title, summary, item.Content, item.Tags, item.Confidence, t.today())
	entry.Related = item.Related

	if err := os.WriteFile(path, []byte(entry.Render()), 0644); err != nil {
		return nil, nil, errors.Wrap(errors.CodeIOFailed, "write entry "+path, err)
	}

	ix, err := LoadIndex(domainDir)
	if err != nil {
		return nil, nil, err
	}
	ix.Upsert(IndexRow{Name: name, Summary: summary, Updated: t.today()})
	if err := SaveIndex(domainDir, ix, t.today()); err != nil {
		return nil, nil, err
	}

	t.emit(event.EntryCreated, map[string]interface{}{"path": path, "domain": item.Domain})
	t.logDebug("entry created", "path", path)

	return &ItemResult{
		Domain: item.Domain,
		Title:  item.Title,
		Action: ActionCreate,
		Path:   path,
	}, []string{domainDir}, nil
}

// updateEntry appends to an existing entry, unions tags, and bumps dates on
// every index between the entry and the domain directory.
func (t *Tree) updateEntry(item Item, match *candidate, score float64) (*ItemResult, []string, error) {
	path := filepath.Join(match.dir, match.name)

	entry := match.entry
	entry.AppendDetail(t.today(), item.Content)
	entry.UnionTags(item.Tags)
	entry.Updated = t.today()
	entry.Related = unionStrings(entry.Related, item.Related)

	if err := os.WriteFile(path, []byte(entry.Render()), 0644); err != nil {
		return nil, nil, errors.Wrap(errors.CodeIOFailed, "update entry "+path, err)
	}

	// Index chain: the entry's own directory, then each parent up to the
	// domain. The root index is handled once per batch by WriteEntries.
	dirs := []string{match.dir}
	domainDir := t.DomainPath(item.Domain)

	ix, err := LoadIndex(match.dir)
	if err != nil {
		return nil, nil, err
	}
	ix.Touch(match.name, firstLine(entry.Summary), t.today())
	if err := SaveIndex(match.dir, ix, t.today()); err != nil {
		return nil, nil, err
	}

	if match.dir != domainDir {
		parentIx, err := LoadIndex(domainDir)
		if err != nil {
			return nil, nil, err
		}
		parentIx.Touch(filepath.Base(match.dir)+"/", "", t.today())
		if err := SaveIndex(domainDir, parentIx, t.today()); err != nil {
			return nil, nil, err
		}
		dirs = append(dirs, domainDir)
	}

	t.emit(event.EntryUpdated, map[string]interface{}{"path": path, "domain": item.Domain, "score": score})
	t.logDebug("entry updated", "path", path, "score", score)

	return &ItemResult{
		Domain: item.Domain,
		Title:  item.Title,
		Action: ActionUpdate,
		Path:   path,
		Score:  score,
	}, dirs, nil
}

// verifyWritten re-reads the index owning a written entry and confirms the
// entry is listed and the file exists. A missing half is re-applied, then
// re-checked; a second failure is fatal.
func (t *Tree) verifyWritten(res *ItemResult) ([]string, error) {
	var repaired []string
	for attempt := 0; attempt < 2; attempt++ {
		ok, fixed, err := t.checkAndRepair(res)
		if err != nil {
			return repaired, err
		}
		repaired = append(repaired, fixed...)
		if ok {
			return repaired, nil
		}
	}
	return repaired, errors.New(errors.CodeVerifyFailed,
		fmt.Sprintf("entry %s still inconsistent after repair", res.Path))
}

func (t *Tree) checkAndRepair(res *ItemResult) (bool, []string, error) {
	dir := filepath.Dir(res.Path)
	name := filepath.Base(res.Path)

	if _, err := os.Stat(res.Path); err != nil {
		// Entry file missing but index row may exist: the entry content is
		// gone, so the only safe repair is to drop the orphan row.
		ix, ixErr := LoadIndex(dir)
		if ixErr != nil {
			return false, nil, ixErr
		}
		if ix.Remove(name) {
			if err := SaveIndex(dir, ix, t.today()); err != nil {
				return false, nil, err
			}
		}
		return false, nil, errors.Wrap(errors.CodeVerifyFailed, "entry file missing after write: "+res.Path, err)
	}

	ix, err := LoadIndex(dir)
	if err != nil {
		return false, nil, err
	}
	if ix.Find(name) != nil {
		return true, nil, nil
	}

	// Index half missing: re-apply the row from the entry on disk.
	content, err := os.ReadFile(res.Path)
	if err != nil {
		return false, nil, errors.Wrap(errors.CodeIOFailed, "re-read entry "+res.Path, err)
	}
	entry, err := ParseEntry(string(content))
	if err != nil {
		return false, nil, err
	}
	ix.Upsert(IndexRow{Name: name, Summary: firstLine(entry.Summary), Updated: entry.Updated})
	if err := SaveIndex(dir, ix, t.today()); err != nil {
		return false, nil, err
	}

	t.emit(event.VerifyRepaired, map[string]interface{}{"path": res.Path})
	t.logWarn("index row repaired by verification", "path", res.Path)
	return false, []string{res.Path}, nil
}

// Archive marks the entry with the given title in a domain as superseded.
// Nothing is removed; the status field and index row are annotated.
func (t *Tree) Archive(domain, title string) (string, error) {
	domainDir := t.DomainPath(domain)
	name := Slugify(title) + ".md"

	dir := domainDir
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		// Look one level down into topic subdirectories.
		found := false
		entries, dirErr := os.ReadDir(domainDir)
		if dirErr != nil {
			return "", errors.Wrap(errors.CodeIOFailed, "read domain "+domain, dirErr)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			p := filepath.Join(domainDir, e.Name(), name)
			if _, statErr := os.Stat(p); statErr == nil {
				dir, path, found = filepath.Join(domainDir, e.Name()), p, true
				break
			}
		}
		if !found {
			return "", errors.New(errors.CodeEntryMalformed, "no entry for title: "+title)
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(errors.CodeIOFailed, "read entry "+path, err)
	}
	entry, err := ParseEntry(string(content))
	if err != nil {
		return "", err
	}

	entry.Status = StatusArchived
	entry.Updated = t.today()
	if err := os.WriteFile(path, []byte(entry.Render()), 0644); err != nil {
		return "", errors.Wrap(errors.CodeIOFailed, "archive entry "+path, err)
	}

	ix, err := LoadIndex(dir)
	if err != nil {
		return "", err
	}
	if row := ix.Find(name); row != nil {
		if !strings.HasSuffix(row.Summary, "(archived)") {
			row.Summary = strings.TrimSpace(row.Summary + " (archived)")
		}
		row.Updated = t.today()
	}
	if err := SaveIndex(dir, ix, t.today()); err != nil {
		return "", err
	}

	t.emit(event.EntryArchived, map[string]interface{}{"path": path, "domain": domain})
	return path, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if s != "" && !seen[s] {
			a = append(a, s)
			seen[s] = true
		}
	}
	return a
}
