package tree

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lorekeep/lore/internal/errors"
)

// Match is one ranked search hit.
type Match struct {
	Path       string `json:"path"`
	Domain     string `json:"domain"`
	Title      string `json:"title"`
	Summary    string `json:"summary,omitempty"`
	Updated    string `json:"updated,omitempty"`
	Confidence string `json:"confidence,omitempty"`
	Pass       string `json:"pass"` // index | filename | tag | content
}

// SearchResult is the explicit outcome of a search. A zero-hit search sets
// NoMatches so callers can tell "found nothing" apart from a failed search.
type SearchResult struct {
	Query     string  `json:"query"`
	Matches   []Match `json:"matches"`
	NoMatches bool    `json:"no_matches"`
}

// Search runs four passes in strict priority order, cheapest first, and
// stops as soon as MaxResults are gathered:
//
//  1. index scan — every domain manifest's summaries and names
//  2. filename substring match
//  3. Tags: header line match
//  4. full-text scan of entry bodies
//
// Read-only: the tree is never mutated. Results prefer recent updates, then
// higher confidence, then query/domain affinity.
func (t *Tree) Search(query string) (*SearchResult, error) {
	if !t.Exists() {
		return nil, errors.New(errors.CodeTreeNotFound, "memory tree not initialized at "+t.Root).
			WithSuggestion("run 'lore init' first")
	}

	result := &SearchResult{Query: query}
	tokens := queryTokens(query)
	if len(tokens) == 0 {
		result.NoMatches = true
		return result, nil
	}

	seen := make(map[string]bool)
	add := func(m Match) {
		if !seen[m.Path] {
			seen[m.Path] = true
			result.Matches = append(result.Matches, m)
		}
	}

	passes := []func([]string, func(Match)) error{
		t.scanIndexes,
		t.scanFilenames,
		t.scanTagLines,
		t.scanFullText,
	}
	for _, pass := range passes {
		if err := pass(tokens, add); err != nil {
			return nil, err
		}
		if len(result.Matches) >= t.MaxResults {
			break
		}
	}

	t.rank(result.Matches, tokens)
	if len(result.Matches) > t.MaxResults {
		result.Matches = result.Matches[:t.MaxResults]
	}
	result.NoMatches = len(result.Matches) == 0
	return result, nil
}

// scanIndexes walks domain manifests (and one level of topic manifests)
// matching tokens against row names and summaries.
func (t *Tree) scanIndexes(tokens []string, add func(Match)) error {
	domains, err := t.DomainNames()
	if err != nil {
		return errors.Wrap(errors.CodeIOFailed, "list domains", err)
	}

	for _, domain := range domains {
		dirs := []string{t.DomainPath(domain)}
		if subs, err := os.ReadDir(t.DomainPath(domain)); err == nil {
			for _, s := range subs {
				if s.IsDir() {
					dirs = append(dirs, filepath.Join(t.DomainPath(domain), s.Name()))
				}
			}
		}

		for _, dir := range dirs {
			ix, err := LoadIndex(dir)
			if err != nil {
				continue // missing or malformed manifest is not fatal to search
			}
			for _, row := range ix.Rows {
				if strings.HasSuffix(row.Name, "/") || !rowMatches(row, tokens) {
					continue
				}
				path := filepath.Join(dir, row.Name)
				m := Match{
					Path:    path,
					Domain:  domain,
					Title:   row.Name,
					Summary: row.Summary,
					Updated: row.Updated,
					Pass:    "index",
				}
				t.enrich(&m)
				add(m)
			}
		}
	}
	return nil
}

// scanFilenames matches entry filenames against the query tokens.
func (t *Tree) scanFilenames(tokens []string, add func(Match)) error {
	return t.walkEntries(func(path, domain string) error {
		name := strings.ToLower(filepath.Base(path))
		for _, tok := range tokens {
			if strings.Contains(name, tok) {
				m := Match{Path: path, Domain: domain, Pass: "filename"}
				t.enrich(&m)
				add(m)
				return nil
			}
		}
		return nil
	})
}

// scanTagLines reads only each entry's Tags header line.
func (t *Tree) scanTagLines(tokens []string, add func(Match)) error {
	return t.walkEntries(func(path, domain string) error {
		tags, err := readTagsLine(path)
		if err != nil {
			return nil
		}
		for _, tag := range tags {
			for _, tok := range tokens {
				if strings.Contains(tag, tok) {
					m := Match{Path: path, Domain: domain, Pass: "tag"}
					t.enrich(&m)
					add(m)
					return nil
				}
			}
		}
		return nil
	})
}

// scanFullText greps entry bodies. Last resort, most expensive.
func (t *Tree) scanFullText(tokens []string, add func(Match)) error {
	return t.walkEntries(func(path, domain string) error {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		body := strings.ToLower(string(content))
		for _, tok := range tokens {
			if strings.Contains(body, tok) {
				m := Match{Path: path, Domain: domain, Pass: "content"}
				t.enrich(&m)
				add(m)
				return nil
			}
		}
		return nil
	})
}

// walkEntries visits every non-index markdown file under the root, skipping
// the files domain (it holds no entries).
func (t *Tree) walkEntries(visit func(path, domain string) error) error {
	return filepath.WalkDir(t.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != t.Root && t.depthOf(path) == 1 && d.Name() == FilesDomain {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == IndexFile || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		// Entries live inside domains; root-level files are not entries.
		if filepath.Dir(path) == filepath.Clean(t.Root) {
			return nil
		}
		rel, relErr := filepath.Rel(t.Root, path)
		if relErr != nil {
			return relErr
		}
		domain := strings.Split(filepath.ToSlash(rel), "/")[0]
		return visit(path, domain)
	})
}

// enrich fills title, dates, and confidence from the entry header.
func (t *Tree) enrich(m *Match) {
	content, err := os.ReadFile(m.Path)
	if err != nil {
		return
	}
	entry, err := ParseEntry(string(content))
	if err != nil {
		return
	}
	m.Title = entry.Title
	m.Confidence = entry.Confidence
	if m.Updated == "" {
		m.Updated = entry.Updated
	}
	if m.Summary == "" {
		m.Summary = firstLine(entry.Summary)
	}
}

// rank orders matches: recently updated first, then confidence, then
// matches whose domain name appears in the query.
func (t *Tree) rank(matches []Match, tokens []string) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Updated != matches[j].Updated {
			return matches[i].Updated > matches[j].Updated
		}
		ci, cj := confidenceRank(matches[i].Confidence), confidenceRank(matches[j].Confidence)
		if ci != cj {
			return ci > cj
		}
		return domainAffinity(matches[i].Domain, tokens) > domainAffinity(matches[j].Domain, tokens)
	})
}

func confidenceRank(c string) int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

func domainAffinity(domain string, tokens []string) int {
	for _, tok := range tokens {
		if strings.Contains(domain, tok) {
			return 1
		}
	}
	return 0
}

func rowMatches(row IndexRow, tokens []string) bool {
	name := strings.ToLower(row.Name)
	summary := strings.ToLower(row.Summary)
	for _, tok := range tokens {
		if strings.Contains(name, tok) || strings.Contains(summary, tok) {
			return true
		}
	}
	return false
}

// readTagsLine scans an entry's header for its Tags line without loading
// the whole body.
func readTagsLine(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "**Tags:**") {
			return ParseTags(headerValue(line, "**Tags:**")), nil
		}
		if strings.HasPrefix(line, "## ") {
			break // past the header block
		}
	}
	return nil, scanner.Err()
}

func queryTokens(query string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(query)))
}
