package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lorekeep/lore/internal/errors"
)

// Index is a per-directory manifest. The root index uses the
// Domain/Description/Updated table; every other directory uses
// File-Folder/Summary/Updated. Rows are kept in file order.
type Index struct {
	Title   string
	Updated string // the "**Last Updated:**" header date
	Columns [3]string
	Rows    []IndexRow
}

// IndexRow is one child listing. Name carries a trailing slash for
// subdirectory rows.
type IndexRow struct {
	Name    string
	Summary string
	Updated string
}

var (
	rootColumns   = [3]string{"Domain", "Description", "Updated"}
	domainColumns = [3]string{"File/Folder", "Summary", "Updated"}
)

// NewRootIndex builds an empty root manifest.
func NewRootIndex(date string) *Index {
	return &Index{Title: "Memory Index", Updated: date, Columns: rootColumns}
}

// NewDomainIndex builds an empty manifest for a domain or topic directory.
func NewDomainIndex(name, date string) *Index {
	return &Index{
		Title:   titleCase(name) + " Index",
		Updated: date,
		Columns: domainColumns,
	}
}

// Render produces the manifest markdown.
func (ix *Index) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", ix.Title)
	fmt.Fprintf(&b, "**Last Updated:** %s\n\n", ix.Updated)
	fmt.Fprintf(&b, "| %s | %s | %s |\n", ix.Columns[0], ix.Columns[1], ix.Columns[2])
	fmt.Fprintf(&b, "|%s|%s|%s|\n",
		strings.Repeat("-", len(ix.Columns[0])+2),
		strings.Repeat("-", len(ix.Columns[1])+2),
		strings.Repeat("-", len(ix.Columns[2])+2))
	for _, row := range ix.Rows {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", row.Name, sanitizeCell(row.Summary), row.Updated)
	}
	return b.String()
}

// ParseIndex reads a manifest back. Unknown lines outside the table are
// ignored so a hand-edited preamble doesn't break maintenance.
func ParseIndex(content string) (*Index, error) {
	ix := &Index{}
	sawHeader := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "# ") && ix.Title == "":
			ix.Title = strings.TrimPrefix(trimmed, "# ")
		case strings.HasPrefix(trimmed, "**Last Updated:**"):
			ix.Updated = headerValue(trimmed, "**Last Updated:**")
		case strings.HasPrefix(trimmed, "|"):
			cells := splitRow(trimmed)
			if len(cells) != 3 {
				continue
			}
			if !sawHeader {
				ix.Columns = [3]string{cells[0], cells[1], cells[2]}
				sawHeader = true
				continue
			}
			if strings.Trim(cells[0], "-") == "" {
				continue // separator row
			}
			ix.Rows = append(ix.Rows, IndexRow{Name: cells[0], Summary: cells[1], Updated: cells[2]})
		}
	}

	if ix.Title == "" {
		return nil, errors.New(errors.CodeIndexMalformed, "index has no title heading")
	}
	return ix, nil
}

// Find returns the row with the given name, or nil.
func (ix *Index) Find(name string) *IndexRow {
	for i := range ix.Rows {
		if ix.Rows[i].Name == name {
			return &ix.Rows[i]
		}
	}
	return nil
}

// Upsert inserts or replaces a row, keyed by name.
func (ix *Index) Upsert(row IndexRow) {
	if existing := ix.Find(row.Name); existing != nil {
		*existing = row
		return
	}
	ix.Rows = append(ix.Rows, row)
}

// Touch updates a row's Updated column, creating the row if absent.
func (ix *Index) Touch(name, summary, date string) {
	if existing := ix.Find(name); existing != nil {
		existing.Updated = date
		if summary != "" && existing.Summary == "" {
			existing.Summary = summary
		}
		return
	}
	ix.Rows = append(ix.Rows, IndexRow{Name: name, Summary: summary, Updated: date})
}

// Remove deletes a row by name. Returns true if a row was removed.
func (ix *Index) Remove(name string) bool {
	for i := range ix.Rows {
		if ix.Rows[i].Name == name {
			ix.Rows = append(ix.Rows[:i], ix.Rows[i+1:]...)
			return true
		}
	}
	return false
}

// LoadIndex reads and parses the manifest in dir.
func LoadIndex(dir string) (*Index, error) {
	path := indexPath(dir)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeIndexMalformed, "read index "+path, err)
	}
	return ParseIndex(string(content))
}

// SaveIndex writes the manifest to dir, stamping the header date.
func SaveIndex(dir string, ix *Index, date string) error {
	ix.Updated = date
	if err := os.WriteFile(indexPath(dir), []byte(ix.Render()), 0644); err != nil {
		return errors.Wrap(errors.CodeIOFailed, "write index in "+dir, err)
	}
	return nil
}

func indexPath(dir string) string {
	return filepath.Join(dir, IndexFile)
}

func titleCase(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// sanitizeCell keeps summaries from breaking the table layout.
func sanitizeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	return strings.ReplaceAll(s, "\n", " ")
}

func splitRow(line string) []string {
	parts := strings.Split(strings.Trim(line, "|"), "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}
