package tree

import (
	"os"
	"path/filepath"

	"github.com/lorekeep/lore/internal/errors"
	"github.com/lorekeep/lore/internal/event"
)

// InitReport describes what Initialize created. Empty slices on an already
// complete tree — the call is idempotent and never touches existing content.
type InitReport struct {
	Created         bool     `json:"created"` // true if the tree was absent entirely
	DomainsCreated  []string `json:"domains_created,omitempty"`
	IndexesCreated  []string `json:"indexes_created,omitempty"`
	RootRowsAdded   []string `json:"root_rows_added,omitempty"`
}

// Changed reports whether Initialize had to create or repair anything.
func (r *InitReport) Changed() bool {
	return r.Created || len(r.DomainsCreated) > 0 || len(r.IndexesCreated) > 0 || len(r.RootRowsAdded) > 0
}

// Initialize creates the domain skeleton and seed index files. Safe to call
// on a partially initialized tree: missing pieces are recreated, existing
// entries and customized index content are left alone.
func (t *Tree) Initialize() (*InitReport, error) {
	report := &InitReport{}
	date := t.today()

	if !t.Exists() {
		if err := t.createFresh(report, date); err != nil {
			return report, err
		}
		t.emit(event.TreeInitialized, map[string]interface{}{"root": t.Root, "fresh": true})
		return report, nil
	}

	// Tree exists: heal missing domains, indexes, and root rows.
	rootIx, err := LoadIndex(t.Root)
	if err != nil {
		return report, err
	}

	rootDirty := false
	for _, domain := range Domains {
		dir := t.DomainPath(domain)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return report, errors.Wrap(errors.CodeIOFailed, "create domain "+domain, err)
			}
			report.DomainsCreated = append(report.DomainsCreated, domain)
		}
		if _, err := os.Stat(filepath.Join(dir, IndexFile)); os.IsNotExist(err) {
			if err := SaveIndex(dir, NewDomainIndex(domain, date), date); err != nil {
				return report, err
			}
			report.IndexesCreated = append(report.IndexesCreated, filepath.Join(domain, IndexFile))
		}
		if rootIx.Find(domain) == nil {
			rootIx.Rows = append(rootIx.Rows, IndexRow{
				Name:    domain,
				Summary: domainDescriptions[domain],
				Updated: date,
			})
			report.RootRowsAdded = append(report.RootRowsAdded, domain)
			rootDirty = true
		}
	}

	if rootDirty {
		if err := SaveIndex(t.Root, rootIx, date); err != nil {
			return report, err
		}
	}

	t.emit(event.TreeInitialized, map[string]interface{}{"root": t.Root, "fresh": false})
	return report, nil
}

// createFresh builds the whole tree from nothing.
func (t *Tree) createFresh(report *InitReport, date string) error {
	report.Created = true

	if err := os.MkdirAll(t.Root, 0755); err != nil {
		return errors.Wrap(errors.CodeIOFailed, "create memory root", err)
	}

	rootIx := NewRootIndex(date)
	for _, domain := range Domains {
		dir := t.DomainPath(domain)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(errors.CodeIOFailed, "create domain "+domain, err)
		}
		if err := SaveIndex(dir, NewDomainIndex(domain, date), date); err != nil {
			return err
		}
		rootIx.Rows = append(rootIx.Rows, IndexRow{
			Name:    domain,
			Summary: domainDescriptions[domain],
			Updated: date,
		})
		report.DomainsCreated = append(report.DomainsCreated, domain)
		report.IndexesCreated = append(report.IndexesCreated, filepath.Join(domain, IndexFile))
	}

	return SaveIndex(t.Root, rootIx, date)
}
