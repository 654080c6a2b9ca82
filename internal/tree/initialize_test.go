package tree

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitialize_Fresh(t *testing.T) {
	tr := New(filepath.Join(t.TempDir(), "memory"))

	report, err := tr.Initialize()
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if !report.Created {
		t.Error("expected Created on a fresh tree")
	}
	if len(report.DomainsCreated) != len(Domains) {
		t.Errorf("expected %d domains created, got %d", len(Domains), len(report.DomainsCreated))
	}

	for _, domain := range Domains {
		dir := tr.DomainPath(domain)
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			t.Errorf("domain dir missing: %s", domain)
		}
		if _, err := os.Stat(filepath.Join(dir, IndexFile)); err != nil {
			t.Errorf("domain index missing: %s", domain)
		}
	}

	rootIx, err := LoadIndex(tr.Root)
	if err != nil {
		t.Fatalf("load root index: %v", err)
	}
	if len(rootIx.Rows) != len(Domains) {
		t.Errorf("expected %d root rows, got %d", len(Domains), len(rootIx.Rows))
	}
}

func TestInitialize_Idempotent(t *testing.T) {
	tr := newTestTree(t)

	before := readTreeFiles(t, tr.Root)

	report, err := tr.Initialize()
	if err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	if report.Changed() {
		t.Errorf("second initialize reported changes: %+v", report)
	}

	after := readTreeFiles(t, tr.Root)
	if len(before) != len(after) {
		t.Fatalf("file count changed: %d -> %d", len(before), len(after))
	}
	for path, content := range before {
		if after[path] != content {
			t.Errorf("file rewritten by idempotent initialize: %s", path)
		}
	}
}

func TestInitialize_HealsMissingDomain(t *testing.T) {
	tr := newTestTree(t)

	if err := os.RemoveAll(tr.DomainPath("research")); err != nil {
		t.Fatal(err)
	}

	report, err := tr.Initialize()
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if report.Created {
		t.Error("existing tree reported as freshly created")
	}
	if len(report.DomainsCreated) != 1 || report.DomainsCreated[0] != "research" {
		t.Errorf("expected only research recreated, got %v", report.DomainsCreated)
	}
	if _, err := os.Stat(filepath.Join(tr.DomainPath("research"), IndexFile)); err != nil {
		t.Error("healed domain has no index")
	}
}

func TestInitialize_HealsMissingRootRow(t *testing.T) {
	tr := newTestTree(t)

	rootIx, err := LoadIndex(tr.Root)
	if err != nil {
		t.Fatal(err)
	}
	rootIx.Remove("plans")
	if err := SaveIndex(tr.Root, rootIx, "2026-01-15"); err != nil {
		t.Fatal(err)
	}

	report, err := tr.Initialize()
	if err != nil {
		t.Fatal(err)
	}
	if len(report.RootRowsAdded) != 1 || report.RootRowsAdded[0] != "plans" {
		t.Errorf("expected plans row restored, got %v", report.RootRowsAdded)
	}
}

func TestInitialize_PreservesEntries(t *testing.T) {
	tr := newTestTree(t)
	mustWrite(t, tr, Item{Domain: "context", Title: "Monorepo layout", Content: "Packages under internal."})

	path := filepath.Join(tr.DomainPath("context"), "monorepo-layout.md")
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := tr.Initialize(); err != nil {
		t.Fatal(err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("initialize touched an existing entry")
	}
}

// readTreeFiles snapshots every file under root as path -> content.
func readTreeFiles(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[path] = string(content)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return files
}
