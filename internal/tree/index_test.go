package tree

import (
	"strings"
	"testing"
)

func TestIndex_RenderParseRoundTrip(t *testing.T) {
	ix := NewDomainIndex("decisions", "2026-01-15")
	ix.Rows = append(ix.Rows,
		IndexRow{Name: "use-postgresql.md", Summary: "Chosen over MySQL", Updated: "2026-01-15"},
		IndexRow{Name: "auth/", Summary: "3 entries — auth", Updated: "2026-01-10"},
	)

	parsed, err := ParseIndex(ix.Render())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if parsed.Title != "Decisions Index" {
		t.Errorf("title: got %q", parsed.Title)
	}
	if parsed.Updated != "2026-01-15" {
		t.Errorf("updated: got %q", parsed.Updated)
	}
	if parsed.Columns != domainColumns {
		t.Errorf("columns: got %v", parsed.Columns)
	}
	if len(parsed.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(parsed.Rows))
	}
	if parsed.Rows[0].Name != "use-postgresql.md" || parsed.Rows[0].Summary != "Chosen over MySQL" {
		t.Errorf("row 0: %+v", parsed.Rows[0])
	}
	if parsed.Rows[1].Name != "auth/" {
		t.Errorf("row 1: %+v", parsed.Rows[1])
	}
}

func TestIndex_RootColumns(t *testing.T) {
	ix := NewRootIndex("2026-01-15")
	if ix.Columns != rootColumns {
		t.Errorf("expected root columns, got %v", ix.Columns)
	}
	if ix.Title != "Memory Index" {
		t.Errorf("title: got %q", ix.Title)
	}
}

func TestParseIndex_IgnoresPreamble(t *testing.T) {
	content := `# Bugs Index
**Last Updated:** 2026-01-15

Hand-written note that someone added above the table.

| File/Folder | Summary | Updated |
|------|------|------|
| login-timeout.md | Session expires early | 2026-01-15 |
`
	ix, err := ParseIndex(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ix.Rows) != 1 || ix.Rows[0].Name != "login-timeout.md" {
		t.Fatalf("rows: %+v", ix.Rows)
	}
}

func TestParseIndex_NoTitle(t *testing.T) {
	if _, err := ParseIndex("| a | b | c |\n"); err == nil {
		t.Fatal("expected error for index without title")
	}
}

func TestIndex_FindUpsertTouchRemove(t *testing.T) {
	ix := NewDomainIndex("bugs", "2026-01-15")

	if ix.Find("missing.md") != nil {
		t.Fatal("expected nil for missing row")
	}

	ix.Upsert(IndexRow{Name: "a.md", Summary: "first", Updated: "2026-01-15"})
	ix.Upsert(IndexRow{Name: "a.md", Summary: "replaced", Updated: "2026-01-16"})
	if len(ix.Rows) != 1 || ix.Rows[0].Summary != "replaced" {
		t.Fatalf("upsert did not replace: %+v", ix.Rows)
	}

	ix.Touch("a.md", "ignored", "2026-01-20")
	if ix.Rows[0].Updated != "2026-01-20" {
		t.Errorf("touch did not bump date: %+v", ix.Rows[0])
	}
	if ix.Rows[0].Summary != "replaced" {
		t.Errorf("touch overwrote a non-empty summary: %+v", ix.Rows[0])
	}

	ix.Touch("b.md", "created by touch", "2026-01-21")
	if len(ix.Rows) != 2 {
		t.Fatalf("touch did not create missing row: %+v", ix.Rows)
	}

	if !ix.Remove("a.md") {
		t.Fatal("expected removal")
	}
	if ix.Remove("a.md") {
		t.Fatal("expected second removal to report false")
	}
	if len(ix.Rows) != 1 {
		t.Fatalf("rows after remove: %+v", ix.Rows)
	}
}

func TestIndex_SanitizesCells(t *testing.T) {
	ix := NewDomainIndex("bugs", "2026-01-15")
	ix.Rows = append(ix.Rows, IndexRow{
		Name:    "a.md",
		Summary: "pipes | and\nnewlines",
		Updated: "2026-01-15",
	})

	rendered := ix.Render()
	if strings.Contains(rendered, "pipes |") {
		t.Error("pipe survived into a table cell")
	}

	parsed, err := ParseIndex(rendered)
	if err != nil {
		t.Fatalf("sanitized render failed to parse: %v", err)
	}
	if len(parsed.Rows) != 1 {
		t.Fatalf("cell broke the table layout: %+v", parsed.Rows)
	}
}

func TestLoadSaveIndex(t *testing.T) {
	dir := t.TempDir()
	ix := NewDomainIndex("patterns", "2026-01-15")
	ix.Rows = append(ix.Rows, IndexRow{Name: "x.md", Summary: "s", Updated: "2026-01-15"})

	if err := SaveIndex(dir, ix, "2026-02-01"); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadIndex(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Updated != "2026-02-01" {
		t.Errorf("save did not stamp date: %q", loaded.Updated)
	}
	if len(loaded.Rows) != 1 || loaded.Rows[0].Name != "x.md" {
		t.Errorf("rows: %+v", loaded.Rows)
	}
}

func TestLoadIndex_Missing(t *testing.T) {
	if _, err := LoadIndex(t.TempDir()); err == nil {
		t.Fatal("expected error for missing index")
	}
}
