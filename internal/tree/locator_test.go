package tree

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSearch_IndexPass(t *testing.T) {
	tr := newTestTree(t)
	mustWrite(t, tr, Item{
		Domain:  "bugs",
		Title:   "Login timeout",
		Content: "Session expires after five minutes.",
	})

	result, err := tr.Search("login timeout")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.NoMatches || len(result.Matches) == 0 {
		t.Fatal("expected a match")
	}

	m := result.Matches[0]
	if m.Pass != "index" {
		t.Errorf("expected index pass, got %s", m.Pass)
	}
	if m.Domain != "bugs" {
		t.Errorf("domain: %s", m.Domain)
	}
	if m.Title != "Login timeout" {
		t.Errorf("title not enriched: %q", m.Title)
	}
}

func TestSearch_FilenamePass(t *testing.T) {
	tr := newTestTree(t)

	// An entry file the index does not know about: only the filename scan
	// can reach it.
	e := NewEntry("Orphaned finding", "s", "d", nil, "", "2026-01-15")
	path := filepath.Join(tr.DomainPath("research"), "zookeeper-quirks.md")
	if err := os.WriteFile(path, []byte(e.Render()), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := tr.Search("zookeeper")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if result.Matches[0].Pass != "filename" {
		t.Errorf("expected filename pass, got %s", result.Matches[0].Pass)
	}
}

func TestSearch_TagPass(t *testing.T) {
	tr := newTestTree(t)
	mustWrite(t, tr, Item{
		Domain:  "bugs",
		Title:   "Login timeout",
		Summary: "Session expires early.",
		Content: "Repro steps attached.",
		Tags:    []string{"authentication"},
	})

	result, err := tr.Search("authentication")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if result.Matches[0].Pass != "tag" {
		t.Errorf("expected tag pass, got %s", result.Matches[0].Pass)
	}
}

func TestSearch_ContentPass(t *testing.T) {
	tr := newTestTree(t)
	mustWrite(t, tr, Item{
		Domain:  "decisions",
		Title:   "Messaging transport",
		Summary: "Broker choice for events.",
		Content: "Settled on zeromq after the benchmark round.",
	})

	result, err := tr.Search("zeromq")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if result.Matches[0].Pass != "content" {
		t.Errorf("expected content pass, got %s", result.Matches[0].Pass)
	}
}

func TestSearch_RanksRecentFirst(t *testing.T) {
	tr := newTestTree(t)

	tr.now = func() time.Time { return time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC) }
	mustWrite(t, tr, Item{Domain: "bugs", Title: "Cache stampede on deploy", Content: "x"})

	tr.now = func() time.Time { return time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC) }
	mustWrite(t, tr, Item{Domain: "bugs", Title: "Cache eviction misfire", Content: "y"})

	result, err := tr.Search("cache")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	if result.Matches[0].Updated != "2026-02-20" {
		t.Errorf("most recent entry not ranked first: %+v", result.Matches)
	}
}

func TestSearch_RanksConfidenceOnDateTie(t *testing.T) {
	tr := newTestTree(t)
	mustWrite(t, tr,
		Item{Domain: "research", Title: "Cache layer notes", Content: "x", Confidence: ConfidenceLow},
		Item{Domain: "research", Title: "Cache sizing study", Content: "y", Confidence: ConfidenceHigh},
	)

	result, err := tr.Search("cache")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	if result.Matches[0].Confidence != ConfidenceHigh {
		t.Errorf("high confidence should outrank low on a date tie: %+v", result.Matches)
	}
}

func TestSearch_CapsResults(t *testing.T) {
	tr := newTestTree(t)
	tr.MaxResults = 2

	mustWrite(t, tr,
		Item{Domain: "bugs", Title: "Cache stampede", Content: "x"},
		Item{Domain: "bugs", Title: "Cache eviction", Content: "y"},
		Item{Domain: "bugs", Title: "Cache warmup", Content: "z"},
	)

	result, err := tr.Search("cache")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(result.Matches))
	}
}

func TestSearch_NoMatches(t *testing.T) {
	tr := newTestTree(t)
	mustWrite(t, tr, Item{Domain: "bugs", Title: "Login timeout", Content: "x"})

	result, err := tr.Search("zeppelin")
	if err != nil {
		t.Fatal(err)
	}
	if !result.NoMatches {
		t.Fatal("expected explicit no-matches outcome")
	}
	if len(result.Matches) != 0 {
		t.Fatalf("matches on a miss: %+v", result.Matches)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	tr := newTestTree(t)
	result, err := tr.Search("   ")
	if err != nil {
		t.Fatal(err)
	}
	if !result.NoMatches {
		t.Fatal("expected no matches for an empty query")
	}
}

func TestSearch_UninitializedTree(t *testing.T) {
	tr := New(filepath.Join(t.TempDir(), "memory"))
	if _, err := tr.Search("anything"); err == nil {
		t.Fatal("expected error on uninitialized tree")
	}
}

func TestSearch_SkipsFilesDomain(t *testing.T) {
	tr, root := newTestProject(t)
	if _, err := tr.Reconcile(root, nil); err != nil {
		t.Fatal(err)
	}

	// auth.ts appears only in the file index, which holds no entries.
	result, err := tr.Search("auth")
	if err != nil {
		t.Fatal(err)
	}
	if !result.NoMatches {
		t.Fatalf("file index rows leaked into search: %+v", result.Matches)
	}
}

func TestSearch_ReadOnly(t *testing.T) {
	tr := newTestTree(t)
	mustWrite(t, tr, Item{Domain: "bugs", Title: "Login timeout", Content: "x"})

	before := readTreeFiles(t, tr.Root)
	if _, err := tr.Search("login"); err != nil {
		t.Fatal(err)
	}
	after := readTreeFiles(t, tr.Root)

	if len(before) != len(after) {
		t.Fatal("search changed the file count")
	}
	for path, content := range before {
		if after[path] != content {
			t.Errorf("search mutated %s", path)
		}
	}
}
