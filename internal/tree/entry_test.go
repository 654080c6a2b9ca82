package tree

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Use PostgreSQL for persistence", "use-postgresql-for-persistence"},
		{"Login timeout bug!", "login-timeout-bug"},
		{"  spaces  everywhere  ", "spaces-everywhere"},
		{"MixedCASE Title", "mixedcase-title"},
		{"v2.1 release plan", "v2-1-release-plan"},
		{"---", "untitled"},
		{"", "untitled"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.title); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestParseTags(t *testing.T) {
	got := ParseTags("Auth, login , AUTH, , jwt")
	want := []string{"auth", "login", "jwt"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestNewEntry_Defaults(t *testing.T) {
	e := NewEntry("Title", "summary", "details", nil, "", "2026-01-15")
	if e.Confidence != ConfidenceMedium {
		t.Errorf("expected default confidence medium, got %s", e.Confidence)
	}
	if e.Source != "session" {
		t.Errorf("expected source session, got %s", e.Source)
	}
	if e.Created != "2026-01-15" || e.Updated != "2026-01-15" {
		t.Errorf("expected both dates set, got created=%s updated=%s", e.Created, e.Updated)
	}
}

func TestEntry_RenderParseRoundTrip(t *testing.T) {
	e := NewEntry(
		"Use PostgreSQL for persistence",
		"Chosen over MySQL for JSONB support.",
		"Evaluated MySQL 8 and PostgreSQL 16.\nJSONB queries won it.",
		[]string{"database", "architecture"},
		ConfidenceHigh,
		"2026-01-15",
	)
	e.Related = []string{"decisions/use-jsonb-columns.md"}

	parsed, err := ParseEntry(e.Render())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if parsed.Title != e.Title {
		t.Errorf("title: got %q, want %q", parsed.Title, e.Title)
	}
	if parsed.Created != "2026-01-15" || parsed.Updated != "2026-01-15" {
		t.Errorf("dates lost: %+v", parsed)
	}
	if parsed.Confidence != ConfidenceHigh {
		t.Errorf("confidence: got %q", parsed.Confidence)
	}
	if len(parsed.Tags) != 2 || parsed.Tags[0] != "database" {
		t.Errorf("tags: got %v", parsed.Tags)
	}
	if parsed.Summary != e.Summary {
		t.Errorf("summary: got %q, want %q", parsed.Summary, e.Summary)
	}
	if !strings.Contains(parsed.Details, "JSONB queries won it.") {
		t.Errorf("details lost: %q", parsed.Details)
	}
	if len(parsed.Related) != 1 || parsed.Related[0] != "decisions/use-jsonb-columns.md" {
		t.Errorf("related: got %v", parsed.Related)
	}
}

func TestEntry_RoundTripIsStable(t *testing.T) {
	e := NewEntry("Title", "sum", "details", []string{"a"}, ConfidenceLow, "2026-01-15")

	first := e.Render()
	parsed, err := ParseEntry(first)
	if err != nil {
		t.Fatal(err)
	}
	second := parsed.Render()

	if first != second {
		t.Errorf("render is not stable across a parse round trip:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}

func TestEntry_AppendDetail(t *testing.T) {
	e := NewEntry("Title", "sum", "original detail", nil, "", "2026-01-15")
	e.AppendDetail("2026-02-01", "a later finding")

	if !strings.Contains(e.Details, "original detail") {
		t.Error("prior content lost")
	}
	if !strings.Contains(e.Details, "**Update (2026-02-01):** a later finding") {
		t.Errorf("update block missing: %q", e.Details)
	}
}

func TestEntry_AppendDetail_EmptyDetails(t *testing.T) {
	e := &Entry{Title: "Title"}
	e.AppendDetail("2026-02-01", "first content")
	if e.Details != "**Update (2026-02-01):** first content" {
		t.Errorf("unexpected details: %q", e.Details)
	}
}

func TestEntry_UnionTags(t *testing.T) {
	e := NewEntry("Title", "sum", "d", []string{"auth", "login"}, "", "2026-01-15")
	e.UnionTags([]string{"LOGIN", "jwt"})

	if len(e.Tags) != 3 {
		t.Fatalf("expected 3 tags, got %v", e.Tags)
	}
	if e.Tags[2] != "jwt" {
		t.Errorf("expected jwt appended, got %v", e.Tags)
	}
}

func TestEntry_ArchivedStatus(t *testing.T) {
	e := NewEntry("Title", "sum", "d", nil, "", "2026-01-15")
	if e.Archived() {
		t.Fatal("new entry should not be archived")
	}

	e.Status = StatusArchived
	parsed, err := ParseEntry(e.Render())
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.Archived() {
		t.Fatal("archived status lost in round trip")
	}
}

func TestParseEntry_NoTitle(t *testing.T) {
	_, err := ParseEntry("**Created:** 2026-01-15\n\n## Summary\nno heading\n")
	if err == nil {
		t.Fatal("expected error for entry without title heading")
	}
}
