package tree

import (
	"fmt"
	"strings"

	"github.com/lorekeep/lore/internal/errors"
)

// Confidence levels accepted on entries.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// StatusArchived marks a superseded entry. Entries are never deleted.
const StatusArchived = "archived"

// Entry is a single markdown knowledge unit. Details holds the raw section
// body so repeated parse/render round-trips never lose prior content.
type Entry struct {
	Title      string
	Created    string
	Updated    string
	Source     string
	Confidence string
	Status     string // empty or "archived"
	Tags       []string
	Summary    string
	Details    string
	Related    []string
}

// NewEntry creates an entry with today's dates and the session source marker.
func NewEntry(title, summary, details string, tags []string, confidence, date string) *Entry {
	if confidence == "" {
		confidence = ConfidenceMedium
	}
	return &Entry{
		Title:      title,
		Created:    date,
		Updated:    date,
		Source:     "session",
		Confidence: confidence,
		Tags:       normalizeTags(tags),
		Summary:    summary,
		Details:    details,
	}
}

// Render produces the fixed entry markdown template.
func (e *Entry) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", e.Title)
	fmt.Fprintf(&b, "**Created:** %s\n", e.Created)
	fmt.Fprintf(&b, "**Last Updated:** %s\n", e.Updated)
	fmt.Fprintf(&b, "**Source:** %s\n", e.Source)
	fmt.Fprintf(&b, "**Confidence:** %s\n", e.Confidence)
	if e.Status != "" {
		fmt.Fprintf(&b, "**Status:** %s\n", e.Status)
	}
	fmt.Fprintf(&b, "**Tags:** %s\n", strings.Join(e.Tags, ", "))
	b.WriteString("\n## Summary\n")
	b.WriteString(strings.TrimSpace(e.Summary))
	b.WriteString("\n\n## Details\n")
	b.WriteString(strings.TrimSpace(e.Details))
	b.WriteString("\n\n## Related\n")
	if len(e.Related) == 0 {
		b.WriteString("- none\n")
	} else {
		for _, r := range e.Related {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return b.String()
}

// ParseEntry reads an entry file back into its structured form.
func ParseEntry(content string) (*Entry, error) {
	e := &Entry{}
	lines := strings.Split(content, "\n")

	section := ""
	var summary, details, related []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "# ") && e.Title == "":
			e.Title = strings.TrimPrefix(trimmed, "# ")
		case strings.HasPrefix(trimmed, "**Created:**"):
			e.Created = headerValue(trimmed, "**Created:**")
		case strings.HasPrefix(trimmed, "**Last Updated:**"):
			e.Updated = headerValue(trimmed, "**Last Updated:**")
		case strings.HasPrefix(trimmed, "**Source:**"):
			e.Source = headerValue(trimmed, "**Source:**")
		case strings.HasPrefix(trimmed, "**Confidence:**"):
			e.Confidence = headerValue(trimmed, "**Confidence:**")
		case strings.HasPrefix(trimmed, "**Status:**"):
			e.Status = headerValue(trimmed, "**Status:**")
		case strings.HasPrefix(trimmed, "**Tags:**"):
			e.Tags = ParseTags(headerValue(trimmed, "**Tags:**"))
		case trimmed == "## Summary":
			section = "summary"
		case trimmed == "## Details":
			section = "details"
		case trimmed == "## Related":
			section = "related"
		default:
			switch section {
			case "summary":
				summary = append(summary, line)
			case "details":
				details = append(details, line)
			case "related":
				if strings.HasPrefix(trimmed, "- ") && trimmed != "- none" {
					related = append(related, strings.TrimPrefix(trimmed, "- "))
				}
			}
		}
	}

	if e.Title == "" {
		return nil, errors.New(errors.CodeEntryMalformed, "entry has no title heading")
	}

	e.Summary = strings.TrimSpace(strings.Join(summary, "\n"))
	e.Details = strings.TrimSpace(strings.Join(details, "\n"))
	e.Related = related
	return e, nil
}

// AppendDetail adds an update block under Details, preserving prior content.
func (e *Entry) AppendDetail(date, content string) {
	block := fmt.Sprintf("**Update (%s):** %s", date, strings.TrimSpace(content))
	if e.Details == "" {
		e.Details = block
		return
	}
	e.Details = e.Details + "\n\n" + block
}

// UnionTags merges new tags into the entry's tag set.
func (e *Entry) UnionTags(tags []string) {
	seen := make(map[string]bool, len(e.Tags))
	for _, t := range e.Tags {
		seen[t] = true
	}
	for _, t := range normalizeTags(tags) {
		if !seen[t] {
			e.Tags = append(e.Tags, t)
			seen[t] = true
		}
	}
}

// Archived reports whether the entry has been superseded.
func (e *Entry) Archived() bool {
	return e.Status == StatusArchived
}

// ParseTags splits a comma-separated tags line into a normalized set.
func ParseTags(s string) []string {
	return normalizeTags(strings.Split(s, ","))
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Slugify derives an entry filename stem from a title: lowercase,
// hyphen-separated, stripped of anything that isn't alphanumeric.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "untitled"
	}
	return slug
}

func headerValue(line, prefix string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, prefix))
}
