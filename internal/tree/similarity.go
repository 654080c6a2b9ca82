package tree

import "strings"

// Scorer judges whether a proposed item refers to the same topic as an
// existing entry. The writer treats any score at or above MatchThreshold
// as an UPDATE of the existing entry; everything below is a CREATE.
// Pluggable so the scoring strategy can change without touching the
// writer's control flow.
type Scorer interface {
	Score(title string, tags []string, otherTitle string, otherTags []string) float64
}

const (
	// MatchThreshold is the dedup cutoff: a shared-token ratio of half or
	// more on titles, or half or more on tag sets, counts as the same topic.
	MatchThreshold = 0.5

	// ambiguousBand is how far below the threshold a score still gets
	// logged as a borderline CREATE rather than silently discarded.
	ambiguousBand = 0.1
)

// TokenScorer scores by token overlap: the maximum of title-token Jaccard
// similarity and tag-set Jaccard similarity. Exact slug equality is a
// guaranteed match regardless of tag drift.
type TokenScorer struct{}

// NewTokenScorer returns the default scorer.
func NewTokenScorer() *TokenScorer {
	return &TokenScorer{}
}

// Score returns a similarity in [0, 1].
func (s *TokenScorer) Score(title string, tags []string, otherTitle string, otherTags []string) float64 {
	if Slugify(title) == Slugify(otherTitle) {
		return 1.0
	}
	titleSim := jaccard(titleTokens(title), titleTokens(otherTitle))
	tagSim := jaccard(normalizeTags(tags), normalizeTags(otherTags))
	if tagSim > titleSim {
		return tagSim
	}
	return titleSim
}

// stopwords excluded from title comparison — they carry no topic signal.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "for": true, "in": true,
	"of": true, "on": true, "the": true, "to": true, "use": true,
	"with": true,
}

func titleTokens(title string) []string {
	raw := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	var out []string
	for _, tok := range raw {
		if !stopwords[tok] {
			out = append(out, tok)
		}
	}
	// An all-stopword title still needs something to compare.
	if len(out) == 0 {
		out = raw
	}
	return out
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, s := range a {
		setA[s] = true
	}
	setB := make(map[string]bool, len(b))
	for _, s := range b {
		setB[s] = true
	}
	union := len(setA)
	inter := 0
	for s := range setB {
		if setA[s] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}
