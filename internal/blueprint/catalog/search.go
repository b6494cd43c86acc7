package catalog

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

// Threshold is the worst score a candidate may have and still match.
const Threshold = 0.5

// Field weights. Keyword matches count double.
const (
	nameWeight    = 1.0
	keywordWeight = 2.0
)

// KeywordRule adds extra keywords to names ending in Suffix.
type KeywordRule struct {
	Suffix   string
	Keywords []string
}

// KeywordRules map tier suffixes to numeral and roman-numeral variants so
// "mk2", "2" and "ii" all reach the same record. Only the first matching
// rule applies.
var KeywordRules = []KeywordRule{
	{Suffix: " iii", Keywords: []string{"3", "iii", "mk3"}},
	{Suffix: " ii", Keywords: []string{"2", "ii", "mk2"}},
	{Suffix: " i", Keywords: []string{"1", "i", "mk1"}},
}

// stopwords are dropped from queries. Every record is a blueprint, so the
// word itself carries no signal.
var stopwords = map[string]bool{"blueprint": true, "bp": true}

// Match is a ranked search result. Lower scores are better.
type Match struct {
	Blueprint *blueprint.Blueprint
	Score     float64
}

type entry struct {
	bp       blueprint.Blueprint
	name     string
	keywords []string
}

func newEntry(bp blueprint.Blueprint) entry {
	name := strings.ToLower(bp.Name)
	keywords := strings.Fields(name)
	for _, rule := range KeywordRules {
		if strings.HasSuffix(name, rule.Suffix) {
			keywords = append(keywords, rule.Keywords...)
			break
		}
	}
	return entry{bp: bp, name: name, keywords: keywords}
}

// Search ranks the catalog against query. The result is sorted by ascending
// score with catalog order breaking ties, and is empty when no record scores
// within Threshold.
func (c *Catalog) Search(query string) []Match {
	text, tokens := normaliseQuery(query)
	if len(tokens) == 0 {
		return nil
	}

	type scored struct {
		idx   int
		score float64
	}
	var hits []scored
	for i := range c.entries {
		s := c.entries[i].score(text, tokens)
		if s <= Threshold {
			hits = append(hits, scored{idx: i, score: s})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score < hits[j].score
	})

	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		out = append(out, Match{Blueprint: &c.entries[h.idx].bp, Score: h.score})
	}
	return out
}

// Best returns the top-ranked match.
func (c *Catalog) Best(query string) (Match, bool) {
	hits := c.Search(query)
	if len(hits) == 0 {
		return Match{}, false
	}
	return hits[0], true
}

func (e *entry) score(text string, tokens []string) float64 {
	nameScore := distance(text, e.name)

	var kwTotal float64
	for _, tok := range tokens {
		best := 1.0
		for _, kw := range e.keywords {
			if d := distance(tok, kw); d < best {
				best = d
				if best == 0 {
					break
				}
			}
		}
		kwTotal += best
	}
	kwScore := kwTotal / float64(len(tokens))

	return (nameWeight*nameScore + keywordWeight*kwScore) / (nameWeight + keywordWeight)
}

// distance is the levenshtein distance normalised by the longer input.
func distance(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

// normaliseQuery lowercases the query, collapses whitespace, drops
// stopwords, and folds a "mk <digit>" pair into one "mk<digit>" token.
func normaliseQuery(q string) (string, []string) {
	var fields []string
	for _, f := range strings.Fields(strings.ToLower(q)) {
		if !stopwords[f] {
			fields = append(fields, f)
		}
	}
	tokens := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if f == "mk" && i+1 < len(fields) && isDigits(fields[i+1]) {
			tokens = append(tokens, "mk"+fields[i+1])
			i++
			continue
		}
		tokens = append(tokens, f)
	}
	return strings.Join(fields, " "), tokens
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
