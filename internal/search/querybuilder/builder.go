// Package querybuilder compiles a query intent into the weighted boolean
// query executed by the index engine. Build is a pure function: the same
// intent and filter always produce the same query.
package querybuilder

import (
	"strings"
	"unicode/utf8"

	"github.com/quarkloom/sitesearch/internal/index"
	"github.com/quarkloom/sitesearch/internal/search/types"
)

// Searched fields with their relative weights. Title is the strongest
// relevance signal; the full extracted page text outweighs the short
// content summary and the synonym/description field.
var fieldWeights = []struct {
	field  string
	weight float64
}{
	{"title", 4},
	{"page_description", 3},
	{"content", 2},
	{"description", 1},
}

// Clause-tier base boosts. Multiplied by the field weight, so within each
// field: phrase > match > prefix > wildcard, and within each tier:
// title > page_description > content > description.
const (
	boostPhrase   = 10
	boostMatch    = 6
	boostPrefix   = 3
	boostWildcard = 1.5
)

// minAffixTermLen guards prefix/wildcard fan-out: terms shorter than this
// only get phrase and match clauses.
const minAffixTermLen = 3

// Build compiles the intent plus an optional explicit category filter into
// a boolean query. The explicit filter always wins over the intent's
// detected category; a detected category only applies when the intent is
// category-scoped (see QueryIntent.EffectiveCategory).
func Build(intent *types.QueryIntent, categoryFilter string) *index.BoolQuery {
	q := &index.BoolQuery{}

	category := strings.TrimSpace(categoryFilter)
	if category == "" && intent != nil {
		category = strings.TrimSpace(intent.EffectiveCategory())
	}
	if category != "" {
		q.Must = append(q.Must, index.Term("category", category))
	}

	for _, term := range searchTerms(intent) {
		q.Should = append(q.Should, termClauses(term)...)
	}

	if len(q.Should) > 0 {
		q.MinimumShouldMatch = 1
	}

	// No terms and no category: match everything rather than nothing, so a
	// category-only navigation still lists all items in that category.
	return q
}

// searchTerms returns the union of keywords, expanded terms and synonyms,
// keeping first-seen order. Falls back to the keywords alone when the union
// comes out empty.
func searchTerms(intent *types.QueryIntent) []string {
	if intent == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var terms []string

	add := func(list []string) {
		for _, t := range list {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			key := strings.ToLower(t)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			terms = append(terms, t)
		}
	}

	add(intent.Keywords)
	add(intent.ExpandedTerms)
	add(intent.Synonyms)

	if len(terms) == 0 {
		add(intent.Keywords)
	}
	return terms
}

// termClauses emits the weighted clauses for one term across all fields.
func termClauses(term string) []index.Clause {
	clauses := make([]index.Clause, 0, len(fieldWeights)*4)
	affixes := utf8.RuneCountInString(term) >= minAffixTermLen

	for _, fw := range fieldWeights {
		clauses = append(clauses,
			index.MatchPhrase(fw.field, term, boostPhrase*fw.weight),
			index.Match(fw.field, term, boostMatch*fw.weight),
		)
		if affixes {
			clauses = append(clauses,
				index.Prefix(fw.field, term, boostPrefix*fw.weight),
				index.Wildcard(fw.field, term, boostWildcard*fw.weight),
			)
		}
	}
	return clauses
}
