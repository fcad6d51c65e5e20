package querybuilder

import (
	"testing"

	"github.com/quarkloom/sitesearch/internal/index"
	"github.com/quarkloom/sitesearch/internal/search/types"
)

func clauseKind(c index.Clause) string {
	for k := range c {
		return k
	}
	return ""
}

func countKind(clauses []index.Clause, kind string) int {
	n := 0
	for _, c := range clauses {
		if clauseKind(c) == kind {
			n++
		}
	}
	return n
}

func TestBuild_PlainSearch(t *testing.T) {
	intent := &types.QueryIntent{
		Intent:   types.IntentSearch,
		Keywords: []string{"clinical", "data"},
	}

	q := Build(intent, "")

	if len(q.Must) != 0 {
		t.Errorf("expected no must clauses, got %d", len(q.Must))
	}
	if q.MinimumShouldMatch != 1 {
		t.Errorf("expected minimum_should_match 1, got %d", q.MinimumShouldMatch)
	}
	// 2 terms x 4 fields x 4 tiers (both terms are >= 3 runes)
	if len(q.Should) != 32 {
		t.Errorf("expected 32 should clauses, got %d", len(q.Should))
	}
}

func TestBuild_CategoryGating(t *testing.T) {
	tests := []struct {
		name         string
		intent       *types.QueryIntent
		filter       string
		wantCategory bool
	}{
		{
			name: "detected category ignored for plain search intent",
			intent: &types.QueryIntent{
				Intent:   types.IntentSearch,
				Category: "blogs",
				Keywords: []string{"docker"},
			},
			wantCategory: false,
		},
		{
			name: "detected category ignored for question intent",
			intent: &types.QueryIntent{
				Intent:   types.IntentQuestion,
				Category: "support",
				Keywords: []string{"docker"},
			},
			wantCategory: false,
		},
		{
			name: "detected category applies for category_keyword intent",
			intent: &types.QueryIntent{
				Intent:   types.IntentCategoryKeyword,
				Category: "blogs",
				Keywords: []string{"docker"},
			},
			wantCategory: true,
		},
		{
			name: "detected category applies for category_only intent",
			intent: &types.QueryIntent{
				Intent:   types.IntentCategoryOnly,
				Category: "blogs",
			},
			wantCategory: true,
		},
		{
			name: "explicit filter wins even for plain search intent",
			intent: &types.QueryIntent{
				Intent:   types.IntentSearch,
				Category: "blogs",
				Keywords: []string{"docker"},
			},
			filter:       "news",
			wantCategory: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Build(tt.intent, tt.filter)
			got := countKind(q.Must, "term")
			if tt.wantCategory && got != 1 {
				t.Errorf("expected one mandatory category clause, got %d", got)
			}
			if !tt.wantCategory && got != 0 {
				t.Errorf("expected no category clause, got %d", got)
			}
		})
	}
}

func TestBuild_ExplicitFilterOverridesDetected(t *testing.T) {
	intent := &types.QueryIntent{
		Intent:   types.IntentCategoryKeyword,
		Category: "blogs",
		Keywords: []string{"docker"},
	}

	q := Build(intent, "news")

	if len(q.Must) != 1 {
		t.Fatalf("expected 1 must clause, got %d", len(q.Must))
	}
	term := q.Must[0]["term"].(map[string]interface{})
	if term["category"] != "news" {
		t.Errorf("expected explicit filter 'news' to win, got %v", term["category"])
	}
}

func TestBuild_EmptyQueryWithCategory(t *testing.T) {
	// Category-only navigation: no terms must still match every document in
	// the category, not suppress everything.
	intent := &types.QueryIntent{Intent: types.IntentSearch}

	q := Build(intent, "blogs")

	if len(q.Must) != 1 {
		t.Fatalf("expected mandatory category clause, got %d must clauses", len(q.Must))
	}
	if len(q.Should) != 0 {
		t.Errorf("expected no should clauses, got %d", len(q.Should))
	}
	if q.MinimumShouldMatch != 0 {
		t.Errorf("expected minimum_should_match 0, got %d", q.MinimumShouldMatch)
	}
}

func TestBuild_NoClausesMatchesAll(t *testing.T) {
	q := Build(&types.QueryIntent{Intent: types.IntentSearch}, "")

	body := q.Body()
	if _, ok := body["match_all"]; !ok {
		t.Errorf("expected match_all body for empty query, got %v", body)
	}
}

func TestBuild_ShortTermsSkipAffixClauses(t *testing.T) {
	intent := &types.QueryIntent{
		Intent:   types.IntentSearch,
		Keywords: []string{"go"},
	}

	q := Build(intent, "")

	if n := countKind(q.Should, "prefix"); n != 0 {
		t.Errorf("expected no prefix clauses for a 2-rune term, got %d", n)
	}
	if n := countKind(q.Should, "wildcard"); n != 0 {
		t.Errorf("expected no wildcard clauses for a 2-rune term, got %d", n)
	}
	// phrase + match across 4 fields
	if len(q.Should) != 8 {
		t.Errorf("expected 8 should clauses, got %d", len(q.Should))
	}
}

func TestBuild_TermUnionDeduplicates(t *testing.T) {
	intent := &types.QueryIntent{
		Intent:        types.IntentSearch,
		Keywords:      []string{"docker"},
		ExpandedTerms: []string{"Docker", "containers"},
		Synonyms:      []string{"containers"},
	}

	q := Build(intent, "")

	// Union is {docker, containers}: 2 terms x 4 fields x 4 tiers.
	if len(q.Should) != 32 {
		t.Errorf("expected 32 should clauses for deduplicated union, got %d", len(q.Should))
	}
}

func TestBuild_BoostOrdering(t *testing.T) {
	// Within one tier, title must outweigh page_description, which must
	// outweigh content, which must outweigh description.
	for _, tier := range []float64{boostPhrase, boostMatch, boostPrefix, boostWildcard} {
		last := float64(0)
		for i := len(fieldWeights) - 1; i >= 0; i-- {
			boost := tier * fieldWeights[i].weight
			if boost <= last {
				t.Errorf("field %s boost %v not above weaker field's %v at tier %v",
					fieldWeights[i].field, boost, last, tier)
			}
			last = boost
		}
	}

	// Within one field, phrase > match > prefix > wildcard.
	if !(boostPhrase > boostMatch && boostMatch > boostPrefix && boostPrefix > boostWildcard) {
		t.Error("clause tier boosts out of order")
	}
}
