package ranker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarkloom/sitesearch/internal/pkg/cache"
	"github.com/quarkloom/sitesearch/internal/search/types"
)

type stubLLM struct {
	calls    int
	response string
	err      error
}

func (s *stubLLM) Complete(ctx context.Context, system, user string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func makeResults(n int) []*types.SearchResult {
	results := make([]*types.SearchResult, n)
	for i := range results {
		results[i] = &types.SearchResult{
			ID:    fmt.Sprintf("doc%d", i),
			URL:   fmt.Sprintf("https://example.com/%d", i),
			Title: fmt.Sprintf("Result %d", i),
		}
	}
	return results
}

func newTestRanker(llm *stubLLM) (*Ranker, *cache.Cache[[]string]) {
	orders := cache.New[[]string]("ranking", 30*time.Minute)
	return New(llm, orders, nil), orders
}

func assertPermutation(t *testing.T, original, got []*types.SearchResult) {
	t.Helper()
	require.Len(t, got, len(original))
	seen := make(map[string]int)
	for _, res := range got {
		seen[res.ID]++
	}
	for _, res := range original {
		assert.Equal(t, 1, seen[res.ID], "result %s must appear exactly once", res.ID)
	}
}

func TestRank_AppliesValidPermutation(t *testing.T) {
	llm := &stubLLM{response: `[2, 0, 1]`}
	r, _ := newTestRanker(llm)
	results := makeResults(3)

	got := r.Rank(context.Background(), "spm", types.IntentSearch, results)

	require.Len(t, got, 3)
	assert.Equal(t, "doc2", got[0].ID)
	assert.Equal(t, "doc0", got[1].ID)
	assert.Equal(t, "doc1", got[2].ID)
	assertPermutation(t, results, got)
}

func TestRank_InvalidPermutations(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"wrong length", `[0, 1]`},
		{"duplicate index", `[0, 1, 1]`},
		{"out of range", `[0, 1, 3]`},
		{"negative index", `[0, -1, 2]`},
		{"not an array", `{"order": [0, 1, 2]}`},
		{"not numbers", `["a", "b", "c"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &stubLLM{response: tt.response}
			r, _ := newTestRanker(llm)
			results := makeResults(3)

			got := r.Rank(context.Background(), "spm", types.IntentSearch, results)

			// Identity fallback keeps the original order.
			for i, res := range got {
				assert.Equal(t, results[i].ID, res.ID)
			}
			assertPermutation(t, results, got)
		})
	}
}

func TestRank_ServiceFailureKeepsOrderAndCaches(t *testing.T) {
	llm := &stubLLM{err: errors.New("timeout")}
	r, _ := newTestRanker(llm)
	results := makeResults(5)

	got := r.Rank(context.Background(), "spm", types.IntentSearch, results)
	for i, res := range got {
		assert.Equal(t, results[i].ID, res.ID)
	}

	// The identity outcome was cached: no second service attempt.
	r.Rank(context.Background(), "spm", types.IntentSearch, results)
	assert.Equal(t, 1, llm.calls)
}

func TestRank_LargeSetsSkipService(t *testing.T) {
	llm := &stubLLM{response: `[0]`}
	r, _ := newTestRanker(llm)
	results := makeResults(21)

	got := r.Rank(context.Background(), "spm", types.IntentSearch, results)

	assert.Equal(t, 0, llm.calls, "sets above the rankable bound must not reach the service")
	assertPermutation(t, results, got)
}

func TestRank_CacheHit(t *testing.T) {
	llm := &stubLLM{response: `[1, 0]`}
	r, _ := newTestRanker(llm)
	results := makeResults(2)

	first := r.Rank(context.Background(), "spm", types.IntentSearch, results)
	second := r.Rank(context.Background(), "spm", types.IntentSearch, results)

	assert.Equal(t, 1, llm.calls)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, "doc1", second[0].ID)
}

func TestRank_CacheKeySensitiveToCandidates(t *testing.T) {
	// Same query over different candidate sets must not share a cache hit.
	llm := &stubLLM{response: `[0, 1]`}
	r, _ := newTestRanker(llm)

	resultsA := makeResults(2)
	resultsB := []*types.SearchResult{
		{ID: "other1", Title: "Other 1"},
		{ID: "other2", Title: "Other 2"},
	}

	r.Rank(context.Background(), "spm", types.IntentSearch, resultsA)
	r.Rank(context.Background(), "spm", types.IntentSearch, resultsB)

	assert.Equal(t, 2, llm.calls)
}

func TestRank_SingleResultPassesThrough(t *testing.T) {
	llm := &stubLLM{}
	r, _ := newTestRanker(llm)
	results := makeResults(1)

	got := r.Rank(context.Background(), "spm", types.IntentSearch, results)

	assert.Equal(t, results, got)
	assert.Equal(t, 0, llm.calls)
}

func TestRank_NilClientIdentity(t *testing.T) {
	orders := cache.New[[]string]("ranking", time.Minute)
	r := New(nil, orders, nil)
	results := makeResults(4)

	got := r.Rank(context.Background(), "spm", types.IntentSearch, results)

	for i, res := range got {
		assert.Equal(t, results[i].ID, res.ID)
	}
}
