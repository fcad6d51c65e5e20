// Package ranker optionally reorders a bounded candidate page using the
// external language service. Ranking is best-effort: every failure path
// degrades to identity order and the outcome is cached either way, keyed on
// the query plus the identity of the candidate set.
package ranker

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/quarkloom/sitesearch/internal/llm"
	"github.com/quarkloom/sitesearch/internal/pkg/cache"
	"github.com/quarkloom/sitesearch/internal/pkg/logger"
	"github.com/quarkloom/sitesearch/internal/search/types"
)

// maxRankable bounds the candidate count sent to the ranking service.
// Larger sets skip ranking and keep index order.
const maxRankable = 20

const rankSystemPrompt = `You rank search results for relevance to a user query.
You are given a numbered list of results (title, url, snippet). Respond with
a JSON array containing every original 0-based index exactly once, ordered
from most to least relevant. Respond with the JSON array only.`

// Ranker is the result-ranking stage.
type Ranker struct {
	llm    llm.Client
	cache  *cache.Cache[[]string] // ordered result IDs per (query, candidate identity)
	logger *logger.Logger
}

// New creates the ranking stage. A nil llm client makes every call an
// identity pass-through.
func New(client llm.Client, orders *cache.Cache[[]string], lgr *logger.Logger) *Ranker {
	if lgr == nil {
		lgr = logger.L()
	}
	return &Ranker{
		llm:    client,
		cache:  orders,
		logger: lgr.Named("ranker"),
	}
}

// Rank reorders results for the query. The output is always a permutation
// of the input: same elements, same length, nothing added, dropped or
// duplicated. Rank never returns an error; it degrades to the original
// order instead.
func (r *Ranker) Rank(ctx context.Context, query string, intent types.IntentType, results []*types.SearchResult) []*types.SearchResult {
	if len(results) <= 1 {
		return results
	}

	ids := resultIDs(results)
	key := cache.ResultKey(query, ids...)

	if order, ok := r.cache.Get(key); ok {
		if reordered, ok := applyOrder(results, order); ok {
			return reordered
		}
		// Cached order no longer lines up with the candidates; fall through
		// and recompute.
	}

	order := r.rankOrder(ctx, query, intent, results, ids)
	// Cache the identity outcome too, so repeated large or failing queries
	// do not re-attempt ranking within the TTL.
	r.cache.Put(key, order)

	reordered, ok := applyOrder(results, order)
	if !ok {
		return results
	}
	return reordered
}

// rankOrder asks the ranking service for a permutation and returns the
// resulting ID order, or the identity order on any failure.
func (r *Ranker) rankOrder(ctx context.Context, query string, intent types.IntentType, results []*types.SearchResult, ids []string) []string {
	if r.llm == nil || len(results) > maxRankable {
		return ids
	}

	raw, err := r.llm.Complete(ctx, rankSystemPrompt, rankPrompt(query, intent, results))
	if err != nil {
		r.logger.Warn("ranking service failed, keeping index order",
			zap.String("query", query), zap.Error(err))
		return ids
	}

	perm, ok := parsePermutation(raw, len(results))
	if !ok {
		r.logger.Warn("ranking service returned invalid permutation, keeping index order",
			zap.String("query", query), zap.Int("candidates", len(results)))
		return ids
	}

	ordered := make([]string, len(perm))
	for i, idx := range perm {
		ordered[i] = ids[idx]
	}
	return ordered
}

func rankPrompt(query string, intent types.IntentType, results []*types.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\nIntent: %s\n\nResults:\n", query, intent)
	for i, res := range results {
		snippet := res.Description
		if snippet == "" {
			snippet = res.Content
		}
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		fmt.Fprintf(&b, "%d. %s | %s | %s\n", i, res.Title, res.URL, snippet)
	}
	return b.String()
}

// parsePermutation validates that raw is exactly a reordering of 0..n-1:
// right length, every index in range, no duplicates.
func parsePermutation(raw string, n int) ([]int, bool) {
	doc := gjson.Parse(strings.TrimSpace(raw))
	if !doc.IsArray() {
		return nil, false
	}

	items := doc.Array()
	if len(items) != n {
		return nil, false
	}

	perm := make([]int, 0, n)
	seen := make(map[int]struct{}, n)
	for _, item := range items {
		if item.Type != gjson.Number {
			return nil, false
		}
		idx := int(item.Int())
		if idx < 0 || idx >= n {
			return nil, false
		}
		if _, dup := seen[idx]; dup {
			return nil, false
		}
		seen[idx] = struct{}{}
		perm = append(perm, idx)
	}
	return perm, true
}

func resultIDs(results []*types.SearchResult) []string {
	ids := make([]string, len(results))
	for i, res := range results {
		ids[i] = res.ID
		if ids[i] == "" {
			ids[i] = res.URL
		}
	}
	return ids
}

// applyOrder reorders results to match the given ID order. It reports !ok
// when the order is not a one-to-one mapping over the candidate set.
func applyOrder(results []*types.SearchResult, order []string) ([]*types.SearchResult, bool) {
	if len(order) != len(results) {
		return nil, false
	}

	byID := make(map[string]*types.SearchResult, len(results))
	for _, res := range results {
		id := res.ID
		if id == "" {
			id = res.URL
		}
		byID[id] = res
	}

	reordered := make([]*types.SearchResult, 0, len(results))
	seen := make(map[string]struct{}, len(order))
	for _, id := range order {
		res, ok := byID[id]
		if !ok {
			return nil, false
		}
		if _, dup := seen[id]; dup {
			return nil, false
		}
		seen[id] = struct{}{}
		reordered = append(reordered, res)
	}
	return reordered, true
}
