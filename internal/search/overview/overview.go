// Package overview produces a short natural-language summary of the top
// search results. Outcomes, including the "nothing to summarize" outcome,
// are cached per (query, top-3 result identity) so a shifted result set
// invalidates the summary even when the query text is unchanged.
package overview

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/quarkloom/sitesearch/internal/llm"
	"github.com/quarkloom/sitesearch/internal/pkg/cache"
	"github.com/quarkloom/sitesearch/internal/pkg/logger"
	"github.com/quarkloom/sitesearch/internal/search/types"
)

const (
	// topPrompted is how many results feed the summarization prompt.
	topPrompted = 5
	// topKeyed is how many result identities feed the cache key.
	topKeyed = 3
	// snippetLimit bounds per-result snippet length in the prompt.
	snippetLimit = 200
)

const overviewSystemPrompt = `You summarize search results for a website search engine.
Given a user query and the top results, write one short paragraph (2-3
sentences) describing what the results cover. Plain text only.`

// Synthesizer is the overview stage.
type Synthesizer struct {
	llm    llm.Client
	cache  *cache.Cache[string]
	logger *logger.Logger
}

// New creates the overview stage. A nil llm client disables summarization.
func New(client llm.Client, overviews *cache.Cache[string], lgr *logger.Logger) *Synthesizer {
	if lgr == nil {
		lgr = logger.L()
	}
	return &Synthesizer{
		llm:    client,
		cache:  overviews,
		logger: lgr.Named("overview"),
	}
}

// Summarize returns a short overview of the top results, or "" when there is
// nothing to summarize or the service fails. A failed summarization is
// cached as empty so it is not retried on every request within the TTL.
func (s *Synthesizer) Summarize(ctx context.Context, query string, results []*types.SearchResult) string {
	if strings.TrimSpace(query) == "" || len(results) == 0 {
		return ""
	}

	keyed := results
	if len(keyed) > topKeyed {
		keyed = keyed[:topKeyed]
	}
	ids := make([]string, len(keyed))
	for i, res := range keyed {
		ids[i] = res.ID
		if ids[i] == "" {
			ids[i] = res.URL
		}
	}
	key := cache.ResultKey(query, ids...)

	// A hit is returned as-is, a cached empty string included: a prior
	// "nothing to summarize" determination must not be recomputed.
	if cached, ok := s.cache.Get(key); ok {
		return cached
	}

	summary := s.synthesize(ctx, query, results)
	s.cache.Put(key, summary)
	return summary
}

func (s *Synthesizer) synthesize(ctx context.Context, query string, results []*types.SearchResult) string {
	if s.llm == nil {
		return ""
	}

	top := results
	if len(top) > topPrompted {
		top = top[:topPrompted]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nTop results:\n", query)
	for i, res := range top {
		snippet := res.Description
		if snippet == "" {
			snippet = res.Content
		}
		if len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit]
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, res.Title, snippet)
	}

	raw, err := s.llm.Complete(ctx, overviewSystemPrompt, b.String())
	if err != nil {
		s.logger.Warn("overview service failed", zap.String("query", query), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(raw)
}
