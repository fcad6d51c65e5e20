// Package understand normalizes a raw query string into a structured intent
// record, consulting the understanding cache before calling the external
// natural-language service and degrading to a local keyword split when the
// service is unavailable.
package understand

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/quarkloom/sitesearch/internal/llm"
	"github.com/quarkloom/sitesearch/internal/pkg/cache"
	"github.com/quarkloom/sitesearch/internal/pkg/logger"
	"github.com/quarkloom/sitesearch/internal/search/types"
)

const understandSystemPrompt = `You analyze search queries for a website search engine over a catalogued corpus of web pages.
Site categories: %CATEGORIES%.
Given a user query, respond with a single JSON object and nothing else:
{
  "intent": "search" | "category_keyword" | "category_only" | "question",
  "category": "<one of the site categories, or null>",
  "keywords": ["<core search keywords>"],
  "corrected_query": "<spelling-corrected query, or null if already correct>",
  "expanded_terms": ["<related terms that widen the search>"],
  "synonyms": ["<synonyms and abbreviation expansions>"],
  "did_you_mean": "<suggestion to show the user, or null>"
}
Use "category_only" when the query is pure navigation to a category,
"category_keyword" when keywords are scoped to a category, "question" for
natural-language questions, and "search" otherwise.`

const suggestSystemPrompt = `You suggest related search queries for a website search engine.
Given a user query, respond with a JSON array of up to 5 short related
query strings and nothing else.`

// Service is the query understanding stage.
type Service struct {
	llm         llm.Client
	cache       *cache.Cache[*types.QueryIntent]
	suggestions *cache.Cache[[]string]
	categories  []string
	logger      *logger.Logger
}

// New creates the understanding stage. A nil llm client disables the
// external call entirely; every query then takes the local fallback path.
func New(client llm.Client, intents *cache.Cache[*types.QueryIntent], suggestions *cache.Cache[[]string], categories []string, lgr *logger.Logger) *Service {
	if lgr == nil {
		lgr = logger.L()
	}
	return &Service{
		llm:         client,
		cache:       intents,
		suggestions: suggestions,
		categories:  categories,
		logger:      lgr.Named("understand"),
	}
}

// Understand resolves the structured intent for a raw query. It never
// returns an error: external-service failures degrade to a deterministic
// local fallback, which is not cached so a transient outage cannot poison
// the cache for the TTL window.
func (s *Service) Understand(ctx context.Context, query string) *types.QueryIntent {
	if strings.TrimSpace(query) == "" {
		return emptyIntent()
	}

	key := cache.NormalizeQuery(query)
	if cached, ok := s.cache.Get(key); ok {
		return cached
	}

	if s.llm == nil {
		return fallbackIntent(query)
	}

	prompt := strings.ReplaceAll(understandSystemPrompt, "%CATEGORIES%", strings.Join(s.categories, ", "))
	raw, err := s.llm.Complete(ctx, prompt, query)
	if err != nil {
		s.logger.Warn("understanding service failed, using keyword fallback",
			zap.String("query", query), zap.Error(err))
		return fallbackIntent(query)
	}

	intent, ok := parseIntent(raw)
	if !ok {
		s.logger.Warn("understanding service returned malformed response",
			zap.String("query", query))
		return fallbackIntent(query)
	}

	// Cache even a degenerate record: the same understanding call must not
	// be issued twice for the same query within the TTL.
	s.cache.Put(key, intent)
	return intent
}

// Suggest returns related query suggestions, cached per normalized query.
// Failures degrade to an empty list and are not cached.
func (s *Service) Suggest(ctx context.Context, query string) []string {
	if strings.TrimSpace(query) == "" {
		return []string{}
	}

	key := cache.NormalizeQuery(query)
	if cached, ok := s.suggestions.Get(key); ok {
		return cached
	}

	if s.llm == nil {
		return []string{}
	}

	raw, err := s.llm.Complete(ctx, suggestSystemPrompt, query)
	if err != nil {
		s.logger.Warn("suggestion service failed", zap.String("query", query), zap.Error(err))
		return []string{}
	}

	suggestions := parseStringList(gjson.Parse(stripFences(raw)))
	s.suggestions.Put(key, suggestions)
	return suggestions
}

func emptyIntent() *types.QueryIntent {
	return &types.QueryIntent{
		Intent:        types.IntentSearch,
		Keywords:      []string{},
		ExpandedTerms: []string{},
		Synonyms:      []string{},
	}
}

// fallbackIntent is the deterministic local substitute for the external
// service: plain search intent with whitespace-split keywords.
func fallbackIntent(query string) *types.QueryIntent {
	return &types.QueryIntent{
		Intent:        types.IntentSearch,
		Keywords:      strings.Fields(query),
		ExpandedTerms: []string{},
		Synonyms:      []string{},
	}
}

// parseIntent extracts a QueryIntent from the service's response. Missing
// fields default to empty; an unparseable response reports !ok.
func parseIntent(raw string) (*types.QueryIntent, bool) {
	doc := gjson.Parse(stripFences(raw))
	if !doc.IsObject() {
		return nil, false
	}

	return &types.QueryIntent{
		Intent:         types.ParseIntentType(doc.Get("intent").String()),
		Category:       doc.Get("category").String(),
		Keywords:       parseStringList(doc.Get("keywords")),
		CorrectedQuery: doc.Get("corrected_query").String(),
		ExpandedTerms:  parseStringList(doc.Get("expanded_terms")),
		Synonyms:       parseStringList(doc.Get("synonyms")),
		DidYouMean:     doc.Get("did_you_mean").String(),
	}, true
}

func parseStringList(res gjson.Result) []string {
	out := []string{}
	if !res.IsArray() {
		return out
	}
	for _, item := range res.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// stripFences removes a surrounding markdown code fence, which some models
// add around JSON despite instructions.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}
