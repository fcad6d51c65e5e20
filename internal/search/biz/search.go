// Package biz holds the search use case: the orchestrator that sequences
// query understanding, query building, index execution, ranking, overview
// synthesis and aggregation into one response.
package biz

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/quarkloom/sitesearch/internal/index"
	apperrors "github.com/quarkloom/sitesearch/internal/pkg/errors"
	"github.com/quarkloom/sitesearch/internal/pkg/logger"
	"github.com/quarkloom/sitesearch/internal/search/overview"
	"github.com/quarkloom/sitesearch/internal/search/querybuilder"
	"github.com/quarkloom/sitesearch/internal/search/ranker"
	"github.com/quarkloom/sitesearch/internal/search/types"
	"github.com/quarkloom/sitesearch/internal/search/understand"
)

// maxCandidates caps how many hits one search fetches from the engine,
// regardless of page size.
const maxCandidates = 100

// Config bounds request paging.
type Config struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

// SearchUseCase orchestrates the search pipeline. One instance serves all
// requests; the only cross-request state lives in the injected caches of
// the stages it sequences.
type SearchUseCase struct {
	engine       index.Engine
	understander *understand.Service
	ranker       *ranker.Ranker
	overview     *overview.Synthesizer
	logger       *logger.Logger

	defaultPageSize int
	maxPageSize     int
}

// NewSearchUseCase wires the pipeline stages together.
func NewSearchUseCase(engine index.Engine, u *understand.Service, r *ranker.Ranker, o *overview.Synthesizer, cfg *Config, lgr *logger.Logger) *SearchUseCase {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 50
	}
	if lgr == nil {
		lgr = logger.L()
	}

	return &SearchUseCase{
		engine:          engine,
		understander:    u,
		ranker:          r,
		overview:        o,
		logger:          lgr.Named("search"),
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
	}
}

type aggOutcome struct {
	counts map[string]int64
	err    error
}

// Search runs the full pipeline for one request. A nil error with an empty
// response is the "nothing to search" case; a non-nil error still carries a
// well-formed empty response so the caller can render a graceful empty
// state. No exception escapes this boundary.
func (uc *SearchUseCase) Search(ctx context.Context, req *types.SearchRequest) (resp *types.SearchResponse, err error) {
	page, pageSize := uc.clampPaging(req.Page, req.PageSize)

	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("search pipeline panic recovered",
				zap.Any("panic", r),
				zap.String("query", req.Query),
				zap.String("caller_id", req.CallerID))
			resp = types.EmptyResponse(page, pageSize)
			err = apperrors.New(apperrors.ErrSearchFailed, "internal pipeline failure")
		}
	}()

	query := strings.TrimSpace(req.Query)
	category := strings.TrimSpace(req.Category)

	// Nothing to search. Not an error.
	if query == "" && category == "" {
		return types.EmptyResponse(page, pageSize), nil
	}

	intent := uc.understander.Understand(ctx, query)
	boolQuery := querybuilder.Build(intent, category)

	size := 2 * pageSize
	if size > maxCandidates {
		size = maxCandidates
	}
	from := (page - 1) * pageSize
	sort := []index.SortField{
		{Field: "_score", Desc: true},
		{Field: "last_modified", Desc: true},
	}

	// The aggregation is independent of the candidate search; run it
	// concurrently.
	aggCh := make(chan aggOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				aggCh <- aggOutcome{err: fmt.Errorf("aggregation panic: %v", r)}
			}
		}()
		counts, aggErr := uc.engine.Aggregate(ctx, boolQuery, "category")
		aggCh <- aggOutcome{counts: counts, err: aggErr}
	}()

	reply, searchErr := uc.engine.Search(ctx, boolQuery, size, from, sort)
	agg := <-aggCh

	if searchErr != nil {
		uc.logger.Error("index search failed",
			zap.String("query", query),
			zap.String("category", category),
			zap.Error(searchErr))
		return types.EmptyResponse(page, pageSize), apperrors.Wrap(searchErr, apperrors.ErrSearchFailed)
	}

	results := mapHits(reply.Hits)
	if len(results) > 0 && query != "" {
		results = uc.ranker.Rank(ctx, query, intent.Intent, results)
	}
	if len(results) > pageSize {
		results = results[:pageSize]
	}

	resp = &types.SearchResponse{
		Results:        results,
		Total:          reply.Total,
		CategoryCounts: uc.categoryCounts(agg),
		Page:           page,
		PageSize:       pageSize,
		TotalPages:     totalPages(reply.Total, pageSize),
		Intent:         intent.Intent,
	}

	// Overview and didYouMean only belong on the first page.
	if page == 1 {
		if query != "" && len(results) > 0 {
			resp.Overview = uc.overview.Summarize(ctx, query, results)
		}
		resp.DidYouMean = intent.Suggestion()
	}

	uc.logger.Info("search completed",
		zap.String("query", query),
		zap.String("category", category),
		zap.String("intent", string(intent.Intent)),
		zap.Int64("total", resp.Total),
		zap.Int("page", page),
		zap.Int("results", len(results)),
		zap.String("caller_id", req.CallerID))

	return resp, nil
}

// categoryCounts merges the aggregation outcome, degrading to an empty map
// on failure rather than failing the request.
func (uc *SearchUseCase) categoryCounts(agg aggOutcome) map[string]int64 {
	if agg.err != nil {
		uc.logger.Warn("category aggregation failed, returning empty counts", zap.Error(agg.err))
		return map[string]int64{}
	}

	counts := make(map[string]int64, len(agg.counts)+1)
	var all int64
	for category, n := range agg.counts {
		counts[category] = n
		all += n
	}
	counts[types.AllCategories] = all
	return counts
}

func (uc *SearchUseCase) clampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = uc.defaultPageSize
	}
	if pageSize > uc.maxPageSize {
		pageSize = uc.maxPageSize
	}
	return page, pageSize
}

func mapHits(hits []index.Hit) []*types.SearchResult {
	results := make([]*types.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, &types.SearchResult{
			ID:              hit.ID,
			URL:             hit.Source.URL,
			Title:           hit.Source.Title,
			Description:     hit.Source.Description,
			Content:         hit.Source.Content,
			PageDescription: hit.Source.PageDescription,
			Category:        hit.Source.Category,
			LastModified:    hit.Source.LastModified,
			Score:           hit.Score,
		})
	}
	return results
}

func totalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
