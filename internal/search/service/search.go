// Package service exposes the search pipeline over HTTP. The transport layer
// stays thin: parse the request, call the use case, shape the response.
package service

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quarkloom/sitesearch/internal/pkg/cache"
	"github.com/quarkloom/sitesearch/internal/pkg/logger"
	"github.com/quarkloom/sitesearch/internal/pkg/response"
	"github.com/quarkloom/sitesearch/internal/search/biz"
	"github.com/quarkloom/sitesearch/internal/search/types"
	"github.com/quarkloom/sitesearch/internal/search/understand"
)

// SearchService is the HTTP front door for the search pipeline.
type SearchService struct {
	uc           *biz.SearchUseCase
	understander *understand.Service
	sweeper      *cache.Sweeper
	logger       *logger.Logger
}

// NewSearchService creates the service.
func NewSearchService(uc *biz.SearchUseCase, u *understand.Service, sweeper *cache.Sweeper, lgr *logger.Logger) *SearchService {
	if lgr == nil {
		lgr = logger.L()
	}
	return &SearchService{
		uc:           uc,
		understander: u,
		sweeper:      sweeper,
		logger:       lgr.Named("service"),
	}
}

// RegisterRoutes registers the search API routes.
func (s *SearchService) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/search", s.SearchGET)
	r.POST("/search", s.SearchPOST)
	r.GET("/suggest", s.Suggest)
	r.GET("/cache/stats", s.CacheStats)
	r.POST("/cache/clear", s.CacheClear)
}

// SearchGET handles query-parameter searches.
func (s *SearchService) SearchGET(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	s.search(c, &types.SearchRequest{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Page:     page,
		PageSize: pageSize,
		CallerID: c.Query("caller_id"),
	})
}

// SearchPOST handles JSON-body searches.
func (s *SearchService) SearchPOST(c *gin.Context) {
	var req types.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	s.search(c, &req)
}

func (s *SearchService) search(c *gin.Context, req *types.SearchRequest) {
	requestID := uuid.NewString()

	resp, err := s.uc.Search(c.Request.Context(), req)
	if err != nil {
		// The response still carries the well-formed empty result shape so
		// the caller can render an empty state. Diagnostics go to the log,
		// not to end users.
		s.logger.Error("search request failed",
			zap.String("request_id", requestID),
			zap.String("query", req.Query),
			zap.Error(err))
		response.HandleErrorWithData(c, err, resp)
		return
	}

	response.Success(c, resp)
}

// Suggest returns related query suggestions.
func (s *SearchService) Suggest(c *gin.Context) {
	query := c.Query("q")
	suggestions := s.understander.Suggest(c.Request.Context(), query)
	response.Success(c, gin.H{
		"query":       query,
		"suggestions": suggestions,
	})
}

// CacheStats reports per-class cache size and TTL.
func (s *SearchService) CacheStats(c *gin.Context) {
	response.Success(c, gin.H{"classes": s.sweeper.Stats()})
}

// CacheClear empties the caches. With a q parameter only the entries for
// that query are removed; without one every class is cleared.
func (s *SearchService) CacheClear(c *gin.Context) {
	if query := c.Query("q"); query != "" {
		removed := s.sweeper.ClearQuery(query)
		response.Success(c, gin.H{"cleared": true, "removed": removed})
		return
	}
	s.sweeper.ClearAll()
	response.Success(c, gin.H{"cleared": true})
}
