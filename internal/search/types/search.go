package types

import "time"

// AllCategories is the distinguished key in CategoryCounts holding the total
// across every category.
const AllCategories = "all"

// SearchRequest is the caller-facing search operation input.
type SearchRequest struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"` // explicit filter, wins over detected category
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	CallerID string `json:"caller_id,omitempty"`
}

// SearchResult is one catalogued page in a result set. It lives for the
// duration of a single request and is never persisted by this subsystem.
type SearchResult struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Content         string    `json:"content"`
	PageDescription string    `json:"page_description,omitempty"`
	Category        string    `json:"category"`
	LastModified    time.Time `json:"last_modified"`
	Score           float64   `json:"score,omitempty"`
}

// SearchResponse is the assembled answer for one search request.
type SearchResponse struct {
	Results        []*SearchResult  `json:"results"`
	Total          int64            `json:"total"`
	CategoryCounts map[string]int64 `json:"category_counts"`
	Page           int              `json:"page"`
	PageSize       int              `json:"page_size"`
	TotalPages     int              `json:"total_pages"`
	Overview       string           `json:"overview,omitempty"`
	DidYouMean     string           `json:"did_you_mean,omitempty"`
	Intent         IntentType       `json:"intent"`
}

// EmptyResponse returns a well-formed zero-result response for the given
// paging, used both for the "nothing to search" case and for degraded
// failure responses.
func EmptyResponse(page, pageSize int) *SearchResponse {
	return &SearchResponse{
		Results:        []*SearchResult{},
		Total:          0,
		CategoryCounts: map[string]int64{},
		Page:           page,
		PageSize:       pageSize,
		TotalPages:     0,
		Intent:         IntentSearch,
	}
}
