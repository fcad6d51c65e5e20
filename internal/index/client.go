// Package index adapts the external full-text index engine. The engine
// executes boolean/phrase/prefix queries with scoring and term aggregations
// over the catalogued page corpus; this package only speaks its JSON search
// API and maps replies onto pipeline types.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/quarkloom/sitesearch/internal/pkg/logger"
)

// Engine is the narrow index-engine contract the pipeline consumes.
type Engine interface {
	// Search executes q and returns up to size hits starting at offset from,
	// ordered by the given sort specification.
	Search(ctx context.Context, q *BoolQuery, size, from int, sort []SortField) (*SearchReply, error)
	// Aggregate executes q with size 0 and a terms aggregation on field,
	// returning per-bucket document counts.
	Aggregate(ctx context.Context, q *BoolQuery, field string) (map[string]int64, error)
}

// Config configures the HTTP index client.
type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Index   string        `mapstructure:"index"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Client is the HTTP JSON implementation of Engine.
type Client struct {
	baseURL    string
	index      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates an index client.
func NewClient(cfg *Config, lgr *logger.Logger) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("index base url is required")
	}
	if cfg.Index == "" {
		cfg.Index = "pages"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if lgr == nil {
		lgr = logger.L()
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		index:      cfg.Index,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     lgr.Named("index"),
	}, nil
}

type searchEnvelope struct {
	Hits struct {
		Total totalCount `json:"total"`
		Hits  []Hit      `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []struct {
			Key      string `json:"key"`
			DocCount int64  `json:"doc_count"`
		} `json:"buckets"`
	} `json:"aggregations"`
}

// Search implements Engine.
func (c *Client) Search(ctx context.Context, q *BoolQuery, size, from int, sort []SortField) (*SearchReply, error) {
	body := map[string]interface{}{
		"query": q.Body(),
		"size":  size,
		"from":  from,
	}
	if len(sort) > 0 {
		sortSpec := make([]map[string]interface{}, 0, len(sort))
		for _, s := range sort {
			order := "asc"
			if s.Desc {
				order = "desc"
			}
			sortSpec = append(sortSpec, map[string]interface{}{
				s.Field: map[string]interface{}{"order": order},
			})
		}
		body["sort"] = sortSpec
	}

	start := time.Now()
	env, err := c.execute(ctx, body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("index search completed",
		zap.Int64("total", int64(env.Hits.Total)),
		zap.Int("hits", len(env.Hits.Hits)),
		zap.Duration("took", time.Since(start)))

	return &SearchReply{
		Total: int64(env.Hits.Total),
		Hits:  env.Hits.Hits,
	}, nil
}

// Aggregate implements Engine.
func (c *Client) Aggregate(ctx context.Context, q *BoolQuery, field string) (map[string]int64, error) {
	body := map[string]interface{}{
		"query": q.Body(),
		"size":  0,
		"aggs": map[string]interface{}{
			"categories": map[string]interface{}{
				"terms": map[string]interface{}{
					"field": field,
					"size":  50,
				},
			},
		},
	}

	env, err := c.execute(ctx, body)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	if agg, ok := env.Aggregations["categories"]; ok {
		for _, bucket := range agg.Buckets {
			counts[bucket.Key] = bucket.DocCount
		}
	}
	return counts, nil
}

func (c *Client) execute(ctx context.Context, body map[string]interface{}) (*searchEnvelope, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/_search", c.baseURL, c.index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("index engine returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return nil, fmt.Errorf("search failed: HTTP %d", resp.StatusCode)
	}

	var env searchEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return &env, nil
}
