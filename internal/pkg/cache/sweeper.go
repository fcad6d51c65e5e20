package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/quarkloom/sitesearch/internal/pkg/logger"
)

// Class is the type-erased view of a cache class. It is what the sweeper and
// the admin endpoints operate on, since the concrete caches carry different
// value types.
type Class interface {
	Name() string
	Len() int
	TTL() time.Duration
	Sweep() int
	Clear()
	ClearPrefix(prefix string) int
}

// ClassStats describes one cache class for the admin stats endpoint.
type ClassStats struct {
	Name string `json:"name"`
	Size int    `json:"size"`
	TTL  string `json:"ttl"`
}

// Sweeper periodically evicts expired entries across all registered cache
// classes. It runs on its own schedule, independent of request traffic.
type Sweeper struct {
	classes  []Class
	interval time.Duration
	logger   *logger.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a sweeper over the given cache classes.
func NewSweeper(interval time.Duration, lgr *logger.Logger, classes ...Class) *Sweeper {
	if lgr == nil {
		lgr = logger.L()
	}
	return &Sweeper{
		classes:  classes,
		interval: interval,
		logger:   lgr.Named("cache-sweeper"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start() {
	go s.run()
}

// Stop terminates the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepOnce()
		case <-s.stop:
			return
		}
	}
}

func (s *Sweeper) sweepOnce() {
	for _, c := range s.classes {
		if evicted := c.Sweep(); evicted > 0 {
			s.logger.Debug("evicted expired cache entries",
				zap.String("class", c.Name()),
				zap.Int("evicted", evicted),
				zap.Int("remaining", c.Len()))
		}
	}
}

// ClearAll empties every registered cache class.
func (s *Sweeper) ClearAll() {
	for _, c := range s.classes {
		c.Clear()
	}
	s.logger.Info("cleared all cache classes", zap.Int("classes", len(s.classes)))
}

// ClearQuery removes every entry keyed by the given query across all
// registered classes. Query-scoped keys start with the normalized query, so
// a prefix clear covers both the bare intent/suggestion keys and the
// "<query>:<identity>" result keys.
func (s *Sweeper) ClearQuery(query string) int {
	prefix := NormalizeQuery(query)
	if prefix == "" {
		return 0
	}

	removed := 0
	for _, c := range s.classes {
		removed += c.ClearPrefix(prefix)
	}
	s.logger.Info("cleared cache entries for query",
		zap.String("query", prefix),
		zap.Int("removed", removed))
	return removed
}

// Stats reports per-class size and TTL.
func (s *Sweeper) Stats() []ClassStats {
	stats := make([]ClassStats, 0, len(s.classes))
	for _, c := range s.classes {
		stats = append(stats, ClassStats{
			Name: c.Name(),
			Size: c.Len(),
			TTL:  c.TTL().String(),
		})
	}
	return stats
}
