package deliverygraph

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Loader resolves the parsed graph an order is bound to.
type Loader interface {
	LoadGraph(ctx context.Context, graphID int64, partnerID int64) (*Graph, error)
}

// Service loads and caches parsed delivery graphs. Graphs are read-only
// during order execution, so a parsed definition can be shared across
// concurrent transitions for different orders of the same partner.
type Service struct {
	repo     Repository
	cache    redis.UniversalClient
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewService creates a new delivery graph service.
func NewService(repo Repository, cache redis.UniversalClient, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		cacheTTL: 5 * time.Minute,
		logger:   logger,
	}
}

// LoadGraph returns the parsed graph, consulting the cache first.
func (s *Service) LoadGraph(ctx context.Context, graphID int64, partnerID int64) (*Graph, error) {
	key := s.cacheKey(graphID)

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			graph, parseErr := Parse(raw)
			if parseErr == nil {
				return graph, nil
			}
			// Stale or corrupt cache entry; fall through to the database.
			s.logger.Warn("cached delivery graph failed to parse",
				zap.Int64("graph_id", graphID),
				zap.Error(parseErr),
			)
		}
	}

	record, err := s.repo.GetGraph(ctx, graphID, partnerID)
	if err != nil {
		return nil, err
	}

	graph, err := record.Parsed()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, []byte(record.Graph), s.cacheTTL).Err(); err != nil {
			s.logger.Warn("cache delivery graph", zap.Int64("graph_id", graphID), zap.Error(err))
		}
	}

	return graph, nil
}

func (s *Service) cacheKey(graphID int64) string {
	return fmt.Sprintf("deliverygraph:%d", graphID)
}
