package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"planforge.app/forge/internal/model"
)

// CoverageCache keeps the last computed coverage report per session in
// redis. Mutations write the fresh report through, so entries only go stale
// by TTL. The report is derived data: every miss or redis failure simply
// falls back to recomputation, the cache is never the source of truth.
type CoverageCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCoverageCache(client *redis.Client, ttl time.Duration) *CoverageCache {
	return &CoverageCache{client: client, ttl: ttl}
}

func coverageKey(sessionID string) string {
	return "coverage:" + sessionID
}

// Get returns the cached report, or ErrNotFound on a miss.
func (c *CoverageCache) Get(ctx context.Context, sessionID string) (*model.CoverageReport, error) {
	data, err := c.client.Get(ctx, coverageKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("coverage cache get: %w", err)
	}

	var report model.CoverageReport
	if err := json.Unmarshal(data, &report); err != nil {
		// A corrupt entry behaves like a miss.
		return nil, ErrNotFound
	}
	return &report, nil
}

func (c *CoverageCache) Set(ctx context.Context, sessionID string, report *model.CoverageReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("coverage cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, coverageKey(sessionID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("coverage cache set: %w", err)
	}
	return nil
}
