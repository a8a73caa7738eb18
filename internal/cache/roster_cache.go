// Package cache holds the optional Redis read-through caches.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aviary-labs/flightdesk/internal/model"
)

// RosterCache caches active rosters per entity type with a short TTL.
// Roster rows change rarely and only through an external admin tool, so
// a TTL is the whole invalidation story. Cache failures degrade to the
// database read.
type RosterCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRosterCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RosterCache {
	return &RosterCache{client: client, ttl: ttl, logger: logger}
}

func rosterKey(entityType model.EntityType) string {
	return "roster:" + string(entityType)
}

func (c *RosterCache) Get(ctx context.Context, entityType model.EntityType) ([]model.EntityRef, bool) {
	data, err := c.client.Get(ctx, rosterKey(entityType)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("roster cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var refs []model.EntityRef
	if err := json.Unmarshal(data, &refs); err != nil {
		c.logger.Warn("roster cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return refs, true
}

func (c *RosterCache) Set(ctx context.Context, entityType model.EntityType, refs []model.EntityRef) {
	data, err := json.Marshal(refs)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, rosterKey(entityType), data, c.ttl).Err(); err != nil {
		c.logger.Warn("roster cache write failed", zap.Error(err))
	}
}
