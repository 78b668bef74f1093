package catalog

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"roamcost/internal/model"
)

// snapshotDoc is the JSON form of a snapshot stored in redis.
type snapshotDoc struct {
	Countries []model.Country     `json:"countries"`
	Rates     []model.RoamingRate `json:"rates"`
	Packs     []model.RoamingPack `json:"packs"`
}

// CachedSource serves a snapshot from redis and falls through to the inner
// source on a miss. Load errors from redis degrade to the inner source, never
// to a failed request.
type CachedSource struct {
	Inner Source
	rdb   *redis.Client
	key   string
	ttl   time.Duration
}

func NewCachedSource(inner Source, redisURL, key string, ttl time.Duration) (*CachedSource, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &CachedSource{Inner: inner, rdb: redis.NewClient(opt), key: key, ttl: ttl}, nil
}

func (c *CachedSource) Load(ctx context.Context) (*Snapshot, error) {
	if data, err := c.rdb.Get(ctx, c.key).Bytes(); err == nil {
		var doc snapshotDoc
		if err := json.Unmarshal(data, &doc); err == nil {
			return NewSnapshot(doc.Countries, doc.Rates, doc.Packs), nil
		}
	}
	snap, err := c.Inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	doc := snapshotDoc{Countries: snap.Countries(), Rates: snap.Rates(), Packs: snap.Packs()}
	if data, err := json.Marshal(doc); err == nil {
		_ = c.rdb.Set(ctx, c.key, data, c.ttl).Err()
	}
	return snap, nil
}
