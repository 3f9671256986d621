package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"

	"southernrail/api"
)

const stationsKey = "southernrail:stations"

// StationCache keeps the upstream station list in Redis as a single JSON value.
type StationCache struct {
	Cache *gocache.Cache[string]
}

func NewStationCache(client *redis.Client, expiration time.Duration) *StationCache {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))

	return &StationCache{
		Cache: gocache.New[string](redisStore),
	}
}

func (s *StationCache) Load(ctx context.Context) ([]api.Station, error) {
	value, err := s.Cache.Get(ctx, stationsKey)
	if err != nil {
		return nil, err
	}

	var stations []api.Station
	if err := json.Unmarshal([]byte(value), &stations); err != nil {
		return nil, fmt.Errorf("failed to decode cached stations: %w", err)
	}

	return stations, nil
}

func (s *StationCache) Save(ctx context.Context, stations []api.Station) error {
	stationsJSON, err := json.Marshal(stations)
	if err != nil {
		return err
	}

	return s.Cache.Set(ctx, stationsKey, string(stationsJSON))
}
