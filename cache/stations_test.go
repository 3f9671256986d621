package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"southernrail/api"
)

func newTestStationCache(t *testing.T) (*StationCache, *miniredis.Miniredis) {
	server := miniredis.RunT(t)

	client, err := Connect(context.Background(), server.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewStationCache(client, time.Hour), server
}

func TestStationCacheRoundTrip(t *testing.T) {
	stationCache, server := newTestStationCache(t)
	ctx := context.Background()

	_, err := stationCache.Load(ctx)
	assert.Error(t, err, "empty cache is a miss")

	stations := []api.Station{
		{Code: "HUR", Name: "Hurst Green", CrsKey: "a2V5LWh1cg=="},
		{Code: "OXT", Name: "Oxted", CrsKey: "a2V5LW94dA=="},
	}
	require.NoError(t, stationCache.Save(ctx, stations))
	assert.True(t, server.Exists(stationsKey))

	loaded, err := stationCache.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, stations, loaded)
}

func TestStationCacheExpires(t *testing.T) {
	stationCache, server := newTestStationCache(t)
	ctx := context.Background()

	require.NoError(t, stationCache.Save(ctx, []api.Station{{Code: "VIC", Name: "London Victoria"}}))

	server.FastForward(2 * time.Hour)

	_, err := stationCache.Load(ctx)
	assert.Error(t, err)
}

func TestConnectFailure(t *testing.T) {
	_, err := Connect(context.Background(), "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
