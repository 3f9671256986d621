package api

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type Station struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	CrsKey string `json:"crsKey"`
}

type stationTable struct {
	byCode map[string]Station
	byName map[string]Station
	names  []string
}

func newStationTable(stations []Station) *stationTable {
	t := &stationTable{
		byCode: make(map[string]Station, len(stations)),
		byName: make(map[string]Station, len(stations)),
	}

	for _, station := range stations {
		t.byCode[station.Code] = station
		if _, exists := t.byName[station.Name]; !exists {
			t.names = append(t.names, station.Name)
		}
		t.byName[station.Name] = station
	}
	sort.Strings(t.names)

	return t
}

func (t *stationTable) empty() bool {
	return t == nil || len(t.byCode) == 0 || len(t.byName) == 0 || len(t.names) == 0
}

// crsKey accepts either a long name or a CRS code.
func (t *stationTable) crsKey(station string) (string, bool) {
	if s, ok := t.byName[station]; ok {
		return s.CrsKey, true
	}
	if s, ok := t.byCode[station]; ok {
		return s.CrsKey, true
	}

	return "", false
}

type stationRefData map[string]struct {
	CrsKey     string `json:"crsKey"`
	CommonName string `json:"commonName"`
}

func (c *Client) fetchStations(ctx context.Context) ([]Station, error) {
	var refData stationRefData
	err := c.postJSON(ctx, pageStationData, []formField{
		{"page", pageStationData},
		{"showProgress", "false"},
	}, &refData)
	if err != nil {
		return nil, fmt.Errorf("failed to load station list: %w", err)
	}

	stations := make([]Station, 0, len(refData))
	for code, value := range refData {
		stations = append(stations, Station{
			Code:   code,
			Name:   value.CommonName,
			CrsKey: value.CrsKey,
		})
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].Code < stations[j].Code })

	return stations, nil
}

// loadStations replaces the station tables. Unless forced, a shared cache is
// consulted before the upstream.
func (c *Client) loadStations(ctx context.Context, force bool) (*stationTable, error) {
	if c.cache != nil && !force {
		stations, err := c.cache.Load(ctx)
		if err == nil && len(stations) > 0 {
			c.log().Debug().Int("stations", len(stations)).Msg("Loaded station list from cache")
			return c.setStations(stations), nil
		}
		c.log().Debug().Err(err).Msg("Station cache miss")
	}

	stations, err := c.fetchStations(ctx)
	if err != nil {
		return nil, err
	}
	c.log().Debug().Int("stations", len(stations)).Msg("Loaded station list from upstream")

	if c.cache != nil {
		if err := c.cache.Save(ctx, stations); err != nil {
			c.log().Warn().Err(err).Msg("Failed to store station list in cache")
		}
	}

	return c.setStations(stations), nil
}

func (c *Client) setStations(stations []Station) *stationTable {
	table := newStationTable(stations)
	c.stations = table

	c.mu.Lock()
	c.stale = false
	c.mu.Unlock()

	return table
}

// loadedStations returns the populated tables, loading them when they are empty
// or were marked stale.
func (c *Client) loadedStations(ctx context.Context) (*stationTable, error) {
	c.stationsMu.Lock()
	defer c.stationsMu.Unlock()

	c.mu.Lock()
	stale := c.stale
	c.mu.Unlock()

	if !c.stations.empty() && !stale {
		return c.stations, nil
	}

	c.log().Debug().Bool("stale", stale).Msg("Station lists are not populated")
	return c.loadStations(ctx, stale)
}

func (c *Client) markStale(reason string) {
	if !c.autoRefresh {
		return
	}

	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()

	c.log().Debug().Str("reason", reason).Msg("Refreshing station lists on next request")
}

// RefreshStations reloads the station tables from the upstream, bypassing any cache.
func (c *Client) RefreshStations(ctx context.Context) error {
	c.stationsMu.Lock()
	defer c.stationsMu.Unlock()

	_, err := c.loadStations(ctx, true)
	return err
}

// Stations returns every known station ordered by CRS code.
func (c *Client) Stations(ctx context.Context) ([]Station, error) {
	table, err := c.loadedStations(ctx)
	if err != nil {
		return nil, err
	}

	stations := make([]Station, 0, len(table.byCode))
	for _, station := range table.byCode {
		stations = append(stations, station)
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].Code < stations[j].Code })

	return stations, nil
}

// ShortName returns the CRS code for a station's full name.
func (c *Client) ShortName(ctx context.Context, longName string) (string, error) {
	table, err := c.loadedStations(ctx)
	if err != nil {
		return "", err
	}

	station, ok := table.byName[longName]
	if !ok {
		c.markStale("short name lookup miss")
		return "", stationNotFound(longName)
	}

	return station.Code, nil
}

// LongName returns the full station name for a CRS code.
func (c *Client) LongName(ctx context.Context, code string) (string, error) {
	table, err := c.loadedStations(ctx)
	if err != nil {
		return "", err
	}

	station, ok := table.byCode[code]
	if !ok {
		c.markStale("long name lookup miss")
		return "", stationNotFound(code)
	}

	return station.Name, nil
}

// SearchStations returns up to limit station names matching query, best match
// first. A limit of zero or less returns every match. With includePartial set,
// names that do not contain the query are returned as well, ranked by score.
func (c *Client) SearchStations(ctx context.Context, query string, limit int, includePartial bool) ([]string, error) {
	table, err := c.loadedStations(ctx)
	if err != nil {
		return nil, err
	}

	results := searchNames(table.names, query, limit, includePartial)
	if len(results) == 0 {
		c.markStale("empty search")
	}

	return results, nil
}

// Resolve finds a station from a full name, a CRS code in any case or a search
// query, in that order. All attempts run against one table load, and the
// tables are only marked stale when none of them matches.
func (c *Client) Resolve(ctx context.Context, station string) (Station, error) {
	table, err := c.loadedStations(ctx)
	if err != nil {
		return Station{}, err
	}

	station = strings.TrimSpace(station)
	if s, ok := table.byName[station]; ok {
		return s, nil
	}
	if s, ok := table.byCode[strings.ToUpper(station)]; ok {
		return s, nil
	}
	if names := searchNames(table.names, station, 1, false); len(names) > 0 {
		return table.byName[names[0]], nil
	}

	c.markStale("resolve miss")
	return Station{}, stationNotFound(station)
}
