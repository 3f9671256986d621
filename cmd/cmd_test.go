package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"southernrail/api"
	"southernrail/config"
)

func init() {
	color.NoColor = true
}

func TestFuzzySearch(t *testing.T) {
	assert.True(t, fuzzySearch("vic", "London Victoria"))
	assert.True(t, fuzzySearch("LONDON", "London Victoria"))
	assert.False(t, fuzzySearch("brighton", "London Victoria"))
	assert.False(t, fuzzySearch("a very long query indeed", "Oxted"))
}

func TestGetStatus(t *testing.T) {
	tests := []struct {
		name        string
		expected    string
		cancelled   bool
		delayReason string
		status      string
	}{
		{name: "on time", expected: "On time", status: "On time"},
		{name: "no estimate", expected: "", status: "On time"},
		{name: "cancelled flag", expected: "On time", cancelled: true, status: "Cancelled"},
		{name: "cancelled estimate", expected: "Cancelled", status: "Cancelled"},
		{name: "delayed estimate", expected: "Delayed", status: "Delayed"},
		{name: "revised time", expected: "09:17", status: "Delayed"},
		{name: "delay reason", expected: "On time", delayReason: "signalling fault", status: "Delayed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, getStatus(tt.expected, tt.cancelled, tt.delayReason))
		})
	}
}

func TestWidgetBoardURL(t *testing.T) {
	assert.Equal(t, "https://ldb.fabdigital.uk/#/ldb/SN/OXT/to/null/departure", widgetBoardURL("https://ldb.fabdigital.uk", "SN", "OXT", ""))
	assert.Equal(t, "https://ldb.fabdigital.uk/#/ldb/SN/HUR/to/VIC/departure", widgetBoardURL("https://ldb.fabdigital.uk/", "SN", "HUR", "VIC"))
}

func testBoard() *api.Board {
	return &api.Board{
		LocationName: "Hurst Green",
		Crs:          "HUR",
		Services: []api.Service{
			{
				STD:         "09:12",
				ETD:         "On time",
				Platform:    "1",
				Operator:    "Southern",
				Destination: api.Locations{{LocationName: "London Victoria", Crs: "VIC"}},
			},
			{
				STD:          "09:42",
				ETD:          "Cancelled",
				Operator:     "Southern",
				IsCancelled:  true,
				CancelReason: "a shortage of train crew",
				Destination:  api.Locations{{LocationName: "Uckfield", Crs: "UCK"}},
			},
			{
				STD:         "10:12",
				ETD:         "10:20",
				Operator:    "Southern",
				Destination: api.Locations{{LocationName: "London Victoria", Crs: "VIC"}},
			},
		},
	}
}

func TestDisplayDepartureBoard(t *testing.T) {
	out := displayDepartureBoard(testBoard(), "Hurst Green", "VIC", 0)

	assert.Contains(t, out, "London Victoria")
	assert.Contains(t, out, "Cancelled")
	assert.Contains(t, out, "10:20")
	assert.Contains(t, out, "Reasons for delays/cancellations:")
	assert.Contains(t, out, "Hurst Green to Uckfield - a shortage of train crew")

	limited := displayDepartureBoard(testBoard(), "Hurst Green", "VIC", 1)
	assert.NotContains(t, limited, "Uckfield")
	assert.NotContains(t, limited, "Reasons for delays/cancellations:")
}

func TestDisplayArrivalBoard(t *testing.T) {
	board := &api.Board{
		Services: []api.Service{
			{
				STA:         "09:31",
				ETA:         "09:35",
				Operator:    "Southern",
				DelayReason: "a late running train",
				Origin:      api.Locations{{LocationName: "Uckfield", Crs: "UCK"}},
			},
		},
	}

	out := displayArrivalBoard(board, "London Victoria", "HUR", 10)
	assert.Contains(t, out, "STA")
	assert.Contains(t, out, "Delayed")
	assert.Contains(t, out, "Uckfield to London Victoria - a late running train")
}

func TestDisplayServiceDetails(t *testing.T) {
	details := &api.ServiceDetails{
		RidKey:   "202610167654321",
		TrainID:  "1K24",
		Operator: "Southern",
		Locations: api.Locations{
			{LocationName: "Hurst Green", Crs: "HUR", STD: "09:12", ATD: "09:13"},
			{LocationName: "Oxted", Crs: "OXT", STA: "09:16", ETA: "On time"},
		},
	}

	out := displayServiceDetails(details)
	assert.Contains(t, out, "Service 1K24 (202610167654321) operated by Southern")
	assert.Contains(t, out, "09:13")
	assert.Contains(t, out, "Oxted")
	assert.Equal(t, 1, strings.Count(out, "Hurst Green"))
}

const testStations = `{"response": {
	"VIC": {"crsKey": "a2V5LXZpYw==", "commonName": "London Victoria"},
	"HUR": {"crsKey": "a2V5LWh1cg==", "commonName": "Hurst Green"}
}}`

// setupTestClient points the package client at a fake upstream and returns
// the number of station list downloads it served.
func setupTestClient(t *testing.T, opts ...api.Option) *atomic.Int32 {
	var stationCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "env":
			http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "test"})
			w.Write([]byte(`{"response": {}}`))
		case "get_station_ref_data":
			stationCalls.Add(1)
			w.Write([]byte(testStations))
		case "ldbws":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"response": {"locationName": "` + r.FormValue("type") + `", "services": []}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	previous := client
	t.Cleanup(func() { client = previous })

	opts = append([]api.Option{api.WithBaseURL(server.URL), api.WithLogger(zerolog.Nop())}, opts...)
	var err error
	client, err = api.New(opts...)
	require.NoError(t, err)

	return &stationCalls
}

func TestGetStationCode(t *testing.T) {
	setupTestClient(t)
	ctx := context.Background()

	assert.Equal(t, "VIC", getStationCode(ctx, "London Victoria"))
	assert.Equal(t, "HUR", getStationCode(ctx, "hur"))
	assert.Equal(t, "HUR", getStationCode(ctx, "hurst"))
	assert.Equal(t, "", getStationCode(ctx, "Brighton"))

	assert.Equal(t, "Hurst Green", getStationName(ctx, "HUR"))
	assert.Equal(t, "XQZ", getStationName(ctx, "XQZ"))
}

func TestFetchBoards(t *testing.T) {
	setupTestClient(t)
	ctx := context.Background()

	departures, arrivals, err := fetchBoards(ctx, "HUR", "")
	require.NoError(t, err)
	assert.Equal(t, "DEPARTURE", departures.LocationName)
	assert.Nil(t, arrivals)

	departures, arrivals, err = fetchBoards(ctx, "HUR", "VIC")
	require.NoError(t, err)
	assert.Equal(t, "DEPARTURE", departures.LocationName)
	require.NotNil(t, arrivals)
	assert.Equal(t, "ARRIVAL", arrivals.LocationName)

	_, _, err = fetchBoards(ctx, "HUR", "ZZZ")
	assert.ErrorIs(t, err, api.ErrStationNotFound)
}

func TestGetStationCodeKeepsStationTable(t *testing.T) {
	stationCalls := setupTestClient(t, api.WithAutoRefresh(true))
	ctx := context.Background()

	assert.Equal(t, "HUR", getStationCode(ctx, "HUR"))
	assert.Equal(t, "VIC", getStationCode(ctx, "vic"))
	assert.Equal(t, "HUR", getStationCode(ctx, "hurst"))
	assert.Equal(t, "VIC", getStationCode(ctx, "London Victoria"))
	assert.EqualValues(t, 1, stationCalls.Load())

	assert.Equal(t, "", getStationCode(ctx, "Brighton"))
	assert.Equal(t, "HUR", getStationCode(ctx, "HUR"))
	assert.EqualValues(t, 2, stationCalls.Load())
}

func TestBoardInterval(t *testing.T) {
	assert.Equal(t, 5*time.Second, boardInterval(time.Minute, 5))
	assert.Equal(t, time.Minute, boardInterval(time.Minute, 0))
	assert.Equal(t, defaultPollInterval, boardInterval(0, 0))
	assert.Equal(t, defaultPollInterval, boardInterval(-time.Second, -3))
}

func TestRunRootCmdZeroInterval(t *testing.T) {
	setupTestClient(t)
	require.NoError(t, client.RefreshStations(context.Background()))

	previousCfg := cfg
	t.Cleanup(func() {
		cfg = previousCfg
		continuous = false
		departureStation = ""
	})

	cfg = config.Default()
	cfg.Board.Interval = 0
	continuous = true
	departureStation = "HUR"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := &cobra.Command{}
	cmd.SetContext(ctx)

	assert.NotPanics(t, func() { runRootCmd(cmd, nil) })
}
