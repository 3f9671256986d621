package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreName(t *testing.T) {
	tests := []struct {
		name      string
		station   string
		query     string
		expected  float64
		contained bool
	}{
		{name: "exact", station: "Oxted", query: "Oxted", expected: 1, contained: true},
		{name: "case insensitive", station: "Oxted", query: "oXTED", expected: 1, contained: true},
		{name: "prefix", station: "Hurst Green", query: "hurst", expected: 5.0 / 11.0, contained: true},
		{name: "pointer stays on last character", station: "Victoria Park", query: "victoria", expected: 9.0 / 13.0, contained: true},
		{name: "not contained", station: "Oxted", query: "ted ", expected: 0, contained: false},
		{name: "empty query", station: "Oxted", query: "", expected: 0, contained: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, contained := scoreName(tt.station, tt.query)
			assert.Equal(t, tt.contained, contained)
			assert.InDelta(t, tt.expected, score, 1e-9)
		})
	}
}

func TestSearchNamesOrdering(t *testing.T) {
	names := []string{"East Croydon", "Croydon", "West Croydon"}

	assert.Equal(t, []string{"Croydon", "East Croydon", "West Croydon"}, searchNames(names, "croydon", 0, false))
	assert.Equal(t, []string{"Croydon"}, searchNames(names, "croydon", 1, false))
	assert.Nil(t, searchNames(names, "", 0, true))
}
