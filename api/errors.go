package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrStationNotFound = errors.New("station not found")
	ErrNoSession       = errors.New("upstream did not issue a PHPSESSID cookie")
	ErrMissingRid      = errors.New("rid is required")
)

// StatusError is returned when the upstream replies with anything but 200.
type StatusError struct {
	Page       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed: %d %s", e.Page, e.StatusCode, http.StatusText(e.StatusCode))
}

func stationNotFound(station string) error {
	return fmt.Errorf("%w: %q", ErrStationNotFound, station)
}
