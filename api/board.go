package api

import (
	"context"
	"fmt"
)

// Departures returns the departure board for from. When to is not empty only
// services calling at to are listed. Both accept a full name or a CRS code.
func (c *Client) Departures(ctx context.Context, from, to string) (*Board, error) {
	return c.board(ctx, BoardTypeDeparture, "to", from, to)
}

// Arrivals returns the arrival board for at, optionally only services coming from from.
func (c *Client) Arrivals(ctx context.Context, at, from string) (*Board, error) {
	return c.board(ctx, BoardTypeArrival, "from", at, from)
}

func (c *Client) board(ctx context.Context, boardType BoardType, direction, primary, optional string) (*Board, error) {
	table, err := c.loadedStations(ctx)
	if err != nil {
		return nil, err
	}

	primaryKey, ok := table.crsKey(primary)
	if !ok {
		c.markStale("board station lookup miss")
		return nil, stationNotFound(primary)
	}

	fields := []formField{
		{"page", pageBoard},
		{"type", string(boardType)},
		{"primaryCrsKey", primaryKey},
	}

	if optional != "" {
		optionalKey, ok := table.crsKey(optional)
		if !ok {
			c.markStale("board filter lookup miss")
			return nil, stationNotFound(optional)
		}
		fields = append(fields,
			formField{"direction", direction},
			formField{"optionalCrsKey", optionalKey},
		)
	}
	fields = append(fields, formField{"showProgress", "false"})

	var board Board
	if err := c.postJSON(ctx, pageBoard, fields, &board); err != nil {
		return nil, fmt.Errorf("failed to get %s board for %s: %w", boardType, primary, err)
	}

	return &board, nil
}

// ServiceDetails returns the calling points and status of a single service.
func (c *Client) ServiceDetails(ctx context.Context, rid string) (*ServiceDetails, error) {
	if rid == "" {
		return nil, ErrMissingRid
	}

	var details serviceDetailsResponse
	err := c.postJSON(ctx, pageBoard, []formField{
		{"page", pageBoard},
		{"type", "service"},
		{"rid", rid},
		{"showProgress", "false"},
	}, &details)
	if err != nil {
		return nil, fmt.Errorf("failed to get service %s: %w", rid, err)
	}

	return &details.Result, nil
}
