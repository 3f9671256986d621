package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	nr "github.com/martinsirbe/go-national-rail-client/nationalrail"
	"github.com/sourcegraph/conc/pool"

	"southernrail/api"
)

const (
	boardRule     = "=========================================================================================================\n"
	boardSubRule  = "---------------------------------------------------------------------------------------------------------\n"
	statusOnTime  = "On time"
	statusDelayed = "Delayed"
	statusCancel  = "Cancelled"
)

// fetchBoards loads the departures from departureStationCRS and, when a
// destination is given, the arrivals there. Both requests run concurrently.
func fetchBoards(ctx context.Context, departureStationCRS, destinationStationCRS string) (*api.Board, *api.Board, error) {
	var departures, arrivals *api.Board

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		board, err := client.Departures(ctx, departureStationCRS, destinationStationCRS)
		departures = board
		return err
	})
	if destinationStationCRS != "" {
		p.Go(func(ctx context.Context) error {
			board, err := client.Arrivals(ctx, destinationStationCRS, departureStationCRS)
			arrivals = board
			return err
		})
	}

	if err := p.Wait(); err != nil {
		return nil, nil, err
	}

	return departures, arrivals, nil
}

func display(ctx context.Context, departureStationCRS, destinationStationCRS string, numRows int) {
	departureBoard, arrivalBoard, err := fetchBoards(ctx, departureStationCRS, destinationStationCRS)
	if err != nil {
		fmt.Printf("Error fetching station boards for %s: %v\n", departureStationCRS, err)
		return
	}

	printTitle("Departure Board", getStationName(ctx, departureStationCRS), departureStationCRS)
	fmt.Println(displayDepartureBoard(departureBoard, getStationName(ctx, departureStationCRS), destinationStationCRS, numRows))

	if arrivalBoard != nil {
		printTitle("Arrivals Board", getStationName(ctx, destinationStationCRS), destinationStationCRS)
		fmt.Println(displayArrivalBoard(arrivalBoard, getStationName(ctx, destinationStationCRS), departureStationCRS, numRows))
	}
}

func printTitle(boardTitle, stationName, crs string) {
	titleFigure := figure.NewColorFigure(
		fmt.Sprintf("%s - %s [%s]", boardTitle, stationName, crs),
		"short",
		"green",
		true,
	)
	titleFigure.Print()
}

func displayDepartureBoard(board *api.Board, departureStationName, destinationStationCRS string, numRows int) string {
	var builder strings.Builder
	var reasonsBuilder strings.Builder

	builder.WriteString(boardRule)
	builder.WriteString(fmt.Sprintf("%-10s %-30s %-10s %-10s %-20s %-40s\n", "STD", "Destination", "Platform", "Status", "ETD", "Operator"))
	builder.WriteString(boardSubRule)

	for _, service := range limitServices(board.Services, numRows) {
		destination := service.Destination.Names()

		status := getStatus(service.ETD, bool(service.IsCancelled), service.DelayReason)
		statusColor := getColor(status)

		etd := service.ETD
		if etd == "" {
			etd = "N/A"
		}

		row := fmt.Sprintf("%-10s %-30s %-10s ", service.STD, destination, service.Platform)

		if endsAt(service.Destination, destinationStationCRS) {
			color.New(color.BgBlue).Fprint(&builder, row)
		} else {
			builder.WriteString(row)
		}
		statusColor.Fprintf(&builder, "%-10s %-20s %-40s\n", status, etd, service.Operator)

		if reason := serviceReason(service); reason != "" {
			reasonsBuilder.WriteString(fmt.Sprintf("\t‣ %s to %s - %s\n", departureStationName, destination, reason))
		}
	}

	builder.WriteString(boardRule)
	if reasonsBuilder.Len() > 0 {
		builder.WriteString("Reasons for delays/cancellations:\n")
		builder.WriteString(reasonsBuilder.String())
		builder.WriteString(boardRule)
	}

	return builder.String()
}

func displayArrivalBoard(board *api.Board, arrivalStationName, departureStationCRS string, numRows int) string {
	var builder strings.Builder
	var reasonsBuilder strings.Builder

	builder.WriteString(boardRule)
	builder.WriteString(fmt.Sprintf("%-10s %-30s %-10s %-10s %-20s %-40s\n", "STA", "Origin", "Platform", "Status", "ETA", "Operator"))
	builder.WriteString(boardSubRule)

	for _, service := range limitServices(board.Services, numRows) {
		origin := service.Origin.Names()

		status := getStatus(service.ETA, bool(service.IsCancelled), service.DelayReason)
		statusColor := getColor(status)

		sta := service.STA
		if sta == "" {
			sta = "N/A"
		}
		eta := service.ETA
		if eta == "" {
			eta = "N/A"
		}

		row := fmt.Sprintf("%-10s %-30s %-10s ", sta, origin, service.Platform)

		if endsAt(service.Origin, departureStationCRS) {
			color.New(color.BgBlue).Fprint(&builder, row)
		} else {
			builder.WriteString(row)
		}
		statusColor.Fprintf(&builder, "%-10s %-20s %-40s\n", status, eta, service.Operator)

		if reason := serviceReason(service); reason != "" {
			reasonsBuilder.WriteString(fmt.Sprintf("\t‣ %s to %s - %s\n", origin, arrivalStationName, reason))
		}
	}

	builder.WriteString(boardRule)
	if reasonsBuilder.Len() > 0 {
		builder.WriteString("Reasons for delays/cancellations:\n")
		builder.WriteString(reasonsBuilder.String())
		builder.WriteString(boardRule)
	}

	return builder.String()
}

func limitServices(services []api.Service, numRows int) []api.Service {
	if numRows > 0 && len(services) > numRows {
		return services[:numRows]
	}
	return services
}

// endsAt reports whether the service starts or terminates at crs.
func endsAt(locations api.Locations, crs string) bool {
	if crs == "" {
		return false
	}
	for _, location := range locations {
		if location.Crs == crs {
			return true
		}
	}
	return false
}

func serviceReason(service api.Service) string {
	if service.CancelReason != "" {
		return service.CancelReason
	}
	return service.DelayReason
}

func getStationName(ctx context.Context, crs string) string {
	if name, err := client.LongName(ctx, crs); err == nil {
		return name
	}
	if name, exists := nr.StationCodeToNameMap[nr.CRSCode(crs)]; exists {
		return name
	}
	return crs
}

// getStatus classifies a service from its expected time, which the upstream
// reports as "On time", "Delayed", "Cancelled" or a revised clock time.
func getStatus(expected string, cancelled bool, delayReason string) string {
	if cancelled || strings.EqualFold(expected, statusCancel) {
		return statusCancel
	}
	if delayReason != "" || strings.EqualFold(expected, statusDelayed) {
		return statusDelayed
	}
	if expected != "" && !strings.EqualFold(expected, statusOnTime) && strings.Contains(expected, ":") {
		return statusDelayed
	}
	return statusOnTime
}

func getColor(status string) *color.Color {
	switch status {
	case statusCancel:
		return color.New(color.FgRed)
	case statusDelayed:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
