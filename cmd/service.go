package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"southernrail/api"
)

var dumpService bool

var serviceCmd = &cobra.Command{
	Use:   "service <rid>",
	Short: "Show the calling points of a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		details, err := client.ServiceDetails(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if dumpService {
			pretty.Println(details)
			return nil
		}

		fmt.Println(displayServiceDetails(details))
		return nil
	},
}

func init() {
	serviceCmd.Flags().BoolVar(&dumpService, "dump", false, "Dump the decoded upstream response")

	rootCmd.AddCommand(serviceCmd)
}

func displayServiceDetails(details *api.ServiceDetails) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Service %s (%s) operated by %s\n", details.TrainID, details.RidKey, details.Operator))
	if details.IsCancelled {
		color.New(color.FgRed).Fprintf(&builder, "Cancelled: %s\n", details.CancelReason)
	} else if details.DelayReason != "" {
		color.New(color.FgYellow).Fprintf(&builder, "Delayed: %s\n", details.DelayReason)
	}

	builder.WriteString(boardRule)
	builder.WriteString(fmt.Sprintf("%-30s %-6s %-10s %-10s %-10s\n", "Location", "CRS", "Platform", "Booked", "Expected"))
	builder.WriteString(boardSubRule)

	for _, location := range details.Locations {
		booked, expected := location.STD, location.ETD
		if booked == "" {
			booked, expected = location.STA, location.ETA
		}
		if location.ATD != "" {
			expected = location.ATD
		} else if location.ATA != "" && location.STD == "" {
			expected = location.ATA
		}

		status := getStatus(expected, bool(location.IsCancelled), "")
		row := fmt.Sprintf("%-30s %-6s %-10s %-10s ", location.LocationName, location.Crs, location.Platform, booked)
		builder.WriteString(row)
		getColor(status).Fprintf(&builder, "%-10s\n", expected)
	}

	builder.WriteString(boardRule)

	return builder.String()
}
