package cmd

import (
	"fmt"
	"strings"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

var operatorCode string

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the departure board in the browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		from := departureStation
		if from == "" {
			from = cfg.Board.From
		}
		to := destinationStation
		if to == "" {
			to = cfg.Board.To
		}

		departureStationCRS := validateStationInput(ctx, from, "Select Departure Station")
		if departureStationCRS == "" {
			return fmt.Errorf("invalid departure station: %s", from)
		}

		destinationStationCRS := ""
		if to != "" {
			destinationStationCRS = getStationCode(ctx, to)
			if destinationStationCRS == "" {
				return fmt.Errorf("invalid destination station: %s", to)
			}
		}

		boardURL := widgetBoardURL(client.BaseURL(), operatorCode, departureStationCRS, destinationStationCRS)
		if err := open.Run(boardURL); err != nil {
			fmt.Println("Please visit the URL to see the board:", boardURL)
		}
		return nil
	},
}

func init() {
	openCmd.Flags().StringVarP(&departureStation, "from", "f", "", "Departure station CRS code or name")
	openCmd.Flags().StringVarP(&destinationStation, "to", "t", "", "Destination station CRS code or name")
	openCmd.Flags().StringVar(&operatorCode, "operator", "SN", "Operator code used by the widget")

	rootCmd.AddCommand(openCmd)
}

// widgetBoardURL builds the widget's client side route, e.g.
// https://ldb.fabdigital.uk/#/ldb/SN/OXT/to/null/departure
func widgetBoardURL(baseURL, operator, departureStationCRS, destinationStationCRS string) string {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if destinationStationCRS == "" {
		destinationStationCRS = "null"
	}

	return fmt.Sprintf("%s#/ldb/%s/%s/to/%s/departure", baseURL, operator, departureStationCRS, destinationStationCRS)
}
