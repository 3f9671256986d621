package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	searchLimit   int
	searchPartial bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stations by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := strings.Join(args, " ")

		names, err := client.SearchStations(ctx, query, searchLimit, searchPartial)
		if err != nil {
			return fmt.Errorf("failed to search stations: %w", err)
		}

		if len(names) == 0 {
			fmt.Println(color.YellowString("No stations found for %q", query))
			return nil
		}

		for _, name := range names {
			code, err := client.ShortName(ctx, name)
			if err != nil {
				code = "?"
			}
			fmt.Printf("%s %s\n", color.CyanString("%-5s", code), name)
		}
		return nil
	},
}

var codeCmd = &cobra.Command{
	Use:   "code <station name>",
	Short: "Print the CRS code of a station",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := client.ShortName(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(code)
		return nil
	},
}

var nameCmd = &cobra.Command{
	Use:   "name <CRS code>",
	Short: "Print the full name of a station",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := client.LongName(cmd.Context(), strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		fmt.Println(name)
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the station list from the upstream",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.RefreshStations(cmd.Context()); err != nil {
			return err
		}

		stations, err := client.Stations(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d stations\n", len(stations))
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "Maximum number of results, 0 for all")
	searchCmd.Flags().BoolVarP(&searchPartial, "partial", "p", false, "Also list stations that only partially match")

	rootCmd.AddCommand(searchCmd, codeCmd, nameCmd, refreshCmd)
}
