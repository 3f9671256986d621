package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"southernrail/api"
	"southernrail/cache"
	"southernrail/config"
)

const defaultPollInterval = 30 * time.Second

var (
	configPath         string
	debug              bool
	continuous         bool
	interval           int
	departureStation   string
	destinationStation string
	numRows            int

	cfg    *config.Config
	client *api.Client
)

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "southernrail",
	Short: "Southernrail shows live departure boards from the Southern rail widget",
	Long: `Southernrail shows live departure and arrival boards, station lookups and
service details from the Southern rail departure board widget.`,
	PersistentPreRunE: setup,
	Run:               runRootCmd,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.Flags().BoolVarP(&continuous, "continuous", "c", false, "Continuously check for updates")
	rootCmd.Flags().IntVarP(&interval, "interval", "i", 0, "Polling interval in seconds (defaults to the config value)")
	rootCmd.Flags().StringVarP(&departureStation, "from", "f", "", "Departure station CRS code or name")
	rootCmd.Flags().StringVarP(&destinationStation, "to", "t", "", "Destination station CRS code or name")
	rootCmd.Flags().IntVarP(&numRows, "rows", "r", 0, "Number of services to show (defaults to the config value)")
}

func setup(cmd *cobra.Command, args []string) error {
	if debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts := []api.Option{
		api.WithBaseURL(cfg.BaseURL),
		api.WithAutoRefresh(cfg.AutoRefresh),
		api.WithApplication(cfg.Application.Name, cfg.Application.Version),
		api.WithLogger(log.Logger),
	}

	if cfg.Redis.Address != "" {
		redisClient, err := cache.Connect(cmd.Context(), cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.Database)
		if err != nil {
			log.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("Failed to connect to Redis, continuing without station cache")
		} else {
			opts = append(opts, api.WithStationCache(cache.NewStationCache(redisClient, cfg.Redis.Expiration)))
		}
	}

	client, err = api.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	if debug {
		client.SetDebug(true)
	}

	return nil
}

func runRootCmd(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	from := departureStation
	if from == "" {
		from = cfg.Board.From
	}
	to := destinationStation
	if to == "" {
		to = cfg.Board.To
	}
	rows := numRows
	if rows <= 0 {
		rows = cfg.Board.Rows
	}
	pollInterval := boardInterval(cfg.Board.Interval, interval)

	departureStationCRS := validateStationInput(ctx, from, "Select Departure Station")
	if departureStationCRS == "" {
		fmt.Printf("Invalid departure station: %s\n", from)
		return
	}

	destinationStationCRS := ""
	if to != "" {
		destinationStationCRS = validateStationInput(ctx, to, "Select Destination Station")
		if destinationStationCRS == "" {
			fmt.Printf("Invalid destination station: %s\n", to)
			return
		}
	}

	display(ctx, departureStationCRS, destinationStationCRS, rows)
	if !continuous {
		return
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			display(ctx, departureStationCRS, destinationStationCRS, rows)
		}
	}
}

// boardInterval prefers the --interval flag (seconds) over the configured
// interval and never returns a non-positive duration.
func boardInterval(configured time.Duration, flagSeconds int) time.Duration {
	if flagSeconds > 0 {
		return time.Duration(flagSeconds) * time.Second
	}
	if configured > 0 {
		return configured
	}
	return defaultPollInterval
}

func validateStationInput(ctx context.Context, station, promptLabel string) string {
	if station == "" {
		return selectStation(ctx, promptLabel)
	}

	validStation := getStationCode(ctx, station)
	if validStation == "" {
		fmt.Printf("Invalid station: %s\n", station)
		return selectStation(ctx, promptLabel)
	}

	return validStation
}

// getStationCode accepts a full name, a CRS code or a search query and
// returns the CRS code of the best match.
func getStationCode(ctx context.Context, station string) string {
	resolved, err := client.Resolve(ctx, station)
	if err != nil {
		if !errors.Is(err, api.ErrStationNotFound) {
			fmt.Printf("Failed to search stations: %v\n", err)
		}
		return ""
	}

	return resolved.Code
}

func selectStation(ctx context.Context, promptLabel string) string {
	for {
		prompt := promptui.Prompt{
			Label: promptLabel,
			Validate: func(input string) error {
				if len(input) < 2 {
					return fmt.Errorf("search query must be at least 2 characters")
				}
				return nil
			},
		}

		searchQuery, err := prompt.Run()
		if err != nil {
			fmt.Printf("Prompt failed %v\n", err)
			return ""
		}

		stationNames, err := client.SearchStations(ctx, searchQuery, 0, false)
		if err != nil {
			fmt.Printf("Failed to search stations: %v\n", err)
			return ""
		}

		if len(stationNames) == 0 {
			fmt.Println(color.YellowString("No stations found, please try again."))
			continue
		}

		selectPrompt := promptui.Select{
			Label:             "Select Station",
			Items:             stationNames,
			StartInSearchMode: true,
			Searcher: func(input string, index int) bool {
				return fuzzySearch(input, stationNames[index])
			},
		}

		_, stationName, err := selectPrompt.Run()
		if err != nil {
			fmt.Printf("Prompt failed %v\n", err)
			return ""
		}

		code, err := client.ShortName(ctx, stationName)
		if err != nil {
			fmt.Printf("Failed to resolve station: %v\n", err)
			return ""
		}
		return code
	}
}

func fuzzySearch(input, item string) bool {
	input = strings.ToLower(input)
	item = strings.ToLower(item)
	for len(input) <= len(item) {
		if strings.HasPrefix(item, input) {
			return true
		}
		item = item[1:]
	}
	return false
}
