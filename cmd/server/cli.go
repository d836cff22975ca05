package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/draff227/bslc/internal/adapters/storage/memory"
	"github.com/draff227/bslc/internal/cli/output"
	"github.com/draff227/bslc/internal/config"
	"github.com/draff227/bslc/internal/core/domain"
)

func newRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "bslc",
		Short: "Shipping quote service",
		RunE:  runServeCommand,
	}
	rootCommand.SilenceUsage = true
	rootCommand.AddCommand(newServeCommand())
	rootCommand.AddCommand(newQuoteCommand())
	rootCommand.AddCommand(newStationsCommand())
	rootCommand.AddCommand(newRoutesCommand())
	return rootCommand
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return runServer(cmd.Context(), cfg)
}

func newQuoteCommand() *cobra.Command {
	var (
		request domain.PublicQuoteRequest
		format  string
	)

	quoteCommand := &cobra.Command{
		Use:   "quote",
		Short: "Print a shipping quote using the configured route table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			calculator, err := loadCalculator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			quote, err := calculator.CalculatePublic(request)
			if err != nil {
				return err
			}
			return output.PrintQuote(cmd.OutOrStdout(), quote, format)
		},
	}

	flags := quoteCommand.Flags()
	flags.Int64Var(&request.PickupStationID, "from", 0, "pickup station id")
	flags.Int64Var(&request.PickupSystemID, "from-system", 0, "pickup system id (must contain exactly one station)")
	flags.Int64Var(&request.DestinationStationID, "to", 0, "destination station id")
	flags.Int64Var(&request.DestinationSystemID, "to-system", 0, "destination system id (must contain exactly one station)")
	flags.Float64Var(&request.Volume, "volume", 0, "cargo volume in m³")
	flags.Float64Var(&request.Collateral, "collateral", 0, "collateral in ISK")
	flags.StringVar(&format, "format", "", "output format: table or json (default depends on terminal)")
	return quoteCommand
}

func newStationsCommand() *cobra.Command {
	var format string

	stationsCommand := &cobra.Command{
		Use:   "stations",
		Short: "List the stations of the configured route table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			calculator, err := loadCalculator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return output.PrintStations(cmd.OutOrStdout(), calculator.Stations(), format)
		},
	}
	stationsCommand.Flags().StringVar(&format, "format", "", "output format: table or json (default depends on terminal)")
	return stationsCommand
}

func newRoutesCommand() *cobra.Command {
	routesCommand := &cobra.Command{
		Use:   "routes",
		Short: "Manage route table backends",
	}

	var target string
	seedCommand := &cobra.Command{
		Use:   "seed",
		Short: "Write the built-in route table to the sqlite or redis backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			backend := target
			if backend == "" {
				backend = cfg.Routes.Source
			}

			seeder, closeFn, err := openSeeder(backend, cfg.Routes)
			if err != nil {
				return err
			}
			defer closeFn()

			data := memory.BuiltinData()
			if err := seedRoutes(cmd.Context(), seeder, data); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d stations and %d routes into %s\n", len(data.Stations), len(data.Routes), backend)
			return err
		},
	}
	seedCommand.Flags().StringVar(&target, "target", "", "sqlite or redis (defaults to ROUTES_SOURCE)")

	routesCommand.AddCommand(seedCommand)
	return routesCommand
}

func seedRoutes(ctx context.Context, seeder routeSeeder, data domain.RouteTableData) error {
	if _, err := memory.NewRouteTable(data); err != nil {
		return fmt.Errorf("invalid route table: %w", err)
	}
	if err := seeder.Seed(ctx, data); err != nil {
		return fmt.Errorf("seed routes: %w", err)
	}
	return nil
}
