// Package main is the entry point for divvy, which analyzes Divvy bike
// share trip exports from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/j-veylop/divvy-insights/internal/config"
	"github.com/j-veylop/divvy-insights/internal/logger"
	"github.com/j-veylop/divvy-insights/internal/services"
	"github.com/j-veylop/divvy-insights/internal/services/significance"
	"github.com/j-veylop/divvy-insights/internal/ui/components"
	"github.com/j-veylop/divvy-insights/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "divvy",
		Short:         "Station flow, unit economics and demand patterns of Divvy trip exports",
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(tuiCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// analysisFlags are shared by every command that runs an analysis.
type analysisFlags struct {
	file        string
	year        int
	month       int
	task        string
	response    string
	covariates  string
	demand      bool
	forceReload bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.file, "file", "f", "", "trip export CSV (default $DATA_FILE)")
	fs.IntVar(&f.year, "year", 0, "keep trips started in this year (0 = all)")
	fs.IntVar(&f.month, "month", 0, "keep trips started in this month, 1-12 (0 = all)")
	fs.StringVarP(&f.task, "task", "t", "all", "comma separated analyses: all, bimodal, efficiency, imbalance, ue, regression")
	fs.StringVar(&f.response, "response", "", "regression response field (default duration_min)")
	fs.StringVar(&f.covariates, "covariates", "", "comma separated regression covariates")
	fs.BoolVar(&f.demand, "demand", false, "regress hourly trip counts instead of a trip field")
	fs.BoolVar(&f.forceReload, "force-reload", false, "re-read the export, bypassing the trip cache")
}

// build resolves the flags against the configuration.
func (f *analysisFlags) build(cfg *config.Config, tariffs *config.Tariffs) (services.LoadOptions, services.Request, error) {
	opts := services.LoadOptions{
		Path:        f.file,
		Year:        f.year,
		Month:       f.month,
		ForceReload: f.forceReload,
	}
	if opts.Path == "" {
		opts.Path = cfg.DataFile
	}
	if opts.Month < 0 || opts.Month > 12 {
		return opts, services.Request{}, fmt.Errorf("--month must be between 1 and 12, got %d", opts.Month)
	}

	req := services.NewRequest(cfg, tariffs)

	components, err := services.ParseTasks(f.task)
	if err != nil {
		return opts, req, err
	}
	req.Components = components

	if f.response != "" {
		req.Response = f.response
	}
	req.Demand = f.demand
	switch {
	case f.covariates != "":
		req.Covariates = significance.ParseFields(f.covariates)
	case f.demand:
		req.Covariates = nil
	}

	return opts, req, nil
}

// env is the configuration every command starts from.
type env struct {
	cfg     *config.Config
	tariffs *config.Tariffs
	mgr     *services.Manager
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)

	tariffs, err := config.LoadTariffs(cfg.TariffPath)
	if err != nil {
		return nil, err
	}

	mgr, err := services.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &env{cfg: cfg, tariffs: tariffs, mgr: mgr}, nil
}

func (e *env) close() {
	if err := e.mgr.Close(); err != nil {
		logger.Warn("error closing services", "error", err)
	}
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded analysis runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			if e.mgr.Database() == nil {
				return fmt.Errorf("no run database configured (set CACHE_PATH)")
			}
			runs, err := e.mgr.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), components.RenderRuns(runs, -1))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}
