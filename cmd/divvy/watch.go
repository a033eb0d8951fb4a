package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/j-veylop/divvy-insights/internal/config"
	"github.com/j-veylop/divvy-insights/internal/logger"
	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/services"
	"github.com/j-veylop/divvy-insights/internal/ui/components"
	"github.com/j-veylop/divvy-insights/internal/watch"
)

func watchCmd() *cobra.Command {
	var (
		flags  analysisFlags
		notify bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the analysis whenever the export or tariff file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			if cmd.Flags().Changed("notify") {
				e.cfg.Notify = notify
			}

			opts, req, err := flags.build(e.cfg, e.tariffs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			events, _ := e.mgr.Subscribe()
			defer e.mgr.Unsubscribe(events)
			go func() {
				for ev := range events {
					if alert, ok := ev.(services.ShortageAlertEvent); ok {
						fmt.Fprintf(out, "new shortage: %v\n", alert.Stations)
					}
				}
			}()

			printSummary := func(r *models.AnalysisReport) {
				fmt.Fprintln(out, components.RenderSummary(r))
				if r.Flow != nil {
					fmt.Fprintln(out, components.RenderFlow(r.Flow))
				}
				if len(r.Failures) > 0 {
					fmt.Fprintln(out, components.RenderFailures(r.Failures))
				}
			}

			if r, err := e.mgr.Analyze(cmd.Context(), opts, req); err != nil {
				logger.Error("analysis failed", "error", err)
			} else {
				printSummary(r)
			}

			return watchAndRerun(cmd.Context(), e, opts, flags, printSummary)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&notify, "notify", false, "send a desktop notification on new shortage stations (default $NOTIFY)")
	return cmd
}

// watchAndRerun re-analyzes on every debounced change of the export or the
// tariff file until ctx is done. Tariffs are re-read before each run.
func watchAndRerun(ctx context.Context, e *env, opts services.LoadOptions, flags analysisFlags,
	onReport func(*models.AnalysisReport)) error {
	w, err := watch.New([]string{opts.Path, e.cfg.TariffPath}, e.cfg.WatchDebounce)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Warn("failed to close watcher", "error", err)
		}
	}()
	logger.Info("watching for changes", "file", opts.Path, "tariffs", e.cfg.TariffPath)

	tariffAbs := ""
	if e.cfg.TariffPath != "" {
		tariffAbs, _ = filepath.Abs(e.cfg.TariffPath)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-w.Errors():
			logger.Warn("watcher error", "error", err)

		case change := <-w.Changes():
			if tariffAbs != "" && slices.Contains(change.Paths, tariffAbs) {
				tariffs, err := config.LoadTariffs(e.cfg.TariffPath)
				if err != nil {
					logger.Error("failed to reload tariffs, keeping the previous schedule", "error", err)
				} else {
					e.tariffs = tariffs
				}
			}

			_, req, err := flags.build(e.cfg, e.tariffs)
			if err != nil {
				return err
			}
			// The export changed on disk, so the cache key changes too.
			report, err := e.mgr.Analyze(ctx, opts, req)
			if err != nil {
				logger.Error("analysis failed", "error", err)
				continue
			}
			if onReport != nil {
				onReport(report)
			}
		}
	}
}
