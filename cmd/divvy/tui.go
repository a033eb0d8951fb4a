package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/divvy-insights/internal/app"
	"github.com/j-veylop/divvy-insights/internal/logger"
	"github.com/j-veylop/divvy-insights/internal/ui/tabs/dashboard"
	"github.com/j-veylop/divvy-insights/internal/ui/tabs/history"
	"github.com/j-veylop/divvy-insights/internal/ui/tabs/info"
	"github.com/j-veylop/divvy-insights/internal/ui/tabs/section"
)

func tuiCmd() *cobra.Command {
	var (
		flags   analysisFlags
		watchFS bool
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the analysis in an interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			// Log lines would corrupt the alternate screen.
			logFile := redirectLogs(e.cfg.CachePath)
			if logFile != nil {
				defer func() { _ = logFile.Close() }()
			}

			opts, req, err := flags.build(e.cfg, e.tariffs)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			model := app.NewModel(e.mgr, opts, req)
			state := model.GetState()
			model.SetTabs([]app.Tab{
				dashboard.New(state),
				section.NewStations(state),
				section.NewEconomics(state),
				section.NewTemporal(state),
				section.NewRegression(state),
				history.New(state),
				info.New(state, e.cfg, e.tariffs),
			})

			p := tea.NewProgram(
				model,
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
				tea.WithContext(ctx),
			)

			if watchFS {
				// Reports from re-runs reach the model through the manager's
				// subscription.
				go func() {
					if err := watchAndRerun(ctx, e, opts, flags, nil); err != nil {
						p.Send(app.ErrorMsg{Error: err, Context: "watch"})
					}
				}()
			}

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running TUI: %w", err)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&watchFS, "watch", false, "re-run when the export or tariff file changes")
	return cmd
}

// redirectLogs sends log output next to the cache, or drops it when no
// cache is configured.
func redirectLogs(cachePath string) *os.File {
	if cachePath == "" {
		logger.SetOutput(io.Discard)
		return nil
	}
	f, err := os.OpenFile(filepath.Join(filepath.Dir(cachePath), "divvy.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		logger.SetOutput(io.Discard)
		return nil
	}
	logger.SetOutput(f)
	return f
}
