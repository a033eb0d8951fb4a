package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j-veylop/divvy-insights/internal/ui/components"
)

func reportCmd() *cobra.Command {
	var (
		flags analysisFlags
		width int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Analyze a trip export and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			opts, req, err := flags.build(e.cfg, e.tariffs)
			if err != nil {
				return err
			}

			report, err := e.mgr.Analyze(cmd.Context(), opts, req)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), components.RenderReport(report, width))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&width, "width", "w", 100, "output width for charts")
	return cmd
}
