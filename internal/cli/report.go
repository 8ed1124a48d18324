package cli

import (
	"github.com/spf13/cobra"
)

func newReportCmd(app *App) *cobra.Command {
	var showLog bool

	cmd := &cobra.Command{
		Use:   "report <run-id>",
		Short: "Recompute and print the report of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runner := &Runner{Config: app.Config, Market: st, Runs: st, Logger: app.Logger}
			info, report, err := runner.Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"run": info, "report": report})
			}
			showRun(output, info)
			showReport(output, report)
			if showLog {
				output.Bold("Rebalance Log")
				showRebalances(output, report.Rebalances)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showLog, "rebalances", false, "print the rebalance log")
	return cmd
}

func newRunsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(runs)
			}
			if len(runs) == 0 {
				output.Dim("No runs stored yet")
				return nil
			}
			showRuns(output, runs)
			return nil
		},
	}
}
