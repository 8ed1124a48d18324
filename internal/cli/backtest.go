package cli

import (
	"context"

	"github.com/spf13/cobra"

	"nifty-rotation/internal/demo"
	"nifty-rotation/internal/models"
	"nifty-rotation/internal/store"
)

// demoWarmupDays leaves enough history for the slow moving average and the
// one-year statistical lookback before the first demo rebalance.
const demoWarmupDays = 365

func newBacktestCmd(app *App) *cobra.Command {
	var (
		start, end   string
		exportDir    string
		universeFile string
		showLog      bool
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run a backtest on stored market data",
		Long: `Run the Core/Satellite strategy on the candles and fundamentals in the
SQLite database, store the run and print its report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg := *app.Config
			if start != "" {
				cfg.Strategy.Start = start
			}
			if end != "" {
				cfg.Strategy.End = end
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if universeFile == "" {
				universeFile = cfg.Data.UniverseFile
			}

			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			u, err := resolveUniverse(ctx, universeFile, st, st)
			if err != nil {
				return err
			}

			runner := &Runner{Config: &cfg, Market: st, Runs: st, Logger: app.Logger}
			return execute(ctx, output, runner, u, "", exportDir, showLog)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first simulated date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last simulated date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&exportDir, "export", "", "write equity and trades as Parquet under this directory")
	cmd.Flags().StringVar(&universeFile, "universe", "", "universe YAML file (default: data.universe_file)")
	cmd.Flags().BoolVar(&showLog, "rebalances", false, "print the rebalance log")
	return cmd
}

func newDemoCmd(app *App) *cobra.Command {
	var (
		opts      = demo.DefaultOptions()
		persist   bool
		exportDir string
		showLog   bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a backtest on seeded synthetic data",
		Long: `Generate a synthetic NSE-like market (sector indices, stocks, NIFTY50 and
quarterly fundamentals) from a seed and backtest it. The data is NOT real;
every run is labeled DEMO.

With --db the synthetic market and the run are written to the configured
SQLite database so 'backtest', 'report' and 'serve' can use them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg := *app.Config
			if cfg.Strategy.WarmupDays < demoWarmupDays {
				cfg.Strategy.WarmupDays = demoWarmupDays
			}
			cfg.Analysis.Benchmark = demo.Benchmark

			ctx := cmd.Context()
			dataset := demo.Generate(opts)

			var runner *Runner
			if persist {
				st, err := app.openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				if err := dataset.Load(ctx, st); err != nil {
					return err
				}
				runner = &Runner{Config: &cfg, Market: st, Runs: st, Logger: app.Logger}
			} else {
				mem := store.NewMemoryStore()
				if err := dataset.Load(ctx, mem); err != nil {
					return err
				}
				runner = &Runner{Config: &cfg, Market: mem, Runs: mem, Logger: app.Logger}
			}

			if !output.IsJSON() {
				output.Warning("%s: seed %d, %.1f years", demo.Label, opts.Seed, opts.Years)
			}
			return execute(ctx, output, runner, dataset.Universe, demo.Label, exportDir, showLog)
		},
	}

	cmd.Flags().Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	cmd.Flags().Float64Var(&opts.Years, "years", opts.Years, "years of generated history")
	cmd.Flags().IntVar(&opts.StocksPerSector, "stocks", 0, "stocks per generated sector (0 = all)")
	cmd.Flags().BoolVar(&persist, "db", false, "write the demo market and run to the SQLite database")
	cmd.Flags().StringVar(&exportDir, "export", "", "write equity and trades as Parquet under this directory")
	cmd.Flags().BoolVar(&showLog, "rebalances", false, "print the rebalance log")
	return cmd
}

// execute runs, optionally exports, and prints one backtest.
func execute(ctx context.Context, output *Output, runner *Runner, u models.Universe, label, exportDir string, showLog bool) error {
	out, err := runner.Run(ctx, u, label)
	if err != nil {
		return err
	}

	var files []string
	if exportDir != "" {
		if files, err = store.NewParquetExporter(exportDir).Export(out.Run.ID, out.Result.Snapshots); err != nil {
			return err
		}
	}

	if output.IsJSON() {
		return output.JSON(map[string]interface{}{
			"run":     out.Run,
			"report":  out.Report,
			"exports": files,
		})
	}
	showRun(output, out.Run)
	showReport(output, out.Report)
	if showLog {
		output.Bold("Rebalance Log")
		showRebalances(output, out.Report.Rebalances)
		output.Println()
	}
	for _, f := range files {
		output.Info("Exported %s", f)
	}
	output.Dim("Run ID: %s (use 'rotation report %s' to view again)", out.Run.ID, out.Run.ID)
	return nil
}
