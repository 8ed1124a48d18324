// Package cli provides the command-line interface for the rotation backtester.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"nifty-rotation/internal/config"
	"nifty-rotation/internal/logging"
	"nifty-rotation/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-16"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "rotation",
		Short: "NSE sector rotation backtester",
		Long: `rotation backtests a Core/Satellite strategy on NSE equities.

The Core sleeve rotates into the strongest sectors by weighted momentum;
the Satellite sleeve holds the best multi-factor stocks across the
universe. Runs are stored in SQLite and can be reported or served later.

Use 'rotation demo' to try it on seeded synthetic data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dir, _ := cmd.Flags().GetString("config"); dir != "" {
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded
				app.Logger = logging.NewLoggerWithConfig(loaded.Logging)
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/nifty-rotation)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newBacktestCmd(app))
	rootCmd.AddCommand(newDemoCmd(app))
	rootCmd.AddCommand(newReportCmd(app))
	rootCmd.AddCommand(newRunsCmd(app))
	rootCmd.AddCommand(newServeCmd(app))

	return rootCmd
}

// openStore opens the configured SQLite database, creating its directory.
func (a *App) openStore() (*store.SQLiteStore, error) {
	path := a.Config.Data.DBPath
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return store.NewSQLiteStore(path)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("nifty-rotation v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir, _ := cmd.Flags().GetString("config")
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": dir})
			}
			output.Println(dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	s := cfg.Strategy
	output.Bold("Strategy")
	output.Printf("  Core/Satellite:   %.0f%% / %.0f%%\n", s.CoreFraction*100, s.SatelliteFraction*100)
	output.Printf("  Top Sectors:      %d (%d stocks each)\n", s.TopSectors, s.StocksPerSector)
	output.Printf("  Satellite Top:    %d\n", s.SatelliteTop)
	output.Printf("  Weighting:        sector=%s satellite=%s\n", s.SectorWeighting, s.SatelliteWeighting)
	output.Printf("  Overlap Policy:   %s\n", s.OverlapPolicy)
	output.Printf("  Rebalance:        %s\n", s.RebalanceSchedule)
	output.Printf("  Warm-up:          %d days\n", s.WarmupDays)
	output.Println()

	output.Bold("Signals")
	output.Printf("  Momentum:         windows=%v weights=%v\n", cfg.Momentum.Windows, cfg.Momentum.Weights)
	output.Printf("  Trend Filter:     %v (SMA %d/%d)\n", cfg.Trend.Enabled, cfg.Trend.Fast, cfg.Trend.Slow)
	output.Printf("  Score Weights:    fundamental=%.2f technical=%.2f statistical=%.2f\n",
		cfg.Scoring.Fundamental, cfg.Scoring.Technical, cfg.Scoring.Statistical)
	output.Println()

	e := cfg.Execution
	output.Bold("Execution")
	output.Printf("  Initial Capital:  %.2f\n", e.InitialCapital)
	output.Printf("  Commission:       %.4f\n", e.Commission)
	output.Printf("  Slippage:         %.4f (+%.4f impact)\n", e.Slippage, e.MarketImpact)
	output.Printf("  STT:              %.4f\n", e.STT)
	output.Printf("  Cash Policy:      %s\n", e.CashPolicy)
	output.Println()

	output.Bold("Data")
	output.Printf("  Database:         %s\n", cfg.Data.DBPath)
	output.Printf("  Exports:          %s\n", cfg.Data.ExportDir)
	output.Printf("  Benchmark:        %s\n", cfg.Analysis.Benchmark)
}
