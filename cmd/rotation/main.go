// Command rotation backtests an NSE sector rotation strategy.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"nifty-rotation/internal/cli"
	"nifty-rotation/internal/config"
	"nifty-rotation/internal/logging"
)

func main() {
	// A .env in the working directory may set ROTATION_* overrides.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("ROTATION_CONFIG_DIR"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewLoggerWithConfig(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(cfg, logger).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
