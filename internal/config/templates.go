package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# nifty-rotation configuration
# Every key is optional; omitted keys use the built-in defaults shown here.
# Any key can be overridden from the environment, e.g. ROTATION_EXECUTION_SLIPPAGE=0.002

[strategy]
# Core (sector rotation) and Satellite (universe-wide) fractions; must sum to 1
core_fraction = 0.60
satellite_fraction = 0.40
top_sectors = 3
stocks_per_sector = 5
satellite_top = 15
# equal | score
sector_weighting = "equal"
satellite_weighting = "equal"
# How to merge a stock picked by both sleeves: sum | cap | dedupe
overlap_policy = "sum"
overlap_cap = 0.10
# Standard 5-field cron spec; dates snap forward to the next trading day
rebalance_schedule = "0 0 1 * *"
# start = "2021-01-01"
# end = "2024-12-31"
# Calendar days after the first bar before the first rebalance
warmup_days = 126

[momentum]
# Lookbacks in trading days and their weights
windows = [21, 63, 126]
weights = [0.25, 0.35, 0.40]

[trend]
enabled = true
fast = 50
slow = 200
min_strength = 0.02

[scoring]
fundamental = 0.45
technical = 0.35
statistical = 0.20
# Scoring workers; 0 uses one per CPU
workers = 0

[scoring.technical_params]
rsi_weight = 0.30
macd_weight = 0.35
bollinger_weight = 0.20
ma_trend_weight = 0.15
rsi_period = 14
macd_fast = 12
macd_slow = 26
macd_signal = 9
bollinger_period = 20
bollinger_stddev = 2.0
ma_fast = 50
ma_slow = 200

[scoring.fundamental_params]
roe_weight = 0.20
roce_weight = 0.15
eps_growth_weight = 0.15
pe_weight = 0.15
pb_weight = 0.10
debt_to_equity_weight = 0.15
current_ratio_weight = 0.10
# Substituted for missing fundamentals
default_roe = 0.15
default_roce = 0.12
default_eps_cagr = 0.10
default_pe = 20.0
default_pb = 2.5
default_debt_to_equity = 0.8
default_current_ratio = 1.5

[scoring.statistical_params]
sharpe_weight = 0.40
volatility_weight = 0.30
beta_weight = 0.30
lookback = 252
short_lookback = 126
risk_free_rate = 0.06
vol_ceiling = 0.60
use_beta = true

[eligibility]
min_avg_volume = 100000
volume_window = 21
min_market_cap = 1000000000
min_history = 200

[execution]
initial_capital = 1000000.0
commission = 0.0003
slippage = 0.001
market_impact = 0.0005
stt = 0.001
# Trades smaller than this (in INR) are skipped
min_trade_value = 100.0
# scale | skip
cash_policy = "scale"
fractional_shares = false

[analysis]
risk_free_rate = 0.065
# trading (returns/252) | calendar (days/365.25)
year_basis = "trading"
benchmark = "NIFTY50"

[data]
# db_path = "~/.config/nifty-rotation/rotation.db"
# export_dir = "~/.config/nifty-rotation/exports"
# universe_file = "~/.config/nifty-rotation/universe.yaml"

[logging]
level = "info"
console = true
file = false

[server]
addr = "127.0.0.1:8080"
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
