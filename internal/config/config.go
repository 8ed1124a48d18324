// Package config provides configuration management for the rotation engine.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	apperrors "nifty-rotation/internal/errors"
	"nifty-rotation/internal/logging"
)

// DateLayout is the layout used for dates in configuration files.
const DateLayout = "2006-01-02"

// weightTolerance bounds rounding error when checking that a weight group sums to 1.
const weightTolerance = 1e-9

// Config holds all application configuration.
type Config struct {
	Strategy    StrategyConfig    `mapstructure:"strategy"`
	Momentum    MomentumConfig    `mapstructure:"momentum"`
	Trend       TrendConfig       `mapstructure:"trend"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Eligibility EligibilityConfig `mapstructure:"eligibility"`
	Execution   ExecutionConfig   `mapstructure:"execution"`
	Analysis    AnalysisConfig    `mapstructure:"analysis"`
	Data        DataConfig        `mapstructure:"data"`
	Logging     logging.LogConfig `mapstructure:"logging"`
	Server      ServerConfig      `mapstructure:"server"`
}

// StrategyConfig holds the Core/Satellite allocation settings.
type StrategyConfig struct {
	CoreFraction       float64 `mapstructure:"core_fraction" validate:"gte=0,lte=1"`
	SatelliteFraction  float64 `mapstructure:"satellite_fraction" validate:"gte=0,lte=1"`
	TopSectors         int     `mapstructure:"top_sectors" validate:"gt=0"`
	StocksPerSector    int     `mapstructure:"stocks_per_sector" validate:"gt=0"`
	SatelliteTop       int     `mapstructure:"satellite_top" validate:"gt=0"`
	SectorWeighting    string  `mapstructure:"sector_weighting" validate:"oneof=equal score"`
	SatelliteWeighting string  `mapstructure:"satellite_weighting" validate:"oneof=equal score"`
	OverlapPolicy      string  `mapstructure:"overlap_policy" validate:"oneof=sum cap dedupe"`
	OverlapCap         float64 `mapstructure:"overlap_cap" validate:"gt=0,lte=1"`
	RebalanceSchedule  string  `mapstructure:"rebalance_schedule" validate:"required"`
	Start              string  `mapstructure:"start"`
	End                string  `mapstructure:"end"`
	WarmupDays         int     `mapstructure:"warmup_days" validate:"gte=0"`
}

// MomentumConfig holds the sector momentum lookbacks in trading days.
type MomentumConfig struct {
	Windows []int     `mapstructure:"windows" validate:"min=1,dive,gt=0"`
	Weights []float64 `mapstructure:"weights" validate:"min=1,dive,gte=0"`
}

// TrendConfig holds the sector trend-confirmation filter.
type TrendConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Fast        int     `mapstructure:"fast" validate:"gt=0"`
	Slow        int     `mapstructure:"slow" validate:"gt=0"`
	MinStrength float64 `mapstructure:"min_strength"`
}

// ScoringConfig holds the multi-factor scoring weights.
type ScoringConfig struct {
	Fundamental       float64           `mapstructure:"fundamental" validate:"gte=0"`
	Technical         float64           `mapstructure:"technical" validate:"gte=0"`
	Statistical       float64           `mapstructure:"statistical" validate:"gte=0"`
	TechnicalParams   TechnicalConfig   `mapstructure:"technical_params"`
	FundamentalParams FundamentalConfig `mapstructure:"fundamental_params"`
	StatisticalParams StatisticalConfig `mapstructure:"statistical_params"`
	Workers           int               `mapstructure:"workers" validate:"gte=0"`
}

// TechnicalConfig holds indicator periods and blend weights.
type TechnicalConfig struct {
	RSIWeight       float64 `mapstructure:"rsi_weight" validate:"gte=0"`
	MACDWeight      float64 `mapstructure:"macd_weight" validate:"gte=0"`
	BollingerWeight float64 `mapstructure:"bollinger_weight" validate:"gte=0"`
	MATrendWeight   float64 `mapstructure:"ma_trend_weight" validate:"gte=0"`
	RSIPeriod       int     `mapstructure:"rsi_period" validate:"gt=1"`
	MACDFast        int     `mapstructure:"macd_fast" validate:"gt=0"`
	MACDSlow        int     `mapstructure:"macd_slow" validate:"gt=0"`
	MACDSignal      int     `mapstructure:"macd_signal" validate:"gt=0"`
	BollingerPeriod int     `mapstructure:"bollinger_period" validate:"gt=1"`
	BollingerStdDev float64 `mapstructure:"bollinger_stddev" validate:"gt=0"`
	MAFast          int     `mapstructure:"ma_fast" validate:"gt=0"`
	MASlow          int     `mapstructure:"ma_slow" validate:"gt=0"`
}

// FundamentalConfig holds fundamental blend weights and the default metric
// values substituted for missing fields.
type FundamentalConfig struct {
	ROEWeight          float64 `mapstructure:"roe_weight" validate:"gte=0"`
	ROCEWeight         float64 `mapstructure:"roce_weight" validate:"gte=0"`
	EPSGrowthWeight    float64 `mapstructure:"eps_growth_weight" validate:"gte=0"`
	PEWeight           float64 `mapstructure:"pe_weight" validate:"gte=0"`
	PBWeight           float64 `mapstructure:"pb_weight" validate:"gte=0"`
	DebtToEquityWeight float64 `mapstructure:"debt_to_equity_weight" validate:"gte=0"`
	CurrentRatioWeight float64 `mapstructure:"current_ratio_weight" validate:"gte=0"`

	DefaultROE          float64 `mapstructure:"default_roe"`
	DefaultROCE         float64 `mapstructure:"default_roce"`
	DefaultEPSCAGR      float64 `mapstructure:"default_eps_cagr"`
	DefaultPE           float64 `mapstructure:"default_pe"`
	DefaultPB           float64 `mapstructure:"default_pb"`
	DefaultDebtToEquity float64 `mapstructure:"default_debt_to_equity" validate:"gte=0"`
	DefaultCurrentRatio float64 `mapstructure:"default_current_ratio" validate:"gte=0"`
}

// StatisticalConfig holds the trailing statistics settings.
type StatisticalConfig struct {
	SharpeWeight     float64 `mapstructure:"sharpe_weight" validate:"gte=0"`
	VolatilityWeight float64 `mapstructure:"volatility_weight" validate:"gte=0"`
	BetaWeight       float64 `mapstructure:"beta_weight" validate:"gte=0"`
	Lookback         int     `mapstructure:"lookback" validate:"gt=1"`
	ShortLookback    int     `mapstructure:"short_lookback" validate:"gt=1"`
	RiskFreeRate     float64 `mapstructure:"risk_free_rate" validate:"gte=0"`
	VolCeiling       float64 `mapstructure:"vol_ceiling" validate:"gt=0"`
	UseBeta          bool    `mapstructure:"use_beta"`
}

// EligibilityConfig holds the universe filters applied before scoring.
type EligibilityConfig struct {
	MinAvgVolume float64 `mapstructure:"min_avg_volume" validate:"gte=0"`
	VolumeWindow int     `mapstructure:"volume_window" validate:"gt=0"`
	MinMarketCap float64 `mapstructure:"min_market_cap" validate:"gte=0"`
	MinHistory   int     `mapstructure:"min_history" validate:"gt=0"`
}

// ExecutionConfig holds the execution simulator settings.
type ExecutionConfig struct {
	InitialCapital   float64 `mapstructure:"initial_capital" validate:"gt=0"`
	Commission       float64 `mapstructure:"commission" validate:"gte=0,lt=1"`
	Slippage         float64 `mapstructure:"slippage" validate:"gte=0,lt=1"`
	MarketImpact     float64 `mapstructure:"market_impact" validate:"gte=0,lt=1"`
	STT              float64 `mapstructure:"stt" validate:"gte=0,lt=1"`
	MinTradeValue    float64 `mapstructure:"min_trade_value" validate:"gte=0"`
	CashPolicy       string  `mapstructure:"cash_policy" validate:"oneof=scale skip"`
	FractionalShares bool    `mapstructure:"fractional_shares"`
}

// AnalysisConfig holds performance analysis settings.
type AnalysisConfig struct {
	RiskFreeRate float64 `mapstructure:"risk_free_rate" validate:"gte=0"`
	YearBasis    string  `mapstructure:"year_basis" validate:"oneof=trading calendar"`
	Benchmark    string  `mapstructure:"benchmark"`
}

// DataConfig holds storage locations.
type DataConfig struct {
	DBPath       string `mapstructure:"db_path"`
	ExportDir    string `mapstructure:"export_dir"`
	UniverseFile string `mapstructure:"universe_file"`
}

// ServerConfig holds the read-only report server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/nifty-rotation"
	}
	return filepath.Join(home, ".config", "nifty-rotation")
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	dir := DefaultConfigDir()
	return &Config{
		Strategy: StrategyConfig{
			CoreFraction:       0.60,
			SatelliteFraction:  0.40,
			TopSectors:         3,
			StocksPerSector:    5,
			SatelliteTop:       15,
			SectorWeighting:    "equal",
			SatelliteWeighting: "equal",
			OverlapPolicy:      "sum",
			OverlapCap:         0.10,
			RebalanceSchedule:  "0 0 1 * *",
			WarmupDays:         126,
		},
		Momentum: MomentumConfig{
			Windows: []int{21, 63, 126},
			Weights: []float64{0.25, 0.35, 0.40},
		},
		Trend: TrendConfig{
			Enabled:     true,
			Fast:        50,
			Slow:        200,
			MinStrength: 0.02,
		},
		Scoring: ScoringConfig{
			Fundamental: 0.45,
			Technical:   0.35,
			Statistical: 0.20,
			TechnicalParams: TechnicalConfig{
				RSIWeight:       0.30,
				MACDWeight:      0.35,
				BollingerWeight: 0.20,
				MATrendWeight:   0.15,
				RSIPeriod:       14,
				MACDFast:        12,
				MACDSlow:        26,
				MACDSignal:      9,
				BollingerPeriod: 20,
				BollingerStdDev: 2.0,
				MAFast:          50,
				MASlow:          200,
			},
			FundamentalParams: FundamentalConfig{
				ROEWeight:           0.20,
				ROCEWeight:          0.15,
				EPSGrowthWeight:     0.15,
				PEWeight:            0.15,
				PBWeight:            0.10,
				DebtToEquityWeight:  0.15,
				CurrentRatioWeight:  0.10,
				DefaultROE:          0.15,
				DefaultROCE:         0.12,
				DefaultEPSCAGR:      0.10,
				DefaultPE:           20,
				DefaultPB:           2.5,
				DefaultDebtToEquity: 0.8,
				DefaultCurrentRatio: 1.5,
			},
			StatisticalParams: StatisticalConfig{
				SharpeWeight:     0.40,
				VolatilityWeight: 0.30,
				BetaWeight:       0.30,
				Lookback:         252,
				ShortLookback:    126,
				RiskFreeRate:     0.06,
				VolCeiling:       0.60,
				UseBeta:          true,
			},
		},
		Eligibility: EligibilityConfig{
			MinAvgVolume: 100_000,
			VolumeWindow: 21,
			MinMarketCap: 1_000_000_000,
			MinHistory:   200,
		},
		Execution: ExecutionConfig{
			InitialCapital: 1_000_000,
			Commission:     0.0003,
			Slippage:       0.001,
			MarketImpact:   0.0005,
			STT:            0.001,
			MinTradeValue:  100,
			CashPolicy:     "scale",
		},
		Analysis: AnalysisConfig{
			RiskFreeRate: 0.065,
			YearBasis:    "trading",
			Benchmark:    "NIFTY50",
		},
		Data: DataConfig{
			DBPath:       filepath.Join(dir, "rotation.db"),
			ExportDir:    filepath.Join(dir, "exports"),
			UniverseFile: filepath.Join(dir, "universe.yaml"),
		},
		Logging: logging.DefaultLogConfig(),
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a commented template and the defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// Values from .env never override variables already set in the environment.
	_ = godotenv.Load(filepath.Join(configDir, ".env"))

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("ROTATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// registerDefaults makes every key known to viper so env overrides apply
// even when the file omits the key.
func registerDefaults(v *viper.Viper, cfg *Config) {
	var walk func(prefix string, rv reflect.Value)
	walk = func(prefix string, rv reflect.Value) {
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			tag := rt.Field(i).Tag.Get("mapstructure")
			if tag == "" || tag == "-" {
				continue
			}
			key := tag
			if prefix != "" {
				key = prefix + "." + tag
			}
			fv := rv.Field(i)
			if fv.Kind() == reflect.Struct {
				walk(key, fv)
				continue
			}
			v.SetDefault(key, fv.Interface())
		}
	}
	walk("", reflect.ValueOf(cfg).Elem())
}

var validate = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// Validate validates the configuration. It is called once at load time;
// the engine never re-checks these invariants while running.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			field := fe.Namespace()
			if idx := strings.Index(field, "."); idx >= 0 {
				field = field[idx+1:]
			}
			return apperrors.NewValidationError(field, fe.Value(), describeTag(fe))
		}
		return apperrors.Wrap(apperrors.ErrConfigInvalid, err.Error())
	}

	s := c.Strategy
	if !sumsToOne(s.CoreFraction, s.SatelliteFraction) {
		return apperrors.NewValidationError("strategy.core_fraction+satellite_fraction",
			s.CoreFraction+s.SatelliteFraction, "must sum to 1")
	}
	if _, err := cron.ParseStandard(s.RebalanceSchedule); err != nil {
		return apperrors.NewValidationError("strategy.rebalance_schedule", s.RebalanceSchedule, err.Error())
	}
	start, end, err := c.Period()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		return apperrors.NewValidationError("strategy.end", s.End, "must be after start")
	}

	m := c.Momentum
	if len(m.Windows) != len(m.Weights) {
		return apperrors.NewValidationError("momentum.weights", len(m.Weights),
			fmt.Sprintf("need one weight per window (%d windows)", len(m.Windows)))
	}
	for i := 1; i < len(m.Windows); i++ {
		if m.Windows[i] <= m.Windows[i-1] {
			return apperrors.NewValidationError("momentum.windows", m.Windows, "must be strictly increasing")
		}
	}
	if !sumsToOne(m.Weights...) {
		return apperrors.NewValidationError("momentum.weights", m.Weights, "must sum to 1")
	}

	if c.Trend.Fast >= c.Trend.Slow {
		return apperrors.NewValidationError("trend.fast", c.Trend.Fast, "must be shorter than trend.slow")
	}

	sc := c.Scoring
	if !sumsToOne(sc.Fundamental, sc.Technical, sc.Statistical) {
		return apperrors.NewValidationError("scoring", sc.Fundamental+sc.Technical+sc.Statistical,
			"fundamental + technical + statistical must sum to 1")
	}
	tw := sc.TechnicalParams
	if !sumsToOne(tw.RSIWeight, tw.MACDWeight, tw.BollingerWeight, tw.MATrendWeight) {
		return apperrors.NewValidationError("scoring.technical_params", tw, "indicator weights must sum to 1")
	}
	if tw.MACDFast >= tw.MACDSlow {
		return apperrors.NewValidationError("scoring.technical_params.macd_fast", tw.MACDFast, "must be shorter than macd_slow")
	}
	if tw.MAFast >= tw.MASlow {
		return apperrors.NewValidationError("scoring.technical_params.ma_fast", tw.MAFast, "must be shorter than ma_slow")
	}
	fw := sc.FundamentalParams
	if !sumsToOne(fw.ROEWeight, fw.ROCEWeight, fw.EPSGrowthWeight, fw.PEWeight, fw.PBWeight,
		fw.DebtToEquityWeight, fw.CurrentRatioWeight) {
		return apperrors.NewValidationError("scoring.fundamental_params", fw, "metric weights must sum to 1")
	}
	sw := sc.StatisticalParams
	if !sumsToOne(sw.SharpeWeight, sw.VolatilityWeight, sw.BetaWeight) {
		return apperrors.NewValidationError("scoring.statistical_params", sw, "weights must sum to 1")
	}
	if sw.ShortLookback > sw.Lookback {
		return apperrors.NewValidationError("scoring.statistical_params.short_lookback", sw.ShortLookback,
			"must not exceed lookback")
	}

	return nil
}

// Period parses the configured start and end dates. Empty values yield
// zero times, meaning "use the data range".
func (c *Config) Period() (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if c.Strategy.Start != "" {
		if start, err = time.Parse(DateLayout, c.Strategy.Start); err != nil {
			return start, end, apperrors.NewValidationError("strategy.start", c.Strategy.Start, "expected YYYY-MM-DD")
		}
	}
	if c.Strategy.End != "" {
		if end, err = time.Parse(DateLayout, c.Strategy.End); err != nil {
			return start, end, apperrors.NewValidationError("strategy.end", c.Strategy.End, "expected YYYY-MM-DD")
		}
	}
	return start, end, nil
}

func sumsToOne(values ...float64) bool {
	var total float64
	for _, v := range values {
		total += v
	}
	return math.Abs(total-1) <= weightTolerance
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " entries"
	default:
		return "failed validation: " + fe.Tag()
	}
}
