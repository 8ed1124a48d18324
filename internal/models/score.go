package models

import "time"

// TechnicalScore holds the technical sub-score and its normalized components.
type TechnicalScore struct {
	RSI       float64 `json:"rsi"`
	MACD      float64 `json:"macd"`
	Bollinger float64 `json:"bollinger"`
	MATrend   float64 `json:"ma_trend"`
	Score     float64 `json:"score"`

	RawRSI float64 `json:"raw_rsi"`
}

// FundamentalScore holds the fundamental sub-score. Defaulted lists the
// fields that were missing and replaced by configured defaults.
type FundamentalScore struct {
	ROE          float64  `json:"roe"`
	ROCE         float64  `json:"roce"`
	EPSGrowth    float64  `json:"eps_growth"`
	PE           float64  `json:"pe"`
	PB           float64  `json:"pb"`
	DebtToEquity float64  `json:"debt_to_equity"`
	CurrentRatio float64  `json:"current_ratio"`
	Score        float64  `json:"score"`
	Defaulted    []string `json:"defaulted,omitempty"`
}

// StatisticalScore holds the statistical sub-score and the raw statistics
// it was derived from.
type StatisticalScore struct {
	Sharpe        float64 `json:"sharpe"`
	InvVolatility float64 `json:"inv_volatility"`
	InvBeta       float64 `json:"inv_beta"`
	Score         float64 `json:"score"`

	RawSharpe     float64 `json:"raw_sharpe"`
	RawVolatility float64 `json:"raw_volatility"`
	RawBeta       float64 `json:"raw_beta"`
	HasBeta       bool    `json:"has_beta"`
}

// ScoreRecord is the composite score of one instrument at a rebalance date.
type ScoreRecord struct {
	Symbol      string           `json:"symbol"`
	Sector      string           `json:"sector"`
	AsOf        time.Time        `json:"as_of"`
	Technical   TechnicalScore   `json:"technical"`
	Fundamental FundamentalScore `json:"fundamental"`
	Statistical StatisticalScore `json:"statistical"`
	Composite   float64          `json:"composite"`
	Rank        int              `json:"rank"`
}

// Exclusion records why an instrument or sector was left out of a cycle.
type Exclusion struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// SectorScore is the momentum result for one sector at a rebalance date.
type SectorScore struct {
	Sector        string    `json:"sector"`
	Symbol        string    `json:"symbol"`
	AsOf          time.Time `json:"as_of"`
	Returns       []float64 `json:"returns"`
	Composite     float64   `json:"composite"`
	TrendPass     bool      `json:"trend_pass"`
	TrendStrength float64   `json:"trend_strength"`
	Rank          int       `json:"rank"`
}

// LongestReturn returns the return over the longest lookback window.
func (s SectorScore) LongestReturn() float64 {
	if len(s.Returns) == 0 {
		return 0
	}
	return s.Returns[len(s.Returns)-1]
}
