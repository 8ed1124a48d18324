package scoring

import (
	"fmt"
	"math"

	"nifty-rotation/internal/analysis/indicators"
	"nifty-rotation/internal/config"
	"nifty-rotation/internal/models"
)

// TechnicalScorer maps RSI, MACD, Bollinger position and MA trend onto [0,1].
type TechnicalScorer struct {
	cfg       config.TechnicalConfig
	rsi       *indicators.RSI
	macd      *indicators.MACD
	bollinger *indicators.BollingerBands
	fastMA    *indicators.SMA
	slowMA    *indicators.SMA
}

// NewTechnicalScorer creates a technical scorer from indicator settings.
func NewTechnicalScorer(cfg config.TechnicalConfig) *TechnicalScorer {
	return &TechnicalScorer{
		cfg:       cfg,
		rsi:       indicators.NewRSI(cfg.RSIPeriod),
		macd:      indicators.NewMACD(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal),
		bollinger: indicators.NewBollingerBands(cfg.BollingerPeriod, cfg.BollingerStdDev),
		fastMA:    indicators.NewSMA(cfg.MAFast),
		slowMA:    indicators.NewSMA(cfg.MASlow),
	}
}

// MinBars is the history needed by the longest indicator.
func (t *TechnicalScorer) MinBars() int {
	n := t.rsi.Period()
	for _, p := range []int{t.macd.Period(), t.bollinger.Period(), t.slowMA.Period(), t.fastMA.Period()} {
		if p > n {
			n = p
		}
	}
	return n
}

// Score computes the technical sub-score from bars strictly before the
// evaluation date.
func (t *TechnicalScorer) Score(candles []models.Candle) (models.TechnicalScore, error) {
	var ts models.TechnicalScore
	if len(candles) < t.MinBars() {
		return ts, fmt.Errorf("%w: technical score needs %d bars, have %d",
			indicators.ErrInsufficientData, t.MinBars(), len(candles))
	}
	price := candles[len(candles)-1].Close

	rsi, err := t.rsi.Calculate(candles)
	if err != nil {
		return ts, err
	}
	ts.RawRSI = indicators.Last(rsi)
	ts.RSI = RSIScore(ts.RawRSI)

	macd, err := t.macd.Calculate(candles)
	if err != nil {
		return ts, err
	}
	hist := macd["histogram"]
	ts.MACD = MACDScore(indicators.Last(macd["macd"]), indicators.Last(macd["signal"]),
		indicators.Last(hist) > indicators.Prev(hist))

	bands, err := t.bollinger.Calculate(candles)
	if err != nil {
		return ts, err
	}
	ts.Bollinger = BollingerScore(indicators.Last(bands["percent_b"]))

	fast, err := t.fastMA.Calculate(candles)
	if err != nil {
		return ts, err
	}
	slow, err := t.slowMA.Calculate(candles)
	if err != nil {
		return ts, err
	}
	ts.MATrend = MATrendScore(price, indicators.Last(fast), indicators.Last(slow))

	ts.Score = clip(t.cfg.RSIWeight*ts.RSI +
		t.cfg.MACDWeight*ts.MACD +
		t.cfg.BollingerWeight*ts.Bollinger +
		t.cfg.MATrendWeight*ts.MATrend)
	return ts, nil
}

// RSIScore favours the neutral band and penalises overbought readings
// more than oversold ones.
func RSIScore(rsi float64) float64 {
	switch {
	case math.IsNaN(rsi):
		return 0.5
	case rsi < 30:
		return 0.3
	case rsi < 40:
		return 0.5 + (rsi-30)/20
	case rsi <= 60:
		return 1
	case rsi <= 70:
		return 0.5
	default:
		return 0.2
	}
}

// MACDScore rewards a MACD line above signal, a rising histogram and a
// positive MACD.
func MACDScore(macd, signal float64, histRising bool) float64 {
	score := 0.3
	if macd > signal {
		score = 0.7
	}
	if histRising {
		score += 0.2
	}
	if macd > 0 {
		score += 0.1
	}
	return clip(score)
}

// BollingerScore peaks when price sits mid-band.
func BollingerScore(position float64) float64 {
	if math.IsNaN(position) {
		position = 0.5
	}
	return clip(1 - math.Abs(position-0.5))
}

// MATrendScore grades the alignment of price with the fast and slow MAs.
func MATrendScore(price, fast, slow float64) float64 {
	switch {
	case price > fast && fast > slow:
		return 1
	case price > slow:
		return 0.6
	default:
		return 0.2
	}
}
