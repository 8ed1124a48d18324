package scoring

import (
	"math"

	"nifty-rotation/internal/config"
	"nifty-rotation/internal/models"
)

// FundamentalScorer maps a fundamental snapshot onto [0,1]. Missing
// metrics take configured defaults instead of excluding the instrument.
type FundamentalScorer struct {
	cfg config.FundamentalConfig
}

// NewFundamentalScorer creates a fundamental scorer.
func NewFundamentalScorer(cfg config.FundamentalConfig) *FundamentalScorer {
	return &FundamentalScorer{cfg: cfg}
}

// Score computes the fundamental sub-score. A nil snapshot defaults every
// metric.
func (f *FundamentalScorer) Score(fund *models.Fundamentals) models.FundamentalScore {
	var fs models.FundamentalScore
	if fund == nil {
		fund = &models.Fundamentals{}
	}

	value := func(name string, v *float64, def float64) float64 {
		if v == nil || math.IsNaN(*v) {
			fs.Defaulted = append(fs.Defaulted, name)
			return def
		}
		return *v
	}

	fs.ROE = ReturnRatioScore(value("roe", fund.ROE, f.cfg.DefaultROE))
	fs.ROCE = ReturnRatioScore(value("roce", fund.ROCE, f.cfg.DefaultROCE))
	fs.EPSGrowth = EPSGrowthScore(value("eps_cagr", fund.EPSCAGR, f.cfg.DefaultEPSCAGR))
	fs.PE = PEScore(value("pe", fund.PE, f.cfg.DefaultPE))
	fs.PB = PBScore(value("pb", fund.PB, f.cfg.DefaultPB))
	fs.DebtToEquity = DebtToEquityScore(value("debt_to_equity", fund.DebtToEquity, f.cfg.DefaultDebtToEquity))
	fs.CurrentRatio = CurrentRatioScore(value("current_ratio", fund.CurrentRatio, f.cfg.DefaultCurrentRatio))

	fs.Score = clip(f.cfg.ROEWeight*fs.ROE +
		f.cfg.ROCEWeight*fs.ROCE +
		f.cfg.EPSGrowthWeight*fs.EPSGrowth +
		f.cfg.PEWeight*fs.PE +
		f.cfg.PBWeight*fs.PB +
		f.cfg.DebtToEquityWeight*fs.DebtToEquity +
		f.cfg.CurrentRatioWeight*fs.CurrentRatio)
	return fs
}

// ReturnRatioScore maps ROE or ROCE linearly, saturating at 20%.
func ReturnRatioScore(r float64) float64 {
	return math.Min(math.Max(r, 0)*5, 1)
}

// EPSGrowthScore maps EPS CAGR linearly, saturating at 15%.
func EPSGrowthScore(g float64) float64 {
	return math.Min(math.Max(g, 0)/0.15, 1)
}

// PEScore prefers a P/E between 15 and 25.
func PEScore(pe float64) float64 {
	switch {
	case pe <= 0:
		return 0
	case pe < 15:
		return 0.5 + pe/30
	case pe <= 25:
		return 1
	default:
		return math.Max(0, 1-(pe-25)/50)
	}
}

// PBScore prefers a P/B between 1 and 3.
func PBScore(pb float64) float64 {
	switch {
	case pb < 1:
		return 0.6
	case pb <= 3:
		return 1
	default:
		return math.Max(0, 1-(pb-3)/10)
	}
}

// DebtToEquityScore steps down as leverage rises.
func DebtToEquityScore(de float64) float64 {
	switch {
	case de < 0.5:
		return 1
	case de < 1:
		return 0.8
	case de < 2:
		return 0.5
	default:
		return 0.2
	}
}

// CurrentRatioScore prefers a current ratio between 1.5 and 2.5.
func CurrentRatioScore(cr float64) float64 {
	switch {
	case cr >= 1.5 && cr <= 2.5:
		return 1
	case cr > 1:
		return 0.7
	default:
		return 0.3
	}
}
