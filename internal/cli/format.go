package cli

import (
	"fmt"
	"sort"
	"strings"

	"nifty-rotation/internal/analytics"
	"nifty-rotation/internal/store"
	"nifty-rotation/pkg/utils"
)

// maxDrawdownRows caps the drawdown periods printed in the text report.
const maxDrawdownRows = 5

func formatStat(s analytics.Stat) string {
	return fmt.Sprintf("%.2f", s.Value)
}

func showRun(o *Output, info store.RunInfo) {
	if info.Label != "" {
		o.Warning("%s", info.Label)
	}
	o.Bold("Run %s", info.ID)
	o.Printf("  Period:          %s to %s\n", utils.FormatDate(info.Start), utils.FormatDate(info.End))
	o.Printf("  Created:         %s IST\n", info.CreatedAt.In(utils.IndiaLocation).Format("02-Jan-2006 15:04:05"))
	o.Println()
}

func showReport(o *Output, r *analytics.Report) {
	o.Bold("Performance")
	o.Printf("  Initial Capital: %s\n", utils.FormatIndianCurrency(r.InitialCapital))
	o.Printf("  Final Value:     %s\n", utils.FormatIndianCurrency(r.FinalValue))
	o.Printf("  Total Return:    %s\n", o.Signed(r.TotalReturn.Value, utils.FormatSignedFraction(r.TotalReturn.Value)))
	o.Printf("  CAGR:            %s\n", o.Signed(r.CAGR.Value, utils.FormatSignedFraction(r.CAGR.Value)))
	o.Printf("  Volatility:      %s\n", utils.FormatFraction(r.Volatility.Value))
	o.Printf("  Max Drawdown:    %s\n", o.Signed(r.MaxDrawdown.Value, utils.FormatFraction(r.MaxDrawdown.Value)))
	o.Printf("  Sharpe:          %s\n", formatStat(r.Sharpe))
	o.Printf("  Sortino:         %s\n", formatStat(r.Sortino))
	o.Printf("  Calmar:          %s\n", formatStat(r.Calmar))
	o.Printf("  Years:           %.2f (%d trading days)\n", r.Years, r.TradingDays)
	o.Printf("  Best/Worst Day:  %s / %s\n", utils.FormatSignedFraction(r.Days.Best), utils.FormatSignedFraction(r.Days.Worst))
	o.Printf("  Positive Days:   %s\n", utils.FormatFraction(r.Days.PositiveRatio))
	o.Println()

	if b := r.Benchmark; b != nil {
		o.Bold("Benchmark (%s)", b.Symbol)
		o.Printf("  Benchmark CAGR:  %s\n", utils.FormatSignedFraction(b.CAGR.Value))
		o.Printf("  Excess Return:   %s\n", o.Signed(b.ExcessReturn, utils.FormatSignedFraction(b.ExcessReturn)))
		o.Printf("  Alpha:           %s\n", utils.FormatSignedFraction(b.Alpha.Value))
		o.Printf("  Beta:            %.2f\n", b.Beta)
		o.Printf("  Correlation:     %.2f\n", b.Correlation)
		o.Printf("  Tracking Error:  %s\n", utils.FormatFraction(b.TrackingError.Value))
		o.Printf("  Info Ratio:      %s\n", formatStat(b.InformationRatio))
		o.Printf("  Win Rate:        %s\n", utils.FormatFraction(b.WinRate))
		o.Println()
	}

	ts := r.Trades
	o.Bold("Trading")
	o.Printf("  Rebalances:      %d\n", ts.Rebalances)
	o.Printf("  Trades:          %d (%d buys, %d sells, %d scaled)\n", ts.Count, ts.Buys, ts.Sells, ts.Scaled)
	o.Printf("  Avg Trade Size:  %s\n", utils.FormatIndianCurrency(ts.AverageTradeSize))
	o.Printf("  Turnover:        %.2fx\n", ts.Turnover)
	o.Printf("  Commission:      %s\n", utils.FormatIndianCurrency(ts.Commission))
	o.Printf("  Taxes:           %s\n", utils.FormatIndianCurrency(ts.Taxes))
	o.Printf("  Slippage:        %s\n", utils.FormatIndianCurrency(ts.Slippage))
	o.Println()

	if len(r.Drawdowns) > 0 {
		o.Bold("Worst Drawdowns")
		showDrawdowns(o, r.Drawdowns)
		o.Println()
	}

	if len(r.YearTable) > 0 {
		o.Bold("Monthly Returns")
		showYearTable(o, r.YearTable)
		o.Println()
	}
}

func showDrawdowns(o *Output, periods []analytics.DrawdownPeriod) {
	sorted := append([]analytics.DrawdownPeriod(nil), periods...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Depth < sorted[j].Depth })
	if len(sorted) > maxDrawdownRows {
		sorted = sorted[:maxDrawdownRows]
	}

	t := NewTable(o, "Peak", "Trough", "Recovery", "Depth", "Days")
	for _, p := range sorted {
		recovery := "open"
		if p.Recovered {
			recovery = utils.FormatDate(p.Recovery)
		}
		t.AddRow(utils.FormatDate(p.Peak), utils.FormatDate(p.Trough), recovery,
			utils.FormatFraction(p.Depth), fmt.Sprintf("%d", p.Days))
	}
	t.Render()
}

func showYearTable(o *Output, rows []analytics.YearRow) {
	headers := []string{"Year", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec", "Total"}
	t := NewTable(o, headers...)
	for _, row := range rows {
		cells := []string{fmt.Sprintf("%d", row.Year)}
		for _, m := range row.Months {
			if m == nil {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, o.Signed(*m, fmt.Sprintf("%.1f", *m*100)))
		}
		cells = append(cells, o.Signed(row.Total, fmt.Sprintf("%.1f", row.Total*100)))
		t.AddRow(cells...)
	}
	t.Render()
}

func showRebalances(o *Output, rows []analytics.RebalanceRow) {
	t := NewTable(o, "Date", "Sectors", "Added", "Removed", "Holdings", "Trades", "Value")
	for _, r := range rows {
		t.AddRow(utils.FormatDate(r.Date), strings.Join(r.Sectors, ","),
			strings.Join(r.Added, ","), strings.Join(r.Removed, ","),
			fmt.Sprintf("%d", r.Holdings), fmt.Sprintf("%d", r.Trades),
			utils.FormatCompact(r.Value))
	}
	t.Render()
}

func showRuns(o *Output, runs []store.RunInfo) {
	t := NewTable(o, "ID", "Period", "Final Value", "Days", "Label")
	for _, r := range runs {
		t.AddRow(r.ID, utils.FormatDate(r.Start)+" to "+utils.FormatDate(r.End),
			utils.FormatIndianCurrency(r.FinalValue), fmt.Sprintf("%d", r.Snapshots), r.Label)
	}
	t.Render()
}
