package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"nifty-rotation/internal/models"
)

// EquityRecord is the Parquet schema for the daily equity curve.
type EquityRecord struct {
	Date       int64   `parquet:"date,timestamp(millisecond)"`
	TotalValue float64 `parquet:"total_value"`
	Cash       float64 `parquet:"cash"`
	Holdings   int64   `parquet:"holdings"`
	Rebalance  bool    `parquet:"rebalance"`
}

// TradeRecord is the Parquet schema for executed trades.
type TradeRecord struct {
	ID             string  `parquet:"id"`
	Timestamp      int64   `parquet:"timestamp,timestamp(millisecond)"`
	Symbol         string  `parquet:"symbol"`
	Side           string  `parquet:"side"`
	Quantity       float64 `parquet:"quantity"`
	ReferencePrice float64 `parquet:"reference_price"`
	FillPrice      float64 `parquet:"fill_price"`
	Notional       float64 `parquet:"notional"`
	Slippage       float64 `parquet:"slippage"`
	Commission     float64 `parquet:"commission"`
	Taxes          float64 `parquet:"taxes"`
	CashFlow       float64 `parquet:"cash_flow"`
	Scaled         bool    `parquet:"scaled"`
}

// ParquetExporter writes run outputs as Parquet files under
// <Dir>/<run id>/.
type ParquetExporter struct {
	Dir string
}

// NewParquetExporter creates an exporter rooted at dir.
func NewParquetExporter(dir string) *ParquetExporter {
	return &ParquetExporter{Dir: dir}
}

// Export writes equity.parquet and trades.parquet for a run and returns
// their paths.
func (e *ParquetExporter) Export(runID string, snapshots []models.PortfolioSnapshot) ([]string, error) {
	equity := make([]EquityRecord, len(snapshots))
	var trades []TradeRecord
	for i, s := range snapshots {
		equity[i] = EquityRecord{
			Date:       s.Date.UnixMilli(),
			TotalValue: s.TotalValue,
			Cash:       s.Cash,
			Holdings:   int64(len(s.Positions)),
			Rebalance:  s.Cycle != nil,
		}
		if s.Cycle == nil {
			continue
		}
		for _, t := range s.Cycle.Trades {
			trades = append(trades, TradeRecord{
				ID:             t.ID,
				Timestamp:      t.Timestamp.UnixMilli(),
				Symbol:         t.Symbol,
				Side:           string(t.Side),
				Quantity:       t.Quantity,
				ReferencePrice: t.ReferencePrice,
				FillPrice:      t.FillPrice,
				Notional:       t.Notional,
				Slippage:       t.Slippage,
				Commission:     t.Commission,
				Taxes:          t.Taxes,
				CashFlow:       t.CashFlow,
				Scaled:         t.Scaled,
			})
		}
	}

	equityPath := filepath.Join(e.Dir, runID, "equity.parquet")
	if err := writeParquetFile(equityPath, equity); err != nil {
		return nil, fmt.Errorf("writing equity for %s: %w", runID, err)
	}
	tradesPath := filepath.Join(e.Dir, runID, "trades.parquet")
	if err := writeParquetFile(tradesPath, trades); err != nil {
		return nil, fmt.Errorf("writing trades for %s: %w", runID, err)
	}
	return []string{equityPath, tradesPath}, nil
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

// ReadParquetFile reads every row of a Parquet file.
func ReadParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}
