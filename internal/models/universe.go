package models

import "sort"

// SectorDef binds a sector name to the index that tracks it.
type SectorDef struct {
	Name  string `json:"name" yaml:"name"`
	Index string `json:"index" yaml:"index"`
}

// Universe is the set of instruments a backtest may trade or rank.
type Universe struct {
	Benchmark string       `json:"benchmark" yaml:"benchmark"`
	Sectors   []SectorDef  `json:"sectors" yaml:"sectors"`
	Stocks    []Instrument `json:"stocks" yaml:"stocks"`
}

// SectorOf returns the sector of a stock symbol.
func (u Universe) SectorOf(symbol string) string {
	for _, s := range u.Stocks {
		if s.Symbol == symbol {
			return s.Sector
		}
	}
	return ""
}

// StocksIn returns the stocks tagged with the given sector, sorted by symbol.
func (u Universe) StocksIn(sector string) []Instrument {
	var out []Instrument
	for _, s := range u.Stocks {
		if s.Sector == sector {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Symbols returns every stock symbol, sorted.
func (u Universe) Symbols() []string {
	out := make([]string, 0, len(u.Stocks))
	for _, s := range u.Stocks {
		out = append(out, s.Symbol)
	}
	sort.Strings(out)
	return out
}

// NewUniverse groups instruments by kind. Sector indices define sectors;
// the first benchmark instrument becomes the benchmark.
func NewUniverse(instruments []Instrument) Universe {
	var u Universe
	for _, in := range instruments {
		switch in.Kind {
		case InstrumentSectorIndex:
			u.Sectors = append(u.Sectors, SectorDef{Name: in.Sector, Index: in.Symbol})
		case InstrumentBenchmark:
			if u.Benchmark == "" {
				u.Benchmark = in.Symbol
			}
		default:
			in.Kind = InstrumentStock
			u.Stocks = append(u.Stocks, in)
		}
	}
	sort.Slice(u.Sectors, func(i, j int) bool { return u.Sectors[i].Name < u.Sectors[j].Name })
	sort.Slice(u.Stocks, func(i, j int) bool { return u.Stocks[i].Symbol < u.Stocks[j].Symbol })
	return u
}

// Instruments flattens the universe back into tagged instruments.
func (u Universe) Instruments() []Instrument {
	out := make([]Instrument, 0, len(u.Stocks)+len(u.Sectors)+1)
	for _, s := range u.Sectors {
		out = append(out, Instrument{Symbol: s.Index, Name: s.Name, Sector: s.Name, Kind: InstrumentSectorIndex})
	}
	if u.Benchmark != "" {
		out = append(out, Instrument{Symbol: u.Benchmark, Kind: InstrumentBenchmark})
	}
	return append(out, u.Stocks...)
}
