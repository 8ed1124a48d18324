package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	apperrors "nifty-rotation/internal/errors"
	"nifty-rotation/internal/models"
)

// LoadUniverse reads a universe definition from a YAML file.
//
//	benchmark: NIFTY50
//	sectors:
//	  - {name: IT, index: NIFTYIT}
//	stocks:
//	  - {symbol: TCS, name: Tata Consultancy Services, sector: IT}
func LoadUniverse(path string) (models.Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Universe{}, fmt.Errorf("reading universe file: %w", err)
	}
	return ParseUniverse(data)
}

// ParseUniverse decodes and validates a YAML universe definition.
func ParseUniverse(data []byte) (models.Universe, error) {
	var u models.Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return u, fmt.Errorf("decoding universe: %w", err)
	}

	sectors := make(map[string]bool, len(u.Sectors))
	for _, s := range u.Sectors {
		if s.Name == "" || s.Index == "" {
			return u, apperrors.NewValidationError("universe.sectors", s, "name and index are required")
		}
		if sectors[s.Name] {
			return u, apperrors.NewValidationError("universe.sectors", s.Name, "duplicate sector")
		}
		sectors[s.Name] = true
	}

	seen := make(map[string]bool, len(u.Stocks))
	for i := range u.Stocks {
		st := &u.Stocks[i]
		if st.Symbol == "" {
			return u, apperrors.NewValidationError("universe.stocks", i, "symbol is required")
		}
		if seen[st.Symbol] {
			return u, apperrors.NewValidationError("universe.stocks", st.Symbol, "duplicate symbol")
		}
		if !sectors[st.Sector] {
			return u, apperrors.NewValidationError("universe.stocks", st.Symbol,
				fmt.Sprintf("unknown sector %q", st.Sector))
		}
		seen[st.Symbol] = true
		st.Kind = models.InstrumentStock
	}
	if len(u.Stocks) == 0 {
		return u, apperrors.ErrEmptyUniverse
	}

	sort.Slice(u.Sectors, func(i, j int) bool { return u.Sectors[i].Name < u.Sectors[j].Name })
	sort.Slice(u.Stocks, func(i, j int) bool { return u.Stocks[i].Symbol < u.Stocks[j].Symbol })
	return u, nil
}

// MarshalUniverse encodes a universe as YAML.
func MarshalUniverse(u models.Universe) ([]byte, error) {
	return yaml.Marshal(u)
}
