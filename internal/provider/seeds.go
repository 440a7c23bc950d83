package provider

import (
	_ "embed"
	"fmt"
	"hash/fnv"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"stock-forecaster/internal/models"
)

//go:embed seeds.yaml
var defaultSeeds []byte

// SeedListing is the reference data for one symbol.
type SeedListing struct {
	Symbol string  `yaml:"symbol"`
	Name   string  `yaml:"name"`
	Price  float64 `yaml:"price"`
	Volume float64 `yaml:"volume"`
}

// NewsTemplate is a synthetic headline; {company} is replaced by the name.
type NewsTemplate struct {
	Headline string `yaml:"headline"`
	Summary  string `yaml:"summary"`
}

// SeedTable holds the reference data behind the synthetic provider.
type SeedTable struct {
	Listings []SeedListing  `yaml:"listings"`
	News     []NewsTemplate `yaml:"news"`

	bySymbol map[string]SeedListing
}

// DefaultSeedTable returns the built-in seed table.
func DefaultSeedTable() *SeedTable {
	table, err := ParseSeedTable(defaultSeeds)
	if err != nil {
		panic(fmt.Sprintf("embedded seed table: %v", err))
	}
	return table
}

// LoadSeedTable reads a seed table from a YAML file.
func LoadSeedTable(path string) (*SeedTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed table: %w", err)
	}
	return ParseSeedTable(data)
}

// ParseSeedTable decodes a YAML seed table.
func ParseSeedTable(data []byte) (*SeedTable, error) {
	var table SeedTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decoding seed table: %w", err)
	}

	table.bySymbol = make(map[string]SeedListing, len(table.Listings))
	for i, l := range table.Listings {
		l.Symbol = models.NormalizeSymbol(l.Symbol)
		if l.Symbol == "" {
			return nil, fmt.Errorf("seed listing %d has no symbol", i)
		}
		if l.Price < 0 || l.Volume < 0 {
			return nil, fmt.Errorf("seed listing %s has a negative price or volume", l.Symbol)
		}
		table.Listings[i] = l
		table.bySymbol[l.Symbol] = l
	}
	return &table, nil
}

// Lookup returns the seed listing for symbol. Unknown symbols get a stable
// listing derived from the ticker, so repeated calls agree.
func (t *SeedTable) Lookup(symbol string) SeedListing {
	symbol = models.NormalizeSymbol(symbol)
	l, ok := t.bySymbol[symbol]
	if !ok {
		l = SeedListing{Symbol: symbol}
	}

	if l.Name == "" {
		l.Name = displaySymbol(symbol)
	}

	frac := symbolFraction(symbol)
	indian := models.IsIndianSymbol(symbol)
	if l.Price <= 0 {
		if indian {
			l.Price = 500 + frac*2000
		} else {
			l.Price = 50 + frac*300
		}
	}
	if l.Volume <= 0 {
		if indian {
			l.Volume = 500000 + frac*5000000
		} else {
			l.Volume = 1000000 + frac*20000000
		}
	}
	return l
}

// Known reports whether symbol is in the table.
func (t *SeedTable) Known(symbol string) bool {
	_, ok := t.bySymbol[models.NormalizeSymbol(symbol)]
	return ok
}

// symbolFraction maps a ticker onto [0, 1).
func symbolFraction(symbol string) float64 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return float64(h.Sum32()%10000) / 10000
}

func displaySymbol(symbol string) string {
	for _, suffix := range []string{".NS", ".BO"} {
		symbol = strings.TrimSuffix(symbol, suffix)
	}
	return symbol
}

func marketOf(symbol string) string {
	if models.IsIndianSymbol(symbol) {
		return models.MarketIndia
	}
	return models.MarketUS
}
