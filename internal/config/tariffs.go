package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/j-veylop/divvy-insights/internal/models"
)

//go:embed tariffs_default.yaml
var defaultTariffs []byte

// Tariffs is the price and cost schedule of every vehicle class.
type Tariffs struct {
	Pricing models.PricingConfig
	Costs   models.CostConfig
}

type tariffFile struct {
	Pricing map[string]tariffEntry `yaml:"pricing"`
	Costs   map[string]costEntry   `yaml:"costs"`
}

type tariffEntry struct {
	UnlockFee       decimal.Decimal `yaml:"unlock_fee"`
	IncludedMinutes decimal.Decimal `yaml:"included_minutes"`
	RateWithin      decimal.Decimal `yaml:"rate_within"`
	RateAfter       decimal.Decimal `yaml:"rate_after"`
}

type costEntry struct {
	Depreciation decimal.Decimal `yaml:"depreciation"`
	Swap         decimal.Decimal `yaml:"swap"`
}

// LoadTariffs reads a tariff file. An empty path selects the built-in
// schedule.
func LoadTariffs(path string) (*Tariffs, error) {
	data := defaultTariffs
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read tariff file: %w", err)
		}
	}
	return ParseTariffs(data)
}

// ParseTariffs decodes a YAML tariff document. Class names go through the
// same normalization as trip feeds, so "electric_bike" and "electric" name
// the same class.
func ParseTariffs(data []byte) (*Tariffs, error) {
	var doc tariffFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tariff file: %w", err)
	}

	t := &Tariffs{
		Pricing: make(models.PricingConfig, len(doc.Pricing)),
		Costs:   make(models.CostConfig, len(doc.Costs)),
	}
	for name, e := range doc.Pricing {
		class := models.ParseVehicleClass(name)
		if class == "" {
			return nil, &models.ConfigurationError{Config: "pricing", Reason: "empty vehicle class name"}
		}
		t.Pricing[class] = models.Tariff{
			UnlockFee:           e.UnlockFee,
			IncludedMinutes:     e.IncludedMinutes,
			RatePerMinuteWithin: e.RateWithin,
			RatePerMinuteAfter:  e.RateAfter,
		}
	}
	for name, e := range doc.Costs {
		class := models.ParseVehicleClass(name)
		if class == "" {
			return nil, &models.ConfigurationError{Config: "cost", Reason: "empty vehicle class name"}
		}
		t.Costs[class] = models.UnitCost{
			DepreciationPerTrip: e.Depreciation,
			SwapCostPerTrip:     e.Swap,
		}
	}

	return t, nil
}
