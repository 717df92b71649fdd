// Package portfolio defines the portfolio snapshot value types consumed by
// the analytics engines. A snapshot is supplied by an external adapter and
// treated as immutable for the duration of a call.
package portfolio

import "sort"

// Asset class tags recognized by the stress scenarios. Positions carrying an
// unknown tag are valid; shocks simply do not apply to them.
const (
	AssetClassEquities    = "equities"
	AssetClassBonds       = "bonds"
	AssetClassGold        = "gold"
	AssetClassCommodities = "commodities"
	AssetClassCrypto      = "crypto"
	AssetClassCurrencies  = "currencies"
	AssetClassRealEstate  = "real_estate"
	AssetClassCash        = "cash"
)

// Position is a single holding in a portfolio snapshot.
type Position struct {
	Symbol         string  `json:"symbol,omitempty"`
	Value          float64 `json:"value"`                     // Current dollar value
	AssetClass     string  `json:"asset_class"`               // One of the AssetClass* tags
	ExpectedReturn float64 `json:"expected_return,omitempty"` // Annualized, as decimal
	Volatility     float64 `json:"volatility,omitempty"`      // Annualized, as decimal
}

// Portfolio is a snapshot of positions keyed by position id.
type Portfolio map[string]Position

// TotalValue returns the summed dollar value of all positions.
func (p Portfolio) TotalValue() float64 {
	total := 0.0
	for _, pos := range p {
		total += pos.Value
	}
	return total
}

// Weights returns each position's fraction of total portfolio value,
// keyed by position id. An empty or zero-value portfolio yields nil.
func (p Portfolio) Weights() map[string]float64 {
	total := p.TotalValue()
	if total <= 0 {
		return nil
	}

	weights := make(map[string]float64, len(p))
	for id, pos := range p {
		weights[id] = pos.Value / total
	}
	return weights
}

// ByAssetClass returns the dollar exposure per asset-class tag.
func (p Portfolio) ByAssetClass() map[string]float64 {
	exposure := make(map[string]float64)
	for _, pos := range p {
		exposure[pos.AssetClass] += pos.Value
	}
	return exposure
}

// IDs returns the position ids in sorted order, for deterministic iteration.
func (p Portfolio) IDs() []string {
	ids := make([]string, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
