package stress

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aristath/riskcore/pkg/portfolio"
)

// Scenario is one stress scenario: a named set of signed fractional shocks
// keyed by asset-class tag. A shock of -0.50 halves the value of every
// position carrying that tag.
type Scenario struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Shocks      map[string]float64 `json:"shocks"`
}

// Registry holds scenarios by name. The builtin set is registered at
// construction; Register adds custom scenarios on top.
type Registry struct {
	mu        sync.RWMutex
	scenarios map[string]Scenario
}

// NewRegistry creates a registry pre-seeded with the builtin scenarios.
func NewRegistry() *Registry {
	r := &Registry{scenarios: make(map[string]Scenario)}
	for _, s := range builtinScenarios() {
		r.scenarios[s.Name] = s
	}
	return r
}

// Register adds a scenario. Names must be unique and scenarios must carry
// at least one shock.
func (r *Registry) Register(s Scenario) error {
	if s.Name == "" {
		return errors.New("scenario name must not be empty")
	}
	if len(s.Shocks) == 0 {
		return fmt.Errorf("scenario %q has no shocks", s.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scenarios[s.Name]; exists {
		return fmt.Errorf("scenario already registered: %s", s.Name)
	}
	r.scenarios[s.Name] = s
	return nil
}

// Get returns the named scenario.
func (r *Registry) Get(name string) (Scenario, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scenarios[name]
	return s, ok
}

// Names returns all registered scenario names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// builtinScenarios is the reference scenario set. The shock values double
// as regression fixtures, so changing them is a breaking change.
func builtinScenarios() []Scenario {
	return []Scenario{
		{
			Name:        "market_crash_2008",
			Description: "Broad systemic crash on the scale of late 2008",
			Shocks: map[string]float64{
				portfolio.AssetClassEquities:    -0.50,
				portfolio.AssetClassBonds:       0.10,
				portfolio.AssetClassGold:        0.15,
				portfolio.AssetClassCommodities: -0.30,
				portfolio.AssetClassCrypto:      -0.60,
				portfolio.AssetClassRealEstate:  -0.45,
				portfolio.AssetClassCurrencies:  -0.05,
				portfolio.AssetClassCash:        0.0,
			},
		},
		{
			Name:        "flash_crash",
			Description: "Intraday liquidity vacuum with a fast partial recovery",
			Shocks: map[string]float64{
				portfolio.AssetClassEquities:    -0.12,
				portfolio.AssetClassCrypto:      -0.25,
				portfolio.AssetClassGold:        0.03,
				portfolio.AssetClassBonds:       0.02,
				portfolio.AssetClassCommodities: -0.08,
			},
		},
		{
			Name:        "rate_hike_200bp",
			Description: "Central banks hike 200 basis points inside a quarter",
			Shocks: map[string]float64{
				portfolio.AssetClassBonds:      -0.15,
				portfolio.AssetClassEquities:   -0.10,
				portfolio.AssetClassRealEstate: -0.12,
				portfolio.AssetClassGold:       -0.05,
				portfolio.AssetClassCurrencies: 0.03,
			},
		},
		{
			Name:        "geopolitical_crisis",
			Description: "Major geopolitical escalation with a flight to safety",
			Shocks: map[string]float64{
				portfolio.AssetClassEquities:    -0.20,
				portfolio.AssetClassGold:        0.25,
				portfolio.AssetClassCommodities: 0.30,
				portfolio.AssetClassBonds:       0.05,
				portfolio.AssetClassCrypto:      -0.15,
				portfolio.AssetClassCurrencies:  -0.10,
			},
		},
		{
			Name:        "tech_selloff",
			Description: "Sector rotation out of growth and technology",
			Shocks: map[string]float64{
				portfolio.AssetClassEquities: -0.30,
				portfolio.AssetClassCrypto:   -0.35,
				portfolio.AssetClassBonds:    0.03,
				portfolio.AssetClassGold:     0.05,
			},
		},
		{
			Name:        "currency_crisis",
			Description: "Reserve currency confidence shock",
			Shocks: map[string]float64{
				portfolio.AssetClassCurrencies: -0.35,
				portfolio.AssetClassEquities:   -0.15,
				portfolio.AssetClassGold:       0.20,
				portfolio.AssetClassBonds:      -0.08,
				portfolio.AssetClassCrypto:     0.10,
			},
		},
		{
			Name:        "bull_run",
			Description: "Best case: broad risk-on melt-up",
			Shocks: map[string]float64{
				portfolio.AssetClassEquities:    0.25,
				portfolio.AssetClassCrypto:      0.50,
				portfolio.AssetClassCommodities: 0.10,
				portfolio.AssetClassGold:        -0.05,
				portfolio.AssetClassBonds:       -0.02,
				portfolio.AssetClassRealEstate:  0.15,
			},
		},
	}
}
