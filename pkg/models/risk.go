package models

import (
	"sort"
	"time"
)

// DefaultSeed seeds every simulation unless a parameter set says otherwise
const DefaultSeed uint64 = 42

// Size ceilings for a single simulation. DefaultMaxCells bounds
// (n_steps+1)*n_paths unless the simulator is configured otherwise.
const (
	MaxSteps        = 10_000_000
	DefaultMaxCells = 50_000_000
)

// MarketParameters drive the GBM simulation of the single risk factor
type MarketParameters struct {
	S0      float64 `json:"s0" mapstructure:"s0" validate:"gt=0"`
	Mu      float64 `json:"mu" mapstructure:"mu"`
	Sigma   float64 `json:"sigma" mapstructure:"sigma" validate:"gte=0"`
	Horizon float64 `json:"T" mapstructure:"t" validate:"gt=0"`
	NSteps  int     `json:"n_steps" mapstructure:"n_steps" validate:"gt=0,lte=10000000"`
	NPaths  int     `json:"n_paths" mapstructure:"n_paths" validate:"gt=0,lte=50000000"`
	Seed    *uint64 `json:"seed,omitempty" mapstructure:"seed"`
}

// SeedOrDefault returns the configured seed or DefaultSeed
func (m MarketParameters) SeedOrDefault() uint64 {
	if m.Seed == nil {
		return DefaultSeed
	}
	return *m.Seed
}

// CreditParameters describe the counterparty default model and discounting
type CreditParameters struct {
	HazardRate   float64 `json:"hazard_rate" mapstructure:"hazard_rate" validate:"gte=0"`
	RecoveryRate float64 `json:"recovery_rate" mapstructure:"recovery_rate" validate:"gte=0,lte=1"`
	DiscountRate float64 `json:"discount_rate" mapstructure:"discount_rate" validate:"gte=0"`
}

// BaseParameters is the full unstressed parameter set of a run
type BaseParameters struct {
	MarketParameters `mapstructure:",squash"`
	CreditParameters `mapstructure:",squash"`
	Strike           float64 `json:"strike" mapstructure:"strike"`
}

// DefaultBaseParameters returns the reference parameter set: a one year
// forward struck at the money, simulated daily over 5000 paths.
func DefaultBaseParameters() BaseParameters {
	return BaseParameters{
		MarketParameters: MarketParameters{
			S0:      100.0,
			Mu:      0.02,
			Sigma:   0.15,
			Horizon: 1.0,
			NSteps:  252,
			NPaths:  5000,
		},
		CreditParameters: CreditParameters{
			HazardRate:   0.02,
			RecoveryRate: 0.40,
			DiscountRate: 0.01,
		},
		Strike: 100.0,
	}
}

// Clone returns a copy that shares no memory with p
func (p BaseParameters) Clone() BaseParameters {
	c := p
	if p.Seed != nil {
		seed := *p.Seed
		c.Seed = &seed
	}
	return c
}

// Override keys recognised by ParseOverrides
const (
	OverrideSigma      = "sigma"
	OverrideHazardRate = "hazard_rate"
)

// ScenarioOverrides replace base parameters for one scenario. Only sigma
// and the hazard rate can be stressed; nil means "use the base value".
type ScenarioOverrides struct {
	Sigma      *float64 `json:"sigma,omitempty" mapstructure:"sigma" validate:"omitempty,gte=0"`
	HazardRate *float64 `json:"hazard_rate,omitempty" mapstructure:"hazard_rate" validate:"omitempty,gte=0"`
}

// ParseOverrides picks the recognised keys out of a generic override map.
// Unknown keys are returned so callers can report them.
func ParseOverrides(raw map[string]float64) (ScenarioOverrides, []string) {
	var o ScenarioOverrides
	var ignored []string
	for key, value := range raw {
		v := value
		switch key {
		case OverrideSigma:
			o.Sigma = &v
		case OverrideHazardRate:
			o.HazardRate = &v
		default:
			ignored = append(ignored, key)
		}
	}
	sort.Strings(ignored)
	return o, ignored
}

// IsEmpty reports whether no parameter is overridden
func (o ScenarioOverrides) IsEmpty() bool {
	return o.Sigma == nil && o.HazardRate == nil
}

// Apply returns the effective parameters of a scenario
func (o ScenarioOverrides) Apply(base BaseParameters) BaseParameters {
	effective := base
	if o.Sigma != nil {
		effective.Sigma = *o.Sigma
	}
	if o.HazardRate != nil {
		effective.HazardRate = *o.HazardRate
	}
	return effective
}

// Scenario is a named set of overrides
type Scenario struct {
	Name      string            `json:"name" mapstructure:"name" validate:"required"`
	Overrides ScenarioOverrides `json:"overrides" mapstructure:"overrides"`
}

// ScenarioResult is the outcome of one scenario
type ScenarioResult struct {
	Name  string  `json:"name"`
	EPE   float64 `json:"EPE"`
	CVA   float64 `json:"CVA"`
	Error string  `json:"error,omitempty"`
}

// Failed reports whether the scenario could not be evaluated
func (r ScenarioResult) Failed() bool {
	return r.Error != ""
}

// StressTestResults is the ordered table of a stress run
type StressTestResults struct {
	RunID     string           `json:"run_id"`
	Timestamp time.Time        `json:"timestamp"`
	Scenarios []ScenarioResult `json:"scenarios"`
}

// Get returns the result of the named scenario
func (s *StressTestResults) Get(name string) (ScenarioResult, bool) {
	for _, r := range s.Scenarios {
		if r.Name == name {
			return r, true
		}
	}
	return ScenarioResult{}, false
}

// ExposureProfile holds the exposure metrics over the time grid
type ExposureProfile struct {
	Times    []float64 `json:"times"`
	EE       []float64 `json:"ee"`
	PFE      []float64 `json:"pfe"`
	EPE      float64   `json:"epe"`
	Quantile float64   `json:"quantile"`
}

// CVAResult is a priced CVA with its per-time integrand terms
type CVAResult struct {
	CVA           float64   `json:"cva"`
	Contributions []float64 `json:"contributions,omitempty"`
}

// Analysis is the full unstressed run
type Analysis struct {
	Parameters BaseParameters  `json:"parameters"`
	Exposure   ExposureProfile `json:"exposure"`
	CVA        float64         `json:"cva"`
	Timestamp  time.Time       `json:"timestamp"`
}
