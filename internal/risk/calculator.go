package risk

import (
	"context"
	"time"

	"github.com/rzzdr/ccr-analytics/internal/simulation"
	"github.com/rzzdr/ccr-analytics/pkg/models"
	"github.com/rzzdr/ccr-analytics/pkg/utils/errors"
	"github.com/rzzdr/ccr-analytics/pkg/utils/logger"
	"github.com/rzzdr/ccr-analytics/pkg/validation"
	"gonum.org/v1/gonum/stat"
)

// CalculatorConfig contains configuration for the risk calculator
type CalculatorConfig struct {
	// PFEQuantile is the PFE confidence level; nil selects DefaultPFEQuantile
	PFEQuantile *float64
	WorkerCount int
	// MaxCells bounds (n_steps+1)*n_paths of one simulation
	MaxCells int
}

// MetricsRecorder receives the outcome of every scenario evaluation
type MetricsRecorder interface {
	RecordScenario(scenario string, epe, cva float64, latency time.Duration, err error)
}

// Calculator runs the simulation -> exposure -> CVA pipeline
type Calculator struct {
	config    CalculatorConfig
	simulator *simulation.Simulator
	exposure  *ExposureCalculator
	cva       *CVACalculator
	metrics   MetricsRecorder
	log       *logger.Logger
}

// NewCalculator creates a new risk calculator. metrics may be nil.
func NewCalculator(config CalculatorConfig, metrics MetricsRecorder) *Calculator {
	quantile := DefaultPFEQuantile
	if config.PFEQuantile != nil {
		quantile = *config.PFEQuantile
	}

	if config.WorkerCount <= 0 {
		config.WorkerCount = 1 // Scenarios run one after another
	}

	return &Calculator{
		config:    config,
		simulator: simulation.NewSimulator(config.MaxCells),
		exposure:  NewExposureCalculator(quantile),
		cva:       NewCVACalculator(),
		metrics:   metrics,
		log:       logger.GetLogger("risk.calculator"),
	}
}

// Analyze runs the unstressed pipeline and returns the full exposure profile and CVA
func (c *Calculator) Analyze(ctx context.Context, base models.BaseParameters) (*models.Analysis, error) {
	if err := validation.Struct(base); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Canceled(err)
	}

	startTime := time.Now()

	ensemble, err := c.simulator.Simulate(base.MarketParameters)
	if err != nil {
		return nil, err
	}

	profile, err := c.exposure.Profile(ensemble, base.Strike)
	if err != nil {
		return nil, err
	}

	cva, err := c.cva.Calculate(profile.EE, profile.Times, base.CreditParameters)
	if err != nil {
		return nil, err
	}

	c.log.Infof("Completed analysis in %v: EPE=%.4f CVA=%.4f", time.Since(startTime), profile.EPE, cva)

	return &models.Analysis{
		Parameters: base,
		Exposure:   *profile,
		CVA:        cva,
		Timestamp:  time.Now(),
	}, nil
}

// ExposureProfile simulates market and returns the exposure profile of a
// forward struck at strike, with PFE at quantile. A nil quantile selects
// the calculator's configured one.
func (c *Calculator) ExposureProfile(ctx context.Context, market models.MarketParameters, strike float64, quantile *float64) (*models.ExposureProfile, error) {
	if err := validation.Struct(market); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Canceled(err)
	}

	exposure := c.exposure
	if quantile != nil && *quantile != exposure.Quantile() {
		exposure = NewExposureCalculator(*quantile)
	}

	ensemble, err := c.simulator.Simulate(market)
	if err != nil {
		return nil, err
	}
	return exposure.Profile(ensemble, strike)
}

// RunScenario evaluates one scenario: the overrides replace sigma and the
// hazard rate, everything else comes from base.
func (c *Calculator) RunScenario(ctx context.Context, base models.BaseParameters, overrides models.ScenarioOverrides) (models.ScenarioResult, error) {
	if err := validation.Struct(overrides); err != nil {
		return models.ScenarioResult{}, err
	}

	effective := overrides.Apply(base)
	if err := validation.Struct(effective); err != nil {
		return models.ScenarioResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.ScenarioResult{}, errors.Canceled(err)
	}

	epe, cva, err := c.evaluate(effective)
	if err != nil {
		return models.ScenarioResult{}, err
	}
	return models.ScenarioResult{EPE: epe, CVA: cva}, nil
}

// evaluate computes EPE and CVA of a validated parameter set. It follows
// the same steps as Analyze so an empty override reproduces it exactly.
func (c *Calculator) evaluate(p models.BaseParameters) (float64, float64, error) {
	ensemble, err := c.simulator.Simulate(p.MarketParameters)
	if err != nil {
		return 0, 0, err
	}

	if err := validation.Finite(p.Strike, "strike"); err != nil {
		return 0, 0, err
	}
	exposure := c.exposure.Exposure(ensemble, p.Strike)
	ee := ExpectedExposure(exposure)
	epe := stat.Mean(ee, nil)

	cva, err := c.cva.Calculate(ee, ensemble.Times(), p.CreditParameters)
	if err != nil {
		return 0, 0, err
	}
	return epe, cva, nil
}
