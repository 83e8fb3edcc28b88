package risk

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rzzdr/ccr-analytics/pkg/models"
	"github.com/rzzdr/ccr-analytics/pkg/utils/errors"
	"github.com/rzzdr/ccr-analytics/pkg/validation"
	"golang.org/x/sync/errgroup"
)

// BaseScenarioName names the scenario without overrides
const BaseScenarioName = "Base"

// DefaultScenarios returns the reference stress set: the base case, a 50%
// volatility bump, a doubled hazard rate and a combined shock.
func DefaultScenarios() []models.Scenario {
	f := func(v float64) *float64 { return &v }

	return []models.Scenario{
		{Name: BaseScenarioName},
		{Name: "High Volatility (+50%)", Overrides: models.ScenarioOverrides{Sigma: f(0.225)}},
		{Name: "Credit Stress (HR x2)", Overrides: models.ScenarioOverrides{HazardRate: f(0.04)}},
		{Name: "Severe Stress", Overrides: models.ScenarioOverrides{Sigma: f(0.30), HazardRate: f(0.05)}},
	}
}

// RunStressTest evaluates every scenario against base and returns the
// results in the order the scenarios were given.
//
// Base parameters are validated before any simulation starts. Scenarios are
// independent: a failing scenario keeps its row, with Error set, and the
// returned error joins all scenario failures. Up to WorkerCount scenarios
// run at once.
func (c *Calculator) RunStressTest(ctx context.Context, base models.BaseParameters, scenarios []models.Scenario) (*models.StressTestResults, error) {
	if err := validation.Struct(base); err != nil {
		return nil, err
	}
	if err := validateScenarioNames(scenarios); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := c.log.With("run_id", runID)
	log.Infof("Starting stress test with %d scenarios", len(scenarios))
	startTime := time.Now()

	rows := make([]models.ScenarioResult, len(scenarios))
	errs := make([]error, len(scenarios))

	var g errgroup.Group
	g.SetLimit(c.config.WorkerCount)

	for i, scenario := range scenarios {
		g.Go(func() error {
			scenarioStart := time.Now()

			result, err := c.RunScenario(ctx, base, scenario.Overrides)
			result.Name = scenario.Name
			if err != nil {
				err = errors.Wrapf(err, "scenario %q", scenario.Name)
				result.Error = err.Error()
				log.Warnf("Scenario %q failed: %v", scenario.Name, err)
			}

			if c.metrics != nil {
				c.metrics.RecordScenario(scenario.Name, result.EPE, result.CVA, time.Since(scenarioStart), err)
			}

			rows[i] = result
			errs[i] = err
			// Failures are reported per row, never through the group
			return nil
		})
	}
	_ = g.Wait()

	log.Infof("Completed stress test in %v", time.Since(startTime))

	return &models.StressTestResults{
		RunID:     runID,
		Timestamp: time.Now(),
		Scenarios: rows,
	}, errors.Join(errs...)
}

func validateScenarioNames(scenarios []models.Scenario) error {
	seen := make(map[string]struct{}, len(scenarios))
	for i, s := range scenarios {
		// Overrides are validated per scenario by RunScenario
		if s.Name == "" {
			return errors.Configurationf("scenario #%d has no name", i)
		}
		if _, dup := seen[s.Name]; dup {
			return errors.Configurationf("duplicate scenario name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
