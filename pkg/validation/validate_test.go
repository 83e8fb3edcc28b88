package validation

import (
	"math"
	"testing"

	"github.com/rzzdr/ccr-analytics/pkg/models"
	"github.com/rzzdr/ccr-analytics/pkg/utils/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBaseParametersAreValid(t *testing.T) {
	assert.NoError(t, Struct(models.DefaultBaseParameters()))
}

func TestStructReportsEveryField(t *testing.T) {
	p := models.DefaultBaseParameters()
	p.NPaths = 0
	p.Horizon = -1
	p.RecoveryRate = 1.5

	err := Struct(p)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
	assert.Contains(t, err.Error(), "n_paths must be greater than 0")
	assert.Contains(t, err.Error(), "T must be greater than 0")
	assert.Contains(t, err.Error(), "recovery_rate must be less than or equal to 1")
}

func TestStructCapsSimulationSize(t *testing.T) {
	p := models.DefaultBaseParameters()
	p.NSteps = 1<<32 - 1
	p.NPaths = 1 << 32

	err := Struct(p)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
	assert.Contains(t, err.Error(), "n_steps must be less than or equal to 10000000")
	assert.Contains(t, err.Error(), "n_paths must be less than or equal to 50000000")

	p.NSteps = models.MaxSteps
	p.NPaths = models.DefaultMaxCells
	assert.NoError(t, Struct(p))
}

func TestZeroVolatilityIsAllowed(t *testing.T) {
	p := models.DefaultBaseParameters()
	p.Sigma = 0
	p.Mu = 0
	assert.NoError(t, Struct(p))
}

func TestOverridesValidation(t *testing.T) {
	neg := -0.1
	err := Struct(models.ScenarioOverrides{HazardRate: &neg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hazard_rate")

	assert.NoError(t, Struct(models.ScenarioOverrides{}))
}

func TestScalarChecks(t *testing.T) {
	assert.NoError(t, Positive(1, "T"))
	assert.Error(t, Positive(0, "T"))
	assert.Error(t, Positive(math.NaN(), "T"))

	assert.NoError(t, NonNegative(0, "hazard_rate"))
	assert.Error(t, NonNegative(-1e-9, "hazard_rate"))

	assert.NoError(t, Probability(0, "quantile"))
	assert.NoError(t, Probability(1, "quantile"))
	assert.Error(t, Probability(1.01, "quantile"))
	assert.Error(t, Probability(math.NaN(), "quantile"))

	assert.Error(t, Finite(math.Inf(1), "mu"))
	assert.NoError(t, Finite(-3, "mu"))

	assert.Error(t, NotEmpty(0, "ee"))
}
