package risk

import (
	"math"
	"testing"

	"github.com/rzzdr/ccr-analytics/internal/simulation"
	"github.com/rzzdr/ccr-analytics/pkg/models"
	"github.com/rzzdr/ccr-analytics/pkg/utils/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestDiscountFactors(t *testing.T) {
	df := DiscountFactors([]float64{0, 0.5, 1}, 0.04)

	assert.Equal(t, 1.0, df[0])
	assert.InDelta(t, math.Exp(-0.02), df[1], 1e-15)
	assert.InDelta(t, math.Exp(-0.04), df[2], 1e-15)
}

func TestDefaultProbabilitiesStartAtZero(t *testing.T) {
	pd := DefaultProbabilities([]float64{0, 0.25, 0.5}, 0.02)

	assert.Equal(t, 0.0, pd[0])
	assert.InDelta(t, 1-math.Exp(-0.005), pd[1], 1e-15)
	assert.InDelta(t, math.Exp(-0.005)-math.Exp(-0.01), pd[2], 1e-15)
}

func TestDefaultProbabilitiesSumToHorizonDefault(t *testing.T) {
	for _, hazard := range []float64{0, 0.02, 0.5, 3} {
		grid, err := simulation.NewTimeGrid(2, 252)
		require.NoError(t, err)

		pd := DefaultProbabilities(grid, hazard)
		for _, p := range pd {
			assert.GreaterOrEqual(t, p, 0.0)
		}
		assert.InDelta(t, 1-math.Exp(-hazard*2), floats.Sum(pd), 1e-12, "hazard=%v", hazard)
	}
}

func TestDefaultProbabilitiesOffsetGrid(t *testing.T) {
	// A grid that does not start at zero charges the mass before t_0 to the first point
	pd := DefaultProbabilities([]float64{1, 2}, 0.1)

	assert.InDelta(t, 1-math.Exp(-0.1), pd[0], 1e-15)
}

func TestComputeCVAHandComputed(t *testing.T) {
	cva, err := ComputeCVA([]float64{5, 10}, []float64{0, 1}, 0.1, 0.4, 0.05)
	require.NoError(t, err)

	want := 0.6 * 10 * (1 - math.Exp(-0.1)) * math.Exp(-0.05)
	assert.InDelta(t, want, cva, 1e-12)
}

func TestComputeCVAIgnoresInitialExposure(t *testing.T) {
	a, err := ComputeCVA([]float64{0, 3, 4}, []float64{0, 0.5, 1}, 0.05, 0.4, 0.01)
	require.NoError(t, err)
	b, err := ComputeCVA([]float64{1000, 3, 4}, []float64{0, 0.5, 1}, 0.05, 0.4, 0.01)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestComputeCVAMonotoneInHazardRate(t *testing.T) {
	ens := simulated(t)
	ee := ExpectedExposure(ComputeExposure(PortfolioValues(ens, 100)))
	times := ens.Times()

	prev := 0.0
	for _, hazard := range []float64{0, 0.01, 0.02, 0.04, 0.08, 0.16} {
		cva, err := ComputeCVA(ee, times, hazard, 0.4, 0.01)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cva, prev, "hazard=%v", hazard)
		prev = cva
	}
}

func TestComputeCVAVanishesAtFullRecovery(t *testing.T) {
	ens := simulated(t)
	ee := ExpectedExposure(ComputeExposure(PortfolioValues(ens, 100)))
	times := ens.Times()

	prev := math.Inf(1)
	for _, recovery := range []float64{0, 0.4, 0.8, 0.99} {
		cva, err := ComputeCVA(ee, times, 0.05, recovery, 0.01)
		require.NoError(t, err)
		assert.Less(t, cva, prev)
		prev = cva
	}

	cva, err := ComputeCVA(ee, times, 0.05, 1, 0.01)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cva)
}

func TestComputeCVARejectsBadInputs(t *testing.T) {
	times := []float64{0, 1}
	ee := []float64{0, 1}

	cases := map[string]func() (float64, error){
		"length mismatch":   func() (float64, error) { return ComputeCVA(ee, []float64{0}, 0.02, 0.4, 0.01) },
		"empty":             func() (float64, error) { return ComputeCVA(nil, nil, 0.02, 0.4, 0.01) },
		"negative hazard":   func() (float64, error) { return ComputeCVA(ee, times, -0.02, 0.4, 0.01) },
		"recovery above 1":  func() (float64, error) { return ComputeCVA(ee, times, 0.02, 1.2, 0.01) },
		"negative recovery": func() (float64, error) { return ComputeCVA(ee, times, 0.02, -0.1, 0.01) },
		"negative discount": func() (float64, error) { return ComputeCVA(ee, times, 0.02, 0.4, -0.01) },
		"infinite hazard":   func() (float64, error) { return ComputeCVA(ee, times, math.Inf(1), 0.4, 0.01) },
	}

	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := call()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
		})
	}
}

func TestComputeCVAReportsNonFiniteResult(t *testing.T) {
	_, err := ComputeCVA([]float64{0, math.Inf(1)}, []float64{0, 1}, 0.02, 0.4, 0.01)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNumeric))
}

func TestCVACalculatorContributionsSumToCVA(t *testing.T) {
	ens := simulated(t)
	ee := ExpectedExposure(ComputeExposure(PortfolioValues(ens, 100)))
	credit := models.CreditParameters{HazardRate: 0.03, RecoveryRate: 0.4, DiscountRate: 0.02}

	calc := NewCVACalculator()
	res, err := calc.CalculateWithContributions(ee, ens.Times(), credit)
	require.NoError(t, err)

	plain, err := calc.Calculate(ee, ens.Times(), credit)
	require.NoError(t, err)

	assert.Equal(t, plain, res.CVA)
	assert.Len(t, res.Contributions, len(ee))
	assert.Equal(t, 0.0, res.Contributions[0])
	assert.InDelta(t, res.CVA, floats.Sum(res.Contributions), 1e-12)
}
