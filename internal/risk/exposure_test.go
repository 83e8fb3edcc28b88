package risk

import (
	"math"
	"testing"

	"github.com/rzzdr/ccr-analytics/internal/simulation"
	"github.com/rzzdr/ccr-analytics/pkg/utils/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func simulated(t *testing.T) *simulation.PathEnsemble {
	t.Helper()
	ens, err := simulation.SimulateGBM(simulation.GBMParams{
		S0: 100, Mu: 0.02, Sigma: 0.25, Horizon: 1, NSteps: 24, NPaths: 400, Seed: 42,
	})
	require.NoError(t, err)
	return ens
}

func TestComputeExposureFloorsAtZero(t *testing.T) {
	values := mat.NewDense(2, 3, []float64{-1, 0, 2.5, 3, -0.5, -7})

	exposure := ComputeExposure(values)

	assert.Equal(t, []float64{0, 0, 2.5, 3, 0, 0}, exposure.RawMatrix().Data)
	assert.Equal(t, -1.0, values.At(0, 0), "input must not be mutated")
}

func TestComputeExposureIsIdempotent(t *testing.T) {
	values := PortfolioValues(simulated(t), 100)

	once := ComputeExposure(values)
	twice := ComputeExposure(once)

	assert.True(t, mat.Equal(once, twice))
	for _, v := range once.RawMatrix().Data {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestExpectedExposureBounds(t *testing.T) {
	exposure := ComputeExposure(PortfolioValues(simulated(t), 100))

	ee := ExpectedExposure(exposure)
	rows, _ := exposure.Dims()
	require.Len(t, ee, rows)

	for i, v := range ee {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, floats.Max(exposure.RawRowView(i)))
	}
	assert.Equal(t, 0.0, ee[0], "paths start at the strike")
}

func TestExpectedExposureHandComputed(t *testing.T) {
	exposure := mat.NewDense(2, 4, []float64{0, 0, 0, 0, 1, 2, 3, 6})

	assert.Equal(t, []float64{0, 3}, ExpectedExposure(exposure))
	assert.Equal(t, 1.5, ExpectedPositiveExposure(exposure))
}

func TestPotentialFutureExposureLinearInterpolation(t *testing.T) {
	exposure := mat.NewDense(1, 5, []float64{4, 1, 3, 0, 2})

	cases := []struct {
		q    float64
		want float64
	}{
		{0, 0},
		{0.5, 2},
		{0.95, 3.8},
		{0.125, 0.5},
		{1, 4},
	}
	for _, tc := range cases {
		pfe, err := PotentialFutureExposure(exposure, tc.q)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, pfe[0], 1e-12, "q=%v", tc.q)
	}
}

func TestPotentialFutureExposureSinglePath(t *testing.T) {
	exposure := mat.NewDense(3, 1, []float64{0, 5, 7})

	pfe, err := PotentialFutureExposure(exposure, 0.95)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 5, 7}, pfe)
}

func TestPotentialFutureExposureMonotoneInQuantile(t *testing.T) {
	exposure := ComputeExposure(PortfolioValues(simulated(t), 100))

	p95, err := PotentialFutureExposure(exposure, 0.95)
	require.NoError(t, err)
	p99, err := PotentialFutureExposure(exposure, 0.99)
	require.NoError(t, err)

	for i := range p95 {
		assert.GreaterOrEqual(t, p95[i], 0.0)
		assert.GreaterOrEqual(t, p99[i], p95[i])
	}
}

func TestPotentialFutureExposureDoesNotReorderInput(t *testing.T) {
	exposure := mat.NewDense(1, 3, []float64{3, 1, 2})

	_, err := PotentialFutureExposure(exposure, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, exposure.RawRowView(0))
}

func TestPotentialFutureExposureRejectsBadQuantile(t *testing.T) {
	exposure := mat.NewDense(1, 2, []float64{1, 2})

	for _, q := range []float64{-0.01, 1.01} {
		_, err := PotentialFutureExposure(exposure, q)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
	}
}

func TestExposureCalculatorProfile(t *testing.T) {
	ens := simulated(t)
	calc := NewExposureCalculator(DefaultPFEQuantile)
	assert.Equal(t, DefaultPFEQuantile, calc.Quantile())

	profile, err := calc.Profile(ens, 100)
	require.NoError(t, err)

	steps, _ := ens.Dims()
	assert.Len(t, profile.Times, steps)
	assert.Len(t, profile.EE, steps)
	assert.Len(t, profile.PFE, steps)
	assert.Equal(t, ExpectedPositiveExposure(calc.Exposure(ens, 100)), profile.EPE)
	for i := range profile.EE {
		assert.GreaterOrEqual(t, profile.PFE[i], 0.0)
	}
}

func TestExposureCalculatorRejectsOutOfRangeQuantile(t *testing.T) {
	_, err := NewExposureCalculator(1.5).Profile(simulated(t), 100)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
}

func TestZeroQuantileIsTheMinimum(t *testing.T) {
	ens := simulated(t)
	calc := NewExposureCalculator(0)
	assert.Equal(t, 0.0, calc.Quantile())

	profile, err := calc.Profile(ens, 100)
	require.NoError(t, err)

	exposure := calc.Exposure(ens, 100)
	for i := range profile.PFE {
		assert.Equal(t, floats.Min(mat.Row(nil, i, exposure)), profile.PFE[i], "t=%d", i)
	}
}

func TestZeroStrikeExposureTracksAnalyticMean(t *testing.T) {
	ens, err := simulation.SimulateGBM(simulation.GBMParams{
		S0: 100, Mu: 0.03, Sigma: 0.2, Horizon: 1, NSteps: 10, NPaths: 20000, Seed: 42,
	})
	require.NoError(t, err)

	ee := ExpectedExposure(ComputeExposure(PortfolioValues(ens, 0)))
	mean := ens.Mean()
	for i, tt := range ens.Times() {
		assert.Equal(t, mean[i], ee[i])
		assert.InEpsilon(t, 100*math.Exp(0.03*tt), ee[i], 0.01, "t=%v", tt)
	}
}
