package risk

import (
	"math"
	"sort"

	"github.com/rzzdr/ccr-analytics/internal/simulation"
	"github.com/rzzdr/ccr-analytics/pkg/models"
	"github.com/rzzdr/ccr-analytics/pkg/utils/logger"
	"github.com/rzzdr/ccr-analytics/pkg/utils/pools"
	"github.com/rzzdr/ccr-analytics/pkg/validation"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultPFEQuantile is the confidence level of PFE unless told otherwise
const DefaultPFEQuantile = 0.95

var scratch = pools.NewFloat64SlicePool(4096)

// PortfolioValues values a forward struck at strike on every path: path - strike
func PortfolioValues(ensemble *simulation.PathEnsemble, strike float64) *mat.Dense {
	var values mat.Dense
	values.Apply(func(_, _ int, v float64) float64 {
		return v - strike
	}, ensemble.Matrix())
	return &values
}

// ComputeExposure floors portfolio values at zero: max(v, 0)
func ComputeExposure(values mat.Matrix) *mat.Dense {
	var exposure mat.Dense
	exposure.Apply(func(_, _ int, v float64) float64 {
		return math.Max(v, 0)
	}, values)
	return &exposure
}

// ExpectedExposure is the mean exposure across paths at each time point
func ExpectedExposure(exposure mat.Matrix) []float64 {
	rows, cols := exposure.Dims()
	ee := make([]float64, rows)
	row := scratch.Get(cols)
	defer scratch.Put(row)

	for i := range ee {
		mat.Row(row, i, exposure)
		ee[i] = stat.Mean(row, nil)
	}
	return ee
}

// ExpectedPositiveExposure is the plain average of EE over the grid points.
// It is not weighted by interval length; on the uniform grid produced by
// the simulator both coincide.
func ExpectedPositiveExposure(exposure mat.Matrix) float64 {
	return stat.Mean(ExpectedExposure(exposure), nil)
}

// PotentialFutureExposure is the q-quantile of exposure across paths at each
// time point, interpolating linearly between order statistics.
func PotentialFutureExposure(exposure mat.Matrix, q float64) ([]float64, error) {
	if err := validation.Probability(q, "quantile"); err != nil {
		return nil, err
	}

	rows, cols := exposure.Dims()
	pfe := make([]float64, rows)
	row := scratch.Get(cols)
	defer scratch.Put(row)

	for i := range pfe {
		mat.Row(row, i, exposure)
		sort.Float64s(row)
		pfe[i] = linearQuantile(row, q)
	}
	return pfe, nil
}

// linearQuantile reads the q-quantile off sorted data at rank (n-1)q
func linearQuantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	h := float64(n-1) * q
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// ExposureCalculator turns a path ensemble into an exposure profile
type ExposureCalculator struct {
	quantile float64
	log      *logger.Logger
}

// NewExposureCalculator creates a calculator reporting PFE at the given
// quantile. Out-of-range values are rejected by Profile.
func NewExposureCalculator(quantile float64) *ExposureCalculator {
	return &ExposureCalculator{
		quantile: quantile,
		log:      logger.GetLogger("risk.exposure"),
	}
}

// Quantile returns the PFE confidence level
func (e *ExposureCalculator) Quantile() float64 {
	return e.quantile
}

// Exposure floors path - strike at zero
func (e *ExposureCalculator) Exposure(ensemble *simulation.PathEnsemble, strike float64) *mat.Dense {
	return ComputeExposure(PortfolioValues(ensemble, strike))
}

// Profile computes EE, PFE and EPE of a forward struck at strike
func (e *ExposureCalculator) Profile(ensemble *simulation.PathEnsemble, strike float64) (*models.ExposureProfile, error) {
	if err := validation.Finite(strike, "strike"); err != nil {
		return nil, err
	}

	exposure := e.Exposure(ensemble, strike)

	ee := ExpectedExposure(exposure)
	pfe, err := PotentialFutureExposure(exposure, e.quantile)
	if err != nil {
		return nil, err
	}

	profile := &models.ExposureProfile{
		Times:    ensemble.Times(),
		EE:       ee,
		PFE:      pfe,
		EPE:      stat.Mean(ee, nil),
		Quantile: e.quantile,
	}

	e.log.Debugw("computed exposure profile",
		"points", len(ee),
		"epe", profile.EPE,
		"peak_pfe", floats.Max(pfe),
	)
	return profile, nil
}
