// Package simulation generates Monte Carlo trajectories of a single risk
// factor on a uniform time grid.
package simulation

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/rzzdr/ccr-analytics/pkg/models"
	"github.com/rzzdr/ccr-analytics/pkg/utils/errors"
	"github.com/rzzdr/ccr-analytics/pkg/utils/logger"
	"github.com/rzzdr/ccr-analytics/pkg/validation"
	"gonum.org/v1/gonum/mat"
)

// TimeGrid is n_steps+1 points spaced uniformly from 0 to the horizon
type TimeGrid []float64

// NewTimeGrid builds linspace(0, horizon, nSteps+1)
func NewTimeGrid(horizon float64, nSteps int) (TimeGrid, error) {
	if err := validation.Positive(horizon, "T"); err != nil {
		return nil, err
	}
	if nSteps <= 0 {
		return nil, errors.Configurationf("n_steps must be positive, got %d", nSteps)
	}
	if nSteps > models.MaxSteps {
		return nil, errors.Configurationf("n_steps must be at most %d, got %d", models.MaxSteps, nSteps)
	}

	step := horizon / float64(nSteps)
	grid := make(TimeGrid, nSteps+1)
	for i := range grid {
		grid[i] = float64(i) * step
	}
	grid[nSteps] = horizon
	return grid, nil
}

// Step returns the spacing of the grid
func (g TimeGrid) Step() float64 {
	if len(g) < 2 {
		return 0
	}
	return g[1] - g[0]
}

// Horizon returns the last time point
func (g TimeGrid) Horizon() float64 {
	if len(g) == 0 {
		return 0
	}
	return g[len(g)-1]
}

// GBMParams are the inputs of one simulation call
type GBMParams struct {
	S0      float64
	Mu      float64
	Sigma   float64
	Horizon float64
	NSteps  int
	NPaths  int
	Seed    uint64
	// MaxCells caps (NSteps+1)*NPaths; zero selects models.DefaultMaxCells
	MaxCells int
}

// ParamsFrom maps market parameters onto simulation inputs
func ParamsFrom(m models.MarketParameters) GBMParams {
	return GBMParams{
		S0:      m.S0,
		Mu:      m.Mu,
		Sigma:   m.Sigma,
		Horizon: m.Horizon,
		NSteps:  m.NSteps,
		NPaths:  m.NPaths,
		Seed:    m.SeedOrDefault(),
	}
}

// Validate checks the preconditions of SimulateGBM
func (p GBMParams) Validate() error {
	if err := validation.Positive(p.S0, "s0"); err != nil {
		return err
	}
	if err := validation.Finite(p.S0, "s0"); err != nil {
		return err
	}
	if err := validation.Finite(p.Mu, "mu"); err != nil {
		return err
	}
	if err := validation.NonNegative(p.Sigma, "sigma"); err != nil {
		return err
	}
	if err := validation.Finite(p.Sigma, "sigma"); err != nil {
		return err
	}
	if err := validation.Positive(p.Horizon, "T"); err != nil {
		return err
	}
	if err := validation.Finite(p.Horizon, "T"); err != nil {
		return err
	}
	if p.NSteps <= 0 {
		return errors.Configurationf("n_steps must be positive, got %d", p.NSteps)
	}
	if p.NPaths <= 0 {
		return errors.Configurationf("n_paths must be positive, got %d", p.NPaths)
	}
	if p.NSteps > models.MaxSteps {
		return errors.Configurationf("n_steps must be at most %d, got %d", models.MaxSteps, p.NSteps)
	}

	limit := p.MaxCells
	if limit <= 0 {
		limit = models.DefaultMaxCells
	}
	// Division keeps the product from overflowing
	if p.NPaths > limit/(p.NSteps+1) {
		return errors.Configurationf("(n_steps+1)*n_paths must be at most %d cells, got n_steps=%d n_paths=%d",
			limit, p.NSteps, p.NPaths)
	}
	return nil
}

// NewSource returns the random bit source used for a given seed. Every
// simulation owns its source, so concurrent calls never share state.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed)
}

// SimulateGBM simulates GBM paths with the closed-form log-normal step
//
//	S_t = S_{t-1} * exp((mu - sigma^2/2) dt + sigma sqrt(dt) Z)
//
// Row 0 holds s0 for every path. Normals are drawn one time step at a
// time, in path order, from a generator seeded with p.Seed.
func SimulateGBM(p GBMParams) (*PathEnsemble, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	grid, err := NewTimeGrid(p.Horizon, p.NSteps)
	if err != nil {
		return nil, err
	}

	rng := rand.New(NewSource(p.Seed))
	dt := p.Horizon / float64(p.NSteps)
	drift := (p.Mu - 0.5*p.Sigma*p.Sigma) * dt
	vol := p.Sigma * math.Sqrt(dt)

	data := make([]float64, (p.NSteps+1)*p.NPaths)
	for j := 0; j < p.NPaths; j++ {
		data[j] = p.S0
	}

	for t := 1; t <= p.NSteps; t++ {
		prev := data[(t-1)*p.NPaths : t*p.NPaths]
		row := data[t*p.NPaths : (t+1)*p.NPaths]
		for j := range row {
			z := rng.NormFloat64()
			row[j] = prev[j] * math.Exp(drift+vol*z)
		}
	}

	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t, path := i/p.NPaths, i%p.NPaths
			return nil, errors.Numericf("non-finite path value %v at t=%v path=%d", v, grid[t], path)
		}
	}

	return &PathEnsemble{
		times:  grid,
		values: mat.NewDense(p.NSteps+1, p.NPaths, data),
	}, nil
}

// Simulator runs GBM simulations with logging
type Simulator struct {
	maxCells int
	log      *logger.Logger
}

// NewSimulator creates a Simulator refusing ensembles larger than maxCells
// values. Zero selects models.DefaultMaxCells.
func NewSimulator(maxCells int) *Simulator {
	if maxCells <= 0 {
		maxCells = models.DefaultMaxCells
	}

	return &Simulator{
		maxCells: maxCells,
		log:      logger.GetLogger("simulation.gbm"),
	}
}

// Simulate runs SimulateGBM for the given market parameters
func (s *Simulator) Simulate(m models.MarketParameters) (*PathEnsemble, error) {
	start := time.Now()
	p := ParamsFrom(m)
	p.MaxCells = s.maxCells

	ensemble, err := SimulateGBM(p)
	if err != nil {
		s.log.Warnf("GBM simulation failed: %v", err)
		return nil, err
	}

	s.log.Debugw("simulated GBM paths",
		"n_steps", p.NSteps,
		"n_paths", p.NPaths,
		"sigma", p.Sigma,
		"seed", p.Seed,
		"elapsed", time.Since(start),
	)
	return ensemble, nil
}
