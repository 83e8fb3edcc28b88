package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverridesKeepsRecognisedKeys(t *testing.T) {
	o, ignored := ParseOverrides(map[string]float64{
		"sigma":       0.30,
		"hazard_rate": 0.05,
		"strike":      90,
		"mu":          0.1,
	})

	require.NotNil(t, o.Sigma)
	require.NotNil(t, o.HazardRate)
	assert.Equal(t, 0.30, *o.Sigma)
	assert.Equal(t, 0.05, *o.HazardRate)
	assert.Equal(t, []string{"mu", "strike"}, ignored)
}

func TestApplyOnlyTouchesStressableFields(t *testing.T) {
	base := DefaultBaseParameters()
	sigma := 0.225
	o := ScenarioOverrides{Sigma: &sigma}

	effective := o.Apply(base)

	assert.Equal(t, 0.225, effective.Sigma)
	assert.Equal(t, base.HazardRate, effective.HazardRate)
	assert.Equal(t, base.Strike, effective.Strike)
	assert.Equal(t, base.NPaths, effective.NPaths)
	assert.Equal(t, 0.15, base.Sigma, "base must not be mutated")
}

func TestEmptyOverridesReproduceBase(t *testing.T) {
	base := DefaultBaseParameters()
	o, ignored := ParseOverrides(nil)

	assert.True(t, o.IsEmpty())
	assert.Empty(t, ignored)
	assert.Equal(t, base, o.Apply(base))
}

func TestSeedOrDefault(t *testing.T) {
	m := DefaultBaseParameters().MarketParameters
	assert.Equal(t, DefaultSeed, m.SeedOrDefault())

	seed := uint64(7)
	m.Seed = &seed
	assert.Equal(t, uint64(7), m.SeedOrDefault())
}

func TestStressTestResultsGet(t *testing.T) {
	res := &StressTestResults{Scenarios: []ScenarioResult{
		{Name: "Base", EPE: 1, CVA: 2},
		{Name: "Severe Stress", Error: "boom"},
	}}

	r, ok := res.Get("Severe Stress")
	require.True(t, ok)
	assert.True(t, r.Failed())

	_, ok = res.Get("missing")
	assert.False(t, ok)
}

func TestCloneCopiesSeed(t *testing.T) {
	seed := uint64(9)
	p := DefaultBaseParameters()
	p.Seed = &seed

	c := p.Clone()
	*c.Seed = 10

	assert.Equal(t, uint64(9), p.SeedOrDefault())
	assert.Equal(t, uint64(10), c.SeedOrDefault())
}
