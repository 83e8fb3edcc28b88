package risk

import (
	"math"

	"github.com/rzzdr/ccr-analytics/pkg/models"
	"github.com/rzzdr/ccr-analytics/pkg/utils/errors"
	"github.com/rzzdr/ccr-analytics/pkg/utils/logger"
	"github.com/rzzdr/ccr-analytics/pkg/validation"
)

// DiscountFactors returns exp(-rate*t) for each time point
func DiscountFactors(times []float64, rate float64) []float64 {
	df := make([]float64, len(times))
	for i, t := range times {
		df[i] = math.Exp(-rate * t)
	}
	return df
}

// SurvivalProbabilities returns exp(-hazardRate*t) for each time point
func SurvivalProbabilities(times []float64, hazardRate float64) []float64 {
	return DiscountFactors(times, hazardRate)
}

// DefaultProbabilities returns the marginal default probability of each
// grid interval, PD_i = S(t_{i-1}) - S(t_i), taking S = 1 before the first
// point. With t_0 = 0 the first entry is 0 and the sequence sums to
// 1 - S(t_last).
func DefaultProbabilities(times []float64, hazardRate float64) []float64 {
	survival := SurvivalProbabilities(times, hazardRate)
	pd := make([]float64, len(survival))
	prev := 1.0
	for i, s := range survival {
		pd[i] = prev - s
		prev = s
	}
	return pd
}

// CVAContributions returns EE_i * PD_i * DF_i at each time point, before
// loss given default is applied.
func CVAContributions(ee, times []float64, hazardRate, discountRate float64) []float64 {
	pd := DefaultProbabilities(times, hazardRate)
	df := DiscountFactors(times, discountRate)

	out := make([]float64, len(ee))
	for i := range ee {
		out[i] = ee[i] * pd[i] * df[i]
	}
	return out
}

// ComputeCVA prices CVA = (1 - R) * sum_i EE_i * PD_i * DF_i with a flat
// hazard rate and flat continuously compounded discounting.
func ComputeCVA(ee, times []float64, hazardRate, recoveryRate, discountRate float64) (float64, error) {
	if err := validateCVAInputs(ee, times, hazardRate, recoveryRate, discountRate); err != nil {
		return 0, err
	}

	var sum float64
	for _, c := range CVAContributions(ee, times, hazardRate, discountRate) {
		sum += c
	}
	cva := (1 - recoveryRate) * sum

	if math.IsNaN(cva) || math.IsInf(cva, 0) {
		return 0, errors.Numericf("cva is not finite: %v", cva)
	}
	return cva, nil
}

func validateCVAInputs(ee, times []float64, hazardRate, recoveryRate, discountRate float64) error {
	if err := validation.NotEmpty(len(ee), "ee"); err != nil {
		return err
	}
	if len(ee) != len(times) {
		return errors.Configurationf("ee has %d points but times has %d", len(ee), len(times))
	}
	if err := validation.NonNegative(hazardRate, "hazard_rate"); err != nil {
		return err
	}
	if err := validation.Finite(hazardRate, "hazard_rate"); err != nil {
		return err
	}
	if err := validation.Probability(recoveryRate, "recovery_rate"); err != nil {
		return err
	}
	if err := validation.NonNegative(discountRate, "discount_rate"); err != nil {
		return err
	}
	return validation.Finite(discountRate, "discount_rate")
}

// CVACalculator prices CVA from exposure profiles
type CVACalculator struct {
	log *logger.Logger
}

// NewCVACalculator creates a new CVA calculator
func NewCVACalculator() *CVACalculator {
	return &CVACalculator{
		log: logger.GetLogger("risk.cva"),
	}
}

// Calculate prices CVA for an EE profile
func (c *CVACalculator) Calculate(ee, times []float64, credit models.CreditParameters) (float64, error) {
	cva, err := ComputeCVA(ee, times, credit.HazardRate, credit.RecoveryRate, credit.DiscountRate)
	if err != nil {
		c.log.Warnf("CVA calculation failed: %v", err)
		return 0, err
	}

	c.log.Debugw("priced CVA",
		"cva", cva,
		"hazard_rate", credit.HazardRate,
		"recovery_rate", credit.RecoveryRate,
		"discount_rate", credit.DiscountRate,
	)
	return cva, nil
}

// CalculateWithContributions prices CVA together with the LGD-scaled
// contribution of each time point. Contributions sum to the CVA up to rounding.
func (c *CVACalculator) CalculateWithContributions(ee, times []float64, credit models.CreditParameters) (*models.CVAResult, error) {
	cva, err := c.Calculate(ee, times, credit)
	if err != nil {
		return nil, err
	}

	lgd := 1 - credit.RecoveryRate
	contributions := CVAContributions(ee, times, credit.HazardRate, credit.DiscountRate)
	for i := range contributions {
		contributions[i] *= lgd
	}

	return &models.CVAResult{
		CVA:           cva,
		Contributions: contributions,
	}, nil
}
