package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rzzdr/ccr-analytics/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnalysis() *models.Analysis {
	return &models.Analysis{
		Exposure: models.ExposureProfile{
			Times:    []float64{0, 0.25, 0.5, 0.75, 1},
			EE:       []float64{0, 1, 2, 3, 4},
			PFE:      []float64{0, 2, 4, 6, 8},
			EPE:      2,
			Quantile: 0.95,
		},
		CVA: 0.0123,
	}
}

func sampleResults() *models.StressTestResults {
	return &models.StressTestResults{
		Scenarios: []models.ScenarioResult{
			{Name: "Base", EPE: 2, CVA: 0.0123},
			{Name: "Broken", Error: "sigma must be greater than or equal to 0"},
		},
	}
}

func TestPrintReportHeadlineAndTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, sampleAnalysis(), sampleResults(), 0))

	out := buf.String()
	assert.Contains(t, out, "Expected Positive Exposure (EPE): 2.0000")
	assert.Contains(t, out, "Credit Valuation Adjustment (CVA): 0.0123")
	assert.Contains(t, out, "Stress Testing Results")
	assert.Contains(t, out, "0.012300")
	assert.Contains(t, out, "sigma must be greater than or equal to 0")
	assert.NotContains(t, out, "Exposure Profile")

	base := strings.Index(out, "Base")
	broken := strings.Index(out, "Broken")
	assert.True(t, base >= 0 && base < broken)
}

func TestPrintReportSamplesProfile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, sampleAnalysis(), sampleResults(), 3))

	out := buf.String()
	assert.Contains(t, out, "Exposure Profile (PFE 95%)")
	// steps 0 and 3 plus the horizon
	assert.Contains(t, out, "0.7500")
	assert.Contains(t, out, "8.0000")
	assert.NotContains(t, out, "0.2500")
}
