package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rzzdr/ccr-analytics/pkg/models"
)

// printReport writes the headline numbers, the stress table and, when
// every > 0, a sampled exposure profile
func printReport(w io.Writer, analysis *models.Analysis, results *models.StressTestResults, every int) error {
	fmt.Fprintf(w, "Expected Positive Exposure (EPE): %.4f\n", analysis.Exposure.EPE)
	fmt.Fprintf(w, "Credit Valuation Adjustment (CVA): %.4f\n", analysis.CVA)

	if every > 0 {
		fmt.Fprintf(w, "\nExposure Profile (PFE %.0f%%)\n", analysis.Exposure.Quantile*100)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "t\tEE\tPFE\t")
		last := len(analysis.Exposure.Times) - 1
		for i, t := range analysis.Exposure.Times {
			if i%every != 0 && i != last {
				continue
			}
			fmt.Fprintf(tw, "%.4f\t%.4f\t%.4f\t\n", t, analysis.Exposure.EE[i], analysis.Exposure.PFE[i])
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "\nStress Testing Results")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Scenario\tEPE\tCVA\t")
	for _, r := range results.Scenarios {
		if r.Failed() {
			fmt.Fprintf(tw, "%s\t-\t-\t%s\n", r.Name, r.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t\n", r.Name, r.EPE, r.CVA)
	}
	return tw.Flush()
}
