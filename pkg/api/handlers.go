package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rzzdr/ccr-analytics/internal/risk"
	"github.com/rzzdr/ccr-analytics/pkg/models"
	"github.com/rzzdr/ccr-analytics/pkg/utils/errors"
	"github.com/rzzdr/ccr-analytics/pkg/utils/logger"
)

// ResultPublisher forwards stress tables downstream
type ResultPublisher interface {
	PublishResults(ctx context.Context, results *models.StressTestResults) error
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	calculator *risk.Calculator
	cva        *risk.CVACalculator
	base       models.BaseParameters
	scenarios  []models.Scenario
	publisher  ResultPublisher
	log        *logger.Logger
}

// CreateHandlers creates new API handlers. base and scenarios fill in
// whatever a request leaves out.
func CreateHandlers(calculator *risk.Calculator, base models.BaseParameters, scenarios []models.Scenario) *Handlers {
	return &Handlers{
		calculator: calculator,
		cva:        risk.NewCVACalculator(),
		base:       base,
		scenarios:  scenarios,
		log:        logger.GetLogger("api.handlers"),
	}
}

// WithPublisher makes the stress handler publish every completed table
func (h *Handlers) WithPublisher(p ResultPublisher) *Handlers {
	h.publisher = p
	return h
}

// HealthCheckHandler handles health check requests
func (h *Handlers) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

type exposureRequest struct {
	models.MarketParameters
	Strike   float64 `json:"strike"`
	Quantile *float64 `json:"quantile"`
}

// ExposureProfileHandler simulates the market parameters and returns the
// EE/PFE profile of a forward on it
func (h *Handlers) ExposureProfileHandler(c *gin.Context) {
	base := h.base.Clone()
	request := exposureRequest{
		MarketParameters: base.MarketParameters,
		Strike:           base.Strike,
	}
	if err := bindOptionalJSON(c, &request); err != nil {
		badRequest(c, err)
		return
	}

	profile, err := h.calculator.ExposureProfile(c.Request.Context(), request.MarketParameters, request.Strike, request.Quantile)
	if err != nil {
		h.respondError(c, "compute exposure profile", err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

type cvaRequest struct {
	EE    []float64 `json:"ee"`
	Times []float64 `json:"times"`
	models.CreditParameters
}

// CVAHandler prices CVA from a supplied EE profile
func (h *Handlers) CVAHandler(c *gin.Context) {
	request := cvaRequest{CreditParameters: h.base.CreditParameters}
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.cva.CalculateWithContributions(request.EE, request.Times, request.CreditParameters)
	if err != nil {
		h.respondError(c, "compute CVA", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type scenarioRequest struct {
	Name      string             `json:"name"`
	Overrides map[string]float64 `json:"overrides"`
}

type stressRequest struct {
	Base      *models.BaseParameters `json:"base"`
	Scenarios []scenarioRequest      `json:"scenarios"`
}

type stressResponse struct {
	*models.StressTestResults
	Ignored map[string][]string `json:"ignored_overrides,omitempty"`
}

// RunStressTestHandler runs a stress test. Scenario overrides use the
// generic {"sigma": ..., "hazard_rate": ...} mapping; unknown keys are
// ignored and reported back.
func (h *Handlers) RunStressTestHandler(c *gin.Context) {
	base := h.base.Clone()
	request := stressRequest{Base: &base}
	if err := bindOptionalJSON(c, &request); err != nil {
		badRequest(c, err)
		return
	}
	if request.Base != nil {
		base = *request.Base
	}

	scenarios := h.scenarios
	ignored := make(map[string][]string)
	if len(request.Scenarios) > 0 {
		scenarios = make([]models.Scenario, 0, len(request.Scenarios))
		for _, s := range request.Scenarios {
			overrides, unknown := models.ParseOverrides(s.Overrides)
			if len(unknown) > 0 {
				ignored[s.Name] = unknown
			}
			scenarios = append(scenarios, models.Scenario{Name: s.Name, Overrides: overrides})
		}
	}

	results, err := h.calculator.RunStressTest(c.Request.Context(), base, scenarios)
	if results == nil {
		h.respondError(c, "run stress test", err)
		return
	}
	if err != nil {
		// Failed scenarios carry their error in their row
		h.log.Warnw("Stress test completed with failures", "run_id", results.RunID, "error", err)
	}

	if h.publisher != nil {
		if err := h.publisher.PublishResults(c.Request.Context(), results); err != nil {
			h.log.Errorw("Failed to publish stress results", "run_id", results.RunID, "error", err)
		}
	}

	response := stressResponse{StressTestResults: results}
	if len(ignored) > 0 {
		response.Ignored = ignored
	}
	c.JSON(http.StatusOK, response)
}

// AnalysisHandler runs the unstressed pipeline
func (h *Handlers) AnalysisHandler(c *gin.Context) {
	base := h.base.Clone()
	if err := bindOptionalJSON(c, &base); err != nil {
		badRequest(c, err)
		return
	}

	analysis, err := h.calculator.Analyze(c.Request.Context(), base)
	if err != nil {
		h.respondError(c, "run analysis", err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// bindOptionalJSON decodes the body into obj, leaving obj untouched when
// the body is empty
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": fmt.Sprintf("Invalid request: %v", err),
	})
}

func (h *Handlers) respondError(c *gin.Context, action string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorf("Failed to %s: %v", action, err)
	} else {
		h.log.Debugf("Rejected request to %s: %v", action, err)
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
		"type":  errors.TypeOf(err).String(),
	})
}

// statusFor maps an error kind to an HTTP status
func statusFor(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeConfiguration, errors.ErrorTypeInvalidArgument:
		return http.StatusBadRequest
	case errors.ErrorTypeNumeric:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
