package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wind-forecast/internal/database"
	"wind-forecast/internal/dataset"
	"wind-forecast/internal/services"
	"wind-forecast/internal/window"
)

// RunLister lists stored forecast runs
type RunLister interface {
	GetRecentRuns(ctx context.Context, limit int) ([]database.RunSummary, error)
}

type ForecastController struct {
	forecastService *services.ForecastService
	cache           *services.ResourceCache
	runs            RunLister
	logger          *zap.Logger
}

// NewForecastController creates the controller. runs may be nil when no
// store is configured.
func NewForecastController(forecastService *services.ForecastService, cache *services.ResourceCache, runs RunLister, logger *zap.Logger) *ForecastController {
	return &ForecastController{
		forecastService: forecastService,
		cache:           cache,
		runs:            runs,
		logger:          logger,
	}
}

type SetSequenceLengthRequest struct {
	SequenceLength int `json:"sequence_length"`
}

func (fc *ForecastController) GetForecast(c *gin.Context) {
	raw := c.Query("sequence_length")
	if raw == "" {
		report, err := fc.forecastService.Current(c.Request.Context())
		if err != nil {
			fc.fail(c, "Failed to compute forecast", err)
			return
		}
		c.JSON(http.StatusOK, report)
		return
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid sequence_length",
			"details": err.Error(),
		})
		return
	}

	report, err := fc.forecastService.Forecast(c.Request.Context(), n)
	if err != nil {
		fc.fail(c, "Failed to compute forecast", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (fc *ForecastController) SetSequenceLength(c *gin.Context) {
	var request SetSequenceLengthRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		fc.logger.Warn("Invalid request payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	report, err := fc.forecastService.SetSequenceLength(c.Request.Context(), request.SequenceLength)
	if err != nil {
		fc.fail(c, "Failed to apply sequence length", err)
		return
	}

	fc.logger.Info("Sequence length updated", zap.Int("sequence_length", request.SequenceLength))
	c.JSON(http.StatusOK, report)
}

func (fc *ForecastController) GetDatasetPreview(c *gin.Context) {
	rows := 5
	if raw := c.Query("rows"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rows"})
			return
		}
		rows = n
	}

	ds, err := fc.cache.Dataset(c.Request.Context())
	if err != nil {
		fc.fail(c, "Failed to load dataset", err)
		return
	}

	records := dataset.Preview(ds, rows).Records()
	c.JSON(http.StatusOK, gin.H{
		"source":     ds.Source,
		"total_rows": ds.Len(),
		"columns":    records[0],
		"rows":       records[1:],
	})
}

func (fc *ForecastController) InvalidateCache(c *gin.Context) {
	fc.forecastService.Invalidate()
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}

func (fc *ForecastController) GetRecentRuns(c *gin.Context) {
	if fc.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run history is not enabled"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	runs, err := fc.runs.GetRecentRuns(c.Request.Context(), limit)
	if err != nil {
		fc.fail(c, "Failed to list forecast runs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// fail maps configuration errors to 400 and everything else to 500.
func (fc *ForecastController) fail(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, window.ErrInvalidSequenceLength) || errors.Is(err, services.ErrSequenceOutOfBounds) {
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		fc.logger.Error(message, zap.Error(err))
	} else {
		fc.logger.Warn(message, zap.Error(err))
	}

	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
