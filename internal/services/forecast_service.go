package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wind-forecast/internal/metrics"
	"wind-forecast/internal/ml"
	"wind-forecast/internal/models"
	"wind-forecast/internal/scaling"
	"wind-forecast/internal/window"
)

// ErrSequenceOutOfBounds is returned when a sequence length falls outside the
// configured range or step.
var ErrSequenceOutOfBounds = errors.New("sequence length out of bounds")

// ReportStore persists forecast reports
type ReportStore interface {
	SaveForecastReport(ctx context.Context, report *models.ForecastReport) error
}

// ForecastServiceConfig holds configuration for the forecast pipeline
type ForecastServiceConfig struct {
	SequenceLength     int // initial value
	SequenceLengthMin  int // 0 disables the lower bound check
	SequenceLengthMax  int // 0 disables the upper bound check
	SequenceLengthStep int // 0 disables the step check
	PredictWorkers     int
	ReportChannelSize  int
}

// DefaultForecastServiceConfig returns the dashboard slider defaults
func DefaultForecastServiceConfig() ForecastServiceConfig {
	return ForecastServiceConfig{
		SequenceLength:     60,
		SequenceLengthMin:  10,
		SequenceLengthMax:  100,
		SequenceLengthStep: 5,
		PredictWorkers:     1,
		ReportChannelSize:  10,
	}
}

// RecomputeCounts reports how often each pipeline stage actually ran.
type RecomputeCounts struct {
	Scaling     int
	Windowing   int
	Predictions int
}

// ForecastService runs dataset → scale → window → predict → reconstruct →
// metrics, recomputing only the stages whose inputs changed since the last run.
type ForecastService struct {
	cache  *ResourceCache
	store  ReportStore
	config ForecastServiceConfig
	logger *zap.Logger

	// Output channel for fresh reports (read by the MQTT publisher)
	ReportChan chan *models.ForecastReport

	mu             sync.Mutex
	sequenceLength int

	// scaling stage, keyed by dataset
	dataset *models.Dataset
	raw     [][]float64
	scaler  *scaling.MinMaxScaler
	scaled  *scaling.Table

	// model stage
	model     ml.Model
	predictor *ml.Predictor

	// downstream stages, keyed by sequence length
	report *models.ForecastReport
	counts RecomputeCounts
}

// NewForecastService creates the pipeline. store may be nil.
func NewForecastService(cache *ResourceCache, store ReportStore, config ForecastServiceConfig, logger *zap.Logger) *ForecastService {
	return &ForecastService{
		cache:          cache,
		store:          store,
		config:         config,
		logger:         logger,
		ReportChan:     make(chan *models.ForecastReport, config.ReportChannelSize),
		sequenceLength: config.SequenceLength,
	}
}

// SequenceLength returns the current sequence length.
func (s *ForecastService) SequenceLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sequenceLength
}

// Counts returns the stage recomputation counters.
func (s *ForecastService) Counts() RecomputeCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// ValidateSequenceLength checks n against the configured bounds.
func (s *ForecastService) ValidateSequenceLength(n int) error {
	if n <= 0 {
		return fmt.Errorf("got %d: %w", n, window.ErrInvalidSequenceLength)
	}
	c := s.config
	if c.SequenceLengthMin > 0 && n < c.SequenceLengthMin {
		return fmt.Errorf("%d below minimum %d: %w", n, c.SequenceLengthMin, ErrSequenceOutOfBounds)
	}
	if c.SequenceLengthMax > 0 && n > c.SequenceLengthMax {
		return fmt.Errorf("%d above maximum %d: %w", n, c.SequenceLengthMax, ErrSequenceOutOfBounds)
	}
	if c.SequenceLengthStep > 0 && (n-c.SequenceLengthMin)%c.SequenceLengthStep != 0 {
		return fmt.Errorf("%d is not on step %d from %d: %w", n, c.SequenceLengthStep, c.SequenceLengthMin, ErrSequenceOutOfBounds)
	}
	return nil
}

// SetSequenceLength validates n, makes it current and runs the pipeline.
func (s *ForecastService) SetSequenceLength(ctx context.Context, n int) (*models.ForecastReport, error) {
	if err := s.ValidateSequenceLength(n); err != nil {
		return nil, err
	}
	return s.run(ctx, n, true)
}

// Current runs the pipeline with the current sequence length.
func (s *ForecastService) Current(ctx context.Context) (*models.ForecastReport, error) {
	return s.Forecast(ctx, s.SequenceLength())
}

// Forecast runs the pipeline with n without changing the current sequence length.
func (s *ForecastService) Forecast(ctx context.Context, n int) (*models.ForecastReport, error) {
	if err := s.ValidateSequenceLength(n); err != nil {
		return nil, err
	}
	return s.run(ctx, n, false)
}

// Invalidate drops cached resources and every derived stage.
func (s *ForecastService) Invalidate() {
	s.cache.Invalidate()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = nil
	s.raw = nil
	s.scaler = nil
	s.scaled = nil
	s.model = nil
	s.predictor = nil
	s.report = nil
}

// run executes the pipeline for seqLen. When makeCurrent is set, seqLen becomes
// the current sequence length under the same lock that stores the report.
func (s *ForecastService) run(ctx context.Context, seqLen int, makeCurrent bool) (*models.ForecastReport, error) {
	ds, err := s.cache.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	model, err := s.cache.Model()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ds != s.dataset {
		if err := s.refitLocked(ds); err != nil {
			return nil, err
		}
	}
	if model != s.model {
		s.model = model
		s.predictor = ml.NewPredictor(model, s.config.PredictWorkers, s.logger)
		s.report = nil
	}

	if s.report != nil && s.report.SequenceLength == seqLen {
		if makeCurrent {
			s.sequenceLength = seqLen
		}
		return s.report, nil
	}

	report, err := s.forecastLocked(ctx, seqLen)
	if err != nil {
		return nil, err
	}
	s.report = report
	if makeCurrent {
		s.sequenceLength = seqLen
	}
	s.emit(ctx, report)
	return report, nil
}

// refitLocked fits a fresh scaler on the new dataset. The same scaler instance
// is later used for reconstruction.
func (s *ForecastService) refitLocked(ds *models.Dataset) error {
	raw := ds.Matrix()
	scaler := scaling.NewMinMaxScaler()
	scaled, err := scaler.FitTransform(raw)
	if err != nil {
		return fmt.Errorf("failed to scale dataset: %w", err)
	}

	s.dataset = ds
	s.raw = raw
	s.scaler = scaler
	s.scaled = scaled
	s.report = nil
	s.counts.Scaling++

	s.logger.Debug("Scaler fitted",
		zap.String("scaler_id", scaler.ID().String()),
		zap.Int("rows", len(raw)))
	return nil
}

func (s *ForecastService) forecastLocked(ctx context.Context, seqLen int) (*models.ForecastReport, error) {
	windows, err := window.FromTable(s.scaled, seqLen)
	if err != nil {
		return nil, err
	}
	s.counts.Windowing++

	start := time.Now()
	predictions, err := s.predictor.Predict(ctx, windows)
	if err != nil {
		return nil, fmt.Errorf("prediction failed: %w", err)
	}
	elapsed := time.Since(start)
	s.counts.Predictions++

	rows, err := window.Reconstruct(s.scaler, windows, predictions)
	if err != nil {
		return nil, fmt.Errorf("reconstruction failed: %w", err)
	}
	predicted := window.PredictedTargets(rows)

	actual, err := window.Targets(s.raw, seqLen)
	if err != nil {
		return nil, err
	}

	points := make([]models.ForecastPoint, len(predicted))
	for i := range predicted {
		points[i] = models.ForecastPoint{
			Timestamp: s.dataset.Observations[seqLen+i].Timestamp,
			Actual:    actual[i],
			Predicted: predicted[i],
		}
	}

	report := &models.ForecastReport{
		RunID:          uuid.NewString(),
		GeneratedAt:    time.Now().UTC(),
		SequenceLength: seqLen,
		ModelName:      s.model.Name(),
		DatasetSource:  s.dataset.Source,
		WindowCount:    windows.Len(),
		InferenceMs:    float64(elapsed.Microseconds()) / 1000,
		Points:         points,
	}

	if len(points) == 0 {
		s.logger.Warn("Sequence length leaves no windows, metrics unavailable",
			zap.Int("sequence_length", seqLen),
			zap.Int("rows", len(s.raw)))
		return report, nil
	}

	report.Metrics = computeMetrics(actual, predicted)
	s.logger.Info("Forecast computed",
		zap.String("run_id", report.RunID),
		zap.Int("sequence_length", seqLen),
		zap.Int("windows", report.WindowCount),
		zap.String("mse", formatMetric(report.Metrics.MSE)),
		zap.String("r2", formatMetric(report.Metrics.RSquare)),
	)
	return report, nil
}

func computeMetrics(actual, predicted []float64) models.Metrics {
	var m models.Metrics
	if mse, err := metrics.MSE(actual, predicted); err == nil && isFinite(mse) {
		m.MSE = &mse
	}
	if r2, err := metrics.RSquared(actual, predicted); err == nil && isFinite(r2) {
		m.RSquare = &r2
	}
	return m
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatMetric(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}

// emit persists and forwards a fresh report. Failures are logged, not returned.
func (s *ForecastService) emit(ctx context.Context, report *models.ForecastReport) {
	if s.store != nil {
		if err := s.store.SaveForecastReport(ctx, report); err != nil {
			s.logger.Error("Error saving forecast report", zap.String("run_id", report.RunID), zap.Error(err))
		}
	}

	select {
	case s.ReportChan <- report:
	default:
		s.logger.Warn("Report channel full, dropping report", zap.String("run_id", report.RunID))
	}
}
