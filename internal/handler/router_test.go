package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wind-forecast/internal/controller"
	"wind-forecast/internal/database"
	"wind-forecast/internal/dataset"
	"wind-forecast/internal/ml"
	"wind-forecast/internal/models"
	"wind-forecast/internal/services"
)

type fakeRuns struct {
	runs []database.RunSummary
	err  error
}

func (f *fakeRuns) GetRecentRuns(ctx context.Context, limit int) ([]database.RunSummary, error) {
	if len(f.runs) > limit {
		return f.runs[:limit], f.err
	}
	return f.runs, f.err
}

type staticSource struct {
	ds *models.Dataset
}

func (s staticSource) Name() string { return s.ds.Source }

func (s staticSource) Load(ctx context.Context) (*models.Dataset, error) {
	return s.ds, nil
}

func newTestRouter(t *testing.T, runs controller.RunLister) (http.Handler, *services.ForecastService) {
	t.Helper()
	cfg := dataset.DefaultSyntheticConfig()
	cfg.Periods = 120
	return newTestRouterWithSource(t, dataset.NewSyntheticSource(cfg), runs)
}

func newTestRouterWithSource(t *testing.T, source dataset.Source, runs controller.RunLister) (http.Handler, *services.ForecastService) {
	t.Helper()
	loader := func() (ml.Model, error) {
		return ml.FromArtifact(&ml.Artifact{
			Name:         "linear-test",
			Kind:         ml.KindLinear,
			InputSize:    2,
			Features:     []string{"temperature", "wind_speed"},
			Coefficients: map[string]float64{"temperature": 0.3, "wind_speed": 0.2},
			Intercept:    0.25,
		})
	}
	cache := services.NewResourceCache(source, loader, zap.NewNop())
	svc := services.NewForecastService(cache, nil, services.DefaultForecastServiceConfig(), zap.NewNop())
	fc := controller.NewForecastController(svc, cache, runs, zap.NewNop())
	return SetupRouter(fc, zap.NewNop()), svc
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	w := do(t, h, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestGetForecast(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	w := do(t, h, http.MethodGet, "/api/v1/forecast?sequence_length=20", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report models.ForecastReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 20, report.SequenceLength)
	assert.Equal(t, 100, report.WindowCount)
	assert.Len(t, report.Points, 100)
	assert.Equal(t, "linear-test", report.ModelName)
	assert.NotNil(t, report.Metrics.MSE)
}

func TestGetForecast_DefaultSequenceLength(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	w := do(t, h, http.MethodGet, "/api/v1/forecast", "")
	require.Equal(t, http.StatusOK, w.Code)

	var report models.ForecastReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 60, report.SequenceLength)
	assert.Equal(t, 60, report.WindowCount)
}

func TestGetForecast_UpperBound(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	w := do(t, h, http.MethodGet, "/api/v1/forecast?sequence_length=100", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(20), body["window_count"])
	assert.Contains(t, body, "metrics")
}

func TestGetForecast_NaNObservationServedAsNull(t *testing.T) {
	cfg := dataset.DefaultSyntheticConfig()
	cfg.Periods = 30
	ds, err := dataset.Generate(cfg)
	require.NoError(t, err)
	ds.Observations[25].Production = math.NaN()

	h, _ := newTestRouterWithSource(t, staticSource{ds: ds}, nil)

	w := do(t, h, http.MethodGet, "/api/v1/forecast?sequence_length=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Body.Bytes())

	var body struct {
		WindowCount int              `json:"window_count"`
		Metrics     map[string]any   `json:"metrics"`
		Points      []map[string]any `json:"points"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 20, body.WindowCount)
	require.Len(t, body.Points, 20)

	// Row 25 is the 16th target after the first 10 rows.
	assert.Nil(t, body.Points[15]["actual"])
	assert.NotNil(t, body.Points[15]["predicted"])
	assert.NotNil(t, body.Points[14]["actual"])
	assert.Nil(t, body.Metrics["mse"])
	assert.Nil(t, body.Metrics["r2"])
}

func TestGetForecast_BadRequests(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	for _, target := range []string{
		"/api/v1/forecast?sequence_length=abc",
		"/api/v1/forecast?sequence_length=0",
		"/api/v1/forecast?sequence_length=-10",
		"/api/v1/forecast?sequence_length=12",
		"/api/v1/forecast?sequence_length=500",
	} {
		w := do(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestSetSequenceLength(t *testing.T) {
	h, svc := newTestRouter(t, nil)

	w := do(t, h, http.MethodPut, "/api/v1/sequence_length", `{"sequence_length": 45}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 45, svc.SequenceLength())

	w = do(t, h, http.MethodPut, "/api/v1/sequence_length", `{"sequence_length": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 45, svc.SequenceLength())

	w = do(t, h, http.MethodPut, "/api/v1/sequence_length", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDatasetPreview(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	w := do(t, h, http.MethodGet, "/api/v1/dataset/preview", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Source    string     `json:"source"`
		TotalRows int        `json:"total_rows"`
		Columns   []string   `json:"columns"`
		Rows      [][]string `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "synthetic", body.Source)
	assert.Equal(t, 120, body.TotalRows)
	assert.Equal(t, []string{"timestamp", "temperature", "wind_speed", "total_wind_production"}, body.Columns)
	assert.Len(t, body.Rows, 5)
	assert.Equal(t, "2020-01-01T00:00:00Z", body.Rows[0][0])

	w = do(t, h, http.MethodGet, "/api/v1/dataset/preview?rows=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidateCache(t *testing.T) {
	h, svc := newTestRouter(t, nil)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/forecast", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/cache/invalidate", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/forecast", "").Code)

	assert.Equal(t, 2, svc.Counts().Scaling)
}

func TestRecentRuns(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/runs", "").Code)

	runs := &fakeRuns{runs: []database.RunSummary{{RunID: "a"}, {RunID: "b"}, {RunID: "c"}}}
	h, _ = newTestRouter(t, runs)

	w := do(t, h, http.MethodGet, "/api/v1/runs?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Runs []database.RunSummary `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Runs, 2)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/runs?limit=0", "").Code)

	runs.err = errors.New("query failed")
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/api/v1/runs", "").Code)
}
