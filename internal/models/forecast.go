package models

import (
	"encoding/json"
	"math"
	"time"
)

// ForecastPoint pairs the actual and predicted production for one hour.
// Non-finite values are encoded as JSON null and decode back to NaN.
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Actual    float64   `json:"actual"`
	Predicted float64   `json:"predicted"`
}

type forecastPointJSON struct {
	Timestamp time.Time `json:"timestamp"`
	Actual    *float64  `json:"actual"`
	Predicted *float64  `json:"predicted"`
}

func (p ForecastPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(forecastPointJSON{
		Timestamp: p.Timestamp,
		Actual:    finiteOrNil(p.Actual),
		Predicted: finiteOrNil(p.Predicted),
	})
}

func (p *ForecastPoint) UnmarshalJSON(data []byte) error {
	var raw forecastPointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Timestamp = raw.Timestamp
	p.Actual = valueOrNaN(raw.Actual)
	p.Predicted = valueOrNaN(raw.Predicted)
	return nil
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Metrics holds the error summary for a forecast run. Nil fields mean the
// metric is unavailable (no windows were produced).
type Metrics struct {
	MSE     *float64 `json:"mse"`
	RSquare *float64 `json:"r2"`
}

// ForecastReport is the result of one pipeline run, published over MQTT and
// served by the HTTP API
type ForecastReport struct {
	RunID          string          `json:"run_id"`
	GeneratedAt    time.Time       `json:"generated_at"`
	SequenceLength int             `json:"sequence_length"`
	ModelName      string          `json:"model_name"`
	DatasetSource  string          `json:"dataset_source"`
	WindowCount    int             `json:"window_count"`
	InferenceMs    float64         `json:"inference_time_ms"`
	Metrics        Metrics         `json:"metrics"`
	Points         []ForecastPoint `json:"points"`
}

// Actual returns the actual production series.
func (r *ForecastReport) Actual() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Actual
	}
	return out
}

// Predicted returns the predicted production series.
func (r *ForecastReport) Predicted() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Predicted
	}
	return out
}
