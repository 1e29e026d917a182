// Package dataset provides the wind observation table: a seeded synthetic
// generator, a CSV loader, a store-backed source and a tabular preview.
package dataset

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"

	"wind-forecast/internal/models"
)

// Source produces the observation table consumed by the forecast pipeline.
type Source interface {
	Name() string
	Load(ctx context.Context) (*models.Dataset, error)
}

// ErrNoObservations is returned when a source yields an empty table.
var ErrNoObservations = errors.New("dataset has no observations")

// SyntheticConfig controls the generated dataset
type SyntheticConfig struct {
	Periods  int           // number of rows
	Start    time.Time     // timestamp of the first row
	Interval time.Duration // spacing between rows
	Seed     int64

	// Production follows sin(linspace(0, PhaseSpan, Periods)) plus N(0, NoiseStd)
	PhaseSpan float64
	NoiseStd  float64

	TemperatureMax float64 // temperature ~ U(0, TemperatureMax)
	WindSpeedMax   float64 // wind speed ~ U(0, WindSpeedMax)
}

// DefaultSyntheticConfig returns 1000 hourly rows starting 2020-01-01.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Periods:        1000,
		Start:          time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       time.Hour,
		Seed:           42,
		PhaseSpan:      100,
		NoiseStd:       0.1,
		TemperatureMax: 30,
		WindSpeedMax:   15,
	}
}

// SyntheticSource generates a deterministic demonstration dataset
type SyntheticSource struct {
	config SyntheticConfig
}

// NewSyntheticSource creates a generator with the given configuration
func NewSyntheticSource(config SyntheticConfig) *SyntheticSource {
	return &SyntheticSource{config: config}
}

func (s *SyntheticSource) Name() string {
	return "synthetic"
}

// Load generates the table. The same seed always yields the same rows.
func (s *SyntheticSource) Load(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Generate(s.config)
}

// Generate builds the synthetic observation table.
func Generate(config SyntheticConfig) (*models.Dataset, error) {
	if config.Periods <= 0 {
		return nil, ErrNoObservations
	}

	rng := rand.New(rand.NewSource(config.Seed))

	phase := make([]float64, config.Periods)
	if config.Periods == 1 {
		phase[0] = 0
	} else {
		floats.Span(phase, 0, config.PhaseSpan)
	}

	observations := make([]models.Observation, config.Periods)
	for i := range observations {
		observations[i] = models.Observation{
			Timestamp:   config.Start.Add(time.Duration(i) * config.Interval),
			Production:  math.Sin(phase[i]) + rng.NormFloat64()*config.NoiseStd,
			Temperature: rng.Float64() * config.TemperatureMax,
			WindSpeed:   rng.Float64() * config.WindSpeedMax,
		}
	}

	return &models.Dataset{
		Source:       "synthetic",
		Observations: observations,
	}, nil
}
