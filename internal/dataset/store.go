package dataset

import (
	"context"
	"fmt"

	"wind-forecast/internal/models"
)

// ObservationReader is implemented by persistent stores holding observations
type ObservationReader interface {
	LoadObservations(ctx context.Context, limit int) ([]models.Observation, error)
}

// StoreSource loads the table from a persistent store, oldest row first.
type StoreSource struct {
	reader ObservationReader
	limit  int
}

// NewStoreSource creates a store-backed source reading at most limit rows
// (0 means all rows).
func NewStoreSource(reader ObservationReader, limit int) *StoreSource {
	return &StoreSource{reader: reader, limit: limit}
}

func (s *StoreSource) Name() string {
	return "clickhouse"
}

func (s *StoreSource) Load(ctx context.Context) (*models.Dataset, error) {
	observations, err := s.reader.LoadObservations(ctx, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load observations: %w", err)
	}
	if len(observations) == 0 {
		return nil, ErrNoObservations
	}
	return &models.Dataset{
		Source:       s.Name(),
		Observations: observations,
	}, nil
}
