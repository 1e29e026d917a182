package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wind-forecast/internal/dataset"
	"wind-forecast/internal/models"
)

// ObservationStore persists observation rows
type ObservationStore interface {
	CountObservations(ctx context.Context) (uint64, error)
	SaveObservations(ctx context.Context, observations []models.Observation) error
}

// IngestService copies a dataset source into the observation store
type IngestService struct {
	store     ObservationStore
	batchSize int
	logger    *zap.Logger
}

// NewIngestService creates an ingest service writing batchSize rows per insert
func NewIngestService(store ObservationStore, batchSize int, logger *zap.Logger) *IngestService {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &IngestService{store: store, batchSize: batchSize, logger: logger}
}

// SeedIfEmpty loads source into the store when the store has no rows yet.
// It returns the number of rows written.
func (s *IngestService) SeedIfEmpty(ctx context.Context, source dataset.Source) (int, error) {
	count, err := s.store.CountObservations(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Info("Observation store already populated, skipping seed", zap.Uint64("rows", count))
		return 0, nil
	}

	ds, err := source.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load seed dataset: %w", err)
	}
	return s.Ingest(ctx, ds.Observations)
}

// Ingest writes observations in batches, in order.
func (s *IngestService) Ingest(ctx context.Context, observations []models.Observation) (int, error) {
	written := 0
	for start := 0; start < len(observations); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		end := start + s.batchSize
		if end > len(observations) {
			end = len(observations)
		}
		if err := s.store.SaveObservations(ctx, observations[start:end]); err != nil {
			return written, fmt.Errorf("failed to save rows %d-%d: %w", start, end-1, err)
		}
		written = end
	}

	s.logger.Info("Observations ingested", zap.Int("rows", written))
	return written, nil
}
