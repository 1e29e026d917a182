package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"wind-forecast/internal/dataset"
	"wind-forecast/internal/ml"
	"wind-forecast/internal/models"
)

// ModelLoader loads the model artifact
type ModelLoader func() (ml.Model, error)

// ResourceCache holds the dataset and model, each loaded once and reused
// until Invalidate is called.
type ResourceCache struct {
	source     dataset.Source
	loadModel  ModelLoader
	logger     *zap.Logger
	mu         sync.Mutex
	dataset    *models.Dataset
	model      ml.Model
	generation uint64
}

// NewResourceCache creates an empty cache
func NewResourceCache(source dataset.Source, loadModel ModelLoader, logger *zap.Logger) *ResourceCache {
	return &ResourceCache{
		source:    source,
		loadModel: loadModel,
		logger:    logger,
	}
}

// Dataset returns the cached dataset, loading it on first use.
func (c *ResourceCache) Dataset(ctx context.Context) (*models.Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dataset != nil {
		return c.dataset, nil
	}

	ds, err := c.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s dataset: %w", c.source.Name(), err)
	}
	c.dataset = ds
	c.logger.Info("Dataset loaded",
		zap.String("source", c.source.Name()),
		zap.Int("rows", ds.Len()))
	return ds, nil
}

// Model returns the cached model, loading it on first use.
func (c *ResourceCache) Model() (ml.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model != nil {
		return c.model, nil
	}

	m, err := c.loadModel()
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	c.model = m
	c.logger.Info("Model loaded",
		zap.String("model", m.Name()),
		zap.Int("input_size", m.InputSize()))
	return m, nil
}

// Generation increases on every invalidation.
func (c *ResourceCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Invalidate drops both resources; the next access reloads them.
func (c *ResourceCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dataset = nil
	c.model = nil
	c.generation++
	c.logger.Info("Resource cache invalidated", zap.Uint64("generation", c.generation))
}
