package ml

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wind-forecast/internal/window"
)

// Predictor handles batch predictions over a window batch
type Predictor struct {
	model   Model
	workers int
	logger  *zap.Logger
}

// NewPredictor wraps a model. workers <= 1 predicts sequentially.
func NewPredictor(model Model, workers int, logger *zap.Logger) *Predictor {
	if workers < 1 {
		workers = 1
	}
	return &Predictor{model: model, workers: workers, logger: logger}
}

// Model returns the wrapped model.
func (p *Predictor) Model() Model {
	return p.model
}

// Predict returns one scaled prediction per window, in window order.
func (p *Predictor) Predict(ctx context.Context, ws *window.Windows) ([]float64, error) {
	predictions := make([]float64, ws.Len())
	if ws.Len() == 0 {
		return predictions, nil
	}
	if ws.NumFeatures != p.model.InputSize() {
		return nil, fmt.Errorf("windows have %d features, model %s takes %d: %w",
			ws.NumFeatures, p.model.Name(), p.model.InputSize(), ErrInputSize)
	}

	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range ws.Items {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			y, err := p.model.PredictWindow(ws.Items[i])
			if err != nil {
				return fmt.Errorf("window %d: %w", i, err)
			}
			predictions[i] = y
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Debug("Batch prediction complete",
		zap.String("model", p.model.Name()),
		zap.Int("windows", ws.Len()),
		zap.Int("workers", p.workers),
		zap.Duration("elapsed", time.Since(start)),
	)
	return predictions, nil
}
