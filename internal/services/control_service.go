package services

import (
	"context"

	"go.uber.org/zap"
)

// ControlService applies sequence length changes received from the control
// channel to the forecast service
type ControlService struct {
	forecast *ForecastService
	logger   *zap.Logger

	// Input channel from the MQTT subscriber
	SequenceLengthChan chan int
}

// NewControlService creates a control service with a buffered input channel
func NewControlService(forecast *ForecastService, channelSize int, logger *zap.Logger) *ControlService {
	return &ControlService{
		forecast:           forecast,
		logger:             logger,
		SequenceLengthChan: make(chan int, channelSize),
	}
}

// Start processes control messages until the context is cancelled
func (s *ControlService) Start(ctx context.Context) {
	s.logger.Info("ControlService: Starting...")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ControlService: Shutting down...")
			return

		case n, ok := <-s.SequenceLengthChan:
			if !ok {
				s.logger.Info("ControlService: Channel closed, shutting down...")
				return
			}
			s.apply(ctx, n)
		}
	}
}

func (s *ControlService) apply(ctx context.Context, n int) {
	report, err := s.forecast.SetSequenceLength(ctx, n)
	if err != nil {
		s.logger.Warn("ControlService: Rejected sequence length", zap.Int("sequence_length", n), zap.Error(err))
		return
	}
	s.logger.Info("ControlService: Sequence length applied",
		zap.Int("sequence_length", n),
		zap.String("run_id", report.RunID),
		zap.Int("windows", report.WindowCount))
}
