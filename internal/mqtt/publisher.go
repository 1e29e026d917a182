package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"wind-forecast/internal/models"
)

// Publisher handles MQTT publishing of forecast reports from a channel
type Publisher struct {
	client mqtt.Client
	logger *zap.Logger

	// Input channel (read by publisher, written by forecast service)
	ReportChan <-chan *models.ForecastReport

	// Topic pattern
	reportTopic string // e.g., "forecast/{run_id}/report"
}

// PublisherConfig holds configuration for MQTT publisher
type PublisherConfig struct {
	ReportTopic string // e.g., "forecast/{run_id}/report"
}

// NewPublisher creates a new MQTT publisher reading from reportChan
func NewPublisher(
	client mqtt.Client,
	config PublisherConfig,
	reportChan <-chan *models.ForecastReport,
	logger *zap.Logger,
) *Publisher {
	return &Publisher{
		client:      client,
		logger:      logger,
		ReportChan:  reportChan,
		reportTopic: config.ReportTopic,
	}
}

// Start begins publishing reports from the channel
// Runs until context is cancelled or channel is closed
func (p *Publisher) Start(ctx context.Context) {
	p.logger.Info("MQTT Publisher: Starting...")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("MQTT Publisher: Context cancelled, shutting down...")
			return

		case report, ok := <-p.ReportChan:
			if !ok {
				p.logger.Info("MQTT Publisher: Report channel closed, shutting down...")
				return
			}

			if err := p.PublishReport(report); err != nil {
				p.logger.Error("Error publishing forecast report", zap.Error(err))
			}
		}
	}
}

// PublishReport publishes one forecast report
func (p *Publisher) PublishReport(report *models.ForecastReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal forecast report: %w", err)
	}

	topic := formatTopic(p.reportTopic, report.RunID)

	token := p.client.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish forecast report: %w", token.Error())
	}

	p.logger.Info("Published forecast report",
		zap.String("run_id", report.RunID),
		zap.String("topic", topic),
		zap.Int("points", len(report.Points)))
	return nil
}

// formatTopic replaces {run_id} placeholder with actual run ID
func formatTopic(topicPattern, runID string) string {
	return strings.ReplaceAll(topicPattern, "{run_id}", runID)
}
