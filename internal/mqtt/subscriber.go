package mqtt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Subscriber handles MQTT subscriptions and writes control messages to channels
type Subscriber struct {
	client mqtt.Client
	logger *zap.Logger

	// Output channel (written by subscriber, read by the control service)
	SequenceLengthChan chan<- int

	// Topic pattern
	sequenceLengthTopic string
}

// SubscriberConfig holds configuration for MQTT subscriber
type SubscriberConfig struct {
	SequenceLengthTopic string // e.g., "forecast/control/sequence_length"
}

// NewSubscriber creates a new MQTT subscriber with channels
func NewSubscriber(
	client mqtt.Client,
	config SubscriberConfig,
	sequenceLengthChan chan<- int,
	logger *zap.Logger,
) *Subscriber {
	return &Subscriber{
		client:              client,
		logger:              logger,
		SequenceLengthChan:  sequenceLengthChan,
		sequenceLengthTopic: config.SequenceLengthTopic,
	}
}

// SubscribeAll subscribes to all configured control topics
func (s *Subscriber) SubscribeAll() error {
	if s.sequenceLengthTopic != "" {
		token := s.client.Subscribe(s.sequenceLengthTopic, 1, s.handleSequenceLength)
		if token.Wait() && token.Error() != nil {
			return fmt.Errorf("failed to subscribe to sequence length topic: %w", token.Error())
		}
		s.logger.Info("Subscribed to sequence length topic", zap.String("topic", s.sequenceLengthTopic))
	}
	return nil
}

// handleSequenceLength parses a sequence length message and writes to channel
func (s *Subscriber) handleSequenceLength(client mqtt.Client, msg mqtt.Message) {
	n, err := parseSequenceLength(msg.Payload())
	if err != nil {
		s.logger.Warn("Ignoring sequence length message",
			zap.String("topic", msg.Topic()),
			zap.Error(err))
		return
	}

	s.logger.Info("Received sequence length", zap.Int("sequence_length", n))

	// Write to channel (non-blocking with timeout)
	select {
	case s.SequenceLengthChan <- n:
	case <-time.After(1 * time.Second):
		s.logger.Warn("Sequence length channel full, dropping message", zap.Int("sequence_length", n))
	}
}

// parseSequenceLength accepts a bare integer payload. Range checks are left to
// the forecast service.
func parseSequenceLength(payload []byte) (int, error) {
	text := strings.TrimSpace(string(payload))
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("invalid sequence length %q: %w", text, err)
	}
	return n, nil
}
