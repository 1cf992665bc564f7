// Package changefeed publishes committed ticketing transitions to Kafka.
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"eventticketing/internal/domain"
)

const defaultTopicPrefix = "ticketing"

// Publisher is a domain.ChangePublisher. Without a producer it only logs.
type Publisher struct {
	producer sarama.SyncProducer
	prefix   string
	logger   *slog.Logger
}

// NewPublisher connects a sync producer to brokers. An empty broker list
// yields a log-only publisher.
func NewPublisher(brokers []string, topicPrefix string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		logger.Info("change feed running in log-only mode, no kafka brokers configured")
		return newPublisher(nil, topicPrefix, logger), nil
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	logger.Info("connected to kafka", "brokers", brokers)
	return newPublisher(producer, topicPrefix, logger), nil
}

func newPublisher(producer sarama.SyncProducer, topicPrefix string, logger *slog.Logger) *Publisher {
	if topicPrefix == "" {
		topicPrefix = defaultTopicPrefix
	}
	return &Publisher{producer: producer, prefix: topicPrefix, logger: logger}
}

// Topic is "<prefix>.<stream>", e.g. "ticketing.registration".
func (p *Publisher) Topic(change *domain.ChangeEvent) string {
	return p.prefix + "." + change.Stream()
}

// Publish sends the change keyed by event id so one event's changes stay ordered.
func (p *Publisher) Publish(ctx context.Context, change *domain.ChangeEvent) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	topic := p.Topic(change)

	if p.producer == nil {
		p.logger.DebugContext(ctx, "change (log-only)", "topic", topic, "type", change.Type, "entity_id", change.EntityID)
		return nil
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(change.EventID),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send to %s: %w", topic, err)
	}
	p.logger.DebugContext(ctx, "change published", "topic", topic, "type", change.Type, "partition", partition, "offset", offset)
	return nil
}

func (p *Publisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

var _ domain.ChangePublisher = (*Publisher)(nil)
