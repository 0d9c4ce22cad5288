package repository

import (
	"context"
	"fmt"

	"bandarscan/internal/domain/models"
	pkgkafka "bandarscan/pkg/kafka"
	applogger "bandarscan/pkg/logger"
)

// KafkaPublisher implements Publisher on a Kafka topic. Keys are symbols so
// one instrument's history lands on one partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// SetLogger injects a structured logger.
func (p *KafkaPublisher) SetLogger(l *applogger.Logger) { p.l = l }

func (p *KafkaPublisher) PublishBatch(ctx context.Context, records []models.ArchiveRecord) error {
	msgs := make([]pkgkafka.Message, 0, len(records))
	for i := range records {
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(records[i].Symbol),
			Value: &records[i],
		})
	}
	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return fmt.Errorf("publish scan batch: %w", err)
	}
	if p.l != nil {
		p.l.Debug("kafka scan batch published",
			applogger.String("topic", p.topic),
			applogger.Int("rows", len(records)),
		)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
