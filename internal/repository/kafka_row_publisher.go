package repository

import (
	"context"
	"fmt"

	"COEAnalytics/internal/domain/models"
	"COEAnalytics/internal/domain/repository"
	pkgkafka "COEAnalytics/pkg/kafka"
)

// KafkaRowPublisher sends raw batches to the ingestion topic, keyed by batch id.
type KafkaRowPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaRowPublisher creates a publisher writing to topic.
func NewKafkaRowPublisher(producer *pkgkafka.Producer, topic string) repository.RowPublisher {
	return &KafkaRowPublisher{producer: producer, topic: topic}
}

func (p *KafkaRowPublisher) PublishBatch(ctx context.Context, batch models.RawBatch) error {
	if len(batch.Rows) == 0 {
		return nil
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(batch.BatchID), batch); err != nil {
		return fmt.Errorf("publish batch %s: %w", batch.BatchID, err)
	}
	return nil
}

func (p *KafkaRowPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
