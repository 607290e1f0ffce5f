package repository

import (
	"context"

	"CreditScore/internal/domain/models"
	domrepo "CreditScore/internal/domain/repository"
	pkgkafka "CreditScore/pkg/kafka"
)

var recordHeaders = map[string]string{"content-type": "application/json", "schema": "credit_record.v1"}

// KafkaPublisher implements RecordPublisher for Kafka. Records are keyed by ID
// so re-imports of the same row land on the same partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.RecordPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, r *models.CreditRecord) error {
	return p.PublishBatch(ctx, []*models.CreditRecord{r})
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, rs []*models.CreditRecord) error {
	if len(rs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(rs))
	for i, r := range rs {
		msgs[i] = pkgkafka.Message{Key: []byte(r.ID), Value: r, Headers: recordHeaders}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
