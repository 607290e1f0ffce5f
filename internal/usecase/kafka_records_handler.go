package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"CreditScore/internal/domain/models"
	domrepo "CreditScore/internal/domain/repository"
	pkgkafka "CreditScore/pkg/kafka"
)

// KafkaRecordsHandler consumes imported records and writes them to storage.
type KafkaRecordsHandler struct {
	topic   string
	storage domrepo.RecordStorage
	metrics domrepo.Metrics
}

func NewKafkaRecordsHandler(topic string, storage domrepo.RecordStorage, metrics domrepo.Metrics) *KafkaRecordsHandler {
	return &KafkaRecordsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaRecordsHandler) Topic() string { return h.topic }

// Handle expects one JSON encoded models.CreditRecord per message.
// Malformed payloads are permanent failures; storage errors are retried.
func (h *KafkaRecordsHandler) Handle(ctx context.Context, b []byte) error {
	var r models.CreditRecord
	if err := json.Unmarshal(b, &r); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode record: %w", err))
	}
	if r.ID == "" {
		h.metrics.RecordError("consumer_invalid")
		return pkgkafka.Permanent(fmt.Errorf("record without id"))
	}

	start := time.Now()
	err := h.storage.Store(ctx, &r)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordImported(BackendClickHouse, 1)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRecordsHandler)(nil)
