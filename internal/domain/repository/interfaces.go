package repository

import (
	"context"

	"CreditScore/internal/domain/models"
)

// ArtifactSource returns the raw bytes of a named model artifact.
type ArtifactSource interface {
	Open(ctx context.Context, name string) ([]byte, error)
}

// DatasetRepository provides read-only access to the credit dataset.
type DatasetRepository interface {
	Records(ctx context.Context) ([]models.CreditRecord, error)
}

// RecordStorage persists imported dataset records.
type RecordStorage interface {
	Store(ctx context.Context, r *models.CreditRecord) error
	StoreBatch(ctx context.Context, rs []*models.CreditRecord) error
	Health(ctx context.Context) error
	Close() error
}

// RecordPublisher ships dataset records to the import topic.
type RecordPublisher interface {
	Publish(ctx context.Context, r *models.CreditRecord) error
	PublishBatch(ctx context.Context, rs []*models.CreditRecord) error
	Close() error
}

type Metrics interface {
	RecordPrediction(model, decision string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordImported(backend string, n int)
}
