package usecase

import (
	"context"
	"fmt"
	"time"

	"CreditScore/internal/domain/models"
	drepo "CreditScore/internal/domain/repository"
	applogger "CreditScore/pkg/logger"
)

// Import backends.
const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// RecordImporter routes dataset records to the configured backend.
type RecordImporter struct {
	pub     drepo.RecordPublisher
	store   drepo.RecordStorage
	metrics drepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
	l       *applogger.Logger
}

// NewRecordImporter creates a new RecordImporter instance. Only the
// dependency of the selected backend needs to be non-nil.
func NewRecordImporter(
	pub drepo.RecordPublisher,
	store drepo.RecordStorage,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *RecordImporter {
	if batchSz <= 0 {
		batchSz = 500
	}
	return &RecordImporter{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
	}
}

// SetLogger injects a structured logger.
func (p *RecordImporter) SetLogger(l *applogger.Logger) { p.l = l }

// Process routes a single record to the configured backend.
func (p *RecordImporter) Process(ctx context.Context, r *models.CreditRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	return p.ProcessBatch(ctx, []*models.CreditRecord{r})
}

// ProcessBatch routes one batch to the configured backend.
func (p *RecordImporter) ProcessBatch(ctx context.Context, rs []*models.CreditRecord) error {
	if len(rs) == 0 {
		return nil
	}

	if p.batchTO > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.batchTO)
		defer cancel()
	}

	start := time.Now()
	var err error
	switch p.backend {
	case BackendKafka:
		if p.pub == nil {
			return fmt.Errorf("kafka backend selected without publisher")
		}
		err = p.pub.PublishBatch(ctx, rs)
	case BackendClickHouse:
		if p.store == nil {
			return fmt.Errorf("clickhouse backend selected without storage")
		}
		err = p.store.StoreBatch(ctx, rs)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("import_batch")
		return fmt.Errorf("import batch: %w", err)
	}

	p.metrics.RecordImported(p.backend, len(rs))
	p.metrics.RecordLatency("import_batch", time.Since(start).Seconds())
	return nil
}

// Import sends all records in batches and returns how many were accepted
// before the first failure.
func (p *RecordImporter) Import(ctx context.Context, records []models.CreditRecord) (int, error) {
	done := 0
	for start := 0; start < len(records); start += p.batchSz {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		end := start + p.batchSz
		if end > len(records) {
			end = len(records)
		}
		batch := make([]*models.CreditRecord, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, &records[i])
		}
		if err := p.ProcessBatch(ctx, batch); err != nil {
			return done, err
		}
		done += len(batch)
		if p.l != nil {
			p.l.Debug("import batch sent",
				applogger.String("backend", p.backend),
				applogger.Int("batch", len(batch)),
				applogger.Int("done", done),
			)
		}
	}
	if p.l != nil {
		p.l.Info("import finished", applogger.String("backend", p.backend), applogger.Int("records", done))
	}
	return done, nil
}

// Close closes underlying resources if available.
func (p *RecordImporter) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
