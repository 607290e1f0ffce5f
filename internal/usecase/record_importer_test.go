package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CreditScore/internal/domain/models"
	pkgkafka "CreditScore/pkg/kafka"
)

type fakePublisher struct {
	batches [][]*models.CreditRecord
	err     error
	closed  bool
}

func (p *fakePublisher) Publish(ctx context.Context, r *models.CreditRecord) error {
	return p.PublishBatch(ctx, []*models.CreditRecord{r})
}

func (p *fakePublisher) PublishBatch(_ context.Context, rs []*models.CreditRecord) error {
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, rs)
	return nil
}

func (p *fakePublisher) Close() error { p.closed = true; return nil }

type fakeStorage struct {
	stored []*models.CreditRecord
	err    error
}

func (s *fakeStorage) Store(_ context.Context, r *models.CreditRecord) error {
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, r)
	return nil
}

func (s *fakeStorage) StoreBatch(ctx context.Context, rs []*models.CreditRecord) error {
	for _, r := range rs {
		if err := s.Store(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStorage) Health(context.Context) error { return nil }
func (s *fakeStorage) Close() error                 { return nil }

func TestRecordImporter_KafkaBatches(t *testing.T) {
	pub := &fakePublisher{}
	m := newFakeMetrics()
	imp := NewRecordImporter(pub, nil, m, BackendKafka, 2, 0)

	n, err := imp.Import(context.Background(), sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, pub.batches, 2)
	assert.Len(t, pub.batches[0], 2)
	assert.Len(t, pub.batches[1], 1)
	assert.Equal(t, "3", pub.batches[1][0].ID)
	assert.Equal(t, 3, m.imported[BackendKafka])

	imp.Close()
	assert.True(t, pub.closed)
}

func TestRecordImporter_ClickHouse(t *testing.T) {
	store := &fakeStorage{}
	imp := NewRecordImporter(nil, store, newFakeMetrics(), BackendClickHouse, 10, 0)
	require.NoError(t, imp.Process(context.Background(), &models.CreditRecord{ID: "x"}))
	assert.Len(t, store.stored, 1)
	assert.Error(t, imp.Process(context.Background(), nil))
}

func TestRecordImporter_Errors(t *testing.T) {
	m := newFakeMetrics()
	imp := NewRecordImporter(&fakePublisher{err: errors.New("down")}, nil, m, BackendKafka, 2, 0)
	n, err := imp.Import(context.Background(), sampleRecords())
	assert.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, m.errors["import_batch"])

	imp = NewRecordImporter(nil, nil, m, "s3", 2, 0)
	_, err = imp.Import(context.Background(), sampleRecords())
	assert.Error(t, err)

	imp = NewRecordImporter(nil, nil, m, BackendClickHouse, 2, 0)
	_, err = imp.Import(context.Background(), sampleRecords())
	assert.Error(t, err)
}

func TestKafkaRecordsHandler(t *testing.T) {
	store := &fakeStorage{}
	m := newFakeMetrics()
	h := NewKafkaRecordsHandler("credit-records", store, m)
	assert.Equal(t, "credit-records", h.Topic())

	b, err := json.Marshal(models.CreditRecord{ID: "r1", Age: 33, LoanTypes: []string{"Auto Loan"}})
	require.NoError(t, err)
	require.NoError(t, h.Handle(context.Background(), b))
	require.Len(t, store.stored, 1)
	assert.Equal(t, 33.0, store.stored[0].Age)
	assert.Equal(t, 1, m.imported[BackendClickHouse])

	assert.True(t, pkgkafka.IsPermanent(h.Handle(context.Background(), []byte("{"))))
	assert.True(t, pkgkafka.IsPermanent(h.Handle(context.Background(), []byte(`{"age":1}`))))
	assert.Equal(t, 1, m.errors["consumer_unmarshal"])
	assert.Equal(t, 1, m.errors["consumer_invalid"])

	store.err = errors.New("insert failed")
	err = h.Handle(context.Background(), b)
	assert.Error(t, err)
	assert.False(t, pkgkafka.IsPermanent(err))
	assert.Equal(t, 1, m.errors["consumer_store"])
}
