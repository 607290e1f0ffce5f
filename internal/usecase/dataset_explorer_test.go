package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CreditScore/internal/domain/models"
	"CreditScore/internal/service/cache"
	"CreditScore/internal/services/dashboard"
)

type fakeDataset struct {
	records []models.CreditRecord
	calls   int
	err     error
}

func (d *fakeDataset) Records(context.Context) ([]models.CreditRecord, error) {
	d.calls++
	return d.records, d.err
}

func sampleRecords() []models.CreditRecord {
	return []models.CreditRecord{
		{ID: "1", Month: "January", Age: 25, Occupation: "Engineer", CreditScore: "Good", AnnualIncome: 40000, OutstandingDebt: 400, DebtToIncome: 0.01},
		{ID: "2", Month: "January", Age: 35, Occupation: "Doctor", CreditScore: "Poor", AnnualIncome: 80000, OutstandingDebt: 8000, DebtToIncome: 0.1},
		{ID: "3", Month: "February", Age: 45, Occupation: "Engineer", CreditScore: "Standard", AnnualIncome: 60000, OutstandingDebt: 1200, DebtToIncome: 0.02},
	}
}

var testLoanTypes = []string{"Auto Loan", "Credit-Builder Loan", "Debt Consolidation Loan", "Home Equity Loan", "Mortgage Loan", "Not Specified", "Payday Loan", "Personal Loan", "Student Loan"}

func TestDatasetExplorer_Records(t *testing.T) {
	repo := &fakeDataset{records: sampleRecords()}
	e := NewDatasetExplorer(repo, dashboard.NewSummarizer(testLoanTypes), nil, 0, "csv")

	res, err := e.Records(context.Background(), models.RecordsRequest{
		DatasetFilter: models.DatasetFilter{Occupation: "Engineer"},
		Page:          1,
		Size:          1,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Filtered)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "1", res.Records[0].ID)

	res, err = e.Records(context.Background(), models.RecordsRequest{Page: 5, Size: 10})
	require.NoError(t, err)
	assert.NotNil(t, res.Records)
	assert.Empty(t, res.Records)
}

func TestDatasetExplorer_InvalidFilter(t *testing.T) {
	e := NewDatasetExplorer(&fakeDataset{}, dashboard.NewSummarizer(testLoanTypes), nil, 0, "csv")
	_, err := e.Summary(context.Background(), models.DatasetFilter{AgeMin: 50, AgeMax: 20})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestDatasetExplorer_SummaryCache(t *testing.T) {
	repo := &fakeDataset{records: sampleRecords()}
	e := NewDatasetExplorer(repo, dashboard.NewSummarizer(testLoanTypes), cache.NewTTLCache(), time.Minute, "csv")
	ctx := context.Background()

	f := models.DatasetFilter{CreditScores: []string{"Good", "Poor"}}
	first, err := e.Summary(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 2, first.FilteredRecords)

	// same filter in a different order hits the cache
	second, err := e.Summary(ctx, models.DatasetFilter{CreditScores: []string{"Poor", "Good"}})
	require.NoError(t, err)
	assert.Equal(t, first.FilteredRecords, second.FilteredRecords)
	assert.Equal(t, first.KPIs, second.KPIs)
	assert.Equal(t, 1, repo.calls)

	_, err = e.Summary(ctx, models.DatasetFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestDatasetExplorer_NoCache(t *testing.T) {
	repo := &fakeDataset{records: sampleRecords()}
	e := NewDatasetExplorer(repo, dashboard.NewSummarizer(testLoanTypes), cache.NewTTLCache(), 0, "csv")
	for i := 0; i < 2; i++ {
		_, err := e.Summary(context.Background(), models.DatasetFilter{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, repo.calls)
}

func TestDatasetExplorer_RepositoryError(t *testing.T) {
	boom := errors.New("boom")
	e := NewDatasetExplorer(&fakeDataset{err: boom}, dashboard.NewSummarizer(testLoanTypes), nil, 0, "csv")
	_, err := e.Summary(context.Background(), models.DatasetFilter{})
	assert.ErrorIs(t, err, boom)
	_, err = e.Records(context.Background(), models.RecordsRequest{Page: 1, Size: 10})
	assert.ErrorIs(t, err, boom)
}
