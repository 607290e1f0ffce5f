package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"CreditScore/internal/domain/models"
)

type fakeMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	errors      map[string]int
	imported    map[string]int
	latencies   int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{predictions: map[string]int{}, errors: map[string]int{}, imported: map[string]int{}}
}

func (m *fakeMetrics) RecordPrediction(model, decision string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[model+"/"+decision]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLatency(string, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}

func (m *fakeMetrics) RecordImported(backend string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imported[backend] += n
}

type memSource map[string][]byte

func (m memSource) Open(_ context.Context, name string) ([]byte, error) {
	b, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("artifact %s: not found", name)
	}
	return b, nil
}

func artifactJSON(t *testing.T, name, kind string, in int, params interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]interface{}{
		"name":          name,
		"version":       "test",
		"kind":          kind,
		"n_features_in": in,
		"params":        params,
	})
	require.NoError(t, err)
	return b
}

func zeros(n int) []float64 { return make([]float64, n) }

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

// artifactSet returns a full artifact directory whose classifiers always
// answer with the given intercept sign.
func artifactSet(t *testing.T, supervisedWidth, pseudoWidth int, intercept float64) memSource {
	return memSource{
		"sup_scaler.json":    artifactJSON(t, "sup_scaler", "standard", 23, map[string]interface{}{"mean": zeros(23), "scale": ones(23)}),
		"sup_clf.json":       artifactJSON(t, "sup_clf", "logistic", supervisedWidth, map[string]interface{}{"coef": zeros(supervisedWidth), "intercept": intercept}),
		"pseudo_scaler.json": artifactJSON(t, "pseudo_scaler", "standard", 17, map[string]interface{}{"mean": zeros(17), "scale": ones(17)}),
		"pseudo_pca.json":    artifactJSON(t, "pseudo_pca", "pca", 2, map[string]interface{}{"mean": zeros(2), "components": [][]float64{{1, 0}}}),
		"pseudo_clf.json":    artifactJSON(t, "pseudo_clf", "logistic", pseudoWidth, map[string]interface{}{"coef": zeros(pseudoWidth), "intercept": intercept}),
	}
}

func applicant() models.ApplicantInput {
	return models.ApplicantInput{
		Age:                 30,
		AnnualIncome:        50000,
		MonthlySalary:       4000,
		NumBankAccounts:     2,
		NumCreditCards:      2,
		InterestRate:        10,
		NumLoans:            1,
		DelayFromDueDate:    5,
		NumDelayedPayments:  2,
		ChangedCreditLimit:  10,
		NumCreditInquiries:  1,
		OutstandingDebt:     20000,
		CreditUtilization:   45,
		CreditHistoryMonths: 12,
		PaidMinimum:         "No",
		MonthlyInvestment:   500,
		TotalEMI:            1000,
		MonthlyBalance:      3000,
		Occupation:          "Engineer",
		PaymentBehaviour:    "High_spent_Small_value_payments",
		CreditMix:           "Good",
		LoanTypes:           []string{"Auto Loan"},
	}
}
