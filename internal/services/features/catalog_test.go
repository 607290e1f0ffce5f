package features

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err)

	assert.NotEmpty(t, cat.Version)
	assert.Len(t, cat.LoanTypes, LoanTypeCount)

	tests := []struct {
		dim   string
		label string
		code  int
	}{
		{DimOccupation, "Accountant", 0},
		{DimOccupation, "Engineer", 4},
		{DimOccupation, "Other", 15},
		{DimPaymentBehaviour, "Low_spent_Small_value_payments", 0},
		{DimPaymentBehaviour, "High_spent_Large_value_payments", 5},
		{DimCreditMix, "Bad", 0},
		{DimCreditMix, "Good", 2},
		{DimMinPayment, "No", 0},
		{DimMinPayment, "Yes", 1},
		{DimLoanType, "Auto Loan", 0},
		{DimLoanType, "Not Specified", 5},
		{DimLoanType, "Student Loan", 8},
	}
	for _, tt := range tests {
		got, err := cat.Code(tt.dim, tt.label)
		require.NoError(t, err, "%s/%s", tt.dim, tt.label)
		assert.Equal(t, tt.code, got, "%s/%s", tt.dim, tt.label)
	}

	_, err = cat.Code("planet", "Mars")
	assert.Error(t, err)
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing version": `
occupations: [{label: A, code: 0}]
payment_behaviours: [{label: P, code: 0}]
credit_mixes: [{label: Bad, code: 0}]
min_payment: [{label: No, code: 0}]
loan_types: [a, b, c, d, e, f, g, h, i]
`,
		"sparse codes": `
version: v1
occupations: [{label: A, code: 0}, {label: B, code: 2}]
payment_behaviours: [{label: P, code: 0}]
credit_mixes: [{label: Bad, code: 0}]
min_payment: [{label: No, code: 0}]
loan_types: [a, b, c, d, e, f, g, h, i]
`,
		"duplicate label": `
version: v1
occupations: [{label: A, code: 0}, {label: A, code: 1}]
payment_behaviours: [{label: P, code: 0}]
credit_mixes: [{label: Bad, code: 0}]
min_payment: [{label: No, code: 0}]
loan_types: [a, b, c, d, e, f, g, h, i]
`,
		"short loan list": `
version: v1
occupations: [{label: A, code: 0}]
payment_behaviours: [{label: P, code: 0}]
credit_mixes: [{label: Bad, code: 0}]
min_payment: [{label: No, code: 0}]
loan_types: [a, b]
`,
		"not yaml": "version: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog_File(t *testing.T) {
	doc := `
version: test-1
occupations: [{label: A, code: 1}, {label: B, code: 0}]
payment_behaviours: [{label: P, code: 0}]
credit_mixes: [{label: Bad, code: 0}]
min_payment: [{label: "No", code: 0}, {label: "Yes", code: 1}]
loan_types: [a, b, c, d, e, f, g, h, i]
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "test-1", cat.Version)
	code, err := cat.Code(DimOccupation, "A")
	require.NoError(t, err)
	assert.Equal(t, 1, code)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	def, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Len(t, def.Occupations, 16)
}

func TestCheckCardinality(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err)

	assert.NoError(t, cat.CheckCardinality(nil))
	assert.NoError(t, cat.CheckCardinality(map[string]int{DimOccupation: 16, DimLoanType: 9}))
	assert.Error(t, cat.CheckCardinality(map[string]int{DimCreditMix: 4}))
	assert.Error(t, cat.CheckCardinality(map[string]int{"region": 3}))
}
