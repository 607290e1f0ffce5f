package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CreditScore/internal/domain/models"
)

var loanTypes = []string{"Auto Loan", "Credit-Builder Loan", "Personal Loan", "Home Equity Loan", "Not Specified", "Mortgage Loan", "Student Loan", "Debt Consolidation Loan", "Payday Loan"}

const flagCSV = `ID,Month,Age,Occupation,Annual_Income,Outstanding_Debt,Total_EMI_per_month,Amount_invested_monthly,Payment_of_Min_Amount,Credit_Score,Auto Loan,Student Loan,Extra
a1,January,30,Engineer,50000,1000,100,50,Yes,Good,1,0,x
a2,February,41,Doctor,0,500,0,0,NM,Poor,0,1.0,y
`

func TestReadRecordsWithLoanFlags(t *testing.T) {
	recs, err := ReadRecords(context.Background(), strings.NewReader(flagCSV), loanTypes)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	a := recs[0]
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, "January", a.Month)
	assert.Equal(t, 30.0, a.Age)
	assert.Equal(t, "Yes", a.PaidMinimum)
	assert.Equal(t, []string{"Auto Loan"}, a.LoanTypes)
	assert.InDelta(t, 0.02, a.DebtToIncome, 1e-12)
	assert.Equal(t, 150.0, a.TotalMonthlyExpenses)

	b := recs[1]
	assert.Equal(t, []string{"Student Loan"}, b.LoanTypes)
	assert.Equal(t, 0.0, b.DebtToIncome, "zero income leaves the ratio at 0")
	assert.Equal(t, "NM", b.PaidMinimum)
}

func TestReadRecordsTypeOfLoanColumn(t *testing.T) {
	in := "Age,Type_of_Loan,Payment_of_Min_Amount,Debt_to_Income_Ratio\n" +
		"25,\"Auto Loan, Payday Loan, and Student Loan\",No,0.3\n" +
		"26,,1,0.1\n"
	recs, err := ReadRecords(context.Background(), strings.NewReader(in), loanTypes)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"Auto Loan", "Payday Loan", "Student Loan"}, recs[0].LoanTypes)
	assert.Equal(t, 0.3, recs[0].DebtToIncome, "ratio present in the file is kept")
	assert.Equal(t, "No", recs[0].PaidMinimum)
	assert.Empty(t, recs[1].LoanTypes)
	assert.Equal(t, "Yes", recs[1].PaidMinimum)
	assert.NotEmpty(t, recs[0].ID, "missing IDs are generated")
	assert.NotEqual(t, recs[0].ID, recs[1].ID)
}

func TestReadRecordsGeneratedIDsAreStable(t *testing.T) {
	in := "Age,Credit_Score\n25,Good\n26,Poor\n"
	first, err := ReadRecords(context.Background(), strings.NewReader(in), loanTypes)
	require.NoError(t, err)
	second, err := ReadRecords(context.Background(), strings.NewReader(in), loanTypes)
	require.NoError(t, err)

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
	assert.NotEqual(t, first[0].ID, first[1].ID)
}

func TestReadRecordsErrors(t *testing.T) {
	_, err := ReadRecords(context.Background(), strings.NewReader(""), loanTypes)
	assert.Error(t, err)

	_, err = ReadRecords(context.Background(), strings.NewReader("Age\nabc\n"), loanTypes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseNumber(t *testing.T) {
	for in, want := range map[string]float64{"": 0, "NaN": 0, " 12.5 ": 12.5, "3_": 3, "-7": -7} {
		got, err := parseNumber(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseNumberRejectsInfinity(t *testing.T) {
	for _, in := range []string{"inf", "-Inf", "+infinity", "1e400"} {
		_, err := parseNumber(in)
		assert.Error(t, err, in)
	}
}

func TestCSVDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(flagCSV), 0o644))

	recs, err := NewCSVDataset(path, loanTypes).Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = NewCSVDataset(filepath.Join(t.TempDir(), "none.csv"), loanTypes).Records(context.Background())
	assert.Error(t, err)
}

func TestRecordColumnsMatchArgs(t *testing.T) {
	var r models.CreditRecord
	assert.Len(t, recordArgs(&r), len(recordColumns))
	assert.Len(t, recordDest(&r), len(recordColumns))
	stmts := RecordsSchema("creditscore", "credit_records")
	require.Len(t, stmts, 2)
	for _, c := range recordColumns {
		assert.Contains(t, stmts[1], c+" ")
	}
}
