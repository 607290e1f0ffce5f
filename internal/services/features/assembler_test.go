package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CreditScore/internal/domain/models"
)

func sampleApplicant() models.ApplicantInput {
	return models.ApplicantInput{
		Age:                 30,
		AnnualIncome:        50000,
		MonthlySalary:       4000,
		NumBankAccounts:     2,
		NumCreditCards:      2,
		InterestRate:        10.0,
		NumLoans:            1,
		DelayFromDueDate:    5,
		NumDelayedPayments:  2,
		ChangedCreditLimit:  10.0,
		NumCreditInquiries:  1,
		OutstandingDebt:     20000,
		CreditUtilization:   45.0,
		CreditHistoryMonths: 12,
		PaidMinimum:         "No",
		MonthlyInvestment:   500,
		TotalEMI:            1000,
		MonthlyBalance:      3000,
		Occupation:          "Engineer",
		PaymentBehaviour:    "High_spent_Small_value_payments",
		CreditMix:           "Good",
		LoanTypes:           []string{"Auto Loan", "Student Loan"},
	}
}

func newTestAssembler(t *testing.T) *Assembler {
	t.Helper()
	cat, err := DefaultCatalog()
	require.NoError(t, err)
	return NewAssembler(cat)
}

func TestEngineer_ConcreteCase(t *testing.T) {
	e := Engineer(sampleApplicant())

	assert.Equal(t, 4.0, e.TotalAccounts)
	assert.Equal(t, 5000.0, e.DebtPerAccount)
	assert.Equal(t, 0.4, e.DebtToIncome)
	assert.Equal(t, 0.5, e.DelayedPaymentsPerAccount)
	assert.Equal(t, 1500.0, e.TotalMonthlyExpenses)
}

func TestEngineer_ZeroDenominators(t *testing.T) {
	in := sampleApplicant()
	in.NumBankAccounts = 0
	in.NumCreditCards = 0
	in.AnnualIncome = 0

	e := Engineer(in)
	for name, v := range map[string]float64{
		"debt_per_account":    e.DebtPerAccount,
		"debt_to_income":      e.DebtToIncome,
		"delayed_per_account": e.DelayedPaymentsPerAccount,
	} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s not finite", name)
		assert.Equal(t, 0.0, v, name)
	}
	assert.Equal(t, 0.0, e.TotalAccounts)
}

func TestSupervised_Widths(t *testing.T) {
	a := newTestAssembler(t)

	cases := map[string][]string{
		"two loans":  {"Auto Loan", "Student Loan"},
		"no loans":   {},
		"all loans":  a.Catalog().LoanTypes,
		"nil loans":  nil,
		"duplicated": {"Payday Loan", "Payday Loan"},
	}
	for name, loans := range cases {
		t.Run(name, func(t *testing.T) {
			in := sampleApplicant()
			in.LoanTypes = loans
			rec, err := a.Supervised(in)
			require.NoError(t, err)
			assert.Len(t, rec.Numeric(), SupervisedNumericWidth)
			assert.Len(t, rec.Categorical(), SupervisedCategoricalWidth)
		})
	}
	assert.Equal(t, 23, SupervisedNumericWidth)
	assert.Equal(t, 12, SupervisedCategoricalWidth)
	assert.Equal(t, 35, SupervisedComposedWidth)
}

func TestSupervised_ColumnOrder(t *testing.T) {
	a := newTestAssembler(t)
	rec, err := a.Supervised(sampleApplicant())
	require.NoError(t, err)

	num := rec.Numeric()
	assert.Equal(t, 30.0, num[0])
	assert.Equal(t, 1.0, num[LoanCountIndex])
	assert.Equal(t, 1000.0, num[EMIIndex])
	assert.Equal(t, 3000.0, num[16])
	assert.Equal(t, []float64{4, 5000, 0.4, 0.5, 1500}, num[17:22])
	assert.Equal(t, 0.0, num[22], "min payment No")

	cat := rec.Categorical()
	assert.Equal(t, []float64{1, 0, 0, 0, 0, 0, 0, 0, 1}, cat[:LoanTypeCount])
	assert.Equal(t, []float64{4, 3, 2}, cat[LoanTypeCount:])

	cols := SupervisedNumericColumns()
	assert.Equal(t, "Total_EMI_per_month", cols[EMIIndex])
	assert.Equal(t, "Num_of_Loan", cols[LoanCountIndex])
	assert.Equal(t, "Payment_of_Min_Amount", cols[len(cols)-1])
	assert.Len(t, a.SupervisedCategoricalColumns(), SupervisedCategoricalWidth)
}

func TestPseudoLabel_Widths(t *testing.T) {
	a := newTestAssembler(t)
	in := sampleApplicant()
	in.PaidMinimum = "Yes"

	rec, err := a.PseudoLabel(in)
	require.NoError(t, err)

	assert.Len(t, rec.Numeric(), PseudoLabelNumericWidth)
	cat := rec.Categorical()
	require.Len(t, cat, PseudoLabelCategoricalWidth)
	assert.Equal(t, []float64{4, 3, 2}, cat[:3])
	assert.Equal(t, 1.0, cat[3], "Auto Loan flag")
	assert.Equal(t, 1.0, cat[len(cat)-1], "min payment Yes")
	assert.Equal(t, 29, PseudoLabelComposedWidth)
	assert.Len(t, a.PseudoLabelCategoricalColumns(), PseudoLabelCategoricalWidth)
}

func TestAssembler_UnknownCategory(t *testing.T) {
	a := newTestAssembler(t)

	in := sampleApplicant()
	in.Occupation = "Astronaut"
	_, err := a.Supervised(in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCategory))

	var ue *UnknownCategoryError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, DimOccupation, ue.Dimension)
	assert.Equal(t, "Astronaut", ue.Label)

	in = sampleApplicant()
	in.LoanTypes = []string{"Boat Loan"}
	_, err = a.PseudoLabel(in)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestAssembler_Idempotent(t *testing.T) {
	a := newTestAssembler(t)
	in := sampleApplicant()

	first, err := a.Supervised(in)
	require.NoError(t, err)
	second, err := a.Supervised(in)
	require.NoError(t, err)
	assert.Equal(t, first.Numeric(), second.Numeric())
	assert.Equal(t, first.Categorical(), second.Categorical())
}

func TestAssembler_Explain(t *testing.T) {
	a := newTestAssembler(t)

	exp, err := a.Explain(models.VariantPseudoLabel, sampleApplicant())
	require.NoError(t, err)
	assert.Equal(t, PseudoLabelComposedWidth, exp.ComposedWidth)
	assert.Len(t, exp.Numeric, PseudoLabelNumericWidth)
	assert.Len(t, exp.Categorical, PseudoLabelCategoricalWidth)
	assert.Equal(t, PseudoLabelNumericWidth, exp.Categorical[0].Index)
	assert.Equal(t, "Occupation_label", exp.Categorical[0].Name)

	_, err = a.Explain(models.ModelVariant("bogus"), sampleApplicant())
	assert.Error(t, err)
}
