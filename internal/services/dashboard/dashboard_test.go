package dashboard

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CreditScore/internal/domain/models"
)

var loanTypes = []string{"Auto Loan", "Not Specified", "Student Loan"}

func rec(id, month string, age float64, occupation, score string, income, debt float64, cards, accounts float64, loans ...string) models.CreditRecord {
	r := models.CreditRecord{
		ID:               id,
		Month:            month,
		Age:              age,
		Occupation:       occupation,
		CreditScore:      score,
		AnnualIncome:     income,
		OutstandingDebt:  debt,
		NumCreditCards:   cards,
		NumBankAccounts:  accounts,
		CreditMix:        "Standard",
		PaidMinimum:      "Yes",
		PaymentBehaviour: "Low_spent_Small_value_payments",
		LoanTypes:        loans,
	}
	if income > 0 {
		r.DebtToIncome = debt / income
	}
	return r
}

func sampleRecords() []models.CreditRecord {
	return []models.CreditRecord{
		rec("1", "January", 22, "Engineer", "Good", 40000, 4000, 2, 1, "Auto Loan"),
		rec("2", "January", 30, "Teacher", "Poor", 20000, 10000, 6, 5, "Student Loan", "Auto Loan"),
		rec("3", "February", 41, "Engineer", "Standard", 60000, 12000, 4, 3),
		rec("4", "February", 58, "Doctor", "Good", 100000, 5000, 3, 2, "Not Specified"),
		rec("5", "March", 70, "Teacher", "Poor", 0, 3000, 8, 7, "Student Loan"),
	}
}

func TestFilter(t *testing.T) {
	rs := sampleRecords()

	tests := []struct {
		name   string
		filter models.DatasetFilter
		ids    []string
	}{
		{"no filter", models.DatasetFilter{}, []string{"1", "2", "3", "4", "5"}},
		{"scores", models.DatasetFilter{CreditScores: []string{"Good", "Standard"}}, []string{"1", "3", "4"}},
		{"comma scores", models.DatasetFilter{CreditScores: []string{"Poor,Standard"}}, []string{"2", "3", "5"}},
		{"age range", models.DatasetFilter{AgeMin: 25, AgeMax: 58}, []string{"2", "3", "4"}},
		{"occupation", models.DatasetFilter{Occupation: "Teacher"}, []string{"2", "5"}},
		{"all occupations", models.DatasetFilter{Occupation: "All"}, []string{"1", "2", "3", "4", "5"}},
		{"months", models.DatasetFilter{Months: []string{"February"}}, []string{"3", "4"}},
		{"combined", models.DatasetFilter{CreditScores: []string{"Good"}, Months: []string{"January"}}, []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(rs, tt.filter)
			ids := make([]string, len(got))
			for i, r := range got {
				ids[i] = r.ID
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestPage(t *testing.T) {
	rs := sampleRecords()

	assert.Len(t, Page(rs, 1, 2), 2)
	assert.Equal(t, "5", Page(rs, 3, 2)[0].ID)
	assert.Empty(t, Page(rs, 4, 2))
	assert.Empty(t, Page(rs, 0, 2))
	assert.Len(t, Page(rs, 1, 100), 5)
	assert.Len(t, Page(rs, 3, 2), 1)
	assert.Empty(t, Page(nil, 1, 2))
}

func TestPage_HugePageDoesNotOverflow(t *testing.T) {
	rs := make([]models.CreditRecord, 10)
	assert.NotPanics(t, func() {
		assert.Empty(t, Page(rs, 1<<62, 4))
		assert.Empty(t, Page(rs, math.MaxInt, 1))
		assert.Empty(t, Page(rs, 2, math.MaxInt))
	})
}

func TestSummarize_Counts(t *testing.T) {
	s := NewSummarizer(loanTypes)
	sum := s.Summarize(sampleRecords(), models.DatasetFilter{})

	assert.Equal(t, 5, sum.TotalRecords)
	assert.Equal(t, 5, sum.FilteredRecords)
	assert.Equal(t, 28, sum.FeatureCount)

	assert.InDelta(t, 44.2, sum.KPIs.MeanAge, 1e-9)
	assert.InDelta(t, 44000, sum.KPIs.MeanIncome, 1e-9)
	// zero income rows are left out of the ratio
	assert.InDelta(t, (0.1+0.5+0.2+0.05)/4, sum.KPIs.MeanDebtToIncome, 1e-9)

	ages := map[string]int{}
	for _, g := range sum.AgeGroups {
		ages[g.Group] = g.Count
	}
	assert.Equal(t, map[string]int{"18-25": 1, "26-35": 1, "36-45": 1, "46-55": 0, "56-65": 1, "65+": 1}, ages)

	assert.Equal(t, []models.GroupCount{
		{Group: "Good", Count: 2},
		{Group: "Poor", Count: 2},
		{Group: "Standard", Count: 1},
	}, sum.ScoreCounts)

	assert.Contains(t, sum.ByOccupation, models.GroupCount{Group: "Teacher", CreditScore: "Poor", Count: 2})
	assert.Contains(t, sum.ByMonth, models.GroupCount{Group: "January", CreditScore: "Good", Count: 1})
}

func TestSummarize_Means(t *testing.T) {
	sum := NewSummarizer(loanTypes).Summarize(sampleRecords(), models.DatasetFilter{})

	var teacher *models.GroupMean
	for i := range sum.CardsByJob {
		if sum.CardsByJob[i].Group == "Teacher" {
			teacher = &sum.CardsByJob[i]
		}
	}
	require.NotNil(t, teacher)
	assert.Equal(t, 2, teacher.Rows)
	assert.InDelta(t, 7, teacher.Means[MeasureCreditCards], 1e-9)

	require.Len(t, sum.AccountsByScore, 3)
	assert.Equal(t, "Good", sum.AccountsByScore[0].Group)
	assert.InDelta(t, 1.5, sum.AccountsByScore[0].Means[MeasureBankAccounts], 1e-9)
}

func TestSummarize_Loans(t *testing.T) {
	sum := NewSummarizer(loanTypes).Summarize(sampleRecords(), models.DatasetFilter{})

	assert.Equal(t, []models.GroupCount{
		{Group: "Auto Loan", Count: 2},
		{Group: "Not Specified", Count: 1},
		{Group: "Student Loan", Count: 2},
	}, sum.LoanTypes)
	assert.Contains(t, sum.LoanTypeByScore, models.GroupCount{Group: "Student Loan", CreditScore: "Poor", Count: 2})
	require.Len(t, sum.AccountsByLoan, 3)
	assert.InDelta(t, 4, sum.AccountsByLoan[0].Means[MeasureCreditCards], 1e-9)
}

func TestSummarize_Distributions(t *testing.T) {
	sum := NewSummarizer(loanTypes).Summarize(sampleRecords(), models.DatasetFilter{})

	boxes := sum.Boxes[MeasureDebtToIncome]
	require.Len(t, boxes, 3)
	good := boxes[0]
	assert.Equal(t, "Good", good.Group)
	assert.Equal(t, 2, good.Count)
	assert.InDelta(t, 0.05, good.Min, 1e-12)
	assert.InDelta(t, 0.075, good.Median, 1e-12)
	assert.InDelta(t, 0.1, good.Max, 1e-12)

	require.Len(t, sum.DebtHistogram, histogramBins)
	total := 0
	for _, b := range sum.DebtHistogram {
		for _, n := range b.Counts {
			total += n
		}
	}
	assert.Equal(t, 5, total)
	assert.Equal(t, 0.0, sum.DebtHistogram[0].Lower)
	assert.InDelta(t, 0.5, sum.DebtHistogram[histogramBins-1].Upper, 1e-12)

	buckets := map[string]int{}
	for _, b := range sum.DebtBuckets {
		buckets[b.Group] = b.Count
	}
	assert.Equal(t, 2, buckets["0-0.1"])
	assert.Equal(t, 1, buckets["0.1-0.2"])
	assert.Equal(t, 0, buckets["0.2-0.3"])
	assert.Equal(t, 1, buckets["0.4-0.5"])
	// a zero ratio falls outside the first right-closed bucket
	total = 0
	for _, n := range buckets {
		total += n
	}
	assert.Equal(t, 4, total)
}

func TestDebtHistogram_SkipsNonFiniteRatios(t *testing.T) {
	rs := sampleRecords()
	rs[0].DebtToIncome = math.Inf(1)
	rs[1].DebtToIncome = math.NaN()

	var bins []models.HistogramBin
	require.NotPanics(t, func() { bins = debtHistogram(rs) })
	require.Len(t, bins, histogramBins)
	total := 0
	for _, b := range bins {
		assert.False(t, math.IsInf(b.Lower, 0) || math.IsInf(b.Upper, 0))
		for _, n := range b.Counts {
			total += n
		}
	}
	assert.Equal(t, 3, total)

	only := []models.CreditRecord{{DebtToIncome: math.Inf(-1), CreditScore: "Poor"}}
	assert.Empty(t, debtHistogram(only))
}

func TestSummarize_Correlations(t *testing.T) {
	sum := NewSummarizer(loanTypes).Summarize(sampleRecords(), models.DatasetFilter{})

	n := len(numericColumns) + len(loanTypes)
	require.Len(t, sum.CorrColumns, n)
	require.Len(t, sum.Correlations, n)

	idx := map[string]int{}
	for i, c := range sum.CorrColumns {
		idx[c] = i
	}
	cards, accounts := idx["Num_Credit_Card"], idx["Num_Bank_Accounts"]
	assert.Equal(t, 1.0, sum.Correlations[cards][accounts], "cards and accounts move together")
	assert.Equal(t, 1.0, sum.Correlations[cards][cards])
	// constant column has no defined correlation
	assert.Equal(t, 0.0, sum.Correlations[idx["Monthly_Balance"]][idx["Age"]])

	for _, p := range sum.StrongPairs {
		assert.Less(t, p.Value, selfCorrelation)
		assert.Greater(t, p.Value*p.Value, strongCorrelation*strongCorrelation)
		assert.NotEqual(t, p.A, p.B)
	}
	for i := 1; i < len(sum.StrongPairs); i++ {
		assert.GreaterOrEqual(t, sum.StrongPairs[i-1].Value, sum.StrongPairs[i].Value)
	}

	_, err := json.Marshal(sum)
	assert.NoError(t, err)
}

func TestSummarize_Empty(t *testing.T) {
	sum := NewSummarizer(loanTypes).Summarize(sampleRecords(), models.DatasetFilter{Occupation: "Pilot"})

	assert.Equal(t, 0, sum.FilteredRecords)
	assert.Equal(t, models.KPIs{}, sum.KPIs)
	assert.Empty(t, sum.DebtHistogram)
	_, err := json.Marshal(sum)
	assert.NoError(t, err)
}
