package dashboard

import (
	"math"
	"sort"

	"CreditScore/internal/domain/models"
)

// recordAttributes is the number of non-loan columns of a dataset row.
const recordAttributes = 25

const (
	histogramBins     = 30
	strongCorrelation = 0.3
	selfCorrelation   = 0.99
)

var (
	ageBins   = []float64{17, 25, 35, 45, 55, 65, 100}
	ageLabels = []string{"18-25", "26-35", "36-45", "46-55", "56-65", "65+"}

	debtBins   = []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 1, 1.5, 2, 10}
	debtLabels = []string{"0-0.1", "0.1-0.2", "0.2-0.3", "0.3-0.4", "0.4-0.5", "0.5-1.0", "1.0-1.5", "1.5-2.0", "2.0+"}
)

// Measure names used in grouped means and box plots.
const (
	MeasureCreditCards    = "num_credit_cards"
	MeasureBankAccounts   = "num_bank_accounts"
	MeasureDebtToIncome   = "debt_to_income_ratio"
	MeasureDelay          = "delay_from_due_date"
	MeasureMonthlyBalance = "monthly_balance"
)

type column struct {
	name  string
	value func(r *models.CreditRecord) float64
}

var numericColumns = []column{
	{"Age", func(r *models.CreditRecord) float64 { return r.Age }},
	{"Annual_Income", func(r *models.CreditRecord) float64 { return r.AnnualIncome }},
	{"Monthly_Inhand_Salary", func(r *models.CreditRecord) float64 { return r.MonthlySalary }},
	{"Outstanding_Debt", func(r *models.CreditRecord) float64 { return r.OutstandingDebt }},
	{"Num_Credit_Card", func(r *models.CreditRecord) float64 { return r.NumCreditCards }},
	{"Num_Bank_Accounts", func(r *models.CreditRecord) float64 { return r.NumBankAccounts }},
	{"Credit_Utilization_Ratio", func(r *models.CreditRecord) float64 { return r.CreditUtilization }},
	{"Debt_to_Income_Ratio", func(r *models.CreditRecord) float64 { return r.DebtToIncome }},
	{"Delay_from_due_date", func(r *models.CreditRecord) float64 { return r.DelayFromDueDate }},
	{"Num_of_Delayed_Payment", func(r *models.CreditRecord) float64 { return r.NumDelayedPayments }},
	{"Monthly_Balance", func(r *models.CreditRecord) float64 { return r.MonthlyBalance }},
	{"Total_EMI_per_month", func(r *models.CreditRecord) float64 { return r.TotalEMI }},
	{"Total_Monthly_Expenses", func(r *models.CreditRecord) float64 { return r.TotalMonthlyExpenses }},
	{"Credit_History_Age", func(r *models.CreditRecord) float64 { return r.CreditHistoryMonths }},
	{"Num_Credit_Inquiries", func(r *models.CreditRecord) float64 { return r.NumCreditInquiries }},
}

// Summarizer computes the dashboard aggregates over a filtered dataset.
type Summarizer struct {
	loanTypes []string
}

// NewSummarizer takes the loan types in the order charts should list them.
func NewSummarizer(loanTypes []string) *Summarizer {
	return &Summarizer{loanTypes: loanTypes}
}

// FeatureCount is the number of columns of a dataset row.
func (s *Summarizer) FeatureCount() int {
	return recordAttributes + len(s.loanTypes)
}

// Summarize filters all and aggregates the remaining records.
func (s *Summarizer) Summarize(all []models.CreditRecord, f models.DatasetFilter) *models.DatasetSummary {
	rs := Filter(all, f)
	sum := &models.DatasetSummary{
		TotalRecords:    len(all),
		FilteredRecords: len(rs),
		FeatureCount:    s.FeatureCount(),
		KPIs:            kpis(rs),
		AgeGroups:       ageGroups(rs),
		ScoreCounts:     countBy(rs, func(r *models.CreditRecord) string { return r.CreditScore }, false),
		ByCreditMix:     countBy(rs, func(r *models.CreditRecord) string { return r.CreditMix }, true),
		ByOccupation:    countBy(rs, func(r *models.CreditRecord) string { return r.Occupation }, true),
		ByMonth:         countBy(rs, func(r *models.CreditRecord) string { return r.Month }, true),
		ByPayment:       countBy(rs, func(r *models.CreditRecord) string { return r.PaymentBehaviour }, true),
		ByMinPayment:    countBy(rs, func(r *models.CreditRecord) string { return r.PaidMinimum }, true),
		CardsByJob: meanBy(rs, func(r *models.CreditRecord) string { return r.Occupation },
			map[string]func(*models.CreditRecord) float64{
				MeasureCreditCards: func(r *models.CreditRecord) float64 { return r.NumCreditCards },
			}),
		AccountsByScore: meanBy(rs, func(r *models.CreditRecord) string { return r.CreditScore },
			map[string]func(*models.CreditRecord) float64{
				MeasureCreditCards:  func(r *models.CreditRecord) float64 { return r.NumCreditCards },
				MeasureBankAccounts: func(r *models.CreditRecord) float64 { return r.NumBankAccounts },
			}),
		Boxes: map[string][]models.BoxStats{
			MeasureDebtToIncome:   boxesByScore(rs, func(r *models.CreditRecord) float64 { return r.DebtToIncome }),
			MeasureDelay:          boxesByScore(rs, func(r *models.CreditRecord) float64 { return r.DelayFromDueDate }),
			MeasureMonthlyBalance: boxesByScore(rs, func(r *models.CreditRecord) float64 { return r.MonthlyBalance }),
		},
		DebtHistogram: debtHistogram(rs),
		DebtBuckets:   debtBuckets(rs),
	}
	sum.LoanTypes, sum.LoanTypeByScore, sum.AccountsByLoan = s.loanStats(rs)
	sum.CorrColumns, sum.Correlations, sum.StrongPairs = s.correlations(rs)
	return sum
}

func kpis(rs []models.CreditRecord) models.KPIs {
	if len(rs) == 0 {
		return models.KPIs{}
	}
	ages := make([]float64, 0, len(rs))
	incomes := make([]float64, 0, len(rs))
	debts := make([]float64, 0, len(rs))
	ratios := make([]float64, 0, len(rs))
	for i := range rs {
		r := &rs[i]
		ages = append(ages, r.Age)
		incomes = append(incomes, r.AnnualIncome)
		debts = append(debts, r.OutstandingDebt)
		if r.AnnualIncome > 0 {
			ratios = append(ratios, r.OutstandingDebt/r.AnnualIncome)
		}
	}
	return models.KPIs{
		MeanAge:          mean(ages),
		MeanIncome:       mean(incomes),
		MeanDebt:         mean(debts),
		MeanDebtToIncome: mean(ratios),
	}
}

// ageGroups bins ages into right-closed intervals; ages outside (17, 100]
// are not counted.
func ageGroups(rs []models.CreditRecord) []models.GroupCount {
	out := make([]models.GroupCount, len(ageLabels))
	for i, l := range ageLabels {
		out[i].Group = l
	}
	for i := range rs {
		if b := rightClosedBin(ageBins, rs[i].Age); b >= 0 {
			out[b].Count++
		}
	}
	return out
}

func debtBuckets(rs []models.CreditRecord) []models.GroupCount {
	out := make([]models.GroupCount, len(debtLabels))
	for i, l := range debtLabels {
		out[i].Group = l
	}
	for i := range rs {
		if b := rightClosedBin(debtBins, rs[i].DebtToIncome); b >= 0 {
			out[b].Count++
		}
	}
	return out
}

func rightClosedBin(bins []float64, v float64) int {
	for i := 1; i < len(bins); i++ {
		if v > bins[i-1] && v <= bins[i] {
			return i - 1
		}
	}
	return -1
}

func countBy(rs []models.CreditRecord, key func(*models.CreditRecord) string, byScore bool) []models.GroupCount {
	type k struct{ group, score string }
	counts := make(map[k]int)
	for i := range rs {
		kk := k{group: key(&rs[i])}
		if byScore {
			kk.score = rs[i].CreditScore
		}
		counts[kk]++
	}
	out := make([]models.GroupCount, 0, len(counts))
	for kk, n := range counts {
		out = append(out, models.GroupCount{Group: kk.group, CreditScore: kk.score, Count: n})
	}
	sortCounts(out)
	return out
}

func sortCounts(out []models.GroupCount) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].CreditScore < out[j].CreditScore
	})
}

func meanBy(rs []models.CreditRecord, key func(*models.CreditRecord) string, measures map[string]func(*models.CreditRecord) float64) []models.GroupMean {
	groups := make(map[string][]*models.CreditRecord)
	for i := range rs {
		g := key(&rs[i])
		groups[g] = append(groups[g], &rs[i])
	}
	out := make([]models.GroupMean, 0, len(groups))
	for g, members := range groups {
		out = append(out, groupMean(g, members, measures))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

func groupMean(group string, members []*models.CreditRecord, measures map[string]func(*models.CreditRecord) float64) models.GroupMean {
	gm := models.GroupMean{Group: group, Rows: len(members), Means: make(map[string]float64, len(measures))}
	for name, fn := range measures {
		xs := make([]float64, len(members))
		for i, r := range members {
			xs[i] = fn(r)
		}
		gm.Means[name] = mean(xs)
	}
	return gm
}

func boxesByScore(rs []models.CreditRecord, value func(*models.CreditRecord) float64) []models.BoxStats {
	groups := make(map[string][]float64)
	for i := range rs {
		groups[rs[i].CreditScore] = append(groups[rs[i].CreditScore], value(&rs[i]))
	}
	out := make([]models.BoxStats, 0, len(groups))
	for g, xs := range groups {
		out = append(out, boxStats(g, xs))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

// debtHistogram splits the debt-to-income range into equal-width bins; the
// last bin includes its upper edge. Non-finite ratios are not binned.
func debtHistogram(rs []models.CreditRecord) []models.HistogramBin {
	lo, hi := math.Inf(1), math.Inf(-1)
	finite := 0
	for i := range rs {
		v := rs[i].DebtToIncome
		if !isFinite(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		finite++
	}
	if finite == 0 {
		return []models.HistogramBin{}
	}
	e := edges(lo, hi, histogramBins)
	out := make([]models.HistogramBin, histogramBins)
	for i := range out {
		out[i] = models.HistogramBin{Lower: e[i], Upper: e[i+1], Counts: map[string]int{}}
	}
	width := (e[len(e)-1] - e[0]) / histogramBins
	for i := range rs {
		if !isFinite(rs[i].DebtToIncome) {
			continue
		}
		b := int((rs[i].DebtToIncome - e[0]) / width)
		if b >= histogramBins {
			b = histogramBins - 1
		}
		out[b].Counts[rs[i].CreditScore]++
	}
	return out
}

func (s *Summarizer) loanStats(rs []models.CreditRecord) ([]models.GroupCount, []models.GroupCount, []models.GroupMean) {
	totals := make([]models.GroupCount, 0, len(s.loanTypes))
	byScore := make([]models.GroupCount, 0, len(s.loanTypes)*3)
	accounts := make([]models.GroupMean, 0, len(s.loanTypes))
	measures := map[string]func(*models.CreditRecord) float64{
		MeasureCreditCards:  func(r *models.CreditRecord) float64 { return r.NumCreditCards },
		MeasureBankAccounts: func(r *models.CreditRecord) float64 { return r.NumBankAccounts },
	}

	for _, lt := range s.loanTypes {
		var users []*models.CreditRecord
		scores := make(map[string]int)
		for i := range rs {
			if rs[i].HasLoanType(lt) {
				users = append(users, &rs[i])
				scores[rs[i].CreditScore]++
			}
		}
		totals = append(totals, models.GroupCount{Group: lt, Count: len(users)})
		for score, n := range scores {
			byScore = append(byScore, models.GroupCount{Group: lt, CreditScore: score, Count: n})
		}
		if len(users) > 0 {
			accounts = append(accounts, groupMean(lt, users, measures))
		}
	}
	sortCounts(byScore)
	return totals, byScore, accounts
}

func (s *Summarizer) correlations(rs []models.CreditRecord) ([]string, [][]float64, []models.Correlation) {
	cols := make([]column, 0, len(numericColumns)+len(s.loanTypes))
	cols = append(cols, numericColumns...)
	for _, lt := range s.loanTypes {
		cols = append(cols, column{name: lt, value: func(r *models.CreditRecord) float64 {
			if r.HasLoanType(lt) {
				return 1
			}
			return 0
		}})
	}

	names := make([]string, len(cols))
	series := make([][]float64, len(cols))
	for c, col := range cols {
		names[c] = col.name
		series[c] = make([]float64, len(rs))
		for i := range rs {
			series[c][i] = col.value(&rs[i])
		}
	}

	matrix := make([][]float64, len(cols))
	strong := []models.Correlation{}
	for i := range cols {
		matrix[i] = make([]float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			r, ok := pearson(series[i], series[j])
			if !ok {
				continue
			}
			r = round2(r)
			matrix[i][j], matrix[j][i] = r, r
			if i != j && r < selfCorrelation && math.Abs(r) > strongCorrelation {
				strong = append(strong, models.Correlation{A: names[i], B: names[j], Value: r})
			}
		}
	}
	sort.SliceStable(strong, func(a, b int) bool { return strong[a].Value > strong[b].Value })
	return names, matrix, strong
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
