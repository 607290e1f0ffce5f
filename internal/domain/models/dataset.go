package models

// CreditRecord is one row of the credit score dataset.
type CreditRecord struct {
	ID                   string   `json:"id"`
	Month                string   `json:"month"`
	Age                  float64  `json:"age"`
	Occupation           string   `json:"occupation"`
	AnnualIncome         float64  `json:"annual_income"`
	MonthlySalary        float64  `json:"monthly_salary"`
	NumBankAccounts      float64  `json:"num_bank_accounts"`
	NumCreditCards       float64  `json:"num_credit_cards"`
	InterestRate         float64  `json:"interest_rate"`
	NumLoans             float64  `json:"num_loans"`
	DelayFromDueDate     float64  `json:"delay_from_due_date"`
	NumDelayedPayments   float64  `json:"num_delayed_payments"`
	ChangedCreditLimit   float64  `json:"changed_credit_limit"`
	NumCreditInquiries   float64  `json:"num_credit_inquiries"`
	CreditMix            string   `json:"credit_mix"`
	OutstandingDebt      float64  `json:"outstanding_debt"`
	CreditUtilization    float64  `json:"credit_utilization_ratio"`
	CreditHistoryMonths  float64  `json:"credit_history_months"`
	PaidMinimum          string   `json:"payment_of_min_amount"` // Yes | No | NM
	TotalEMI             float64  `json:"total_emi"`
	MonthlyInvestment    float64  `json:"monthly_investment"`
	PaymentBehaviour     string   `json:"payment_behaviour"`
	MonthlyBalance       float64  `json:"monthly_balance"`
	CreditScore          string   `json:"credit_score"` // Good | Standard | Poor
	DebtToIncome         float64  `json:"debt_to_income_ratio"`
	TotalMonthlyExpenses float64  `json:"total_monthly_expenses"`
	LoanTypes            []string `json:"loan_types"`
}

// HasLoanType reports whether the record carries the given loan flag.
func (r CreditRecord) HasLoanType(loanType string) bool {
	for _, lt := range r.LoanTypes {
		if lt == loanType {
			return true
		}
	}
	return false
}

// DatasetFilter mirrors the dashboard sidebar filters.
type DatasetFilter struct {
	CreditScores []string `query:"credit_score" json:"credit_scores"`
	AgeMin       int      `query:"age_min" json:"age_min" validate:"gte=0,lte=120"`
	AgeMax       int      `query:"age_max" json:"age_max" validate:"gte=0,lte=120"`
	Occupation   string   `query:"occupation" json:"occupation"`
	Months       []string `query:"month" json:"months"`
}

// RecordsRequest is the query of the paginated records listing.
type RecordsRequest struct {
	DatasetFilter
	Page int `query:"page" json:"page" default:"1" validate:"gte=1,lte=1000000"`
	Size int `query:"size" json:"size" default:"50" validate:"gte=1,lte=1000"`
}

// GroupCount is a grouped row count, e.g. (Credit_Mix=Good, Credit_Score=Poor).
type GroupCount struct {
	Group       string `json:"group"`
	CreditScore string `json:"credit_score,omitempty"`
	Count       int    `json:"count"`
}

// GroupMean is a grouped average of one or more measures.
type GroupMean struct {
	Group string             `json:"group"`
	Means map[string]float64 `json:"means"`
	Rows  int                `json:"rows"`
}

// BoxStats summarises a distribution for box plots.
type BoxStats struct {
	Group  string  `json:"group"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// HistogramBin is one bin of a per-score histogram.
type HistogramBin struct {
	Lower  float64        `json:"lower"`
	Upper  float64        `json:"upper"`
	Counts map[string]int `json:"counts"`
}

// Correlation is one pair of the correlation matrix.
type Correlation struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Value float64 `json:"value"`
}

// KPIs are the headline metrics of the customer profile section.
type KPIs struct {
	MeanAge          float64 `json:"mean_age"`
	MeanIncome       float64 `json:"mean_income"`
	MeanDebt         float64 `json:"mean_debt"`
	MeanDebtToIncome float64 `json:"mean_debt_to_income"`
}

// DatasetSummary carries every aggregate the dashboard charts consume.
type DatasetSummary struct {
	TotalRecords    int                   `json:"total_records"`
	FilteredRecords int                   `json:"filtered_records"`
	FeatureCount    int                   `json:"feature_count"`
	KPIs            KPIs                  `json:"kpis"`
	AgeGroups       []GroupCount          `json:"age_groups"`
	ScoreCounts     []GroupCount          `json:"score_counts"`
	ByCreditMix     []GroupCount          `json:"by_credit_mix"`
	ByOccupation    []GroupCount          `json:"by_occupation"`
	ByMonth         []GroupCount          `json:"by_month"`
	ByPayment       []GroupCount          `json:"by_payment_behaviour"`
	ByMinPayment    []GroupCount          `json:"by_min_payment"`
	CardsByJob      []GroupMean           `json:"cards_by_occupation"`
	AccountsByScore []GroupMean           `json:"accounts_by_score"`
	LoanTypes       []GroupCount          `json:"loan_types"`
	LoanTypeByScore []GroupCount          `json:"loan_type_by_score"`
	AccountsByLoan  []GroupMean           `json:"accounts_by_loan_type"`
	Boxes           map[string][]BoxStats `json:"boxes"`
	DebtHistogram   []HistogramBin        `json:"debt_to_income_histogram"`
	DebtBuckets     []GroupCount          `json:"debt_to_income_buckets"`
	Correlations    [][]float64           `json:"correlations"`
	CorrColumns     []string              `json:"correlation_columns"`
	StrongPairs     []Correlation         `json:"strong_correlations"`
}
