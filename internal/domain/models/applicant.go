package models

// ApplicantInput is the raw form an applicant fills in before scoring.
// Ranges mirror what the collecting surface accepts; the inference core
// assumes they already hold.
type ApplicantInput struct {
	Age                 int      `json:"age" validate:"gte=18,lte=85"`
	AnnualIncome        float64  `json:"annual_income" validate:"gte=0"`
	MonthlySalary       float64  `json:"monthly_salary" validate:"gte=0"`
	NumBankAccounts     int      `json:"num_bank_accounts" validate:"gte=0,lte=10"`
	NumCreditCards      int      `json:"num_credit_cards" validate:"gte=0,lte=10"`
	InterestRate        float64  `json:"interest_rate" validate:"gte=0,lte=50"`
	NumLoans            int      `json:"num_loans" validate:"gte=0,lte=10"`
	DelayFromDueDate    int      `json:"delay_from_due_date" validate:"gte=0,lte=60"`
	NumDelayedPayments  int      `json:"num_delayed_payments" validate:"gte=0,lte=20"`
	ChangedCreditLimit  float64  `json:"changed_credit_limit" validate:"gte=-100,lte=100"`
	NumCreditInquiries  int      `json:"num_credit_inquiries" validate:"gte=0,lte=20"`
	OutstandingDebt     float64  `json:"outstanding_debt" validate:"gte=0"`
	CreditUtilization   float64  `json:"credit_utilization_ratio" validate:"gte=0,lte=100"`
	CreditHistoryMonths int      `json:"credit_history_months" validate:"gte=0,lte=500"`
	PaidMinimum         string   `json:"payment_of_min_amount" validate:"required,oneof=Yes No"`
	MonthlyInvestment   float64  `json:"monthly_investment" validate:"gte=0"`
	TotalEMI            float64  `json:"total_emi" validate:"gte=0"`
	MonthlyBalance      float64  `json:"monthly_balance" validate:"gte=0"`
	Occupation          string   `json:"occupation" validate:"required"`
	PaymentBehaviour    string   `json:"payment_behaviour" validate:"required"`
	CreditMix           string   `json:"credit_mix" validate:"required"`
	LoanTypes           []string `json:"loan_types" default:"[\"Not Specified\"]" validate:"dive,required"`
}
