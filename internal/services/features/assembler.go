package features

import (
	"fmt"

	"CreditScore/internal/domain/models"
)

// Vector widths each trained artifact was fit on.
const (
	RawNumericCount = 17
	EngineeredCount = 5
	LoanTypeCount   = 9

	SupervisedNumericWidth     = RawNumericCount + EngineeredCount + 1
	SupervisedCategoricalWidth = LoanTypeCount + 3
	SupervisedComposedWidth    = SupervisedNumericWidth + SupervisedCategoricalWidth

	PseudoLabelNumericWidth     = RawNumericCount
	PseudoLabelCategoricalWidth = 3 + LoanTypeCount + 1
	PseudoLabelTrimmedWidth     = PseudoLabelNumericWidth - 2
	PseudoLabelComposedWidth    = PseudoLabelTrimmedWidth + PseudoLabelCategoricalWidth + 1
)

// Positions of the columns the pseudo-label projector consumes.
const (
	LoanCountIndex = 6
	EMIIndex       = 14
)

var rawNumericColumns = [RawNumericCount]string{
	"Age",
	"Annual_Income",
	"Monthly_Inhand_Salary",
	"Num_Bank_Accounts",
	"Num_Credit_Card",
	"Interest_Rate",
	"Num_of_Loan",
	"Delay_from_due_date",
	"Num_of_Delayed_Payment",
	"Changed_Credit_Limit",
	"Num_Credit_Inquiries",
	"Outstanding_Debt",
	"Credit_Utilization_Ratio",
	"Credit_History_Age",
	"Total_EMI_per_month",
	"Amount_invested_monthly",
	"Monthly_Balance",
}

var engineeredColumns = [EngineeredCount]string{
	"Total_Accounts",
	"Debt_Per_Account",
	"Debt_to_Income_Ratio",
	"Delayed_Payments_Per_Account",
	"Total_Monthly_Expenses",
}

const (
	colMinPayment = "Payment_of_Min_Amount"
	colOccupation = "Occupation_label"
	colPayment    = "Payment_Behaviour_Mapped"
	colCreditMix  = "Credit_Mix_Mapped"
)

// RawNumeric holds the 17 untransformed numeric fields.
type RawNumeric struct {
	Age                 float64
	AnnualIncome        float64
	MonthlySalary       float64
	NumBankAccounts     float64
	NumCreditCards      float64
	InterestRate        float64
	NumLoans            float64
	DelayFromDueDate    float64
	NumDelayedPayments  float64
	ChangedCreditLimit  float64
	NumCreditInquiries  float64
	OutstandingDebt     float64
	CreditUtilization   float64
	CreditHistoryMonths float64
	TotalEMI            float64
	MonthlyInvestment   float64
	MonthlyBalance      float64
}

// Values returns the fields in training column order.
func (r RawNumeric) Values() []float64 {
	return []float64{
		r.Age, r.AnnualIncome, r.MonthlySalary, r.NumBankAccounts, r.NumCreditCards,
		r.InterestRate, r.NumLoans, r.DelayFromDueDate, r.NumDelayedPayments,
		r.ChangedCreditLimit, r.NumCreditInquiries, r.OutstandingDebt,
		r.CreditUtilization, r.CreditHistoryMonths, r.TotalEMI,
		r.MonthlyInvestment, r.MonthlyBalance,
	}
}

// Engineered holds the ratios derived for the supervised model.
type Engineered struct {
	TotalAccounts             float64
	DebtPerAccount            float64
	DebtToIncome              float64
	DelayedPaymentsPerAccount float64
	TotalMonthlyExpenses      float64
}

// Values returns the engineered ratios in training column order.
func (e Engineered) Values() []float64 {
	return []float64{
		e.TotalAccounts, e.DebtPerAccount, e.DebtToIncome,
		e.DelayedPaymentsPerAccount, e.TotalMonthlyExpenses,
	}
}

// Codes are the label-encoded categorical selections.
type Codes struct {
	Occupation       float64
	PaymentBehaviour float64
	CreditMix        float64
	PaidMinimum      float64
}

// SupervisedRecord is the assembled input of the stacked supervised model.
type SupervisedRecord struct {
	Raw        RawNumeric
	Engineered Engineered
	Codes      Codes
	LoanFlags  []float64
}

// Numeric returns 17 raw + 5 engineered + min-payment flag.
func (r SupervisedRecord) Numeric() []float64 {
	out := make([]float64, 0, SupervisedNumericWidth)
	out = append(out, r.Raw.Values()...)
	out = append(out, r.Engineered.Values()...)
	return append(out, r.Codes.PaidMinimum)
}

// Categorical returns the loan one-hot block followed by the three codes.
func (r SupervisedRecord) Categorical() []float64 {
	out := make([]float64, 0, SupervisedCategoricalWidth)
	out = append(out, r.LoanFlags...)
	return append(out, r.Codes.Occupation, r.Codes.PaymentBehaviour, r.Codes.CreditMix)
}

// PseudoLabelRecord is the assembled input of the pseudo-label model.
type PseudoLabelRecord struct {
	Raw       RawNumeric
	Codes     Codes
	LoanFlags []float64
}

// Numeric returns the 17 raw numeric fields.
func (r PseudoLabelRecord) Numeric() []float64 {
	return r.Raw.Values()
}

// Categorical returns the three codes, the loan block, then the min-payment flag.
func (r PseudoLabelRecord) Categorical() []float64 {
	out := make([]float64, 0, PseudoLabelCategoricalWidth)
	out = append(out, r.Codes.Occupation, r.Codes.PaymentBehaviour, r.Codes.CreditMix)
	out = append(out, r.LoanFlags...)
	return append(out, r.Codes.PaidMinimum)
}

// Assembler turns applicant input into model-ordered vectors.
type Assembler struct {
	catalog *Catalog
}

func NewAssembler(catalog *Catalog) *Assembler {
	return &Assembler{catalog: catalog}
}

// Catalog returns the lookup table the assembler encodes with.
func (a *Assembler) Catalog() *Catalog { return a.catalog }

// Supervised assembles the stacked model's record.
func (a *Assembler) Supervised(in models.ApplicantInput) (SupervisedRecord, error) {
	codes, err := a.encode(in)
	if err != nil {
		return SupervisedRecord{}, err
	}
	flags, err := a.LoanFlags(in.LoanTypes)
	if err != nil {
		return SupervisedRecord{}, err
	}
	return SupervisedRecord{
		Raw:        rawNumeric(in),
		Engineered: Engineer(in),
		Codes:      codes,
		LoanFlags:  flags,
	}, nil
}

// PseudoLabel assembles the pseudo-label model's record.
func (a *Assembler) PseudoLabel(in models.ApplicantInput) (PseudoLabelRecord, error) {
	codes, err := a.encode(in)
	if err != nil {
		return PseudoLabelRecord{}, err
	}
	flags, err := a.LoanFlags(in.LoanTypes)
	if err != nil {
		return PseudoLabelRecord{}, err
	}
	return PseudoLabelRecord{Raw: rawNumeric(in), Codes: codes, LoanFlags: flags}, nil
}

// LoanFlags one-hot encodes the selected loan types in catalog order.
func (a *Assembler) LoanFlags(selected []string) ([]float64, error) {
	flags := make([]float64, len(a.catalog.LoanTypes))
	for _, s := range selected {
		i, err := a.catalog.Code(DimLoanType, s)
		if err != nil {
			return nil, err
		}
		flags[i] = 1
	}
	return flags, nil
}

func (a *Assembler) encode(in models.ApplicantInput) (Codes, error) {
	var (
		c   Codes
		err error
		v   int
	)
	if v, err = a.catalog.Code(DimOccupation, in.Occupation); err != nil {
		return c, err
	}
	c.Occupation = float64(v)
	if v, err = a.catalog.Code(DimPaymentBehaviour, in.PaymentBehaviour); err != nil {
		return c, err
	}
	c.PaymentBehaviour = float64(v)
	if v, err = a.catalog.Code(DimCreditMix, in.CreditMix); err != nil {
		return c, err
	}
	c.CreditMix = float64(v)
	if v, err = a.catalog.Code(DimMinPayment, in.PaidMinimum); err != nil {
		return c, err
	}
	c.PaidMinimum = float64(v)
	return c, nil
}

// Engineer derives the supervised ratios; zero denominators yield 0.
func Engineer(in models.ApplicantInput) Engineered {
	totalAccounts := float64(in.NumBankAccounts + in.NumCreditCards)
	return Engineered{
		TotalAccounts:             totalAccounts,
		DebtPerAccount:            safeDiv(in.OutstandingDebt, totalAccounts),
		DebtToIncome:              safeDiv(in.OutstandingDebt, in.AnnualIncome),
		DelayedPaymentsPerAccount: safeDiv(float64(in.NumDelayedPayments), totalAccounts),
		TotalMonthlyExpenses:      in.MonthlyInvestment + in.TotalEMI,
	}
}

func safeDiv(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

func rawNumeric(in models.ApplicantInput) RawNumeric {
	return RawNumeric{
		Age:                 float64(in.Age),
		AnnualIncome:        in.AnnualIncome,
		MonthlySalary:       in.MonthlySalary,
		NumBankAccounts:     float64(in.NumBankAccounts),
		NumCreditCards:      float64(in.NumCreditCards),
		InterestRate:        in.InterestRate,
		NumLoans:            float64(in.NumLoans),
		DelayFromDueDate:    float64(in.DelayFromDueDate),
		NumDelayedPayments:  float64(in.NumDelayedPayments),
		ChangedCreditLimit:  in.ChangedCreditLimit,
		NumCreditInquiries:  float64(in.NumCreditInquiries),
		OutstandingDebt:     in.OutstandingDebt,
		CreditUtilization:   in.CreditUtilization,
		CreditHistoryMonths: float64(in.CreditHistoryMonths),
		TotalEMI:            in.TotalEMI,
		MonthlyInvestment:   in.MonthlyInvestment,
		MonthlyBalance:      in.MonthlyBalance,
	}
}

// SupervisedNumericColumns names the supervised numeric block.
func SupervisedNumericColumns() []string {
	out := make([]string, 0, SupervisedNumericWidth)
	out = append(out, rawNumericColumns[:]...)
	out = append(out, engineeredColumns[:]...)
	return append(out, colMinPayment)
}

// SupervisedCategoricalColumns names the supervised categorical block.
func (a *Assembler) SupervisedCategoricalColumns() []string {
	out := make([]string, 0, SupervisedCategoricalWidth)
	out = append(out, a.catalog.LoanTypes...)
	return append(out, colOccupation, colPayment, colCreditMix)
}

// PseudoLabelNumericColumns names the pseudo-label numeric block.
func PseudoLabelNumericColumns() []string {
	return append([]string(nil), rawNumericColumns[:]...)
}

// PseudoLabelCategoricalColumns names the pseudo-label categorical block.
func (a *Assembler) PseudoLabelCategoricalColumns() []string {
	out := make([]string, 0, PseudoLabelCategoricalWidth)
	out = append(out, colOccupation, colPayment, colCreditMix)
	out = append(out, a.catalog.LoanTypes...)
	return append(out, colMinPayment)
}

// Explain labels the assembled blocks of a variant with their column names.
func (a *Assembler) Explain(variant models.ModelVariant, in models.ApplicantInput) (models.FeatureExplanation, error) {
	exp := models.FeatureExplanation{Model: variant, CatalogVersion: a.catalog.Version}
	var numeric, categorical []float64
	var numCols, catCols []string
	switch variant {
	case models.VariantSupervised:
		rec, err := a.Supervised(in)
		if err != nil {
			return exp, err
		}
		numeric, categorical = rec.Numeric(), rec.Categorical()
		numCols, catCols = SupervisedNumericColumns(), a.SupervisedCategoricalColumns()
		exp.ComposedWidth = SupervisedComposedWidth
	case models.VariantPseudoLabel:
		rec, err := a.PseudoLabel(in)
		if err != nil {
			return exp, err
		}
		numeric, categorical = rec.Numeric(), rec.Categorical()
		numCols, catCols = PseudoLabelNumericColumns(), a.PseudoLabelCategoricalColumns()
		exp.ComposedWidth = PseudoLabelComposedWidth
	default:
		return exp, fmt.Errorf("unknown model variant %q", variant)
	}
	exp.Numeric = label(numCols, numeric, "numeric", 0)
	exp.Categorical = label(catCols, categorical, "categorical", len(numeric))
	return exp, nil
}

func label(names []string, values []float64, block string, offset int) []models.FeatureColumn {
	out := make([]models.FeatureColumn, len(values))
	for i, v := range values {
		out[i] = models.FeatureColumn{Index: offset + i, Name: names[i], Value: v, Block: block}
	}
	return out
}
