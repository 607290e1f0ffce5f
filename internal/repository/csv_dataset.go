package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"CreditScore/internal/domain/models"
	domrepo "CreditScore/internal/domain/repository"
	"CreditScore/pkg/util"
)

type recordSetter func(r *models.CreditRecord, v string) error

func num(dst func(r *models.CreditRecord) *float64) recordSetter {
	return func(r *models.CreditRecord, v string) error {
		f, err := parseNumber(v)
		if err != nil {
			return err
		}
		*dst(r) = f
		return nil
	}
}

func text(dst func(r *models.CreditRecord) *string) recordSetter {
	return func(r *models.CreditRecord, v string) error {
		*dst(r) = strings.TrimSpace(v)
		return nil
	}
}

var csvColumns = map[string]recordSetter{
	"ID":                       text(func(r *models.CreditRecord) *string { return &r.ID }),
	"Month":                    text(func(r *models.CreditRecord) *string { return &r.Month }),
	"Age":                      num(func(r *models.CreditRecord) *float64 { return &r.Age }),
	"Occupation":               text(func(r *models.CreditRecord) *string { return &r.Occupation }),
	"Annual_Income":            num(func(r *models.CreditRecord) *float64 { return &r.AnnualIncome }),
	"Monthly_Inhand_Salary":    num(func(r *models.CreditRecord) *float64 { return &r.MonthlySalary }),
	"Num_Bank_Accounts":        num(func(r *models.CreditRecord) *float64 { return &r.NumBankAccounts }),
	"Num_Credit_Card":          num(func(r *models.CreditRecord) *float64 { return &r.NumCreditCards }),
	"Interest_Rate":            num(func(r *models.CreditRecord) *float64 { return &r.InterestRate }),
	"Num_of_Loan":              num(func(r *models.CreditRecord) *float64 { return &r.NumLoans }),
	"Delay_from_due_date":      num(func(r *models.CreditRecord) *float64 { return &r.DelayFromDueDate }),
	"Num_of_Delayed_Payment":   num(func(r *models.CreditRecord) *float64 { return &r.NumDelayedPayments }),
	"Changed_Credit_Limit":     num(func(r *models.CreditRecord) *float64 { return &r.ChangedCreditLimit }),
	"Num_Credit_Inquiries":     num(func(r *models.CreditRecord) *float64 { return &r.NumCreditInquiries }),
	"Credit_Mix":               text(func(r *models.CreditRecord) *string { return &r.CreditMix }),
	"Outstanding_Debt":         num(func(r *models.CreditRecord) *float64 { return &r.OutstandingDebt }),
	"Credit_Utilization_Ratio": num(func(r *models.CreditRecord) *float64 { return &r.CreditUtilization }),
	"Credit_History_Age":       num(func(r *models.CreditRecord) *float64 { return &r.CreditHistoryMonths }),
	"Payment_of_Min_Amount":    text(func(r *models.CreditRecord) *string { return &r.PaidMinimum }),
	"Total_EMI_per_month":      num(func(r *models.CreditRecord) *float64 { return &r.TotalEMI }),
	"Amount_invested_monthly":  num(func(r *models.CreditRecord) *float64 { return &r.MonthlyInvestment }),
	"Payment_Behaviour":        text(func(r *models.CreditRecord) *string { return &r.PaymentBehaviour }),
	"Monthly_Balance":          num(func(r *models.CreditRecord) *float64 { return &r.MonthlyBalance }),
	"Credit_Score":             text(func(r *models.CreditRecord) *string { return &r.CreditScore }),
	"Debt_to_Income_Ratio":     num(func(r *models.CreditRecord) *float64 { return &r.DebtToIncome }),
	"Total_Monthly_Expenses":   num(func(r *models.CreditRecord) *float64 { return &r.TotalMonthlyExpenses }),
}

const typeOfLoanColumn = "Type_of_Loan"

// CSVDataset reads the credit dataset from a CSV file on every call.
type CSVDataset struct {
	path      string
	loanTypes []string
}

// NewCSVDataset creates a dataset repository over path. Loan types name the
// 0/1 indicator columns to read.
func NewCSVDataset(path string, loanTypes []string) domrepo.DatasetRepository {
	return &CSVDataset{path: path, loanTypes: loanTypes}
}

func (d *CSVDataset) Records(ctx context.Context) ([]models.CreditRecord, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ReadRecords(ctx, f, d.loanTypes)
}

// ReadRecords parses header-mapped CSV rows. Unknown columns are ignored;
// derived ratios missing from the file are computed.
func ReadRecords(ctx context.Context, r io.Reader, loanTypes []string) ([]models.CreditRecord, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	setters := make(map[int]recordSetter, len(header))
	loanCols := make(map[int]string)
	isLoan := make(map[string]bool, len(loanTypes))
	for _, lt := range loanTypes {
		isLoan[lt] = true
	}
	typeOfLoan := -1
	hasDTI, hasExpenses := false, false
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		switch {
		case csvColumns[h] != nil:
			setters[i] = csvColumns[h]
			hasDTI = hasDTI || h == "Debt_to_Income_Ratio"
			hasExpenses = hasExpenses || h == "Total_Monthly_Expenses"
		case isLoan[h]:
			loanCols[i] = h
		case h == typeOfLoanColumn:
			typeOfLoan = i
		}
	}

	var out []models.CreditRecord
	line := 1
	for {
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		var rec models.CreditRecord
		for i, v := range row {
			if set, ok := setters[i]; ok {
				if err := set(&rec, v); err != nil {
					return nil, fmt.Errorf("line %d column %s: %w", line, header[i], err)
				}
				continue
			}
			if lt, ok := loanCols[i]; ok && truthy(v) {
				rec.LoanTypes = append(rec.LoanTypes, lt)
			}
		}
		if typeOfLoan >= 0 && typeOfLoan < len(row) && len(loanCols) == 0 {
			rec.LoanTypes = splitLoanTypes(row[typeOfLoan], isLoan)
		}
		normalizeRecord(&rec, line, !hasDTI, !hasExpenses)
		out = append(out, rec)
	}
	return out, nil
}

// recordNamespace seeds IDs of rows without an ID column so a row keeps
// its ID across reads of the same file.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("creditscore.dataset.record"))

func normalizeRecord(r *models.CreditRecord, line int, deriveDTI, deriveExpenses bool) {
	if r.ID == "" {
		r.ID = uuid.NewSHA1(recordNamespace, []byte(strconv.Itoa(line))).String()
	}
	r.PaidMinimum = NormalizeMinPayment(r.PaidMinimum)
	r.Month = util.NormalizeMonth(r.Month)
	if deriveDTI && r.AnnualIncome > 0 {
		r.DebtToIncome = r.OutstandingDebt / r.AnnualIncome
	}
	if deriveExpenses {
		r.TotalMonthlyExpenses = r.MonthlyInvestment + r.TotalEMI
	}
}

// NormalizeMinPayment maps the dataset's min-payment spellings onto Yes, No or NM.
func NormalizeMinPayment(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "1", "1.0", "true":
		return "Yes"
	case "no", "0", "0.0", "false":
		return "No"
	default:
		return "NM"
	}
}

// splitLoanTypes parses values like "Auto Loan, and Student Loan".
func splitLoanTypes(v string, known map[string]bool) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "and "))
		if part == "" {
			continue
		}
		if !known[part] {
			part = "Not Specified"
		}
		out = append(out, part)
	}
	return out
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "1.0", "true", "yes":
		return true
	}
	return false
}

func parseNumber(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "nan") {
		return 0, nil
	}
	// the raw export carries stray underscores such as "3_"
	v = strings.Trim(v, "_")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", v, err)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("parse number %q: not finite", v)
	}
	return f, nil
}
