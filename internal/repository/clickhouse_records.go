package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"CreditScore/internal/domain/models"
	domrepo "CreditScore/internal/domain/repository"
	pkgch "CreditScore/pkg/clickhouse"
	applogger "CreditScore/pkg/logger"
)

// recordColumns is the column order shared by inserts and selects.
var recordColumns = []string{
	"id", "month", "age", "occupation", "annual_income", "monthly_salary",
	"num_bank_accounts", "num_credit_cards", "interest_rate", "num_loans",
	"delay_from_due_date", "num_delayed_payments", "changed_credit_limit",
	"num_credit_inquiries", "credit_mix", "outstanding_debt",
	"credit_utilization_ratio", "credit_history_months", "payment_of_min_amount",
	"total_emi", "monthly_investment", "payment_behaviour", "monthly_balance",
	"credit_score", "debt_to_income_ratio", "total_monthly_expenses", "loan_types",
}

// RecordsSchema returns the idempotent DDL of the records table.
func RecordsSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
            id String,
            month LowCardinality(String),
            age Float64,
            occupation LowCardinality(String),
            annual_income Float64,
            monthly_salary Float64,
            num_bank_accounts Float64,
            num_credit_cards Float64,
            interest_rate Float64,
            num_loans Float64,
            delay_from_due_date Float64,
            num_delayed_payments Float64,
            changed_credit_limit Float64,
            num_credit_inquiries Float64,
            credit_mix LowCardinality(String),
            outstanding_debt Float64,
            credit_utilization_ratio Float64,
            credit_history_months Float64,
            payment_of_min_amount LowCardinality(String),
            total_emi Float64,
            monthly_investment Float64,
            payment_behaviour LowCardinality(String),
            monthly_balance Float64,
            credit_score LowCardinality(String),
            debt_to_income_ratio Float64,
            total_monthly_expenses Float64,
            loan_types Array(String),
            ingested_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(ingested_at)
        ORDER BY id`, database, table),
	}
}

func recordArgs(r *models.CreditRecord) []interface{} {
	loans := r.LoanTypes
	if loans == nil {
		loans = []string{}
	}
	return []interface{}{
		r.ID, r.Month, r.Age, r.Occupation, r.AnnualIncome, r.MonthlySalary,
		r.NumBankAccounts, r.NumCreditCards, r.InterestRate, r.NumLoans,
		r.DelayFromDueDate, r.NumDelayedPayments, r.ChangedCreditLimit,
		r.NumCreditInquiries, r.CreditMix, r.OutstandingDebt,
		r.CreditUtilization, r.CreditHistoryMonths, r.PaidMinimum,
		r.TotalEMI, r.MonthlyInvestment, r.PaymentBehaviour, r.MonthlyBalance,
		r.CreditScore, r.DebtToIncome, r.TotalMonthlyExpenses, loans,
	}
}

func recordDest(r *models.CreditRecord) []interface{} {
	return []interface{}{
		&r.ID, &r.Month, &r.Age, &r.Occupation, &r.AnnualIncome, &r.MonthlySalary,
		&r.NumBankAccounts, &r.NumCreditCards, &r.InterestRate, &r.NumLoans,
		&r.DelayFromDueDate, &r.NumDelayedPayments, &r.ChangedCreditLimit,
		&r.NumCreditInquiries, &r.CreditMix, &r.OutstandingDebt,
		&r.CreditUtilization, &r.CreditHistoryMonths, &r.PaidMinimum,
		&r.TotalEMI, &r.MonthlyInvestment, &r.PaymentBehaviour, &r.MonthlyBalance,
		&r.CreditScore, &r.DebtToIncome, &r.TotalMonthlyExpenses, &r.LoanTypes,
	}
}

func valuesPlaceholder() string {
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", len(recordColumns)), ", ") + ")"
}

// ClickHouseStorage implements RecordStorage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse storage. table is database-qualified.
func NewClickHouseStorage(db *sql.DB, table string) domrepo.RecordStorage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Store(ctx context.Context, r *models.CreditRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, strings.Join(recordColumns, ", "), valuesPlaceholder())
	_, err := s.db.ExecContext(ctx, q, recordArgs(r)...)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, rs []*models.CreditRecord) error {
	if len(rs) == 0 {
		return nil
	}
	// Multi-row VALUES, 2000 rows per statement.
	const chunkSize = 2000
	placeholder := valuesPlaceholder()
	for start := 0; start < len(rs); start += chunkSize {
		end := start + chunkSize
		if end > len(rs) {
			end = len(rs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*len(recordColumns))
		for _, r := range rs[start:end] {
			if r == nil || r.ID == "" {
				continue
			}
			values = append(values, placeholder)
			args = append(args, recordArgs(r)...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, strings.Join(recordColumns, ", "), strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // pool owned by pkg/clickhouse
}

// ClickHouseDataset serves dashboard reads from the records table.
type ClickHouseDataset struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewClickHouseDataset(ch *pkgch.Client, table string) *ClickHouseDataset {
	return &ClickHouseDataset{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *ClickHouseDataset) SetLogger(l *applogger.Logger) { s.l = l }

func (s *ClickHouseDataset) Records(ctx context.Context) ([]models.CreditRecord, error) {
	start := time.Now()
	q := fmt.Sprintf("SELECT %s FROM %s FINAL ORDER BY id", strings.Join(recordColumns, ", "), s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse records query error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := make([]models.CreditRecord, 0, 1024)
	for rows.Next() {
		var r models.CreditRecord
		if err := rows.Scan(recordDest(&r)...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse records scan error",
					applogger.String("table", s.table),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse records rows error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse records ok",
			applogger.String("table", s.table),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

var _ domrepo.DatasetRepository = (*ClickHouseDataset)(nil)
