package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentPeriod is the cadence at which a savings or credit product accrues
// interest. Values match the payment_period column of the product tables.
type PaymentPeriod string

const (
	PeriodDaily      PaymentPeriod = "daily"
	PeriodWeekly     PaymentPeriod = "weekly"
	PeriodMonthly    PaymentPeriod = "monthly"
	PeriodQuarterly  PaymentPeriod = "quarterly"
	PeriodAtMaturity PaymentPeriod = "at_maturity"
)

// Label returns the Portuguese display form used inside transaction
// descriptions. The descriptions double as dedup keys downstream, so these
// strings are a wire contract.
func (p PaymentPeriod) Label() string {
	switch p {
	case PeriodDaily:
		return "Diário"
	case PeriodWeekly:
		return "Semanal"
	case PeriodMonthly:
		return "Mensal"
	case PeriodQuarterly:
		return "Trimestral"
	case PeriodAtMaturity:
		return "no Vencimento"
	default:
		return string(p)
	}
}

// SavingsAccount is a student's interest-bearing deposit, joined with the
// product fields the interest job needs. Only accounts whose window covers
// today (start_date <= today <= maturity_date) are eligible for postings.
type SavingsAccount struct {
	ID           int64           `db:"id" json:"id"`
	StudentID    int64           `db:"aluno_id" json:"student_id"`
	ProductID    int64           `db:"produto_id" json:"product_id"`
	Balance      decimal.Decimal `db:"saldo" json:"balance"`
	StartDate    time.Time       `db:"data_inicio" json:"start_date"`
	MaturityDate time.Time       `db:"data_vencimento" json:"maturity_date"`

	ProductName   string          `db:"produto_nome" json:"product_name"`
	AnnualRate    decimal.Decimal `db:"taxa_juros" json:"annual_rate"`
	PaymentPeriod PaymentPeriod   `db:"payment_period" json:"payment_period"`
}
