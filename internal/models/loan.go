package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan statuses. This core only ever advances ACTIVE loans toward PAID;
// PENDING and REJECTED belong to the request/approval flow.
const (
	LoanActive   = "ACTIVE"
	LoanPaid     = "PAID"
	LoanPending  = "PENDING"
	LoanRejected = "REJECTED"
)

// PayoffTolerance is the rounding residue below which a loan counts as
// settled in full.
var PayoffTolerance = decimal.RequireFromString("0.01")

// Loan is a student's credit-product draw, joined with the product fields
// the repayment job needs.
type Loan struct {
	ID           int64           `db:"id" json:"id"`
	StudentID    int64           `db:"aluno_id" json:"student_id"`
	ProductID    int64           `db:"produto_id" json:"product_id"`
	Amount       decimal.Decimal `db:"montante" json:"amount"`
	PaidAmount   decimal.Decimal `db:"montante_pago" json:"paid_amount"`
	Status       string          `db:"status" json:"status"`
	StartDate    time.Time       `db:"data_inicio" json:"start_date"`
	MaturityDate time.Time       `db:"data_vencimento" json:"maturity_date"`

	ProductName   string          `db:"produto_nome" json:"product_name"`
	AnnualRate    decimal.Decimal `db:"taxa_juros" json:"annual_rate"`
	TermMonths    int             `db:"prazo_meses" json:"term_months"`
	PaymentPeriod PaymentPeriod   `db:"payment_period" json:"payment_period"`
}

// RemainingBalance returns amount minus what has been repaid so far.
func (l *Loan) RemainingBalance() decimal.Decimal {
	return l.Amount.Sub(l.PaidAmount)
}

// Installment is the fixed monthly principal portion, capped at the
// remaining balance and rounded to 2 decimals.
func (l *Loan) Installment() decimal.Decimal {
	if l.TermMonths <= 0 {
		return l.RemainingBalance().Round(2)
	}
	base := l.Amount.Div(decimal.NewFromInt(int64(l.TermMonths)))
	remaining := l.RemainingBalance()
	if base.GreaterThan(remaining) {
		base = remaining
	}
	return base.Round(2)
}
