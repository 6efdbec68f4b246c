package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"valcoin-api/internal/models"
)

type LoanRepository interface {
	ListActive(ctx context.Context, today time.Time) ([]*models.Loan, error)
	UpdateRepayment(ctx context.Context, id int64, paidAmount decimal.Decimal, status string) error
}

type loanRepository struct {
	q queryer
}

// ListActive returns ACTIVE loans not past maturity. Terminal states are
// excluded here by the filter rather than guarded per-row downstream.
func (r *loanRepository) ListActive(ctx context.Context, today time.Time) ([]*models.Loan, error) {
	loans := []*models.Loan{}
	err := r.q.SelectContext(ctx, &loans, `
		SELECT l.id, l.aluno_id, l.produto_id, l.montante, l.montante_pago, l.status,
		       l.data_inicio, l.data_vencimento,
		       p.nome AS produto_nome, p.taxa_juros, p.prazo_meses, p.payment_period
		FROM student_loans l
		JOIN credit_products p ON p.id = l.produto_id
		WHERE l.status = $1 AND l.data_vencimento >= $2
		ORDER BY l.id`, models.LoanActive, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list active loans: %w", err)
	}
	return loans, nil
}

func (r *loanRepository) UpdateRepayment(ctx context.Context, id int64, paidAmount decimal.Decimal, status string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE student_loans
		SET montante_pago = $1, status = $2, updated_at = NOW()
		WHERE id = $3`, paidAmount, status, id)
	if err != nil {
		return fmt.Errorf("failed to update repayment of loan %d: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
