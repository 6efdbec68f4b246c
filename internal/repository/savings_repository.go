package repository

import (
	"context"
	"fmt"
	"time"

	"valcoin-api/internal/models"
)

type SavingsRepository interface {
	ListEligible(ctx context.Context, today time.Time) ([]*models.SavingsAccount, error)
}

type savingsRepository struct {
	q queryer
}

// ListEligible returns accounts whose window covers today, joined with the
// product fields the interest computation needs. Accounts outside the
// start/maturity window are never touched by the job.
func (r *savingsRepository) ListEligible(ctx context.Context, today time.Time) ([]*models.SavingsAccount, error) {
	accounts := []*models.SavingsAccount{}
	err := r.q.SelectContext(ctx, &accounts, `
		SELECT s.id, s.aluno_id, s.produto_id, s.saldo, s.data_inicio, s.data_vencimento,
		       p.nome AS produto_nome, p.taxa_juros, p.payment_period
		FROM student_savings_accounts s
		JOIN savings_products p ON p.id = s.produto_id
		WHERE s.data_inicio <= $1 AND s.data_vencimento >= $1
		ORDER BY s.id`, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible savings accounts: %w", err)
	}
	return accounts, nil
}
