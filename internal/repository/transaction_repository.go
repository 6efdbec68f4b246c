package repository

import (
	"context"
	"fmt"
	"time"

	"valcoin-api/internal/models"
)

// TransactionRepository is insert-only from the settlement core; the Exists*
// methods are the idempotency guards, keyed on description text plus a date
// window because that is the dedup contract the rest of the platform relies
// on. Callers pass the description in from a single constants block so the
// display text and the guard never drift apart.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	ExistsCreditedSince(ctx context.Context, destinationID int64, description string, since time.Time) (bool, error)
	ExistsDebitedSince(ctx context.Context, originID int64, description string, since time.Time) (bool, error)
	ExistsAnyDebitSince(ctx context.Context, originID int64, since time.Time) (bool, error)
	ExistsDescriptionSince(ctx context.Context, description string, since time.Time) (bool, error)
	ApplyCreditsByDescriptionSince(ctx context.Context, description string, since time.Time) (int64, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Transaction, error)
}

type transactionRepository struct {
	q queryer
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	err := r.q.GetContext(ctx, &tx.ID, `
		INSERT INTO transactions (grupo_id, origem_id, destino_id, montante, tipo, status, descricao, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id`,
		tx.GroupID, tx.OriginID, tx.DestinationID, tx.Amount, tx.Type, tx.Status, tx.Description)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) ExistsCreditedSince(ctx context.Context, destinationID int64, description string, since time.Time) (bool, error) {
	var exists bool
	err := r.q.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE destino_id = $1 AND descricao = $2 AND created_at >= $3
		)`, destinationID, description, since)
	if err != nil {
		return false, fmt.Errorf("failed to check credited transactions: %w", err)
	}
	return exists, nil
}

func (r *transactionRepository) ExistsDebitedSince(ctx context.Context, originID int64, description string, since time.Time) (bool, error) {
	var exists bool
	err := r.q.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE origem_id = $1 AND descricao = $2 AND created_at >= $3
		)`, originID, description, since)
	if err != nil {
		return false, fmt.Errorf("failed to check debited transactions: %w", err)
	}
	return exists, nil
}

func (r *transactionRepository) ExistsAnyDebitSince(ctx context.Context, originID int64, since time.Time) (bool, error) {
	var exists bool
	err := r.q.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE origem_id = $1 AND tipo = $2 AND created_at >= $3
		)`, originID, models.TypeDebit, since)
	if err != nil {
		return false, fmt.Errorf("failed to check debits: %w", err)
	}
	return exists, nil
}

func (r *transactionRepository) ExistsDescriptionSince(ctx context.Context, description string, since time.Time) (bool, error) {
	var exists bool
	err := r.q.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE descricao = $1 AND created_at >= $2
		)`, description, since)
	if err != nil {
		return false, fmt.Errorf("failed to check transactions by description: %w", err)
	}
	return exists, nil
}

// ApplyCreditsByDescriptionSince credits every destination user with the sum
// of its matching rows. This is the second half of the salary job's
// insert-then-apply pass; the rows and the balance updates still share the
// caller's transaction scope.
func (r *transactionRepository) ApplyCreditsByDescriptionSince(ctx context.Context, description string, since time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users u
		SET saldo = u.saldo + m.total, updated_at = NOW()
		FROM (
			SELECT destino_id, SUM(montante) AS total
			FROM transactions
			WHERE descricao = $1 AND created_at >= $2
			GROUP BY destino_id
		) m
		WHERE u.id = m.destino_id`, description, since)
	if err != nil {
		return 0, fmt.Errorf("failed to apply credits: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Transaction, error) {
	txs := []*models.Transaction{}
	err := r.q.SelectContext(ctx, &txs, `
		SELECT id, grupo_id, origem_id, destino_id, montante, tipo, status, descricao, created_at, updated_at
		FROM transactions
		WHERE origem_id = $1 OR destino_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions of user %d: %w", userID, err)
	}
	return txs, nil
}
