package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"valcoin-api/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	FirstActiveByRole(ctx context.Context, role string) (*models.User, error)
	AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) error
	TouchActivity(ctx context.Context, id int64, at time.Time) error
	ListInactiveStudents(ctx context.Context, inactiveSince time.Time) ([]*models.User, error)
	ProfessorShares(ctx context.Context, amountPerStudent decimal.Decimal) ([]models.ProfessorShare, error)
}

type userRepository struct {
	q queryer
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.q.GetContext(ctx, &user, `
		SELECT id, nome, role, saldo, ativo, ano_escolar, last_activity_date, created_at, updated_at
		FROM users
		WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

func (r *userRepository) FirstActiveByRole(ctx context.Context, role string) (*models.User, error) {
	var user models.User
	err := r.q.GetContext(ctx, &user, `
		SELECT id, nome, role, saldo, ativo, ano_escolar, last_activity_date, created_at, updated_at
		FROM users
		WHERE role = $1 AND ativo = TRUE
		ORDER BY id
		LIMIT 1`, role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active user with role %s: %w", role, err)
	}
	return &user, nil
}

func (r *userRepository) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET saldo = saldo + $1, updated_at = NOW()
		WHERE id = $2`, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust balance of user %d: %w", id, err)
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

func (r *userRepository) TouchActivity(ctx context.Context, id int64, at time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET last_activity_date = $1, updated_at = NOW()
		WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to touch activity of user %d: %w", id, err)
	}
	return nil
}

func (r *userRepository) ListInactiveStudents(ctx context.Context, inactiveSince time.Time) ([]*models.User, error) {
	students := []*models.User{}
	err := r.q.SelectContext(ctx, &students, `
		SELECT id, nome, role, saldo, ativo, ano_escolar, last_activity_date, created_at, updated_at
		FROM users
		WHERE role = $1 AND ativo = TRUE AND last_activity_date < $2
		ORDER BY id`, models.RoleStudent, inactiveSince)
	if err != nil {
		return nil, fmt.Errorf("failed to list inactive students: %w", err)
	}
	return students, nil
}

// ProfessorShares computes, in one set-based statement, each active
// professor's salary total: for every (student, professor) pair over active
// enrollments in active classes, the student contributes
// amountPerStudent / <number of professors that student has>, summed per
// professor and rounded at the per-professor aggregate.
func (r *userRepository) ProfessorShares(ctx context.Context, amountPerStudent decimal.Decimal) ([]models.ProfessorShare, error) {
	shares := []models.ProfessorShare{}
	err := r.q.SelectContext(ctx, &shares, `
		WITH pares AS (
			SELECT DISTINCT e.aluno_id, c.professor_id
			FROM enrollments e
			JOIN classes c ON c.id = e.class_id AND c.ativo = TRUE
			JOIN users a ON a.id = e.aluno_id AND a.ativo = TRUE
			JOIN users p ON p.id = c.professor_id AND p.ativo = TRUE
			WHERE e.ativo = TRUE
		),
		contagem AS (
			SELECT aluno_id, COUNT(DISTINCT professor_id) AS num_professores
			FROM pares
			GROUP BY aluno_id
		)
		SELECT pares.professor_id,
		       COUNT(DISTINCT pares.aluno_id) AS num_alunos,
		       ROUND(SUM($1::numeric / contagem.num_professores), 2) AS total
		FROM pares
		JOIN contagem ON contagem.aluno_id = pares.aluno_id
		GROUP BY pares.professor_id
		ORDER BY pares.professor_id`, amountPerStudent)
	if err != nil {
		return nil, fmt.Errorf("failed to compute professor shares: %w", err)
	}
	return shares, nil
}
