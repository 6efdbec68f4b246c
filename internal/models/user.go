package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User roles. The tokens match the values stored in the users.role column.
const (
	RoleStudent   = "ALUNO"
	RoleProfessor = "PROFESSOR"
	RoleAdmin     = "ADMIN"
	RoleExternal  = "EXTERNO"
)

// User is any ledger participant: student, professor, admin or a system
// source account. Balances are mutated exclusively through transaction-
// producing operations; users are deactivated, never deleted.
type User struct {
	ID               int64           `db:"id" json:"id"`
	Name             string          `db:"nome" json:"name"`
	Role             string          `db:"role" json:"role"`
	Balance          decimal.Decimal `db:"saldo" json:"balance"`
	Active           bool            `db:"ativo" json:"active"`
	GradeLevel       *string         `db:"ano_escolar" json:"grade_level,omitempty"`
	LastActivityDate time.Time       `db:"last_activity_date" json:"last_activity_date"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// HasSufficientBalance reports whether the user can cover amount without
// going negative. Settlement jobs skip a participant rather than overdraft.
func (u *User) HasSufficientBalance(amount decimal.Decimal) bool {
	return u.Balance.GreaterThanOrEqual(amount)
}

// ProfessorShare is one professor's aggregated salary share for a monthly
// distribution run, already rounded at the per-professor level.
type ProfessorShare struct {
	ProfessorID int64           `db:"professor_id" json:"professor_id"`
	Students    int64           `db:"num_alunos" json:"students"`
	Total       decimal.Decimal `db:"total" json:"total"`
}
