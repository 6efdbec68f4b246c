package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TxStore bundles the repositories scoped to one unit of work. Inside
// Store.WithTransaction every repository runs on the same *sqlx.Tx, so a
// settlement pass is all-or-nothing.
type TxStore interface {
	Users() UserRepository
	Transactions() TransactionRepository
	Savings() SavingsRepository
	Loans() LoanRepository
	Settings() SettingsRepository
}

// Store is the connection/transaction gateway. Reads outside a settlement
// run go straight through the pool; settlement runs lease one connection for
// their whole duration via WithTransaction.
type Store interface {
	TxStore

	WithTransaction(ctx context.Context, fn func(TxStore) error) error
}

type sqlStore struct {
	db *sqlx.DB
}

// NewStore wraps an open Postgres handle in the gateway.
func NewStore(db *sqlx.DB) Store {
	return &sqlStore{db: db}
}

func (s *sqlStore) Users() UserRepository               { return &userRepository{q: s.db} }
func (s *sqlStore) Transactions() TransactionRepository { return &transactionRepository{q: s.db} }
func (s *sqlStore) Savings() SavingsRepository          { return &savingsRepository{q: s.db} }
func (s *sqlStore) Loans() LoanRepository               { return &loanRepository{q: s.db} }
func (s *sqlStore) Settings() SettingsRepository        { return &settingsRepository{q: s.db} }

// WithTransaction runs fn inside BEGIN/COMMIT, rolling back on error or
// panic. The error from fn is returned unwrapped so callers can match
// sentinel values.
func (s *sqlStore) WithTransaction(ctx context.Context, fn func(TxStore) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txStore{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type txStore struct {
	tx *sqlx.Tx
}

func (s *txStore) Users() UserRepository               { return &userRepository{q: s.tx} }
func (s *txStore) Transactions() TransactionRepository { return &transactionRepository{q: s.tx} }
func (s *txStore) Savings() SavingsRepository          { return &savingsRepository{q: s.tx} }
func (s *txStore) Loans() LoanRepository               { return &loanRepository{q: s.tx} }
func (s *txStore) Settings() SettingsRepository        { return &settingsRepository{q: s.tx} }

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}
