package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"valcoin-api/internal/cache"
	"valcoin-api/internal/engine"
	"valcoin-api/internal/models"
	"valcoin-api/internal/repository"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FirstActiveByRole(ctx context.Context, role string) (*models.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockUserRepository) TouchActivity(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) ListInactiveStudents(ctx context.Context, before time.Time) ([]*models.User, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) ProfessorShares(ctx context.Context, amountPerStudent decimal.Decimal) ([]models.ProfessorShare, error) {
	args := m.Called(ctx, amountPerStudent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProfessorShare), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) ExistsCreditedSince(ctx context.Context, destinationID int64, description string, since time.Time) (bool, error) {
	args := m.Called(ctx, destinationID, description, since)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) ExistsDebitedSince(ctx context.Context, originID int64, description string, since time.Time) (bool, error) {
	args := m.Called(ctx, originID, description, since)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) ExistsAnyDebitSince(ctx context.Context, originID int64, since time.Time) (bool, error) {
	args := m.Called(ctx, originID, since)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) ExistsDescriptionSince(ctx context.Context, description string, since time.Time) (bool, error) {
	args := m.Called(ctx, description, since)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) ApplyCreditsByDescriptionSince(ctx context.Context, description string, since time.Time) (int64, error) {
	args := m.Called(ctx, description, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

// fakeStore serves the read path; the settlement tests never open a real
// transaction here.
type fakeStore struct {
	users        *MockUserRepository
	transactions *MockTransactionRepository
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        new(MockUserRepository),
		transactions: new(MockTransactionRepository),
	}
}

func (s *fakeStore) Users() repository.UserRepository               { return s.users }
func (s *fakeStore) Transactions() repository.TransactionRepository { return s.transactions }
func (s *fakeStore) Savings() repository.SavingsRepository          { return nil }
func (s *fakeStore) Loans() repository.LoanRepository               { return nil }
func (s *fakeStore) Settings() repository.SettingsRepository        { return nil }

func (s *fakeStore) WithTransaction(ctx context.Context, fn func(repository.TxStore) error) error {
	return fn(s)
}

// fakeCache is an in-memory stand-in for Redis.
type fakeCache struct {
	balances     map[int64]string
	transactions map[int64][]*models.Transaction
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		balances:     make(map[int64]string),
		transactions: make(map[int64][]*models.Transaction),
	}
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	return cache.ErrCacheMiss
}

func (c *fakeCache) Delete(ctx context.Context, key string) error { return nil }

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

func (c *fakeCache) CacheBalance(ctx context.Context, userID int64, balance string, expiration time.Duration) error {
	c.balances[userID] = balance
	return nil
}

func (c *fakeCache) GetCachedBalance(ctx context.Context, userID int64) (string, error) {
	balance, ok := c.balances[userID]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return balance, nil
}

func (c *fakeCache) CacheTransactions(ctx context.Context, userID int64, transactions []*models.Transaction, expiration time.Duration) error {
	c.transactions[userID] = transactions
	return nil
}

func (c *fakeCache) GetCachedTransactions(ctx context.Context, userID int64) ([]*models.Transaction, error) {
	transactions, ok := c.transactions[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return transactions, nil
}

func (c *fakeCache) InvalidateUser(ctx context.Context, userID int64) error {
	delete(c.balances, userID)
	delete(c.transactions, userID)
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }

func (c *fakeCache) Close() error { return nil }

// fakeJob returns a canned summary and error.
type fakeJob struct {
	name    string
	summary *engine.RunSummary
	err     error
	runs    int
}

func (j *fakeJob) Name() string { return j.name }

func (j *fakeJob) Run(ctx context.Context) (*engine.RunSummary, error) {
	j.runs++
	return j.summary, j.err
}
