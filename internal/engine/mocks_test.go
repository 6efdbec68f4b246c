package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"valcoin-api/internal/models"
	"valcoin-api/internal/repository"
)

// Mock repositories for testing

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

func (m *MockUserRepository) ListInactiveStudents(ctx context.Context, inactiveSince time.Time) ([]*models.User, error) {
	args := m.Called(ctx, inactiveSince)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) ProfessorShares(ctx context.Context, amountPerStudent decimal.Decimal) ([]models.ProfessorShare, error) {
	args := m.Called(ctx, amountPerStudent)
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
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

type MockSavingsRepository struct {
	mock.Mock
}

func (m *MockSavingsRepository) ListEligible(ctx context.Context, today time.Time) ([]*models.SavingsAccount, error) {
	args := m.Called(ctx, today)
	return args.Get(0).([]*models.SavingsAccount), args.Error(1)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) ListActive(ctx context.Context, today time.Time) ([]*models.Loan, error) {
	args := m.Called(ctx, today)
	return args.Get(0).([]*models.Loan), args.Error(1)
}

func (m *MockLoanRepository) UpdateRepayment(ctx context.Context, id int64, paidAmount decimal.Decimal, status string) error {
	args := m.Called(ctx, id, paidAmount, status)
	return args.Error(0)
}

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) GetAll(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]string), args.Error(1)
}

// fakeStore runs WithTransaction callbacks directly against the mocks, so
// job tests exercise the full pass without a database.
type fakeStore struct {
	users    *MockUserRepository
	txs      *MockTransactionRepository
	savings  *MockSavingsRepository
	loans    *MockLoanRepository
	settings *MockSettingsRepository
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    &MockUserRepository{},
		txs:      &MockTransactionRepository{},
		savings:  &MockSavingsRepository{},
		loans:    &MockLoanRepository{},
		settings: &MockSettingsRepository{},
	}
}

func (s *fakeStore) Users() repository.UserRepository               { return s.users }
func (s *fakeStore) Transactions() repository.TransactionRepository { return s.txs }
func (s *fakeStore) Savings() repository.SavingsRepository          { return s.savings }
func (s *fakeStore) Loans() repository.LoanRepository               { return s.loans }
func (s *fakeStore) Settings() repository.SettingsRepository        { return s.settings }

func (s *fakeStore) WithTransaction(ctx context.Context, fn func(repository.TxStore) error) error {
	return fn(s)
}

func (s *fakeStore) assertExpectations(t mock.TestingT) {
	s.users.AssertExpectations(t)
	s.txs.AssertExpectations(t)
	s.savings.AssertExpectations(t)
	s.loans.AssertExpectations(t)
	s.settings.AssertExpectations(t)
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
