package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"valcoin-api/internal/models"
)

func monthlyAccount(studentID int64, balance string) *models.SavingsAccount {
	return &models.SavingsAccount{
		ID:            1,
		StudentID:     studentID,
		ProductID:     7,
		Balance:       decimal.RequireFromString(balance),
		StartDate:     date(2024, 1, 15),
		MaturityDate:  date(2025, 1, 15),
		ProductName:   "Poupança Jovem",
		AnnualRate:    decimal.RequireFromString("12"),
		PaymentPeriod: models.PeriodMonthly,
	}
}

func interestSettings(sourceID string) map[string]string {
	return map[string]string{
		models.SettingInterestSourceUserID: sourceID,
	}
}

func TestInterestJob_PostsMonthlyInterest(t *testing.T) {
	store := newFakeStore()
	today := date(2024, 3, 15)
	account := monthlyAccount(42, "1000")
	expected := decimal.RequireFromString("10.00")
	description := "Juros Poupança Mensal: Poupança Jovem"

	store.settings.On("GetAll", mock.Anything).Return(interestSettings("9"), nil)
	store.savings.On("ListEligible", mock.Anything, today).Return([]*models.SavingsAccount{account}, nil)
	store.txs.On("ExistsCreditedSince", mock.Anything, int64(42), description, startOfDay(today)).Return(false, nil)
	store.users.On("GetByID", mock.Anything, int64(9)).Return(&models.User{
		ID:      9,
		Role:    models.RoleExternal,
		Balance: decimal.RequireFromString("5000"),
		Active:  true,
	}, nil)
	store.users.On("AdjustBalance", mock.Anything, int64(9), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(expected.Neg())
	})).Return(nil)
	store.users.On("AdjustBalance", mock.Anything, int64(42), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(expected)
	})).Return(nil)
	store.txs.On("Create", mock.Anything, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.Description == description &&
			tx.Amount.Equal(expected) &&
			tx.Type == models.TypeDebit &&
			tx.Status == models.StatusApproved &&
			tx.OriginID == 9 && tx.DestinationID == 42
	})).Return(nil)

	job := NewInterestJob(store)
	job.now = fixedNow(today)

	summary, err := job.Run(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, summary.Outcome)
	assert.Equal(t, 1, summary.Posted)
	store.assertExpectations(t)
}

func TestInterestJob_SecondRunSameDayIsIdempotent(t *testing.T) {
	store := newFakeStore()
	today := date(2024, 3, 15)
	account := monthlyAccount(42, "1000")
	description := "Juros Poupança Mensal: Poupança Jovem"

	store.settings.On("GetAll", mock.Anything).Return(interestSettings("9"), nil)
	store.savings.On("ListEligible", mock.Anything, today).Return([]*models.SavingsAccount{account}, nil)
	// A posting from the first run already exists today.
	store.txs.On("ExistsCreditedSince", mock.Anything, int64(42), description, startOfDay(today)).Return(true, nil)

	job := NewInterestJob(store)
	job.now = fixedNow(today)

	summary, err := job.Run(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, summary.Outcome)
	assert.Equal(t, 0, summary.Posted)
	assert.Equal(t, 1, summary.Skipped)
	store.users.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	store.txs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	store.assertExpectations(t)
}

func TestInterestJob_SkipsWhenSourceUnderfunded(t *testing.T) {
	store := newFakeStore()
	today := date(2024, 3, 15)
	poor := monthlyAccount(42, "1000") // needs 10.00
	rich := monthlyAccount(43, "100")  // needs 1.00
	rich.ID = 2
	rich.StudentID = 43

	store.settings.On("GetAll", mock.Anything).Return(interestSettings("9"), nil)
	store.savings.On("ListEligible", mock.Anything, today).Return([]*models.SavingsAccount{poor, rich}, nil)
	store.txs.On("ExistsCreditedSince", mock.Anything, mock.AnythingOfType("int64"), mock.AnythingOfType("string"), startOfDay(today)).Return(false, nil)
	// Source can only cover the smaller posting.
	store.users.On("GetByID", mock.Anything, int64(9)).Return(&models.User{
		ID:      9,
		Balance: decimal.RequireFromString("5.00"),
		Active:  true,
	}, nil)
	store.users.On("AdjustBalance", mock.Anything, int64(9), mock.Anything).Return(nil).Once()
	store.users.On("AdjustBalance", mock.Anything, int64(43), mock.Anything).Return(nil).Once()
	store.txs.On("Create", mock.Anything, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.DestinationID == 43
	})).Return(nil).Once()

	job := NewInterestJob(store)
	job.now = fixedNow(today)

	summary, err := job.Run(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Posted)
	assert.Equal(t, 1, summary.Skipped)
	store.assertExpectations(t)
}

func TestInterestJob_AtMaturityPostsOnlyOnMaturityDate(t *testing.T) {
	account := &models.SavingsAccount{
		ID:            3,
		StudentID:     42,
		Balance:       decimal.RequireFromString("1000"),
		StartDate:     date(2024, 1, 1),
		MaturityDate:  date(2024, 7, 1),
		ProductName:   "Depósito a Prazo",
		AnnualRate:    decimal.RequireFromString("6"),
		PaymentPeriod: models.PeriodAtMaturity,
	}
	expected := MaturityInterest(account.Balance, account.AnnualRate, account.StartDate, account.MaturityDate)

	t.Run("before maturity nothing is posted", func(t *testing.T) {
		store := newFakeStore()
		today := date(2024, 6, 30)
		store.settings.On("GetAll", mock.Anything).Return(interestSettings("9"), nil)
		store.savings.On("ListEligible", mock.Anything, today).Return([]*models.SavingsAccount{account}, nil)

		job := NewInterestJob(store)
		job.now = fixedNow(today)

		summary, err := job.Run(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 0, summary.Posted)
		store.txs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("on maturity the day-count amount is posted", func(t *testing.T) {
		store := newFakeStore()
		today := date(2024, 7, 1)
		store.settings.On("GetAll", mock.Anything).Return(interestSettings("9"), nil)
		store.savings.On("ListEligible", mock.Anything, today).Return([]*models.SavingsAccount{account}, nil)
		store.txs.On("ExistsCreditedSince", mock.Anything, int64(42), "Juros Poupança no Vencimento: Depósito a Prazo", startOfDay(today)).Return(false, nil)
		store.users.On("GetByID", mock.Anything, int64(9)).Return(&models.User{
			ID: 9, Balance: decimal.RequireFromString("5000"), Active: true,
		}, nil)
		store.users.On("AdjustBalance", mock.Anything, int64(9), mock.Anything).Return(nil)
		store.users.On("AdjustBalance", mock.Anything, int64(42), mock.Anything).Return(nil)
		store.txs.On("Create", mock.Anything, mock.MatchedBy(func(tx *models.Transaction) bool {
			return tx.Amount.Equal(expected)
		})).Return(nil)

		job := NewInterestJob(store)
		job.now = fixedNow(today)

		summary, err := job.Run(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 1, summary.Posted)
		store.assertExpectations(t)
	})
}

func TestInterestJob_FailsWhenSourceNotConfigured(t *testing.T) {
	store := newFakeStore()
	store.settings.On("GetAll", mock.Anything).Return(map[string]string{}, nil)

	job := NewInterestJob(store)
	job.now = fixedNow(date(2024, 3, 15))

	summary, err := job.Run(context.Background())

	assert.Error(t, err)
	assert.Equal(t, OutcomeFailed, summary.Outcome)
	assert.Contains(t, err.Error(), "not configured")
}
