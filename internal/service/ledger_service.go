package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"valcoin-api/internal/cache"
	"valcoin-api/internal/models"
	"valcoin-api/internal/repository"
)

const (
	balanceCacheTTL      = 30 * time.Second
	transactionsCacheTTL = 30 * time.Second

	defaultTransactionsLimit = 50
	maxTransactionsLimit     = 200
)

// LedgerService serves the read side of the ledger. Balances and statements
// go through a short-lived Redis cache; the settlement jobs write straight to
// Postgres, so the TTL bounds how stale a read can be.
type LedgerService interface {
	GetBalance(ctx context.Context, req *GetBalanceRequest) (*GetBalanceResponse, error)
	GetTransactions(ctx context.Context, req *GetTransactionsRequest) (*GetTransactionsResponse, error)
}

type ledgerService struct {
	store repository.Store
	cache cache.CacheService
}

func NewLedgerService(store repository.Store, cacheService cache.CacheService) LedgerService {
	return &ledgerService{
		store: store,
		cache: cacheService,
	}
}

type GetBalanceRequest struct {
	UserID int64 `json:"user_id"`
}

type GetBalanceResponse struct {
	UserID       int64  `json:"user_id"`
	Balance      string `json:"balance"`
	Cached       bool   `json:"cached"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type GetTransactionsRequest struct {
	UserID int64 `json:"user_id"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type GetTransactionsResponse struct {
	UserID       int64                 `json:"user_id"`
	Transactions []*models.Transaction `json:"transactions"`
	Cached       bool                  `json:"cached"`
	Success      bool                  `json:"success"`
	ErrorMessage string                `json:"error_message,omitempty"`
}

func (s *ledgerService) GetBalance(ctx context.Context, req *GetBalanceRequest) (*GetBalanceResponse, error) {
	if s.cache != nil {
		if balance, err := s.cache.GetCachedBalance(ctx, req.UserID); err == nil {
			return &GetBalanceResponse{
				UserID:  req.UserID,
				Balance: balance,
				Cached:  true,
				Success: true,
			}, nil
		}
	}

	user, err := s.store.Users().GetByID(ctx, req.UserID)
	if err != nil {
		return &GetBalanceResponse{
			UserID:       req.UserID,
			Success:      false,
			ErrorMessage: err.Error(),
		}, fmt.Errorf("failed to load user %d: %w", req.UserID, err)
	}

	balance := user.Balance.StringFixed(2)

	if s.cache != nil {
		if err := s.cache.CacheBalance(ctx, req.UserID, balance, balanceCacheTTL); err != nil {
			logrus.WithField("user_id", req.UserID).WithError(err).Warn("Failed to cache balance")
		}
	}

	return &GetBalanceResponse{
		UserID:  req.UserID,
		Balance: balance,
		Success: true,
	}, nil
}

func (s *ledgerService) GetTransactions(ctx context.Context, req *GetTransactionsRequest) (*GetTransactionsResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultTransactionsLimit
	}
	if limit > maxTransactionsLimit {
		limit = maxTransactionsLimit
	}

	// Only the first page is cacheable; paginated reads go to the database.
	cacheable := s.cache != nil && req.Offset == 0 && limit == defaultTransactionsLimit

	if cacheable {
		if transactions, err := s.cache.GetCachedTransactions(ctx, req.UserID); err == nil {
			return &GetTransactionsResponse{
				UserID:       req.UserID,
				Transactions: transactions,
				Cached:       true,
				Success:      true,
			}, nil
		}
	}

	transactions, err := s.store.Transactions().ListByUser(ctx, req.UserID, limit, req.Offset)
	if err != nil {
		return &GetTransactionsResponse{
			UserID:       req.UserID,
			Success:      false,
			ErrorMessage: err.Error(),
		}, fmt.Errorf("failed to list transactions of user %d: %w", req.UserID, err)
	}

	if cacheable {
		if err := s.cache.CacheTransactions(ctx, req.UserID, transactions, transactionsCacheTTL); err != nil {
			logrus.WithField("user_id", req.UserID).WithError(err).Warn("Failed to cache transactions")
		}
	}

	return &GetTransactionsResponse{
		UserID:       req.UserID,
		Transactions: transactions,
		Success:      true,
	}, nil
}
