package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"valcoin-api/internal/models"
	"valcoin-api/internal/repository"
)

// Transaction description strings. They double as dedup keys across the
// platform and are matched byte-for-byte by the idempotency guards, so they
// must never be reworded or localized.
const (
	descInactivityFee      = "Taxa de inatividade"
	descSalaryMonthly      = "Transferência mensal proporcional aos alunos"
	descSavingsInterestFmt = "Juros Poupança %s: %s"      // period label, product name
	descLoanInterestFmt    = "Juros %s de Empréstimo: %s" // period label, product name
	descLoanPrincipalFmt   = "Pagamento de Empréstimo: %s"
)

func savingsInterestDescription(period models.PaymentPeriod, productName string) string {
	return fmt.Sprintf(descSavingsInterestFmt, period.Label(), productName)
}

func loanInterestDescription(period models.PaymentPeriod, productName string) string {
	return fmt.Sprintf(descLoanInterestFmt, period.Label(), productName)
}

func loanPrincipalDescription(productName string) string {
	return fmt.Sprintf(descLoanPrincipalFmt, productName)
}

// postTransfer is the ledger primitive: it applies the debit and the credit
// and inserts exactly one transaction row, all on the caller's transaction
// scope. A balance never moves without its row and a row is never written
// without its balance movement.
func postTransfer(ctx context.Context, tx repository.TxStore, originID, destinationID int64, amount decimal.Decimal, description string, groupID *uuid.UUID) error {
	if err := tx.Users().AdjustBalance(ctx, originID, amount.Neg()); err != nil {
		return fmt.Errorf("failed to debit user %d: %w", originID, err)
	}
	if err := tx.Users().AdjustBalance(ctx, destinationID, amount); err != nil {
		return fmt.Errorf("failed to credit user %d: %w", destinationID, err)
	}
	row := models.NewSettlementTransaction(originID, destinationID, amount, description, groupID)
	if err := tx.Transactions().Create(ctx, row); err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}
	return nil
}
