package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types and statuses. Automated settlements only ever produce
// DEBITO/APROVADA rows; the values are a wire contract with the rest of the
// platform and must not change.
const (
	TypeDebit = "DEBITO"

	StatusApproved = "APROVADA"
	StatusPending  = "PENDENTE"
	StatusRejected = "REJEITADA"
)

// Transaction is the immutable record of one balance movement. Once a row is
// APROVADA the paired balance mutation has already been applied; the two are
// written inside the same database transaction, never separately.
type Transaction struct {
	ID            int64           `db:"id" json:"id"`
	GroupID       *uuid.UUID      `db:"grupo_id" json:"group_id,omitempty"`
	OriginID      int64           `db:"origem_id" json:"origin_id"`
	DestinationID int64           `db:"destino_id" json:"destination_id"`
	Amount        decimal.Decimal `db:"montante" json:"amount"`
	Type          string          `db:"tipo" json:"type"`
	Status        string          `db:"status" json:"status"`
	Description   string          `db:"descricao" json:"description"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// NewSettlementTransaction builds an approved debit row for an automated
// settlement posting.
func NewSettlementTransaction(originID, destinationID int64, amount decimal.Decimal, description string, groupID *uuid.UUID) *Transaction {
	now := time.Now()
	return &Transaction{
		GroupID:       groupID,
		OriginID:      originID,
		DestinationID: destinationID,
		Amount:        amount,
		Type:          TypeDebit,
		Status:        StatusApproved,
		Description:   description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
