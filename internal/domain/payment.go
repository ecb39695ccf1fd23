package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

const (
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodGateway      = "gateway"
)

// Payment is the historical record of one incoming payment. It is written in
// the same transaction as the account and obligation mutations it caused and
// is immutable once completed; corrections are new compensating payments.
type Payment struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	AccountID      uuid.UUID       `json:"account_id" db:"account_id"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Method         string          `json:"method" db:"method"`
	Status         string          `json:"status" db:"status"`
	IdempotencyKey string          `json:"idempotency_key,omitempty" db:"idempotency_key"`
	PaidAt         time.Time       `json:"paid_at" db:"paid_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// PaymentAllocation is the portion of one payment applied to one obligation.
// A payment that fans out across several obligations produces one row per
// obligation touched.
type PaymentAllocation struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	PaymentID    uuid.UUID       `json:"payment_id" db:"payment_id"`
	ObligationID uuid.UUID       `json:"obligation_id" db:"obligation_id"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

type PaymentRequest struct {
	Amount             decimal.Decimal `json:"amount" validate:"required"`
	Method             string          `json:"method" validate:"required,oneof=cash bank_transfer gateway"`
	PaidAt             time.Time       `json:"paid_at"`
	TargetObligationID string          `json:"target_obligation_id,omitempty" validate:"omitempty,uuid"`
	IdempotencyKey     string          `json:"idempotency_key,omitempty"`
}

type PaymentResult struct {
	Payment            *Payment              `json:"payment"`
	Allocations        []*PaymentAllocation  `json:"allocations"`
	NewBalance         decimal.Decimal       `json:"new_balance"`
	UpdatedObligations []*ObligationResponse `json:"updated_obligations"`
}
