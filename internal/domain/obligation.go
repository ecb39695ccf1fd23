package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ObligationStatusPending   = "pending"
	ObligationStatusCompleted = "completed"
	ObligationStatusCancelled = "cancelled"
)

// Obligation is a single credit-sale debt record. It is created together
// with the balance increment on its account ("credit is extended") and only
// the payment allocator or a lifecycle override mutates it afterwards.
// Obligations are never physically deleted; payment allocations keep
// referencing cancelled ones for audit history.
type Obligation struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	AccountID    uuid.UUID       `json:"account_id" db:"account_id"`
	Principal    decimal.Decimal `json:"principal" db:"principal"`
	InterestRate decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	PaidToDate   decimal.Decimal `json:"paid_to_date" db:"paid_to_date"`
	DueDate      time.Time       `json:"due_date" db:"due_date"`
	Status       string          `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// RemainingBalance is the unpaid part of the principal.
func (o *Obligation) RemainingBalance() decimal.Decimal {
	return o.Principal.Sub(o.PaidToDate)
}

// DueAmount applies the flat interest rate to the unpaid remainder only.
func (o *Obligation) DueAmount() decimal.Decimal {
	remaining := o.RemainingBalance()
	interest := remaining.Mul(o.InterestRate).Div(decimal.NewFromInt(100))
	return remaining.Add(interest).Round(2)
}

// IsSettled reports whether the principal is fully paid.
func (o *Obligation) IsSettled() bool {
	return o.PaidToDate.GreaterThanOrEqual(o.Principal)
}

type ExtendCreditRequest struct {
	Principal    decimal.Decimal `json:"principal" validate:"required"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	DueDate      time.Time       `json:"due_date" validate:"required"`
}

type ObligationResponse struct {
	*Obligation
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	DueAmount        decimal.Decimal `json:"due_amount"`
}

func NewObligationResponse(o *Obligation) *ObligationResponse {
	return &ObligationResponse{
		Obligation:       o,
		RemainingBalance: o.RemainingBalance(),
		DueAmount:        o.DueAmount(),
	}
}

// AgingBucket is one row of the receivables aging report.
type AgingBucket struct {
	Label     string          `json:"label"`
	Count     int             `json:"count"`
	AmountDue decimal.Decimal `json:"amount_due"`
}

type AgingReport struct {
	CustomerID uuid.UUID     `json:"customer_id"`
	AsOf       time.Time     `json:"as_of"`
	Buckets    []AgingBucket `json:"buckets"`
}
