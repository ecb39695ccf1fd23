package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditAccount tracks how much credit has been extended to one customer
// against an approved limit. Invariant: 0 <= Balance <= CreditLimit at every
// committed state.
type CreditAccount struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	CustomerID  uuid.UUID       `json:"customer_id" db:"customer_id"`
	CreditLimit decimal.Decimal `json:"credit_limit" db:"credit_limit"`
	Balance     decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// AvailableCredit is derived, never stored.
func (a *CreditAccount) AvailableCredit() decimal.Decimal {
	return a.CreditLimit.Sub(a.Balance)
}

// PercentageUsed returns Balance/CreditLimit as a percentage. Zero-limit
// accounts report zero usage.
func (a *CreditAccount) PercentageUsed() decimal.Decimal {
	if a.CreditLimit.IsZero() {
		return decimal.Zero
	}
	return a.Balance.Div(a.CreditLimit).Mul(decimal.NewFromInt(100))
}

// DTOs for requests and responses

type CreateAccountRequest struct {
	CustomerID  string          `json:"customer_id" validate:"required,uuid"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

type SetLimitRequest struct {
	NewLimit decimal.Decimal `json:"new_limit"`
}

type AccountResponse struct {
	*CreditAccount
	AvailableCredit decimal.Decimal `json:"available_credit"`
}

func NewAccountResponse(a *CreditAccount) *AccountResponse {
	return &AccountResponse{CreditAccount: a, AvailableCredit: a.AvailableCredit()}
}
