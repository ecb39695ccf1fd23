package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prasetya/credit-ledger/internal/domain"
)

// AccountRepository defines read access to credit accounts
type AccountRepository interface {
	// Create creates a new credit account
	Create(ctx context.Context, account *domain.CreditAccount) error

	// GetByCustomerID retrieves the account owned by a customer
	GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.CreditAccount, error)

	// List retrieves every account (used by the sweep)
	List(ctx context.Context) ([]*domain.CreditAccount, error)

	// Delete removes an account. Callers must first verify no obligation
	// references it; payments and allocations keep their history through
	// the obligations, so an account with any booked sale is undeletable.
	Delete(ctx context.Context, accountID uuid.UUID) error
}

// ObligationRepository defines read access to obligations
type ObligationRepository interface {
	// GetByID retrieves one obligation
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Obligation, error)

	// ListByAccountID retrieves all obligations for an account, oldest first
	ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*domain.Obligation, error)

	// ListPending retrieves every pending obligation across all accounts
	// (used by the sweep), oldest first
	ListPending(ctx context.Context) ([]*domain.Obligation, error)
}

// PaymentRepository defines read access to payment history
type PaymentRepository interface {
	// ListByAccountID retrieves all payments for an account, newest first
	ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*domain.Payment, error)

	// ListAllocations retrieves the per-obligation allocations of a payment
	ListAllocations(ctx context.Context, paymentID uuid.UUID) ([]*domain.PaymentAllocation, error)

	// GetByIdempotencyKey retrieves the payment recorded under a key, if any
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)
}

// ReconStore is the transaction-scoped write surface of the ledger. Every
// method runs inside the reconciliation transaction opened by Reconciler;
// nothing here is callable on its own, which is what keeps account balance
// and obligation state from diverging.
type ReconStore interface {
	// LockAccount reads the account row under FOR UPDATE so concurrent
	// transactions on the same account serialize instead of double-spending
	// available credit.
	LockAccount(ctx context.Context, accountID uuid.UUID) (*domain.CreditAccount, error)

	// UpdateBalance writes a new balance for the locked account
	UpdateBalance(ctx context.Context, accountID uuid.UUID, balance decimal.Decimal) error

	// UpdateLimit writes a new credit limit for the locked account
	UpdateLimit(ctx context.Context, accountID uuid.UUID, limit decimal.Decimal) error

	// PendingObligations lists the account's pending obligations ordered by
	// (created_at, id) ascending — the deterministic waterfall order
	PendingObligations(ctx context.Context, accountID uuid.UUID) ([]*domain.Obligation, error)

	// GetObligation reads one obligation inside the transaction
	GetObligation(ctx context.Context, id uuid.UUID) (*domain.Obligation, error)

	// InsertObligation books a new credit sale
	InsertObligation(ctx context.Context, o *domain.Obligation) error

	// UpdateObligation writes paid_to_date and status
	UpdateObligation(ctx context.Context, o *domain.Obligation) error

	// InsertPayment writes the payment record
	InsertPayment(ctx context.Context, p *domain.Payment) error

	// InsertAllocations writes one allocation row per obligation touched
	InsertAllocations(ctx context.Context, allocations []*domain.PaymentAllocation) error
}

// Reconciler runs a function inside one atomic, serializable,
// account-scoped transaction: the whole write set commits or none of it
// does. Lock acquisition is bounded; timeouts surface as LockTimeout.
type Reconciler interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store ReconStore) error) error
}
