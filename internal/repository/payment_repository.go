package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prasetya/credit-ledger/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT id, account_id, amount, method, status, COALESCE(idempotency_key, '') AS idempotency_key, paid_at, created_at
		FROM payments
		WHERE account_id = $1
		ORDER BY paid_at DESC, id
	`

	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, query, accountID)
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) ListAllocations(ctx context.Context, paymentID uuid.UUID) ([]*domain.PaymentAllocation, error) {
	query := `
		SELECT id, payment_id, obligation_id, amount, created_at
		FROM payment_allocations
		WHERE payment_id = $1
		ORDER BY created_at, id
	`

	var allocations []*domain.PaymentAllocation
	err := r.db.SelectContext(ctx, &allocations, query, paymentID)
	if err != nil {
		return nil, err
	}

	return allocations, nil
}

func (r *paymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	query := `
		SELECT id, account_id, amount, method, status, COALESCE(idempotency_key, '') AS idempotency_key, paid_at, created_at
		FROM payments
		WHERE idempotency_key = $1
	`

	var payment domain.Payment
	err := r.db.GetContext(ctx, &payment, query, key)
	if err != nil {
		return nil, err
	}

	return &payment, nil
}
