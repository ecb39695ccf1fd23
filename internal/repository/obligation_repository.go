package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prasetya/credit-ledger/internal/domain"
)

type obligationRepository struct {
	db *sqlx.DB
}

func NewObligationRepository(db *sqlx.DB) ObligationRepository {
	return &obligationRepository{db: db}
}

func (r *obligationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Obligation, error) {
	query := `
		SELECT id, account_id, principal, interest_rate, paid_to_date, due_date, status, created_at, updated_at
		FROM obligations
		WHERE id = $1
	`

	var obligation domain.Obligation
	err := r.db.GetContext(ctx, &obligation, query, id)
	if err != nil {
		return nil, err
	}

	return &obligation, nil
}

func (r *obligationRepository) ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*domain.Obligation, error) {
	query := `
		SELECT id, account_id, principal, interest_rate, paid_to_date, due_date, status, created_at, updated_at
		FROM obligations
		WHERE account_id = $1
		ORDER BY created_at, id
	`

	var obligations []*domain.Obligation
	err := r.db.SelectContext(ctx, &obligations, query, accountID)
	if err != nil {
		return nil, err
	}

	return obligations, nil
}

func (r *obligationRepository) ListPending(ctx context.Context) ([]*domain.Obligation, error) {
	query := `
		SELECT id, account_id, principal, interest_rate, paid_to_date, due_date, status, created_at, updated_at
		FROM obligations
		WHERE status = 'pending'
		ORDER BY created_at, id
	`

	var obligations []*domain.Obligation
	err := r.db.SelectContext(ctx, &obligations, query)
	if err != nil {
		return nil, err
	}

	return obligations, nil
}
