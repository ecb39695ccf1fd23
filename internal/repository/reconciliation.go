package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/prasetya/credit-ledger/internal/domain"
	customError "github.com/prasetya/credit-ledger/pkg/errors"
)

// Postgres error codes translated to typed ledger errors.
const (
	pqLockNotAvailable     = "55P03"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
)

// Unique index backing the durable duplicate-payment fence; violations on it
// mean a concurrent retry slipped past the pre-transaction key check.
const idemKeyIndex = "idx_payments_idempotency_key"

type reconciler struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

// NewReconciler builds the reconciliation transaction runner. lockTimeout
// bounds how long a transaction waits for the account row lock.
func NewReconciler(db *sqlx.DB, lockTimeout time.Duration) Reconciler {
	return &reconciler{db: db, lockTimeout: lockTimeout}
}

func (r *reconciler) WithinTx(ctx context.Context, fn func(ctx context.Context, store ReconStore) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	defer tx.Rollback()

	timeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
	if _, err := tx.ExecContext(ctx, timeout); err != nil {
		return customError.WrapDatabaseError(err)
	}

	if err := fn(ctx, &reconStore{tx: tx}); err != nil {
		return translatePQ(err)
	}

	if err := tx.Commit(); err != nil {
		return translatePQ(err)
	}

	return nil
}

// translatePQ maps Postgres lock/serialization failures to the recoverable
// concurrency errors of the ledger, and idempotency-key collisions to the
// same duplicate-payment error the pre-transaction check reports; everything
// else passes through.
func translatePQ(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqLockNotAvailable:
			return customError.WrapLockTimeout(err)
		case pqSerializationFailure, pqDeadlockDetected:
			return customError.WrapTxConflict(err)
		case pqUniqueViolation:
			if pqErr.Constraint == idemKeyIndex {
				return customError.NewBusinessError(
					customError.ErrCodeDuplicatePayment,
					customError.KindBusiness,
					"Payment with this idempotency key was already applied",
					customError.ErrDuplicatePayment,
				)
			}
		}
	}
	return err
}

type reconStore struct {
	tx *sqlx.Tx
}

func (s *reconStore) LockAccount(ctx context.Context, accountID uuid.UUID) (*domain.CreditAccount, error) {
	query := `
		SELECT id, customer_id, credit_limit, balance, created_at, updated_at
		FROM credit_accounts
		WHERE id = $1
		FOR UPDATE
	`

	var account domain.CreditAccount
	err := s.tx.GetContext(ctx, &account, query, accountID)
	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (s *reconStore) UpdateBalance(ctx context.Context, accountID uuid.UUID, balance decimal.Decimal) error {
	query := `
		UPDATE credit_accounts
		SET balance = $2, updated_at = $3
		WHERE id = $1
	`

	_, err := s.tx.ExecContext(ctx, query, accountID, balance, time.Now())
	return err
}

func (s *reconStore) UpdateLimit(ctx context.Context, accountID uuid.UUID, limit decimal.Decimal) error {
	query := `
		UPDATE credit_accounts
		SET credit_limit = $2, updated_at = $3
		WHERE id = $1
	`

	_, err := s.tx.ExecContext(ctx, query, accountID, limit, time.Now())
	return err
}

func (s *reconStore) PendingObligations(ctx context.Context, accountID uuid.UUID) ([]*domain.Obligation, error) {
	query := `
		SELECT id, account_id, principal, interest_rate, paid_to_date, due_date, status, created_at, updated_at
		FROM obligations
		WHERE account_id = $1 AND status = 'pending'
		ORDER BY created_at, id
	`

	var obligations []*domain.Obligation
	err := s.tx.SelectContext(ctx, &obligations, query, accountID)
	if err != nil {
		return nil, err
	}

	return obligations, nil
}

func (s *reconStore) GetObligation(ctx context.Context, id uuid.UUID) (*domain.Obligation, error) {
	query := `
		SELECT id, account_id, principal, interest_rate, paid_to_date, due_date, status, created_at, updated_at
		FROM obligations
		WHERE id = $1
	`

	var obligation domain.Obligation
	err := s.tx.GetContext(ctx, &obligation, query, id)
	if err != nil {
		return nil, err
	}

	return &obligation, nil
}

func (s *reconStore) InsertObligation(ctx context.Context, o *domain.Obligation) error {
	query := `
		INSERT INTO obligations (id, account_id, principal, interest_rate, paid_to_date, due_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.tx.ExecContext(ctx, query,
		o.ID,
		o.AccountID,
		o.Principal,
		o.InterestRate,
		o.PaidToDate,
		o.DueDate,
		o.Status,
		o.CreatedAt,
		o.UpdatedAt,
	)

	return err
}

func (s *reconStore) UpdateObligation(ctx context.Context, o *domain.Obligation) error {
	query := `
		UPDATE obligations
		SET paid_to_date = $2, status = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := s.tx.ExecContext(ctx, query, o.ID, o.PaidToDate, o.Status, time.Now())
	return err
}

func (s *reconStore) InsertPayment(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (id, account_id, amount, method, status, idempotency_key, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
	`

	_, err := s.tx.ExecContext(ctx, query,
		p.ID,
		p.AccountID,
		p.Amount,
		p.Method,
		p.Status,
		p.IdempotencyKey,
		p.PaidAt,
		p.CreatedAt,
	)

	return err
}

func (s *reconStore) InsertAllocations(ctx context.Context, allocations []*domain.PaymentAllocation) error {
	query := `
		INSERT INTO payment_allocations (id, payment_id, obligation_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, allocation := range allocations {
		_, err := s.tx.ExecContext(ctx, query,
			allocation.ID,
			allocation.PaymentID,
			allocation.ObligationID,
			allocation.Amount,
			allocation.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}
