package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prasetya/credit-ledger/internal/domain"
)

type accountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.CreditAccount) error {
	query := `
		INSERT INTO credit_accounts (id, customer_id, credit_limit, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
		account.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.CustomerID,
		account.CreditLimit,
		account.Balance,
		account.CreatedAt,
		account.UpdatedAt,
	)

	return err
}

func (r *accountRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.CreditAccount, error) {
	query := `
		SELECT id, customer_id, credit_limit, balance, created_at, updated_at
		FROM credit_accounts
		WHERE customer_id = $1
	`

	var account domain.CreditAccount
	err := r.db.GetContext(ctx, &account, query, customerID)
	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (r *accountRepository) Delete(ctx context.Context, accountID uuid.UUID) error {
	query := `DELETE FROM credit_accounts WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, accountID)
	return err
}

func (r *accountRepository) List(ctx context.Context) ([]*domain.CreditAccount, error) {
	query := `
		SELECT id, customer_id, credit_limit, balance, created_at, updated_at
		FROM credit_accounts
		ORDER BY created_at
	`

	var accounts []*domain.CreditAccount
	err := r.db.SelectContext(ctx, &accounts, query)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}
