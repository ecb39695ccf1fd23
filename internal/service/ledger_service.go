package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prasetya/credit-ledger/internal/config"
	"github.com/prasetya/credit-ledger/internal/domain"
	"github.com/prasetya/credit-ledger/internal/repository"
	customError "github.com/prasetya/credit-ledger/pkg/errors"
	"github.com/prasetya/credit-ledger/pkg/utils"
)

// LedgerService owns the credit account lifecycle: booking new credit sales
// against the limit, limit changes, lifecycle overrides and the read
// projections. Every read-then-write path goes through the reconciliation
// transaction so balance and obligation state cannot diverge.
type LedgerService struct {
	accounts    repository.AccountRepository
	obligations repository.ObligationRepository
	recon       repository.Reconciler
	config      *config.Config
}

func NewLedgerService(
	accounts repository.AccountRepository,
	obligations repository.ObligationRepository,
	recon repository.Reconciler,
	cfg *config.Config,
) *LedgerService {
	return &LedgerService{
		accounts:    accounts,
		obligations: obligations,
		recon:       recon,
		config:      cfg,
	}
}

// CreateAccount opens a credit account for a customer with a zero balance.
func (s *LedgerService) CreateAccount(ctx context.Context, customerID uuid.UUID, creditLimit decimal.Decimal) (*domain.CreditAccount, error) {
	if creditLimit.IsNegative() {
		return nil, customError.WrapInvalidAmount(creditLimit.String())
	}
	if creditLimit.IsZero() && s.config != nil {
		creditLimit = s.config.GetDefaultLimit()
	}

	existing, err := s.accounts.GetByCustomerID(ctx, customerID)
	if err == nil && existing != nil {
		return nil, customError.WrapAccountAlreadyExists(customerID.String())
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	now := time.Now()
	account := &domain.CreditAccount{
		ID:          uuid.New(),
		CustomerID:  customerID,
		CreditLimit: creditLimit,
		Balance:     decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return account, nil
}

// GetAccount returns the account with its derived available credit.
func (s *LedgerService) GetAccount(ctx context.Context, customerID uuid.UUID) (*domain.AccountResponse, error) {
	account, err := s.accounts.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAccountNotFound(customerID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	return domain.NewAccountResponse(account), nil
}

// DeleteAccount removes an account that never booked a sale. Any obligation
// on record, regardless of status, blocks deletion so payment history stays
// resolvable.
func (s *LedgerService) DeleteAccount(ctx context.Context, customerID uuid.UUID) error {
	account, err := s.accounts.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapAccountNotFound(customerID.String())
		}
		return customError.WrapDatabaseError(err)
	}

	obligations, err := s.obligations.ListByAccountID(ctx, account.ID)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if len(obligations) > 0 {
		return customError.WrapAccountHasObligations(customerID.String())
	}

	if err := s.accounts.Delete(ctx, account.ID); err != nil {
		return customError.WrapDatabaseError(err)
	}

	return nil
}

// ExtendCredit books a new credit sale: the obligation is created and the
// account balance incremented by the principal in one transaction. Fails
// with LimitExceeded when the principal does not fit the available credit.
func (s *LedgerService) ExtendCredit(ctx context.Context, customerID uuid.UUID, request *domain.ExtendCreditRequest) (*domain.Obligation, error) {
	if !request.Principal.IsPositive() || request.InterestRate.IsNegative() {
		return nil, customError.WrapInvalidAmount(request.Principal.String())
	}

	account, err := s.accounts.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAccountNotFound(customerID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	var obligation *domain.Obligation

	err = s.recon.WithinTx(ctx, func(ctx context.Context, store repository.ReconStore) error {
		locked, err := store.LockAccount(ctx, account.ID)
		if err != nil {
			return err
		}

		newBalance := locked.Balance.Add(request.Principal)
		if newBalance.GreaterThan(locked.CreditLimit) {
			return customError.WrapLimitExceeded(request.Principal.String(), locked.AvailableCredit().String())
		}

		now := time.Now()
		obligation = &domain.Obligation{
			ID:           uuid.New(),
			AccountID:    locked.ID,
			Principal:    request.Principal,
			InterestRate: request.InterestRate,
			PaidToDate:   decimal.Zero,
			DueDate:      utils.TruncateToDay(request.DueDate),
			Status:       domain.ObligationStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := store.InsertObligation(ctx, obligation); err != nil {
			return err
		}

		return store.UpdateBalance(ctx, locked.ID, newBalance)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("credit extended: customer=%s obligation=%s principal=%s",
		customerID, obligation.ID, obligation.Principal)

	return obligation, nil
}

// SetLimit changes the approved limit, re-validating the balance invariant
// against the current balance under the account lock.
func (s *LedgerService) SetLimit(ctx context.Context, customerID uuid.UUID, newLimit decimal.Decimal) (*domain.AccountResponse, error) {
	if newLimit.IsNegative() {
		return nil, customError.WrapInvalidAmount(newLimit.String())
	}

	account, err := s.accounts.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAccountNotFound(customerID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	var updated *domain.CreditAccount

	err = s.recon.WithinTx(ctx, func(ctx context.Context, store repository.ReconStore) error {
		locked, err := store.LockAccount(ctx, account.ID)
		if err != nil {
			return err
		}

		if newLimit.LessThan(locked.Balance) {
			return customError.WrapLimitBelowBalance(newLimit.String(), locked.Balance.String())
		}

		if err := store.UpdateLimit(ctx, locked.ID, newLimit); err != nil {
			return err
		}

		locked.CreditLimit = newLimit
		updated = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	return domain.NewAccountResponse(updated), nil
}

// CancelObligation soft-terminates a pending sale and releases its reserved
// credit by decrementing the balance by the remaining amount. Terminal
// states reject the transition.
func (s *LedgerService) CancelObligation(ctx context.Context, obligationID uuid.UUID) (*domain.Obligation, error) {
	return s.overrideStatus(ctx, obligationID, domain.ObligationStatusCancelled)
}

// SettleObligation is the manual completed override: paid_to_date jumps to
// the principal and the balance drops by the outstanding remainder, under
// the same transaction discipline as the allocator.
func (s *LedgerService) SettleObligation(ctx context.Context, obligationID uuid.UUID) (*domain.Obligation, error) {
	return s.overrideStatus(ctx, obligationID, domain.ObligationStatusCompleted)
}

func (s *LedgerService) overrideStatus(ctx context.Context, obligationID uuid.UUID, target string) (*domain.Obligation, error) {
	current, err := s.obligations.GetByID(ctx, obligationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapObligationNotFound(obligationID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	var result *domain.Obligation

	err = s.recon.WithinTx(ctx, func(ctx context.Context, store repository.ReconStore) error {
		locked, err := store.LockAccount(ctx, current.AccountID)
		if err != nil {
			return err
		}

		// Re-read under the lock; the pre-read only resolved the account.
		obligation, err := store.GetObligation(ctx, obligationID)
		if err != nil {
			return err
		}

		if obligation.Status != domain.ObligationStatusPending {
			return customError.WrapInvalidTransition(obligationID.String(), obligation.Status)
		}

		released := obligation.RemainingBalance()
		newBalance := locked.Balance.Sub(released)
		if newBalance.IsNegative() {
			return customError.WrapDatabaseError(errors.New("balance would drop below zero, ledger state is inconsistent"))
		}

		obligation.Status = target
		if target == domain.ObligationStatusCompleted {
			obligation.PaidToDate = obligation.Principal
		}

		if err := store.UpdateObligation(ctx, obligation); err != nil {
			return err
		}

		if err := store.UpdateBalance(ctx, locked.ID, newBalance); err != nil {
			return err
		}

		result = obligation
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("obligation %s overridden to %s", obligationID, target)

	return result, nil
}

// ListObligations returns every obligation for a customer with derived
// remaining balances and due amounts.
func (s *LedgerService) ListObligations(ctx context.Context, customerID uuid.UUID) ([]*domain.ObligationResponse, error) {
	account, err := s.accounts.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAccountNotFound(customerID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	obligations, err := s.obligations.ListByAccountID(ctx, account.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	responses := make([]*domain.ObligationResponse, 0, len(obligations))
	for _, o := range obligations {
		responses = append(responses, domain.NewObligationResponse(o))
	}

	return responses, nil
}

// AgingReport buckets the customer's pending obligations by how many days
// overdue they are. Pure derived read, no side effects.
func (s *LedgerService) AgingReport(ctx context.Context, customerID uuid.UUID, now time.Time) (*domain.AgingReport, error) {
	account, err := s.accounts.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAccountNotFound(customerID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	obligations, err := s.obligations.ListByAccountID(ctx, account.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	totals := make(map[string]*domain.AgingBucket)
	for _, label := range utils.AgingBucketLabels() {
		totals[label] = &domain.AgingBucket{Label: label, AmountDue: decimal.Zero}
	}

	for _, o := range obligations {
		if o.Status != domain.ObligationStatusPending {
			continue
		}

		daysOverdue := -utils.DaysUntilDue(o.DueDate, now)
		bucket := totals[utils.AgingBucket(daysOverdue)]
		bucket.Count++
		bucket.AmountDue = bucket.AmountDue.Add(o.DueAmount())
	}

	report := &domain.AgingReport{
		CustomerID: customerID,
		AsOf:       utils.TruncateToDay(now),
	}
	for _, label := range utils.AgingBucketLabels() {
		report.Buckets = append(report.Buckets, *totals[label])
	}

	return report, nil
}
