package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/prasetya/credit-ledger/internal/config"
	"github.com/prasetya/credit-ledger/internal/domain"
	"github.com/prasetya/credit-ledger/internal/repository"
	customError "github.com/prasetya/credit-ledger/pkg/errors"
)

const idemKeyPrefix = "payment:idem:"

// PaymentService converts one incoming payment into a deterministic set of
// per-obligation allocations and applies it as a single all-or-nothing
// reconciliation transaction.
type PaymentService struct {
	accounts repository.AccountRepository
	payments repository.PaymentRepository
	recon    repository.Reconciler
	redis    *redis.Client
	config   *config.Config
}

func NewPaymentService(
	accounts repository.AccountRepository,
	payments repository.PaymentRepository,
	recon repository.Reconciler,
	redisClient *redis.Client,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		accounts: accounts,
		payments: payments,
		recon:    recon,
		redis:    redisClient,
		config:   cfg,
	}
}

// RecordPayment applies a payment for a customer across outstanding
// obligations, oldest first. When a target obligation is given the candidate
// set is exactly that obligation; any residual fails the whole transaction
// rather than spilling over.
func (s *PaymentService) RecordPayment(ctx context.Context, customerID uuid.UUID, request *domain.PaymentRequest) (*domain.PaymentResult, error) {
	if !request.Amount.IsPositive() {
		return nil, customError.WrapInvalidAmount(request.Amount.String())
	}

	account, err := s.accounts.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAccountNotFound(customerID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	claimed, err := s.claimIdempotencyKey(ctx, request.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	result, err := s.applyPayment(ctx, account.ID, customerID, request)
	if err != nil {
		// Release the claim so a corrected retry is not blocked.
		if claimed {
			s.releaseIdempotencyKey(ctx, request.IdempotencyKey)
		}
		return nil, err
	}

	return result, nil
}

// claimIdempotencyKey reserves the caller-supplied key. The allocator
// itself stays retry-agnostic; this is the duplicate-detection boundary the
// caller contracts into by sending a key. The payment table is checked
// first as the durable backstop, then the key is claimed in Redis to fence
// concurrent retries. Returns whether a Redis claim was actually taken.
func (s *PaymentService) claimIdempotencyKey(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}

	if s.payments != nil {
		existing, err := s.payments.GetByIdempotencyKey(ctx, key)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, customError.WrapDatabaseError(err)
		}
		if existing != nil {
			return false, customError.WrapDuplicatePayment(key)
		}
	}

	if s.redis == nil {
		return false, nil
	}

	ok, err := s.redis.SetNX(ctx, idemKeyPrefix+key, time.Now().Unix(), s.config.GetIdempotencyTTL()).Result()
	if err != nil {
		return false, customError.WrapCacheError(err)
	}
	if !ok {
		return false, customError.WrapDuplicatePayment(key)
	}

	return true, nil
}

func (s *PaymentService) releaseIdempotencyKey(ctx context.Context, key string) {
	if err := s.redis.Del(ctx, idemKeyPrefix+key).Err(); err != nil {
		log.Printf("failed to release idempotency key %s: %v", key, err)
	}
}

func (s *PaymentService) applyPayment(ctx context.Context, accountID, customerID uuid.UUID, request *domain.PaymentRequest) (*domain.PaymentResult, error) {
	var result *domain.PaymentResult

	err := s.recon.WithinTx(ctx, func(ctx context.Context, store repository.ReconStore) error {
		account, err := store.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}

		if request.Amount.GreaterThan(account.Balance) {
			return customError.WrapOverPayment(request.Amount.String(), account.Balance.String())
		}

		candidates, err := s.candidateObligations(ctx, store, account, request)
		if err != nil {
			return err
		}

		plan, err := planAllocation(request.Amount, candidates)
		if err != nil {
			if errors.Is(err, customError.ErrNoOutstandingObligations) {
				return customError.WrapNoOutstandingObligations(customerID.String())
			}
			return err
		}

		now := time.Now()
		paidAt := request.PaidAt
		if paidAt.IsZero() {
			paidAt = now
		}

		payment := &domain.Payment{
			ID:             uuid.New(),
			AccountID:      account.ID,
			Amount:         plan.applied,
			Method:         request.Method,
			Status:         domain.PaymentStatusCompleted,
			IdempotencyKey: request.IdempotencyKey,
			PaidAt:         paidAt,
			CreatedAt:      now,
		}

		allocations := make([]*domain.PaymentAllocation, 0, len(plan.entries))
		updated := make([]*domain.ObligationResponse, 0, len(plan.entries))

		for _, entry := range plan.entries {
			obligation := entry.obligation
			obligation.PaidToDate = obligation.PaidToDate.Add(entry.amount)
			if obligation.IsSettled() {
				obligation.Status = domain.ObligationStatusCompleted
			}

			if err := store.UpdateObligation(ctx, obligation); err != nil {
				return err
			}

			allocations = append(allocations, &domain.PaymentAllocation{
				ID:           uuid.New(),
				PaymentID:    payment.ID,
				ObligationID: obligation.ID,
				Amount:       entry.amount,
				CreatedAt:    now,
			})
			updated = append(updated, domain.NewObligationResponse(obligation))
		}

		newBalance := account.Balance.Sub(plan.applied)
		if newBalance.IsNegative() {
			return customError.WrapOverPayment(plan.applied.String(), account.Balance.String())
		}

		if err := store.UpdateBalance(ctx, account.ID, newBalance); err != nil {
			return err
		}

		if err := store.InsertPayment(ctx, payment); err != nil {
			return err
		}

		if err := store.InsertAllocations(ctx, allocations); err != nil {
			return err
		}

		result = &domain.PaymentResult{
			Payment:            payment,
			Allocations:        allocations,
			NewBalance:         newBalance,
			UpdatedObligations: updated,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("payment %s applied: customer=%s amount=%s obligations=%d",
		result.Payment.ID, customerID, result.Payment.Amount, len(result.Allocations))

	return result, nil
}

// candidateObligations resolves the waterfall candidate set: the single
// target obligation when one was supplied, otherwise every pending
// obligation on the account.
func (s *PaymentService) candidateObligations(ctx context.Context, store repository.ReconStore, account *domain.CreditAccount, request *domain.PaymentRequest) ([]*domain.Obligation, error) {
	if request.TargetObligationID == "" {
		return store.PendingObligations(ctx, account.ID)
	}

	targetID, err := uuid.Parse(request.TargetObligationID)
	if err != nil {
		return nil, customError.WrapObligationNotFound(request.TargetObligationID)
	}

	obligation, err := store.GetObligation(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapObligationNotFound(request.TargetObligationID)
		}
		return nil, err
	}

	if obligation.AccountID != account.ID {
		return nil, customError.WrapObligationNotFound(request.TargetObligationID)
	}

	return []*domain.Obligation{obligation}, nil
}

// GetPayments returns the payment history for a customer.
func (s *PaymentService) GetPayments(ctx context.Context, customerID uuid.UUID) ([]*domain.Payment, error) {
	account, err := s.accounts.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAccountNotFound(customerID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	payments, err := s.payments.ListByAccountID(ctx, account.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return payments, nil
}

// GetAllocations returns how one payment was split across obligations.
func (s *PaymentService) GetAllocations(ctx context.Context, paymentID uuid.UUID) ([]*domain.PaymentAllocation, error) {
	allocations, err := s.payments.ListAllocations(ctx, paymentID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return allocations, nil
}
