package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prasetya/credit-ledger/internal/domain"
	"github.com/prasetya/credit-ledger/internal/notifier"
	"github.com/prasetya/credit-ledger/internal/repository"
	"github.com/prasetya/credit-ledger/pkg/utils"
)

// SweepService is the periodic reminder/overdue/credit-warning evaluation.
// It reads committed ledger state, computes notification intents and emits
// them; it never mutates the ledger. Each entity is evaluated independently
// so one failure never blocks the rest of the sweep.
type SweepService struct {
	accounts    repository.AccountRepository
	obligations repository.ObligationRepository
	sink        notifier.NotificationSink
}

func NewSweepService(
	accounts repository.AccountRepository,
	obligations repository.ObligationRepository,
	sink notifier.NotificationSink,
) *SweepService {
	return &SweepService{
		accounts:    accounts,
		obligations: obligations,
		sink:        sink,
	}
}

// SweepSummary reports what one sweep did.
type SweepSummary struct {
	Obligations int
	Accounts    int
	Emitted     int
	Failed      int
}

// Run executes one sweep as of now. Re-running within the same calendar day
// with unchanged state produces the same intent set: triggers match exact
// day offsets, not thresholds, so nothing fires twice as days pass.
func (s *SweepService) Run(ctx context.Context, now time.Time) (*SweepSummary, error) {
	summary := &SweepSummary{}

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}

	customerByAccount := make(map[uuid.UUID]uuid.UUID, len(accounts))
	for _, account := range accounts {
		customerByAccount[account.ID] = account.CustomerID
	}

	pending, err := s.obligations.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	for _, obligation := range pending {
		summary.Obligations++

		customerID, ok := customerByAccount[obligation.AccountID]
		if !ok {
			log.Printf("sweep: obligation %s references unknown account %s", obligation.ID, obligation.AccountID)
			summary.Failed++
			continue
		}

		intent := ObligationIntent(now, obligation, customerID)
		if intent == nil {
			continue
		}

		if err := s.sink.Emit(ctx, intent); err != nil {
			log.Printf("sweep: emit failed for obligation %s: %v", obligation.ID, err)
			summary.Failed++
			continue
		}
		summary.Emitted++
	}

	for _, account := range accounts {
		summary.Accounts++

		intent := CreditWarningIntent(account)
		if intent == nil {
			continue
		}

		if err := s.sink.Emit(ctx, intent); err != nil {
			log.Printf("sweep: emit failed for account %s: %v", account.ID, err)
			summary.Failed++
			continue
		}
		summary.Emitted++
	}

	log.Printf("sweep done: obligations=%d accounts=%d emitted=%d failed=%d",
		summary.Obligations, summary.Accounts, summary.Emitted, summary.Failed)

	return summary, nil
}

// ObligationIntent decides whether one pending obligation triggers a
// reminder as of now. Upcoming reminders fire 7, 3 and 1 days before the
// due date; overdue notices 1, 7 and 30 days past it. Exact-day matching
// makes each trigger fire on a single day only.
func ObligationIntent(now time.Time, o *domain.Obligation, customerID uuid.UUID) *domain.NotificationIntent {
	days := utils.DaysUntilDue(o.DueDate, now)

	for _, offset := range domain.UpcomingOffsets {
		if days == offset {
			return &domain.NotificationIntent{
				Kind:         domain.IntentUpcoming,
				CustomerID:   customerID,
				ObligationID: o.ID,
				DaysOffset:   offset,
				AmountDue:    o.DueAmount(),
			}
		}
	}

	for _, offset := range domain.OverdueOffsets {
		if days == offset {
			return &domain.NotificationIntent{
				Kind:         domain.IntentOverdue,
				CustomerID:   customerID,
				ObligationID: o.ID,
				DaysOffset:   offset,
				AmountDue:    o.DueAmount(),
			}
		}
	}

	return nil
}

// CreditWarningIntent fires at most one warning per account per sweep: the
// highest usage threshold currently met. Escalate, don't spam.
func CreditWarningIntent(account *domain.CreditAccount) *domain.NotificationIntent {
	if account.CreditLimit.IsZero() {
		return nil
	}

	used := account.PercentageUsed()
	for _, threshold := range domain.WarningThresholds {
		if used.GreaterThanOrEqual(decimal.NewFromInt(threshold)) {
			return &domain.NotificationIntent{
				Kind:           domain.IntentCreditWarning,
				CustomerID:     account.CustomerID,
				PercentageUsed: used.Round(2),
				AmountDue:      account.Balance,
			}
		}
	}

	return nil
}
