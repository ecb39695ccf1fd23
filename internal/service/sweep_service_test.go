package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prasetya/credit-ledger/internal/domain"
)

func sweepAccount(limit, balance int64) *domain.CreditAccount {
	return &domain.CreditAccount{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		CreditLimit: decimal.NewFromInt(limit),
		Balance:     decimal.NewFromInt(balance),
	}
}

func dueObligation(accountID uuid.UUID, dueDate time.Time) *domain.Obligation {
	return &domain.Obligation{
		ID:         uuid.New(),
		AccountID:  accountID,
		Principal:  decimal.NewFromInt(100),
		PaidToDate: decimal.Zero,
		DueDate:    dueDate,
		Status:     domain.ObligationStatusPending,
		CreatedAt:  time.Now(),
	}
}

func TestObligationIntent_ExactOffsets(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	customerID := uuid.New()

	tests := []struct {
		name         string
		daysFromNow  int
		expectedKind string
	}{
		{"seven days ahead", 7, domain.IntentUpcoming},
		{"three days ahead", 3, domain.IntentUpcoming},
		{"one day ahead", 1, domain.IntentUpcoming},
		{"due today", 0, ""},
		{"one day past", -1, domain.IntentOverdue},
		{"seven days past", -7, domain.IntentOverdue},
		{"thirty days past", -30, domain.IntentOverdue},
		{"five days ahead", 5, ""},
		{"two days past", -2, ""},
		{"ninety days past", -90, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := dueObligation(uuid.New(), now.AddDate(0, 0, tt.daysFromNow))
			intent := ObligationIntent(now, o, customerID)

			if tt.expectedKind == "" {
				assert.Nil(t, intent)
				return
			}

			require.NotNil(t, intent)
			assert.Equal(t, tt.expectedKind, intent.Kind)
			assert.Equal(t, tt.daysFromNow, intent.DaysOffset)
			assert.Equal(t, customerID, intent.CustomerID)
			assert.True(t, intent.AmountDue.Equal(o.DueAmount()))
		})
	}
}

func TestCreditWarningIntent_HighestThresholdOnly(t *testing.T) {
	tests := []struct {
		name     string
		balance  int64
		expected int
	}{
		{"below all thresholds", 500, 0},
		{"at seventy", 700, 70},
		{"between seventy and eighty-five", 800, 70},
		{"at eighty-five", 850, 85},
		{"at ninety-five", 950, 95},
		{"maxed out", 1000, 95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := sweepAccount(1000, tt.balance)
			intent := CreditWarningIntent(account)

			if tt.expected == 0 {
				assert.Nil(t, intent)
				return
			}

			require.NotNil(t, intent)
			assert.Equal(t, domain.IntentCreditWarning, intent.Kind)
			assert.True(t, intent.PercentageUsed.GreaterThanOrEqual(decimal.NewFromInt(int64(tt.expected))))
		})
	}
}

func TestCreditWarningIntent_ZeroLimit(t *testing.T) {
	assert.Nil(t, CreditWarningIntent(sweepAccount(0, 0)))
}

func TestSweep_EmitsUpcomingIntent(t *testing.T) {
	now := time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC)
	account := sweepAccount(1000, 100)
	obligation := dueObligation(account.ID, now.AddDate(0, 0, 7))

	accountRepo := &MockAccountRepository{}
	obligationRepo := &MockObligationRepository{}
	sink := &MockNotificationSink{}

	accountRepo.On("List", mock.Anything).Return([]*domain.CreditAccount{account}, nil)
	obligationRepo.On("ListPending", mock.Anything).Return([]*domain.Obligation{obligation}, nil)
	sink.On("Emit", mock.Anything, mock.MatchedBy(func(intent *domain.NotificationIntent) bool {
		return intent.Kind == domain.IntentUpcoming && intent.DaysOffset == 7
	})).Return(nil)

	service := NewSweepService(accountRepo, obligationRepo, sink)

	summary, err := service.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Emitted)
	assert.Equal(t, 0, summary.Failed)

	// Same day, unchanged state: the same single intent again, not zero,
	// not two.
	summary, err = service.Run(context.Background(), now.Add(8*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Emitted)

	sink.AssertNumberOfCalls(t, "Emit", 2)
}

func TestSweep_SkipsCancelledAndCompleted(t *testing.T) {
	now := time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC)
	account := sweepAccount(1000, 100)

	accountRepo := &MockAccountRepository{}
	obligationRepo := &MockObligationRepository{}
	sink := &MockNotificationSink{}

	// The repository only ever hands the sweep pending obligations.
	accountRepo.On("List", mock.Anything).Return([]*domain.CreditAccount{account}, nil)
	obligationRepo.On("ListPending", mock.Anything).Return([]*domain.Obligation{}, nil)

	service := NewSweepService(accountRepo, obligationRepo, sink)

	summary, err := service.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Emitted)
	sink.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything)
}

func TestSweep_SinkFailureIsIsolated(t *testing.T) {
	now := time.Date(2025, 6, 15, 6, 0, 0, 0, time.UTC)
	account := sweepAccount(1000, 960) // 96% used, warning fires

	first := dueObligation(account.ID, now.AddDate(0, 0, 7))
	second := dueObligation(account.ID, now.AddDate(0, 0, 3))

	accountRepo := &MockAccountRepository{}
	obligationRepo := &MockObligationRepository{}
	sink := &MockNotificationSink{}

	accountRepo.On("List", mock.Anything).Return([]*domain.CreditAccount{account}, nil)
	obligationRepo.On("ListPending", mock.Anything).Return([]*domain.Obligation{first, second}, nil)

	// The first emit fails; the sweep must keep going.
	sink.On("Emit", mock.Anything, mock.MatchedBy(func(intent *domain.NotificationIntent) bool {
		return intent.ObligationID == first.ID
	})).Return(errors.New("dispatcher unavailable"))
	sink.On("Emit", mock.Anything, mock.MatchedBy(func(intent *domain.NotificationIntent) bool {
		return intent.ObligationID == second.ID
	})).Return(nil)
	sink.On("Emit", mock.Anything, mock.MatchedBy(func(intent *domain.NotificationIntent) bool {
		return intent.Kind == domain.IntentCreditWarning
	})).Return(nil)

	service := NewSweepService(accountRepo, obligationRepo, sink)

	summary, err := service.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Emitted)
	assert.Equal(t, 1, summary.Failed)
	sink.AssertNumberOfCalls(t, "Emit", 3)
}
