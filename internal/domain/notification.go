package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	IntentUpcoming      = "upcoming"
	IntentOverdue       = "overdue"
	IntentCreditWarning = "credit_warning"
)

// Escalation trigger points. Day offsets match exactly (not >=) so each
// reminder fires on the single day the clock crosses it. Warning thresholds
// are walked highest-first and only the highest one met fires.
var (
	UpcomingOffsets   = []int{7, 3, 1}
	OverdueOffsets    = []int{-1, -7, -30}
	WarningThresholds = []int64{95, 85, 70}
)

// NotificationIntent is the decision to notify, emitted to an external
// dispatcher. The ledger does not know or care whether delivery succeeds.
type NotificationIntent struct {
	Kind           string          `json:"kind"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	ObligationID   uuid.UUID       `json:"obligation_id,omitempty"`
	DaysOffset     int             `json:"days_offset,omitempty"`
	PercentageUsed decimal.Decimal `json:"percentage_used,omitempty"`
	AmountDue      decimal.Decimal `json:"amount_due"`
}
