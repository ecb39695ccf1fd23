package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/prasetya/credit-ledger/internal/domain"
	customError "github.com/prasetya/credit-ledger/pkg/errors"
)

// allocationEntry is the planned portion of one payment applied to one
// obligation.
type allocationEntry struct {
	obligation *domain.Obligation
	amount     decimal.Decimal
}

// allocationPlan is the deterministic output of the waterfall: re-running it
// on the same inputs always produces the same split.
type allocationPlan struct {
	entries []allocationEntry
	applied decimal.Decimal
}

// planAllocation walks the candidate obligations oldest-first and applies
// min(remaining payment, remaining balance) to each until the payment is
// exhausted. It never mutates the candidates; applying the plan is the
// reconciliation transaction's job.
//
// Candidates are re-sorted by (created_at, id) so the split does not depend
// on caller ordering; the id tie-break keeps two sales booked in the same
// instant in a fixed order.
func planAllocation(amount decimal.Decimal, candidates []*domain.Obligation) (*allocationPlan, error) {
	open := make([]*domain.Obligation, 0, len(candidates))
	for _, o := range candidates {
		if o.Status == domain.ObligationStatusPending && o.RemainingBalance().IsPositive() {
			open = append(open, o)
		}
	}

	if len(open) == 0 {
		return nil, customError.ErrNoOutstandingObligations
	}

	sort.SliceStable(open, func(i, j int) bool {
		if !open[i].CreatedAt.Equal(open[j].CreatedAt) {
			return open[i].CreatedAt.Before(open[j].CreatedAt)
		}
		return open[i].ID.String() < open[j].ID.String()
	})

	plan := &allocationPlan{}
	remaining := amount

	for _, o := range open {
		if remaining.IsZero() {
			break
		}

		applied := decimal.Min(remaining, o.RemainingBalance())
		plan.entries = append(plan.entries, allocationEntry{obligation: o, amount: applied})
		plan.applied = plan.applied.Add(applied)
		remaining = remaining.Sub(applied)
	}

	if remaining.IsPositive() {
		return nil, customError.WrapExcessPayment(remaining.String())
	}

	return plan, nil
}
