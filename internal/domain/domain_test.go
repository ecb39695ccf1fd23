package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCreditAccount_DerivedFields(t *testing.T) {
	account := &CreditAccount{
		CreditLimit: decimal.NewFromInt(1000),
		Balance:     decimal.NewFromInt(600),
	}

	assert.True(t, account.AvailableCredit().Equal(decimal.NewFromInt(400)))
	assert.True(t, account.PercentageUsed().Equal(decimal.NewFromInt(60)))
}

func TestCreditAccount_ZeroLimitUsage(t *testing.T) {
	account := &CreditAccount{
		CreditLimit: decimal.Zero,
		Balance:     decimal.Zero,
	}

	assert.True(t, account.PercentageUsed().IsZero())
}

func TestObligation_DueAmount(t *testing.T) {
	obligation := &Obligation{
		Principal:    decimal.NewFromInt(1000),
		PaidToDate:   decimal.NewFromInt(400),
		InterestRate: decimal.NewFromInt(10),
	}

	// Flat rate on the unpaid remainder only: 600 * 1.10
	assert.True(t, obligation.RemainingBalance().Equal(decimal.NewFromInt(600)))
	assert.True(t, obligation.DueAmount().Equal(decimal.NewFromInt(660)))
}

func TestObligation_IsSettled(t *testing.T) {
	obligation := &Obligation{
		Principal:  decimal.NewFromInt(500),
		PaidToDate: decimal.NewFromInt(499),
	}
	assert.False(t, obligation.IsSettled())

	obligation.PaidToDate = decimal.NewFromInt(500)
	assert.True(t, obligation.IsSettled())
}
