package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrAccountNotFound          = errors.New("credit account not found")
	ErrObligationNotFound       = errors.New("obligation not found")
	ErrAccountAlreadyExists     = errors.New("credit account already exists")
	ErrAccountHasObligations    = errors.New("credit account still has obligations")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrLimitExceeded            = errors.New("credit limit exceeded")
	ErrLimitBelowBalance        = errors.New("new limit is below current balance")
	ErrOverPayment              = errors.New("payment exceeds account balance")
	ErrExcessPayment            = errors.New("payment exceeds total outstanding obligations")
	ErrNoOutstandingObligations = errors.New("no outstanding obligations")
	ErrDuplicatePayment         = errors.New("payment with this idempotency key was already applied")
	ErrInvalidTransition        = errors.New("obligation status is terminal")
	ErrLockTimeout              = errors.New("timed out waiting for account lock")
	ErrTxConflict               = errors.New("transaction conflict, retry from fresh state")
)

// Kind classifies an error for retry semantics and HTTP status mapping.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindBusiness    Kind = "business"
	KindConcurrency Kind = "concurrency"
	KindNotFound    Kind = "not_found"
	KindInternal    Kind = "internal"
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Kind    Kind
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code string, kind Kind, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the classification of err, defaulting to internal.
func KindOf(err error) Kind {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

// Error codes
const (
	ErrCodeAccountNotFound          = "ACCOUNT_NOT_FOUND"
	ErrCodeObligationNotFound       = "OBLIGATION_NOT_FOUND"
	ErrCodeAccountAlreadyExists     = "ACCOUNT_ALREADY_EXISTS"
	ErrCodeAccountHasObligations    = "ACCOUNT_HAS_OBLIGATIONS"
	ErrCodeInvalidAmount            = "INVALID_AMOUNT"
	ErrCodeLimitExceeded            = "LIMIT_EXCEEDED"
	ErrCodeLimitBelowBalance        = "LIMIT_BELOW_BALANCE"
	ErrCodeOverPayment              = "OVER_PAYMENT"
	ErrCodeExcessPayment            = "EXCESS_PAYMENT"
	ErrCodeNoOutstandingObligations = "NO_OUTSTANDING_OBLIGATIONS"
	ErrCodeDuplicatePayment         = "DUPLICATE_PAYMENT"
	ErrCodeInvalidTransition        = "INVALID_TRANSITION"
	ErrCodeLockTimeout              = "LOCK_TIMEOUT"
	ErrCodeTxConflict               = "TX_CONFLICT"
	ErrCodeDatabaseError            = "DATABASE_ERROR"
	ErrCodeCacheError               = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapAccountNotFound(customerID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAccountNotFound,
		KindNotFound,
		fmt.Sprintf("No credit account for customer %s", customerID),
		ErrAccountNotFound,
	)
}

func WrapObligationNotFound(obligationID string) *BusinessError {
	return NewBusinessError(
		ErrCodeObligationNotFound,
		KindNotFound,
		fmt.Sprintf("Obligation %s not found", obligationID),
		ErrObligationNotFound,
	)
}

func WrapAccountAlreadyExists(customerID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAccountAlreadyExists,
		KindBusiness,
		fmt.Sprintf("Customer %s already has a credit account", customerID),
		ErrAccountAlreadyExists,
	)
}

func WrapAccountHasObligations(customerID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAccountHasObligations,
		KindBusiness,
		fmt.Sprintf("Credit account for customer %s still has obligations and cannot be deleted", customerID),
		ErrAccountHasObligations,
	)
}

func WrapInvalidAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidAmount,
		KindValidation,
		fmt.Sprintf("Invalid amount: %s", amount),
		ErrInvalidAmount,
	)
}

func WrapLimitExceeded(requested, available string) *BusinessError {
	return NewBusinessError(
		ErrCodeLimitExceeded,
		KindBusiness,
		fmt.Sprintf("Requested principal %s exceeds available credit %s", requested, available),
		ErrLimitExceeded,
	)
}

func WrapLimitBelowBalance(newLimit, balance string) *BusinessError {
	return NewBusinessError(
		ErrCodeLimitBelowBalance,
		KindValidation,
		fmt.Sprintf("New limit %s is below current balance %s", newLimit, balance),
		ErrLimitBelowBalance,
	)
}

func WrapOverPayment(amount, balance string) *BusinessError {
	return NewBusinessError(
		ErrCodeOverPayment,
		KindBusiness,
		fmt.Sprintf("Payment %s exceeds account balance %s", amount, balance),
		ErrOverPayment,
	)
}

func WrapExcessPayment(leftover string) *BusinessError {
	return NewBusinessError(
		ErrCodeExcessPayment,
		KindBusiness,
		fmt.Sprintf("Payment leaves %s unallocated after all outstanding obligations", leftover),
		ErrExcessPayment,
	)
}

func WrapNoOutstandingObligations(customerID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNoOutstandingObligations,
		KindBusiness,
		fmt.Sprintf("Customer %s has no outstanding obligations", customerID),
		ErrNoOutstandingObligations,
	)
}

func WrapDuplicatePayment(key string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicatePayment,
		KindBusiness,
		fmt.Sprintf("Payment with idempotency key %s was already applied", key),
		ErrDuplicatePayment,
	)
}

func WrapInvalidTransition(obligationID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTransition,
		KindBusiness,
		fmt.Sprintf("Obligation %s is %s and cannot change status", obligationID, status),
		ErrInvalidTransition,
	)
}

func WrapLockTimeout(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeLockTimeout,
		KindConcurrency,
		"Timed out acquiring the account lock, retry after a short backoff",
		ErrLockTimeout,
	)
}

func WrapTxConflict(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeTxConflict,
		KindConcurrency,
		"Concurrent transaction conflict, retry from fresh state",
		ErrTxConflict,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		KindInternal,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		KindInternal,
		"cache operation failed",
		err,
	)
}
