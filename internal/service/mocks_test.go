package service

import (
	"context"
	"database/sql"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/prasetya/credit-ledger/internal/domain"
	"github.com/prasetya/credit-ledger/internal/repository"
)

// Testify mocks for the read-side repositories.

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.CreditAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.CreditAccount, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreditAccount), args.Error(1)
}

func (m *MockAccountRepository) Delete(ctx context.Context, accountID uuid.UUID) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockAccountRepository) List(ctx context.Context) ([]*domain.CreditAccount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CreditAccount), args.Error(1)
}

type MockObligationRepository struct {
	mock.Mock
}

func (m *MockObligationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Obligation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Obligation), args.Error(1)
}

func (m *MockObligationRepository) ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*domain.Obligation, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Obligation), args.Error(1)
}

func (m *MockObligationRepository) ListPending(ctx context.Context) ([]*domain.Obligation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Obligation), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListAllocations(ctx context.Context, paymentID uuid.UUID) ([]*domain.PaymentAllocation, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentAllocation), args.Error(1)
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

type MockNotificationSink struct {
	mock.Mock
}

func (m *MockNotificationSink) Emit(ctx context.Context, intent *domain.NotificationIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

// fakeLedger is an in-memory ledger with commit-or-discard semantics so
// transactional service paths can be exercised without Postgres. WithinTx
// runs the function against a deep copy and only swaps it in on success,
// mirroring the rollback guarantee of the real reconciler.

type fakeLedger struct {
	accounts    map[uuid.UUID]*domain.CreditAccount
	obligations map[uuid.UUID]*domain.Obligation
	payments    []*domain.Payment
	allocations []*domain.PaymentAllocation
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		accounts:    make(map[uuid.UUID]*domain.CreditAccount),
		obligations: make(map[uuid.UUID]*domain.Obligation),
	}
}

func (l *fakeLedger) clone() *fakeLedger {
	c := newFakeLedger()
	for id, a := range l.accounts {
		copied := *a
		c.accounts[id] = &copied
	}
	for id, o := range l.obligations {
		copied := *o
		c.obligations[id] = &copied
	}
	c.payments = append(c.payments, l.payments...)
	c.allocations = append(c.allocations, l.allocations...)
	return c
}

func (l *fakeLedger) addAccount(a *domain.CreditAccount) {
	l.accounts[a.ID] = a
}

func (l *fakeLedger) addObligation(o *domain.Obligation) {
	l.obligations[o.ID] = o
}

// accountsRepo adapts the fake ledger to the read-side repository interface.
type fakeAccountRepo struct {
	ledger *fakeLedger
}

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.CreditAccount) error {
	r.ledger.addAccount(account)
	return nil
}

func (r *fakeAccountRepo) GetByCustomerID(_ context.Context, customerID uuid.UUID) (*domain.CreditAccount, error) {
	for _, a := range r.ledger.accounts {
		if a.CustomerID == customerID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeAccountRepo) Delete(_ context.Context, accountID uuid.UUID) error {
	delete(r.ledger.accounts, accountID)
	return nil
}

func (r *fakeAccountRepo) List(_ context.Context) ([]*domain.CreditAccount, error) {
	accounts := make([]*domain.CreditAccount, 0, len(r.ledger.accounts))
	for _, a := range r.ledger.accounts {
		copied := *a
		accounts = append(accounts, &copied)
	}
	return accounts, nil
}

type fakeObligationRepo struct {
	ledger *fakeLedger
}

func (r *fakeObligationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Obligation, error) {
	o, ok := r.ledger.obligations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *o
	return &copied, nil
}

func (r *fakeObligationRepo) ListByAccountID(_ context.Context, accountID uuid.UUID) ([]*domain.Obligation, error) {
	var obligations []*domain.Obligation
	for _, o := range r.ledger.obligations {
		if o.AccountID == accountID {
			copied := *o
			obligations = append(obligations, &copied)
		}
	}
	sortObligations(obligations)
	return obligations, nil
}

func (r *fakeObligationRepo) ListPending(_ context.Context) ([]*domain.Obligation, error) {
	var obligations []*domain.Obligation
	for _, o := range r.ledger.obligations {
		if o.Status == domain.ObligationStatusPending {
			copied := *o
			obligations = append(obligations, &copied)
		}
	}
	sortObligations(obligations)
	return obligations, nil
}

type fakePaymentRepo struct {
	ledger *fakeLedger
}

func (r *fakePaymentRepo) ListByAccountID(_ context.Context, accountID uuid.UUID) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	for _, p := range r.ledger.payments {
		if p.AccountID == accountID {
			copied := *p
			payments = append(payments, &copied)
		}
	}
	return payments, nil
}

func (r *fakePaymentRepo) ListAllocations(_ context.Context, paymentID uuid.UUID) ([]*domain.PaymentAllocation, error) {
	var allocations []*domain.PaymentAllocation
	for _, a := range r.ledger.allocations {
		if a.PaymentID == paymentID {
			copied := *a
			allocations = append(allocations, &copied)
		}
	}
	return allocations, nil
}

func (r *fakePaymentRepo) GetByIdempotencyKey(_ context.Context, key string) (*domain.Payment, error) {
	for _, p := range r.ledger.payments {
		if p.IdempotencyKey == key {
			copied := *p
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeReconciler struct {
	ledger *fakeLedger
	txErr  error
}

func (r *fakeReconciler) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.ReconStore) error) error {
	if r.txErr != nil {
		return r.txErr
	}

	work := r.ledger.clone()
	if err := fn(ctx, &fakeStore{ledger: work}); err != nil {
		return err
	}

	*r.ledger = *work
	return nil
}

type fakeStore struct {
	ledger *fakeLedger
}

func (s *fakeStore) LockAccount(_ context.Context, accountID uuid.UUID) (*domain.CreditAccount, error) {
	a, ok := s.ledger.accounts[accountID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (s *fakeStore) UpdateBalance(_ context.Context, accountID uuid.UUID, balance decimal.Decimal) error {
	s.ledger.accounts[accountID].Balance = balance
	return nil
}

func (s *fakeStore) UpdateLimit(_ context.Context, accountID uuid.UUID, limit decimal.Decimal) error {
	s.ledger.accounts[accountID].CreditLimit = limit
	return nil
}

func (s *fakeStore) PendingObligations(_ context.Context, accountID uuid.UUID) ([]*domain.Obligation, error) {
	var obligations []*domain.Obligation
	for _, o := range s.ledger.obligations {
		if o.AccountID == accountID && o.Status == domain.ObligationStatusPending {
			obligations = append(obligations, o)
		}
	}
	sortObligations(obligations)
	return obligations, nil
}

func (s *fakeStore) GetObligation(_ context.Context, id uuid.UUID) (*domain.Obligation, error) {
	o, ok := s.ledger.obligations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return o, nil
}

func (s *fakeStore) InsertObligation(_ context.Context, o *domain.Obligation) error {
	copied := *o
	s.ledger.obligations[o.ID] = &copied
	return nil
}

func (s *fakeStore) UpdateObligation(_ context.Context, o *domain.Obligation) error {
	copied := *o
	s.ledger.obligations[o.ID] = &copied
	return nil
}

func (s *fakeStore) InsertPayment(_ context.Context, p *domain.Payment) error {
	copied := *p
	s.ledger.payments = append(s.ledger.payments, &copied)
	return nil
}

func (s *fakeStore) InsertAllocations(_ context.Context, allocations []*domain.PaymentAllocation) error {
	for _, a := range allocations {
		copied := *a
		s.ledger.allocations = append(s.ledger.allocations, &copied)
	}
	return nil
}

func sortObligations(obligations []*domain.Obligation) {
	sort.SliceStable(obligations, func(i, j int) bool {
		if !obligations[i].CreatedAt.Equal(obligations[j].CreatedAt) {
			return obligations[i].CreatedAt.Before(obligations[j].CreatedAt)
		}
		return obligations[i].ID.String() < obligations[j].ID.String()
	})
}
