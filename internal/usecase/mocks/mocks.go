package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// Store is an in-memory backing store shared by the mock repositories. Rows
// read with GetByIDsForUpdate stay locked until the transaction commits or
// rolls back, and writes made through a transaction become visible only on
// commit, so the mocks behave like the Postgres adapter under concurrency.
type Store struct {
	mu       sync.Mutex
	rowLocks map[string]*sync.Mutex

	users    map[string]*domain.User
	accounts map[string]*domain.Account
	payments map[string]*domain.Payment
	events   []*domain.OutboxEvent
	audit    []*domain.AuditLog

	TxManager *MockTransactionManager
	Users     *MockUserRepository
	Accounts  *MockAccountRepository
	Payments  *MockPaymentRepository
	Outbox    *MockOutboxRepository
	Audit     *MockAuditRepository
	Ledger    *MockLedgerRepository
}

// NewStore creates an empty Store with its repositories wired up.
func NewStore() *Store {
	s := &Store{
		rowLocks: make(map[string]*sync.Mutex),
		users:    make(map[string]*domain.User),
		accounts: make(map[string]*domain.Account),
		payments: make(map[string]*domain.Payment),
	}
	s.TxManager = &MockTransactionManager{store: s}
	s.Users = &MockUserRepository{store: s}
	s.Accounts = &MockAccountRepository{store: s}
	s.Payments = &MockPaymentRepository{store: s}
	s.Outbox = &MockOutboxRepository{store: s}
	s.Audit = &MockAuditRepository{store: s}
	s.Ledger = &MockLedgerRepository{store: s}
	return s
}

// SeedUser stores u directly, outside any transaction.
func (s *Store) SeedUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	s.users[u.ID] = &c
}

// SeedAccount stores a directly, outside any transaction.
func (s *Store) SeedAccount(a *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *a
	if c.OpeningBalance.IsZero() {
		c.OpeningBalance = c.Balance
	}
	s.accounts[a.ID] = &c
}

// Account returns a copy of the committed account, or nil.
func (s *Store) Account(id string) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		c := *a
		return &c
	}
	return nil
}

// AllPayments returns copies of every committed payment.
func (s *Store) AllPayments() []*domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		c := *p
		out = append(out, &c)
	}
	return out
}

// Events returns the committed outbox events.
func (s *Store) Events() []*domain.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.OutboxEvent(nil), s.events...)
}

// AuditLogs returns the committed audit logs.
func (s *Store) AuditLogs() []*domain.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.AuditLog(nil), s.audit...)
}

func (s *Store) rowLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[id] = l
	}
	return l
}

// apply runs op against the store now, or stages it on tx until commit.
func (s *Store) apply(tx usecase.Transaction, op func()) {
	if mtx, ok := tx.(*MockTransaction); ok && mtx.store == s {
		mtx.mu.Lock()
		mtx.ops = append(mtx.ops, op)
		mtx.mu.Unlock()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	op()
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	store *Store

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

// NewMockTransactionManager returns a manager whose transactions are no-ops.
func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{store: m.store}, nil
}

// NewTransaction returns a transaction bound to the store, for tests that
// need to hook Commit or Rollback.
func (s *Store) NewTransaction() *MockTransaction {
	return &MockTransaction{store: s}
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	store *Store

	mu   sync.Mutex
	ops  []func()
	held map[string]*sync.Mutex
	done bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) lock(id string) {
	m.mu.Lock()
	if _, ok := m.held[id]; ok {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	l := m.store.rowLock(id)
	l.Lock()

	m.mu.Lock()
	if m.held == nil {
		m.held = make(map[string]*sync.Mutex)
	}
	m.held[id] = l
	m.mu.Unlock()
}

func (m *MockTransaction) finish(commit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return
	}
	m.done = true

	if commit && m.store != nil {
		m.store.mu.Lock()
		for _, op := range m.ops {
			op()
		}
		m.store.mu.Unlock()
	}
	m.ops = nil

	for id, l := range m.held {
		l.Unlock()
		delete(m.held, id)
	}
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			m.finish(false)
			return err
		}
	}
	m.finish(true)
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		if err := m.RollbackFunc(ctx); err != nil {
			return err
		}
	}
	m.finish(false)
	return nil
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	store *Store

	CreateFunc  func(ctx context.Context, user *domain.User) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.User, error)
	UpdateFunc  func(ctx context.Context, id string, patch domain.UserPatch, updatedAt time.Time) (*domain.User, error)
	DeleteFunc  func(ctx context.Context, id string) error
	ListFunc    func(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

func NewMockUserRepository() *MockUserRepository {
	return NewStore().Users
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, id string, patch domain.UserPatch, updatedAt time.Time) (*domain.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch, updatedAt)
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if email, ok := patch.Fields()["email"]; ok {
		for _, other := range s.users {
			if other.ID != id && other.Email == email {
				return nil, domain.ErrEmailTaken
			}
		}
	}
	if !patch.IsEmpty() {
		u.Apply(patch)
		u.UpdatedAt = updatedAt
	}
	c := *u
	return &c, nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	for _, a := range s.accounts {
		if a.UserID == id {
			a.UserID = ""
		}
	}
	delete(s.users, id)
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	s := m.store
	s.mu.Lock()
	var users []*domain.User
	for _, u := range s.users {
		c := *u
		users = append(users, &c)
	}
	s.mu.Unlock()
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return page(users, limit, offset), nil
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	store *Store

	CreateTxFunc          func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalanceFunc     func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	UpdateStatusFunc      func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	ListByUserFunc        func(ctx context.Context, userID string, limit, offset int) ([]*domain.Account, error)
	ListFunc              func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return NewStore().Accounts
}

func (m *MockAccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, account)
	}
	s := m.store
	s.mu.Lock()
	for _, a := range s.accounts {
		if a.Number == account.Number {
			s.mu.Unlock()
			return domain.ErrAccountNumberTaken
		}
	}
	s.mu.Unlock()

	c := *account
	s.apply(tx, func() { s.accounts[c.ID] = &c })
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	if a := m.store.Account(id); a != nil {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	accounts, err := m.GetByIDsForUpdate(ctx, tx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, domain.ErrAccountNotFound
	}
	return accounts[0], nil
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	if mtx, ok := tx.(*MockTransaction); ok && mtx.store == m.store {
		for _, id := range ids {
			mtx.lock(id)
		}
	}
	var accounts []*domain.Account
	for _, id := range ids {
		if a := m.store.Account(id); a != nil {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	s := m.store
	s.apply(tx, func() {
		if a, ok := s.accounts[id]; ok {
			a.Balance = balance
			a.UpdatedAt = updatedAt
		}
	})
	return nil
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, account)
	}
	s := m.store
	status, closedAt, updatedAt := account.Status, account.ClosedAt, account.UpdatedAt
	s.apply(tx, func() {
		if a, ok := s.accounts[account.ID]; ok {
			a.Status = status
			a.ClosedAt = closedAt
			a.UpdatedAt = updatedAt
		}
	})
	return nil
}

func (m *MockAccountRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Account, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	return page(m.store.filterAccounts(func(a *domain.Account) bool { return a.UserID == userID }), limit, offset), nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return page(m.store.filterAccounts(func(*domain.Account) bool { return true }), limit, offset), nil
}

func (s *Store) filterAccounts(keep func(*domain.Account) bool) []*domain.Account {
	s.mu.Lock()
	var accounts []*domain.Account
	for _, a := range s.accounts {
		if keep(a) {
			c := *a
			accounts = append(accounts, &c)
		}
	}
	s.mu.Unlock()
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts
}

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	store *Store

	CreateFunc                func(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error
	GetByIDFunc               func(ctx context.Context, id string) (*domain.Payment, error)
	ListFunc                  func(ctx context.Context, limit, offset int) ([]*domain.Payment, error)
	ListByAccountFunc         func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Payment, error)
	ListByUserFunc            func(ctx context.Context, userID string, limit, offset int) ([]*domain.Payment, error)
	SumCompletedByAccountFunc func(ctx context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error)
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return NewStore().Payments
}

func (m *MockPaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, payment)
	}
	s := m.store
	c := *payment
	s.apply(tx, func() { s.payments[c.ID] = &c })
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.payments[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Payment, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return page(m.store.filterPayments(func(*domain.Payment) bool { return true }), limit, offset), nil
}

func (m *MockPaymentRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Payment, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	return page(m.store.filterPayments(func(p *domain.Payment) bool {
		return p.FromAccountID == accountID || p.ToAccountID == accountID
	}), limit, offset), nil
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Payment, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	s := m.store
	s.mu.Lock()
	owned := make(map[string]bool)
	for _, a := range s.accounts {
		if a.UserID == userID {
			owned[a.ID] = true
		}
	}
	s.mu.Unlock()
	return page(s.filterPayments(func(p *domain.Payment) bool {
		return owned[p.FromAccountID] || owned[p.ToAccountID]
	}), limit, offset), nil
}

func (m *MockPaymentRepository) SumCompletedByAccount(ctx context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	if m.SumCompletedByAccountFunc != nil {
		return m.SumCompletedByAccountFunc(ctx, accountID)
	}
	credits, debits := decimal.Zero, decimal.Zero
	for _, p := range m.store.filterPayments(func(p *domain.Payment) bool {
		return p.Status == domain.PaymentStatusCompleted
	}) {
		if p.ToAccountID == accountID {
			credits = credits.Add(p.Amount)
		}
		if p.FromAccountID == accountID {
			debits = debits.Add(p.Amount)
		}
	}
	return credits, debits, nil
}

func (s *Store) filterPayments(keep func(*domain.Payment) bool) []*domain.Payment {
	s.mu.Lock()
	var payments []*domain.Payment
	for _, p := range s.payments {
		if keep(p) {
			c := *p
			payments = append(payments, &c)
		}
	}
	s.mu.Unlock()
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].TransactionDate.Equal(payments[j].TransactionDate) {
			return payments[i].ID > payments[j].ID
		}
		return payments[i].TransactionDate.After(payments[j].TransactionDate)
	})
	return payments
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	store *Store

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return NewStore().Outbox
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	s := m.store
	c := *event
	s.apply(tx, func() { s.events = append(s.events, &c) })
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []*domain.OutboxEvent
	for _, e := range s.events {
		if !e.Published {
			events = append(events, e)
		}
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return fmt.Errorf("outbox event %s: %w", id, domain.ErrNotFound)
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0]
	for _, e := range s.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return nil
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	store *Store

	CreateFunc   func(ctx context.Context, log *domain.AuditLog) error
	CreateTxFunc func(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error
	ListFunc     func(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	return m.CreateTx(ctx, nil, log)
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, log)
	}
	s := m.store
	c := *log
	s.apply(tx, func() { s.audit = append(s.audit, &c) })
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	var logs []*domain.AuditLog
	for _, l := range m.store.AuditLogs() {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		logs = append(logs, l)
	}
	return page(logs, filter.Limit, filter.Offset), nil
}

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	store *Store

	CheckConsistencyFunc func(ctx context.Context) (decimal.Decimal, decimal.Decimal, error)
}

func (m *MockLedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	if m.CheckConsistencyFunc != nil {
		return m.CheckConsistencyFunc(ctx)
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	total, opening := decimal.Zero, decimal.Zero
	for _, a := range s.accounts {
		total = total.Add(a.Balance)
		opening = opening.Add(a.OpeningBalance)
	}
	return total, opening, nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockAccountNumberGenerator is a mock implementation of AccountNumberGenerator.
type MockAccountNumberGenerator struct {
	GenerateAccountNumberFunc func() string
	counter                   int
	mu                        sync.Mutex
}

func (m *MockAccountNumberGenerator) GenerateAccountNumber() string {
	if m.GenerateAccountNumberFunc != nil {
		return m.GenerateAccountNumberFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("%012d", m.counter)
}

// MockRetrier is a mock implementation of Retrier.
type MockRetrier struct {
	// Attempts bounds how often a failing operation is retried. Zero runs it once.
	Attempts  int
	Retryable func(err error) bool
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	var err error
	for i := 0; i <= m.Attempts; i++ {
		err = operation()
		if err == nil || m.Retryable == nil || !m.Retryable(err) {
			return err
		}
	}
	return err
}

// MockCache is a mock implementation of Cache.
type MockCache struct {
	mu   sync.Mutex
	data map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

