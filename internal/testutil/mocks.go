package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tourneyhub/settlement/internal/domain/audit"
	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
	"github.com/tourneyhub/settlement/internal/domain/outbox"
	"github.com/tourneyhub/settlement/internal/domain/refund"
	"github.com/tourneyhub/settlement/internal/domain/settlement"
)

// The in-memory repositories store copies and apply conditional updates under
// a mutex, matching the compare-and-swap behaviour of the Postgres store.

// --- Commission Repository Mock ---

// MockCommissionRepository is a mock implementation of settlement.CommissionRepository.
type MockCommissionRepository struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*settlement.TournamentCommission
	order []uuid.UUID

	CreateFunc                func(ctx context.Context, c *settlement.TournamentCommission) error
	GetByIDFunc               func(ctx context.Context, id uuid.UUID) (*settlement.TournamentCommission, error)
	GetLatestByTournamentFunc func(ctx context.Context, tournamentID string) (*settlement.TournamentCommission, error)
	ListFunc                  func(ctx context.Context, filter settlement.ListFilter) ([]*settlement.TournamentCommission, error)
	UpdateSettlementFunc      func(ctx context.Context, id uuid.UUID, expected settlement.PaymentStatus, s settlement.Settlement) error
}

func NewMockCommissionRepository() *MockCommissionRepository {
	return &MockCommissionRepository{rows: make(map[uuid.UUID]*settlement.TournamentCommission)}
}

// Add pre-populates the mock with a commission row.
func (m *MockCommissionRepository) Add(c *settlement.TournamentCommission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.rows[c.ID] = &cp
	m.order = append(m.order, c.ID)
}

// Stored returns a copy of the stored row (test helper, no context needed).
func (m *MockCommissionRepository) Stored(id uuid.UUID) *settlement.TournamentCommission {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (m *MockCommissionRepository) Create(ctx context.Context, c *settlement.TournamentCommission) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	m.Add(c)
	return nil
}

func (m *MockCommissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*settlement.TournamentCommission, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	if c := m.Stored(id); c != nil {
		return c, nil
	}
	return nil, domainErrors.ErrCommissionNotFound
}

func (m *MockCommissionRepository) GetLatestByTournament(ctx context.Context, tournamentID string) (*settlement.TournamentCommission, error) {
	if m.GetLatestByTournamentFunc != nil {
		return m.GetLatestByTournamentFunc(ctx, tournamentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		if c := m.rows[m.order[i]]; c.TournamentID == tournamentID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrCommissionNotFound
}

func (m *MockCommissionRepository) List(ctx context.Context, filter settlement.ListFilter) ([]*settlement.TournamentCommission, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*settlement.TournamentCommission, 0, len(m.order))
	for _, id := range m.order {
		c := m.rows[id]
		if filter.Matches(c.TournamentID, c.Status) {
			cp := *c
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockCommissionRepository) UpdateSettlement(ctx context.Context, id uuid.UUID, expected settlement.PaymentStatus, s settlement.Settlement) error {
	if m.UpdateSettlementFunc != nil {
		return m.UpdateSettlementFunc(ctx, id, expected, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return domainErrors.ErrCommissionNotFound
	}
	if c.Status != expected {
		return domainErrors.ErrConcurrentModification
	}
	c.Settlement = s
	return nil
}

// --- Registration Fee Repository Mock ---

// MockFeeRepository is a mock implementation of settlement.FeeRepository.
type MockFeeRepository struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*settlement.PlayerRegistrationFee
	order []uuid.UUID

	CreateFunc           func(ctx context.Context, f *settlement.PlayerRegistrationFee) error
	GetByIDFunc          func(ctx context.Context, id uuid.UUID) (*settlement.PlayerRegistrationFee, error)
	ListFunc             func(ctx context.Context, filter settlement.ListFilter) ([]*settlement.PlayerRegistrationFee, error)
	UpdateSettlementFunc func(ctx context.Context, id uuid.UUID, expected settlement.PaymentStatus, s settlement.Settlement) error
}

func NewMockFeeRepository() *MockFeeRepository {
	return &MockFeeRepository{rows: make(map[uuid.UUID]*settlement.PlayerRegistrationFee)}
}

func (m *MockFeeRepository) Add(f *settlement.PlayerRegistrationFee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.rows[f.ID] = &cp
	m.order = append(m.order, f.ID)
}

func (m *MockFeeRepository) Stored(id uuid.UUID) *settlement.PlayerRegistrationFee {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.rows[id]
	if !ok {
		return nil
	}
	cp := *f
	return &cp
}

func (m *MockFeeRepository) Create(ctx context.Context, f *settlement.PlayerRegistrationFee) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, f)
	}
	m.Add(f)
	return nil
}

func (m *MockFeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*settlement.PlayerRegistrationFee, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	if f := m.Stored(id); f != nil {
		return f, nil
	}
	return nil, domainErrors.ErrRegistrationFeeNotFound
}

func (m *MockFeeRepository) List(ctx context.Context, filter settlement.ListFilter) ([]*settlement.PlayerRegistrationFee, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*settlement.PlayerRegistrationFee, 0, len(m.order))
	for _, id := range m.order {
		f := m.rows[id]
		if filter.Matches(f.TournamentID, f.Status) {
			cp := *f
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockFeeRepository) UpdateSettlement(ctx context.Context, id uuid.UUID, expected settlement.PaymentStatus, s settlement.Settlement) error {
	if m.UpdateSettlementFunc != nil {
		return m.UpdateSettlementFunc(ctx, id, expected, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.rows[id]
	if !ok {
		return domainErrors.ErrRegistrationFeeNotFound
	}
	if f.Status != expected {
		return domainErrors.ErrConcurrentModification
	}
	f.Settlement = s
	return nil
}

// --- Verification Repository Mock ---

// MockVerificationRepository is a mock implementation of settlement.VerificationRepository.
type MockVerificationRepository struct {
	mu      sync.Mutex
	records []*settlement.VerificationRecord

	AppendFunc func(ctx context.Context, r *settlement.VerificationRecord) error
}

func (m *MockVerificationRepository) Append(ctx context.Context, r *settlement.VerificationRecord) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *MockVerificationRepository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*settlement.VerificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*settlement.VerificationRecord
	for _, r := range m.records {
		if r.PaymentID == paymentID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Records returns every appended record.
func (m *MockVerificationRepository) Records() []*settlement.VerificationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*settlement.VerificationRecord(nil), m.records...)
}

// --- Refund Repository Mock ---

// MockRefundRepository is a mock implementation of refund.Repository.
type MockRefundRepository struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*refund.Request
	order []uuid.UUID

	CreateFunc     func(ctx context.Context, r *refund.Request) error
	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*refund.Request, error)
	FindActiveFunc func(ctx context.Context, subjectKey string) (*refund.Request, error)
}

func NewMockRefundRepository() *MockRefundRepository {
	return &MockRefundRepository{rows: make(map[uuid.UUID]*refund.Request)}
}

func (m *MockRefundRepository) Create(ctx context.Context, r *refund.Request) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeLocked(r.Key()) != nil {
		return domainErrors.ErrActiveRefundExists
	}
	cp := *r
	m.rows[r.ID] = &cp
	m.order = append(m.order, r.ID)
	return nil
}

func (m *MockRefundRepository) GetByID(ctx context.Context, id uuid.UUID) (*refund.Request, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, domainErrors.ErrRefundNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockRefundRepository) FindActive(ctx context.Context, subjectKey string) (*refund.Request, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(ctx, subjectKey)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := m.activeLocked(subjectKey); r != nil {
		cp := *r
		return &cp, nil
	}
	return nil, domainErrors.ErrRefundNotFound
}

func (m *MockRefundRepository) activeLocked(key string) *refund.Request {
	for _, id := range m.order {
		if r := m.rows[id]; r.Key() == key && !r.Status.IsTerminal() {
			return r
		}
	}
	return nil
}

func (m *MockRefundRepository) ListCompleted(ctx context.Context, subjectKey string) ([]*refund.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*refund.Request
	for _, id := range m.order {
		if r := m.rows[id]; r.Key() == subjectKey && r.Status == refund.StatusCompleted {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockRefundRepository) List(ctx context.Context, filter refund.ListFilter) ([]*refund.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*refund.Request
	for _, id := range m.order {
		if r := m.rows[id]; filter.Matches(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockRefundRepository) UpdateStatus(ctx context.Context, r *refund.Request, expected refund.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[r.ID]
	if !ok {
		return domainErrors.ErrRefundNotFound
	}
	if stored.Status != expected {
		return domainErrors.ErrConcurrentModification
	}
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

// Count returns how many requests were stored.
func (m *MockRefundRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// --- Audit Trail Mock ---

// MockAuditTrail is a mock implementation of audit.Trail.
type MockAuditTrail struct {
	mu     sync.Mutex
	events []*audit.Event

	AppendFunc func(ctx context.Context, e *audit.Event) error
}

func (m *MockAuditTrail) Append(ctx context.Context, e *audit.Event) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// Actions returns the recorded actions in order.
func (m *MockAuditTrail) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Action)
	}
	return out
}

// --- Transaction Manager Mock ---

// MockTransactionManager is a mock implementation of service.TransactionManager.
type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Outbox Repository Mock ---

// MockOutboxRepository is a mock implementation of outbox.Repository.
type MockOutboxRepository struct {
	mu      sync.Mutex
	entries []*outbox.Entry

	InsertFunc        func(ctx context.Context, entry *outbox.Entry) error
	GetPendingFunc    func(ctx context.Context, limit int) ([]*outbox.Entry, error)
	MarkPublishedFunc func(ctx context.Context, id uuid.UUID) error
	MarkFailedFunc    func(ctx context.Context, id uuid.UUID) error
}

func (m *MockOutboxRepository) Insert(ctx context.Context, entry *outbox.Entry) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	if m.GetPendingFunc != nil {
		return m.GetPendingFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*outbox.Entry
	for _, e := range m.entries {
		if e.Status == outbox.StatusPending && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			e.Status = outbox.StatusPublished
		}
	}
	return nil
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			e.RetryCount++
			if e.Exhausted() {
				e.Status = outbox.StatusFailed
			}
		}
	}
	return nil
}

// EventTypes returns the inserted event types in order.
func (m *MockOutboxRepository) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.EventType)
	}
	return out
}

// Entries returns the inserted entries.
func (m *MockOutboxRepository) Entries() []*outbox.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*outbox.Entry(nil), m.entries...)
}

// --- Locker ---

// FakeLocker is an in-process per-key lock.
type FakeLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	calls int

	LockFunc func(ctx context.Context, key string) (func(), error)
}

func NewFakeLocker() *FakeLocker {
	return &FakeLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *FakeLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.LockFunc != nil {
		return l.LockFunc(ctx, key)
	}
	l.mu.Lock()
	l.calls++
	km, ok := l.locks[key]
	if !ok {
		km = &sync.Mutex{}
		l.locks[key] = km
	}
	l.mu.Unlock()

	km.Lock()
	return km.Unlock, nil
}

// Calls reports how many times Lock was called.
func (l *FakeLocker) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// --- Publisher Mock ---

// MockPublisher records published notifications.
type MockPublisher struct {
	mu        sync.Mutex
	published []*outbox.Entry

	PublishFunc func(ctx context.Context, entry *outbox.Entry) error
}

func (m *MockPublisher) PublishNotification(ctx context.Context, entry *outbox.Entry) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, entry)
	return nil
}

func (m *MockPublisher) Published() []*outbox.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*outbox.Entry(nil), m.published...)
}
