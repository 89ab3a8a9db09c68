//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"commerce-payload-bridge/internal/domain"
	"commerce-payload-bridge/internal/domain/model"
	"commerce-payload-bridge/internal/domain/ports/adapter"
	"commerce-payload-bridge/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// =============================
// Repositories
// =============================

// ---- Mock OrderRepository ----

type MockOrderRepo struct {
	mu     sync.Mutex
	orders map[int64]*model.Order
	nextID int64

	CreateFunc   func(ctx context.Context, tx repository.Tx, o *model.Order) error
	SaveFunc     func(ctx context.Context, tx repository.Tx, o *model.Order) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id int64) (*model.Order, error)

	// Saves counts Save invocations so tests can assert "no state mutation".
	Saves int
}

var _ repository.OrderRepository = (*MockOrderRepo)(nil)

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{orders: map[int64]*model.Order{}, nextID: 1000}
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Items = append([]model.LineItem(nil), o.Items...)
	if o.Meta != nil {
		c.Meta = map[string]string{}
		for k, v := range o.Meta {
			c.Meta[k] = v
		}
	}
	return &c
}

func (m *MockOrderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	o.ID = m.nextID
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *MockOrderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *MockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Order, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneOrder(o), nil
}

// Stored returns the persisted state of an order, bypassing overrides.
func (m *MockOrderRepo) Stored(id int64) *model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		return cloneOrder(o)
	}
	return nil
}

// ---- Mock TokenRepository ----

type MockTokenRepo struct {
	mu      sync.Mutex
	tokens  map[string]*model.PaymentToken
	byOrder map[int64][]string

	SaveFunc                 func(ctx context.Context, tx repository.Tx, t *model.PaymentToken) error
	FindByUserAndGatewayFunc func(ctx context.Context, tx repository.Tx, userID int64, gatewayID string) ([]*model.PaymentToken, error)
}

var _ repository.TokenRepository = (*MockTokenRepo)(nil)

func NewMockTokenRepo() *MockTokenRepo {
	return &MockTokenRepo{tokens: map[string]*model.PaymentToken{}, byOrder: map[int64][]string{}}
}

func (m *MockTokenRepo) Save(ctx context.Context, tx repository.Tx, t *model.PaymentToken) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *t
	m.tokens[t.ID] = &c
	return nil
}

func (m *MockTokenRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (m *MockTokenRepo) FindByUserAndGateway(ctx context.Context, tx repository.Tx, userID int64, gatewayID string) ([]*model.PaymentToken, error) {
	if m.FindByUserAndGatewayFunc != nil {
		return m.FindByUserAndGatewayFunc(ctx, tx, userID, gatewayID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentToken
	for _, t := range m.tokens {
		if t.UserID == userID && t.GatewayID == gatewayID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MockTokenRepo) AttachToOrder(ctx context.Context, tx repository.Tx, orderID int64, tokenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byOrder[orderID] = append(m.byOrder[orderID], tokenID)
	return nil
}

func (m *MockTokenRepo) FindByOrder(ctx context.Context, tx repository.Tx, orderID int64) ([]*model.PaymentToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentToken
	for _, id := range m.byOrder[orderID] {
		if t, ok := m.tokens[id]; ok {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

// Count returns how many tokens the store holds.
func (m *MockTokenRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[int64]*model.Subscription
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{subs: map[int64]*model.Subscription{}}
}

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *s
	m.subs[s.ID] = &c
	return nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (m *MockSubscriptionRepo) FindByParentOrder(ctx context.Context, tx repository.Tx, orderID int64) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.subs {
		if s.ParentOrderID == orderID {
			c := *s
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID int64) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.subs {
		if s.UserID == userID {
			c := *s
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) FindDue(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.subs {
		if s.Due(now) && len(out) < limit {
			c := *s
			out = append(out, &c)
		}
	}
	return out, nil
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentProcessor ----

type patchCall struct {
	ID     string
	Fields map[string]any
}

type MockProcessor struct {
	mu      sync.Mutex
	methods map[string]*model.PaymentMethod
	txns    map[string]*model.Transaction
	nextTxn int

	GetPaymentMethodFunc    func(ctx context.Context, id string) (*model.PaymentMethod, error)
	UpdatePaymentMethodFunc func(ctx context.Context, id string, fields map[string]any) error
	GetTransactionFunc      func(ctx context.Context, id string) (*model.Transaction, error)
	CreateTransactionFunc   func(ctx context.Context, req model.TransactionRequest) (*model.Transaction, error)
	UpdateTransactionFunc   func(ctx context.Context, id string, fields map[string]any) error

	// tracing of invocations
	MethodPatches []patchCall
	TxnPatches    []patchCall
	Created       []model.TransactionRequest
	Gets          int
}

var _ adapter.PaymentProcessor = (*MockProcessor)(nil)

func NewMockProcessor() *MockProcessor {
	return &MockProcessor{
		methods: map[string]*model.PaymentMethod{},
		txns:    map[string]*model.Transaction{},
	}
}

func (m *MockProcessor) Name() string { return "payload" }

func (m *MockProcessor) AddMethod(pm *model.PaymentMethod) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methods[pm.ID] = pm
}

func (m *MockProcessor) AddTransaction(t *model.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns[t.ID] = t
}

func (m *MockProcessor) GetPaymentMethod(ctx context.Context, id string) (*model.PaymentMethod, error) {
	if m.GetPaymentMethodFunc != nil {
		return m.GetPaymentMethodFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	pm, ok := m.methods[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *pm
	return &c, nil
}

func (m *MockProcessor) UpdatePaymentMethod(ctx context.Context, id string, fields map[string]any) error {
	if m.UpdatePaymentMethodFunc != nil {
		return m.UpdatePaymentMethodFunc(ctx, id, fields)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MethodPatches = append(m.MethodPatches, patchCall{ID: id, Fields: fields})
	if pm, ok := m.methods[id]; ok {
		if v, ok := fields["account_id"].(string); ok {
			pm.AccountID = v
		}
	}
	return nil
}

func (m *MockProcessor) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if m.GetTransactionFunc != nil {
		return m.GetTransactionFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	t, ok := m.txns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (m *MockProcessor) CreateTransaction(ctx context.Context, req model.TransactionRequest) (*model.Transaction, error) {
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, req)
	m.nextTxn++
	t := &model.Transaction{
		ID:              fmt.Sprintf("txn-%d", m.nextTxn),
		Type:            req.Type,
		Amount:          req.Amount,
		StatusCode:      model.TransactionApproved,
		RefNumber:       fmt.Sprintf("ref-%d", m.nextTxn),
		PaymentMethodID: req.PaymentMethodID,
		OrderNumber:     req.OrderNumber,
		Description:     req.Description,
	}
	m.txns[t.ID] = t
	c := *t
	return &c, nil
}

func (m *MockProcessor) UpdateTransaction(ctx context.Context, id string, fields map[string]any) error {
	if m.UpdateTransactionFunc != nil {
		return m.UpdateTransactionFunc(ctx, id, fields)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TxnPatches = append(m.TxnPatches, patchCall{ID: id, Fields: fields})
	if t, ok := m.txns[id]; ok {
		if v, ok := fields["status"].(string); ok {
			t.Status = v
		}
		if v, ok := fields["customer_id"].(string); ok {
			t.AccountID = v
		}
	}
	return nil
}

// StoredTransaction returns the processor-side state of a transaction.
func (m *MockProcessor) StoredTransaction(id string) *model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.txns[id]; ok {
		c := *t
		return &c
	}
	return nil
}

// CallCount reports how many remote calls were made, for no-op assertions.
func (m *MockProcessor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Gets + len(m.Created) + len(m.MethodPatches) + len(m.TxnPatches)
}
