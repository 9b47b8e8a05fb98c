package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"kitchen-store/internal/domain"
	"kitchen-store/internal/paypal"
	"kitchen-store/internal/repository"
)

// Mock repositories for testing
type mockUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	m.nextID++
	user.ID = m.nextID
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	found := *u
	return &found, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, id int64, update domain.ProfileUpdate, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.FirstName, u.LastName = update.FirstName, update.LastName
	u.Phone, u.DateOfBirth = update.Phone, update.DateOfBirth
	u.UpdatedAt = now
	return nil
}

func (m *mockUserRepository) SetResetToken(ctx context.Context, id int64, token string, expires, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.ResetToken = &token
	u.ResetExpires = &expires
	return nil
}

func (m *mockUserRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ResetToken != nil && *u.ResetToken == token && u.ResetExpires.After(now) {
			found := *u
			return &found, nil
		}
	}
	return nil, repository.ErrResetTokenNotFound
}

func (m *mockUserRepository) ResetPassword(ctx context.Context, id int64, token, passwordHash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.ResetToken == nil || *u.ResetToken != token {
		return repository.ErrResetTokenNotApplied
	}
	u.PasswordHash = passwordHash
	u.ResetToken, u.ResetExpires = nil, nil
	return nil
}

func (m *mockUserRepository) resetTokenOf(id int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u := m.users[id]; u != nil && u.ResetToken != nil {
		return *u.ResetToken
	}
	return ""
}

type mockSessionRepository struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[string]*domain.Session
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{sessions: make(map[string]*domain.Session)}
}

func (m *mockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	session.ID = m.nextID
	stored := *session
	m.sessions[session.SessionToken] = &stored
	return nil
}

func (m *mockSessionRepository) FindValid(ctx context.Context, token string, now time.Time) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok || s.IsExpired(now) {
		return nil, repository.ErrSessionNotFound
	}
	found := *s
	return &found, nil
}

func (m *mockSessionRepository) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *mockSessionRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

func (m *mockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, s := range m.sessions {
		if s.IsExpired(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

func (m *mockSessionRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

var errInjected = errors.New("injected failure")

// mockOrderRepository can be told to fail AddItem after a number of
// successful inserts.
type mockOrderRepository struct {
	mu            sync.Mutex
	nextID        int64
	nextItemID    int64
	orders        map[int64]*domain.Order
	items         map[int64][]*domain.OrderItem
	failAddAfter  int
	addCalls      int
	failCreate    bool
	failCreateTxn bool
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{
		orders:       make(map[int64]*domain.Order),
		items:        make(map[int64][]*domain.OrderItem),
		failAddAfter: -1,
	}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return errInjected
	}
	m.nextID++
	order.ID = m.nextID
	stored := *order
	stored.Items = nil
	m.orders[order.ID] = &stored
	return nil
}

func (m *mockOrderRepository) AddItem(ctx context.Context, item *domain.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAddAfter >= 0 && m.addCalls >= m.failAddAfter {
		return errInjected
	}
	m.addCalls++
	m.nextItemID++
	item.ID = m.nextItemID
	stored := *item
	m.items[item.OrderID] = append(m.items[item.OrderID], &stored)
	return nil
}

func (m *mockOrderRepository) CreateWithItems(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error {
	m.mu.Lock()
	if m.failCreateTxn {
		m.mu.Unlock()
		return errInjected
	}
	m.mu.Unlock()

	if err := m.Create(ctx, order); err != nil {
		return err
	}
	for _, item := range items {
		item.OrderID = order.ID
		if err := m.AddItem(ctx, item); err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

func (m *mockOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := make([]*domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		found := *o
		orders = append(orders, &found)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	found := *o
	return &found, nil
}

func (m *mockOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderNumber == orderNumber {
			found := *o
			return &found, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) Items(ctx context.Context, orderID int64) ([]*domain.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.OrderItem{}, m.items[orderID]...), nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = now
	return nil
}

func (m *mockOrderRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(m.items, id)
	delete(m.orders, id)
	return nil
}

type mockMailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMockMailer() *mockMailer {
	return &mockMailer{tokens: make(map[string]string)}
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[email] = token
	return nil
}

func (m *mockMailer) tokenFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}

// fakeGateway records requests and returns canned payments
type fakeGateway struct {
	orderReq   *paypal.OrderRequest
	paymentReq *paypal.PaymentRequest
	executed   *paypal.Payment
	err        error
	noApproval bool
}

func (g *fakeGateway) CreateOrder(ctx context.Context, req *paypal.OrderRequest) (*paypal.Order, error) {
	g.orderReq = req
	if g.err != nil {
		return nil, g.err
	}
	return &paypal.Order{ID: "ORDER-1", Status: "CREATED"}, nil
}

func (g *fakeGateway) CreatePayment(ctx context.Context, req *paypal.PaymentRequest) (*paypal.Payment, error) {
	g.paymentReq = req
	if g.err != nil {
		return nil, g.err
	}
	payment := &paypal.Payment{ID: "PAY-1", State: "created"}
	if !g.noApproval {
		payment.Links = []paypal.Link{{Href: "https://paypal.test/approve", Rel: "approval_url"}}
	}
	return payment, nil
}

func (g *fakeGateway) ExecutePayment(ctx context.Context, paymentID, payerID string) (*paypal.Payment, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.executed, nil
}
