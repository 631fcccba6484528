package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"swiftpos/backend/internal/cart"
	"swiftpos/backend/internal/catalog"
	"swiftpos/backend/internal/domain"
)

// CatalogSource supplies the product list a session snapshots on open.
type CatalogSource interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// Submitter settles an approved sale. The local service implements it
// directly; salesapi.Client implements it against a remote sales authority.
type Submitter interface {
	SubmitSale(ctx context.Context, req domain.SaleRequest) (*domain.Sale, error)
}

// Session is one cashier's live checkout: a cart, the catalog snapshot taken
// when the session opened, and the selected customer and payment method. All
// operations serialize on the session mutex; from the cashier's perspective
// mutations are strictly sequential.
type Session struct {
	ID string

	mu            sync.Mutex
	snapshot      *catalog.Snapshot
	cart          *cart.Cart
	customerID    int64
	paymentMethod string
	submitting    bool
	submitter     Submitter
	openedAt      time.Time
}

// SessionView is the JSON projection of a session's current state.
type SessionView struct {
	ID              string      `json:"id"`
	OpenedAt        string      `json:"openedAt"`
	CatalogSize     int         `json:"catalogSize"`
	SnapshotTakenAt string      `json:"snapshotTakenAt"`
	CustomerID      int64       `json:"customerId"`
	PaymentMethod   string      `json:"paymentMethod"`
	Lines           []cart.Line `json:"lines"`
	Totals          cart.Totals `json:"totals"`
}

// Manager owns the live sessions. Sessions are memory-only: a restart loses
// them, which matches the draft nature of an unsubmitted sale.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	catalog   CatalogSource
	submitter Submitter
}

func NewManager(source CatalogSource, submitter Submitter) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		catalog:   source,
		submitter: submitter,
	}
}

// Open fetches the catalog, freezes it into a snapshot and starts an empty
// session. The snapshot is never refreshed for the life of the session.
func (m *Manager) Open(ctx context.Context) (*Session, error) {
	products, err := m.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:            uuid.NewString(),
		snapshot:      catalog.NewSnapshot(products),
		cart:          cart.New(),
		paymentMethod: domain.PaymentCard,
		submitter:     m.submitter,
		openedAt:      time.Now().UTC(),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	return session, nil
}

func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (m *Manager) Close(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, sessionID)
	return nil
}

// AddItem adds one unit of the product, looked up in the session's snapshot.
// Products with zero stock may still be added; stock is enforced only at
// submission.
func (s *Session) AddItem(productID int64) (cart.AddResult, domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, found := s.snapshot.Lookup(productID)
	if !found {
		return 0, domain.Product{}, ErrProductNotInCatalog
	}
	return s.cart.AddItem(product), product, nil
}

func (s *Session) RemoveItem(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.RemoveItem(productID)
}

func (s *Session) UpdateQuantity(productID int64, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.UpdateQuantity(productID, quantity)
}

func (s *Session) UpdateUnitPrice(productID int64, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.UpdateUnitPrice(productID, price)
}

func (s *Session) UpdateDiscount(productID int64, discount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.UpdateDiscount(productID, discount)
}

func (s *Session) SetCartDiscount(discount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.SetDiscount(discount)
}

func (s *Session) SetCustomer(customerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customerID = customerID
}

func (s *Session) SetPaymentMethod(method string) bool {
	if !domain.IsSupportedPaymentMethod(method) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentMethod = method
	return true
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
}

func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionView{
		ID:              s.ID,
		OpenedAt:        s.openedAt.Format(time.RFC3339),
		CatalogSize:     s.snapshot.Len(),
		SnapshotTakenAt: s.snapshot.TakenAt().Format(time.RFC3339),
		CustomerID:      s.customerID,
		PaymentMethod:   s.paymentMethod,
		Lines:           s.cart.Lines(),
		Totals:          s.cart.Totals(),
	}
}

// FinishSale validates the draft, builds the wire request and settles it.
// A second call while one is pending is rejected with ErrSubmissionInFlight;
// the sales authority has no idempotency key, so a duplicate submission
// would create a duplicate sale. On any failure (validation, stock
// rejection, transport) the cart, customer and payment method are left
// exactly as they were so the cashier can retry. Only a successful
// settlement resets the session.
func (s *Session) FinishSale(ctx context.Context) (*domain.Sale, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if verr := Validate(s.cart, s.snapshot, s.customerID); verr != nil {
		s.mu.Unlock()
		return nil, verr
	}
	req := BuildRequest(s.cart, s.customerID, s.paymentMethod)
	s.submitting = true
	s.mu.Unlock()

	sale, err := s.submitter.SubmitSale(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		return nil, err
	}

	s.cart.Clear()
	s.customerID = 0
	s.paymentMethod = domain.PaymentCard
	return sale, nil
}
