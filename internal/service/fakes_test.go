package service

import (
	"context"
	"errors"
	"github.com/rookgm/storefront/internal/models"
	"sort"
	"sync"
	"time"
)

// memStore is in-memory order store honoring unique session id and status gated updates
type memStore struct {
	mu       sync.Mutex
	orders   map[string]*models.Order
	items    map[string][]models.OrderItem
	notified map[string]map[models.Notification]bool
	nextItem uint64

	// failures injected per method
	failGetBySession error
	failCreate       error
	failMark         error
	failGetItems     error
	failFill         error
	// conflictOnce makes next CreateOrder lose a race against this order
	conflictOnce *models.Order
}

func newMemStore() *memStore {
	return &memStore{
		orders:   make(map[string]*models.Order),
		items:    make(map[string][]models.OrderItem),
		notified: make(map[string]map[models.Notification]bool),
	}
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	return &c
}

func (s *memStore) put(order *models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(order)
}

func (s *memStore) insertLocked(order *models.Order) {
	o := cloneOrder(order)
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	o.UpdatedAt = o.CreatedAt
	items := make([]models.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		s.nextItem++
		item.ID = s.nextItem
		item.OrderID = o.ID
		items = append(items, item)
	}
	o.Items = nil
	s.orders[o.ID] = o
	s.items[o.ID] = items
}

func (s *memStore) GetOrderBySessionID(_ context.Context, sessionID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGetBySession != nil {
		return nil, s.failGetBySession
	}
	for _, o := range s.orders {
		if o.SessionID == sessionID {
			return cloneOrder(o), nil
		}
	}
	return nil, models.ErrDataNotFound
}

func (s *memStore) GetOrderByPaymentRef(_ context.Context, ref models.PaymentRef) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref.Empty() {
		return nil, models.ErrDataNotFound
	}
	for _, o := range s.orders {
		switch {
		case ref.PaymentID != "" && o.PaymentID != nil && *o.PaymentID == ref.PaymentID,
			ref.SessionID != "" && o.SessionID == ref.SessionID,
			ref.OrderID != "" && o.ID == ref.OrderID:
			return cloneOrder(o), nil
		}
	}
	return nil, models.ErrDataNotFound
}

func (s *memStore) GetOrderItems(_ context.Context, orderID string) ([]models.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGetItems != nil {
		return nil, s.failGetItems
	}
	return append([]models.OrderItem(nil), s.items[orderID]...), nil
}

func (s *memStore) CreateOrder(_ context.Context, order *models.Order) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return nil, s.failCreate
	}
	if s.conflictOnce != nil {
		s.insertLocked(s.conflictOnce)
		s.conflictOnce = nil
	}
	for _, o := range s.orders {
		if o.SessionID == order.SessionID {
			return nil, models.ErrConflictData
		}
		if order.PaymentID != nil && o.PaymentID != nil && *o.PaymentID == *order.PaymentID {
			return nil, models.ErrConflictData
		}
	}
	s.insertLocked(order)
	created := cloneOrder(s.orders[order.ID])
	created.Items = append([]models.OrderItem(nil), s.items[order.ID]...)
	return created, nil
}

func (s *memStore) MarkOrderPaid(_ context.Context, orderID string, paid models.PaidDetails) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMark != nil {
		return false, s.failMark
	}
	o, ok := s.orders[orderID]
	if !ok || o.Status != models.OrderStatusPending {
		return false, nil
	}
	o.Status = models.OrderStatusPaid
	if paid.PaymentID != "" {
		id := paid.PaymentID
		o.PaymentID = &id
	}
	if o.CustomerEmail == "" {
		o.CustomerEmail = paid.CustomerEmail
	}
	if o.CustomerName == "" {
		o.CustomerName = paid.CustomerName
	}
	o.UpdatedAt = time.Now()
	return true, nil
}

func (s *memStore) FillCustomer(_ context.Context, orderID, email, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFill != nil {
		return false, s.failFill
	}
	o, ok := s.orders[orderID]
	if !ok || o.CustomerEmail != "" {
		return false, nil
	}
	o.CustomerEmail = email
	if o.CustomerName == "" {
		o.CustomerName = name
	}
	return true, nil
}

func (s *memStore) ClaimNotification(_ context.Context, orderID string, n models.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.CustomerEmail == "" || s.notified[orderID][n] {
		return false, nil
	}
	if s.notified[orderID] == nil {
		s.notified[orderID] = make(map[models.Notification]bool)
	}
	s.notified[orderID][n] = true
	return true, nil
}

func (s *memStore) CancelPendingOrder(_ context.Context, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != models.OrderStatusPending {
		return false, nil
	}
	o.Status = models.OrderStatusCancelled
	return true, nil
}

func (s *memStore) GetStalePendingOrders(_ context.Context, before time.Time, limit int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []models.Order
	for _, o := range s.orders {
		if o.Status == models.OrderStatusPending && o.CreatedAt.Before(before) {
			res = append(res, *cloneOrder(o))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// snapshot returns all orders with their items
func (s *memStore) snapshot() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]models.Order, 0, len(s.orders))
	for id, o := range s.orders {
		c := cloneOrder(o)
		c.Items = append([]models.OrderItem(nil), s.items[id]...)
		res = append(res, *c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// memCatalog is in-memory product catalog
type memCatalog struct {
	products []models.Product
	fail     error
}

func (c *memCatalog) FindByStripeProductID(_ context.Context, stripeProductID string) (*models.Product, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	for _, p := range c.products {
		if p.StripeProductID != nil && *p.StripeProductID == stripeProductID {
			p := p
			return &p, nil
		}
	}
	return nil, models.ErrDataNotFound
}

func (c *memCatalog) FindByIdentifier(_ context.Context, identifier string) (*models.Product, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	for _, p := range c.products {
		if p.Identifier == identifier {
			p := p
			return &p, nil
		}
	}
	return nil, models.ErrDataNotFound
}

func (c *memCatalog) GetProductsByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	var res []models.Product
	for _, id := range ids {
		for _, p := range c.products {
			if p.ID == id {
				res = append(res, p)
			}
		}
	}
	return res, nil
}

func (c *memCatalog) ListProducts(_ context.Context) ([]models.Product, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	res := make([]models.Product, 0, len(c.products))
	for i := len(c.products) - 1; i >= 0; i-- {
		res = append(res, c.products[i])
	}
	return res, nil
}

func (c *memCatalog) GetProductsByIdentifiers(_ context.Context, identifiers []string) ([]models.Product, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	res := []models.Product{}
	for _, p := range c.products {
		for _, identifier := range identifiers {
			if p.Identifier == identifier {
				res = append(res, p)
				break
			}
		}
	}
	return res, nil
}

// fakeProcessor serves line items and sessions from memory
type fakeProcessor struct {
	mu        sync.Mutex
	lineItems map[string][]models.ProcessorLineItem
	sessions  map[string]*models.SessionState
	fail      error
	created   []models.SessionParams
	listCalls int
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		lineItems: make(map[string][]models.ProcessorLineItem),
		sessions:  make(map[string]*models.SessionState),
	}
}

func (p *fakeProcessor) ListLineItems(_ context.Context, sessionID string) ([]models.ProcessorLineItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listCalls++
	if p.fail != nil {
		return nil, p.fail
	}
	return p.lineItems[sessionID], nil
}

func (p *fakeProcessor) GetSession(_ context.Context, sessionID string) (*models.SessionState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return nil, p.fail
	}
	s, ok := p.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such session")
	}
	return s, nil
}

func (p *fakeProcessor) CreateCheckoutSession(_ context.Context, params models.SessionParams) (*models.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return nil, p.fail
	}
	p.created = append(p.created, params)
	return &models.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

// fakeNotifier records notifications
type fakeNotifier struct {
	mu                   sync.Mutex
	orderConfirmations   []string
	paymentConfirmations []string
	paymentFailures      []string
	recipients           []string
	fail                 error
}

func (n *fakeNotifier) SendOrderConfirmation(_ context.Context, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orderConfirmations = append(n.orderConfirmations, order.ID)
	n.recipients = append(n.recipients, order.CustomerEmail)
	return n.fail
}

func (n *fakeNotifier) SendPaymentConfirmation(_ context.Context, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paymentConfirmations = append(n.paymentConfirmations, order.ID)
	n.recipients = append(n.recipients, order.CustomerEmail)
	return n.fail
}

func (n *fakeNotifier) SendPaymentFailed(_ context.Context, failure *models.PaymentFailed) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paymentFailures = append(n.paymentFailures, failure.PaymentID)
	return n.fail
}

func (n *fakeNotifier) counts() (int, int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orderConfirmations), len(n.paymentConfirmations), len(n.paymentFailures)
}
