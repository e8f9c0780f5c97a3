package models

import "time"

//PENDING — заказ создан, оплата ещё не подтверждена;
//PAID — оплата подтверждена платёжной системой;
//PROCESSING, SHIPPED, DELIVERED — этапы выполнения заказа;
//CANCELLED — checkout-сессия истекла или заказ отменён;
//REFUNDED — деньги возвращены покупателю.

// OrderStatus is order lifecycle status
type OrderStatus string

// order status
const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// Valid reports whether status is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// Settled reports whether order was paid and not cancelled or refunded since
func (s OrderStatus) Settled() bool {
	switch s {
	case OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// Notification is kind of customer e-mail
type Notification string

// order notifications
const (
	NotificationOrderConfirmation   Notification = "order_confirmation"
	NotificationPaymentConfirmation Notification = "payment_confirmation"
	NotificationPaymentFailed       Notification = "payment_failed"
)

// Order is order entity
type Order struct {
	ID            string
	SessionID     string
	PaymentID     *string
	Total         int64
	Status        OrderStatus
	CustomerEmail string
	CustomerName  string
	UserID        *string
	Items         []OrderItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem is a line of an order. Price, title and subtitle are snapshots taken at purchase time.
type OrderItem struct {
	ID        uint64
	OrderID   string
	ProductID *int64
	Quantity  int64
	Price     int64
	Title     string
	Subtitle  string
}

// Subtotal returns unit price multiplied by quantity
func (i OrderItem) Subtotal() int64 {
	return i.Price * i.Quantity
}

// OrderTotal sums item subtotals
func OrderTotal(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

// OrderFilter narrows order listings
type OrderFilter struct {
	UserID        string
	Status        OrderStatus
	CustomerEmail string
	From          *time.Time
	To            *time.Time
	Page          int
	Limit         int
}

// Offset returns number of rows to skip for the filter page
func (f OrderFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// OrderPage is one page of orders
type OrderPage struct {
	Orders      []Order
	TotalCount  int
	TotalPages  int
	CurrentPage int
}

// OrderStats is admin dashboard summary
type OrderStats struct {
	TotalOrders     int
	TotalRevenue    int64
	PendingOrders   int
	CompletedOrders int
	RecentOrders    int
}
