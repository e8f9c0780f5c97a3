package models

// CheckoutItem is a requested product and its quantity
type CheckoutItem struct {
	ProductID int64
	Quantity  int64
}

// CheckoutRequest is buyer request to start paying
type CheckoutRequest struct {
	Items []CheckoutItem
	// Customer is nil for guest checkouts
	Customer *TokenPayload
}

// SessionLineItem is a line of a checkout session to be created.
// Either PriceRef is set or the inline fields are used.
type SessionLineItem struct {
	PriceRef    string
	Identifier  string
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

// SessionParams describes checkout session to be created
type SessionParams struct {
	OrderID       string
	LineItems     []SessionLineItem
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	ClientRef     string
}

// CheckoutSession is checkout session created by the payment processor
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutResult is returned to the buyer
type CheckoutResult struct {
	SessionID string
	URL       string
	OrderID   string
}

// ProcessorLineItem is a line item as reported by the payment processor for a completed session
type ProcessorLineItem struct {
	ProductID   string
	Identifier  string
	Name        string
	Description string
	Quantity    int64
	UnitAmount  int64
}

// checkout session states
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
	SessionPaymentPaid    = "paid"
)

// SessionState is current processor view of a checkout session
type SessionState struct {
	ID              string
	Status          string
	PaymentStatus   string
	PaymentIntentID string
	CustomerEmail   string
	CustomerName    string
	ClientRef       string
	AmountTotal     int64
}
