package models

// EventKind is payment processor event type
type EventKind string

// handled event kinds
const (
	EventSessionCompleted       EventKind = "checkout.session.completed"
	EventPaymentIntentSucceeded EventKind = "payment_intent.succeeded"
	EventChargeSucceeded        EventKind = "charge.succeeded"
	EventPaymentIntentFailed    EventKind = "payment_intent.payment_failed"
)

// PaymentEvent is decoded payment processor event.
// Exactly one of Session, Payment or Failure is set for handled kinds; none for the rest.
type PaymentEvent struct {
	ID      string
	Kind    EventKind
	Session *SessionCompleted
	Payment *PaymentSucceeded
	Failure *PaymentFailed
}

// SessionCompleted is payload of a completed checkout session
type SessionCompleted struct {
	SessionID     string
	PaymentID     string
	CustomerEmail string
	CustomerName  string
	ClientRef     string
	AmountTotal   int64
}

// PaymentSucceeded is payload of payment intent or charge success
type PaymentSucceeded struct {
	PaymentID string
	SessionID string
	OrderID   string
	Amount    int64
}

// PaymentFailed is payload of a failed payment intent
type PaymentFailed struct {
	PaymentID     string
	ReceiptEmail  string
	CustomerName  string
	Amount        int64
	FailureReason string
}

// PaymentRef holds references an advisory event can be matched by
type PaymentRef struct {
	PaymentID string
	SessionID string
	OrderID   string
}

// Empty reports whether ref has nothing to match by
func (r PaymentRef) Empty() bool {
	return r.PaymentID == "" && r.SessionID == "" && r.OrderID == ""
}

// PaidDetails is data attached to an order when it becomes PAID.
// Customer fields only fill blanks left by a guest checkout.
type PaidDetails struct {
	PaymentID     string
	CustomerEmail string
	CustomerName  string
}
