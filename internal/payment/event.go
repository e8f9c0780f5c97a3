package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/rookgm/storefront/internal/models"
	"github.com/stripe/stripe-go/v76/webhook"
)

// VerifyEvent checks event signature and decodes it.
// Returns models.ErrInvalidSignature when payload cannot be trusted
// and models.ErrMalformedEvent when a handled event misses expected fields.
func (c *Client) VerifyEvent(payload []byte, signature string) (models.PaymentEvent, error) {
	return VerifyEvent(payload, signature, c.webhookSecret)
}

// VerifyEvent checks event signature against secret and decodes it
func VerifyEvent(payload []byte, signature, secret string) (models.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return models.PaymentEvent{}, fmt.Errorf("%w: %v", models.ErrInvalidSignature, err)
	}

	var raw json.RawMessage
	if event.Data != nil {
		raw = event.Data.Raw
	}

	return DecodeEvent(event.ID, string(event.Type), raw)
}

type customerDetails struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type sessionObject struct {
	ID                string            `json:"id"`
	PaymentIntent     json.RawMessage   `json:"payment_intent"`
	CustomerEmail     string            `json:"customer_email"`
	CustomerDetails   *customerDetails  `json:"customer_details"`
	ClientReferenceID string            `json:"client_reference_id"`
	AmountTotal       int64             `json:"amount_total"`
	Metadata          map[string]string `json:"metadata"`
}

type paymentIntentObject struct {
	ID           string            `json:"id"`
	Amount       int64             `json:"amount"`
	ReceiptEmail string            `json:"receipt_email"`
	Metadata     map[string]string `json:"metadata"`
	Shipping     *struct {
		Name string `json:"name"`
	} `json:"shipping"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

type chargeObject struct {
	ID            string            `json:"id"`
	Amount        int64             `json:"amount"`
	PaymentIntent json.RawMessage   `json:"payment_intent"`
	Metadata      map[string]string `json:"metadata"`
}

// DecodeEvent converts raw event object into typed event.
// Unknown kinds are returned without payload.
func DecodeEvent(id, kind string, raw json.RawMessage) (models.PaymentEvent, error) {
	event := models.PaymentEvent{
		ID:   id,
		Kind: models.EventKind(kind),
	}

	switch event.Kind {
	case models.EventSessionCompleted:
		var obj sessionObject
		if err := decodeObject(raw, &obj); err != nil {
			return event, err
		}

		s := &models.SessionCompleted{
			SessionID:     obj.ID,
			PaymentID:     expandableID(obj.PaymentIntent),
			CustomerEmail: obj.CustomerEmail,
			ClientRef:     obj.ClientReferenceID,
			AmountTotal:   obj.AmountTotal,
		}
		if obj.CustomerDetails != nil {
			if obj.CustomerDetails.Email != "" {
				s.CustomerEmail = obj.CustomerDetails.Email
			}
			s.CustomerName = obj.CustomerDetails.Name
		}
		event.Session = s

	case models.EventPaymentIntentSucceeded:
		var obj paymentIntentObject
		if err := decodeObject(raw, &obj); err != nil {
			return event, err
		}

		event.Payment = &models.PaymentSucceeded{
			PaymentID: obj.ID,
			SessionID: obj.Metadata[metadataSessionID],
			OrderID:   obj.Metadata[metadataOrderID],
			Amount:    obj.Amount,
		}

	case models.EventChargeSucceeded:
		var obj chargeObject
		if err := decodeObject(raw, &obj); err != nil {
			return event, err
		}

		// orders keep payment intent id, charge id is only a fallback
		paymentID := expandableID(obj.PaymentIntent)
		if paymentID == "" {
			paymentID = obj.ID
		}

		event.Payment = &models.PaymentSucceeded{
			PaymentID: paymentID,
			SessionID: obj.Metadata[metadataSessionID],
			OrderID:   obj.Metadata[metadataOrderID],
			Amount:    obj.Amount,
		}

	case models.EventPaymentIntentFailed:
		var obj paymentIntentObject
		if err := decodeObject(raw, &obj); err != nil {
			return event, err
		}

		f := &models.PaymentFailed{
			PaymentID:    obj.ID,
			ReceiptEmail: obj.ReceiptEmail,
			CustomerName: "Client",
			Amount:       obj.Amount,
		}
		if obj.Shipping != nil && obj.Shipping.Name != "" {
			f.CustomerName = obj.Shipping.Name
		}
		if obj.LastPaymentError != nil {
			f.FailureReason = obj.LastPaymentError.Message
		}
		event.Failure = f
	}

	return event, nil
}

// objectWithID is any event object, all of them carry id
type objectWithID interface {
	objectID() string
}

func (o *sessionObject) objectID() string       { return o.ID }
func (o *paymentIntentObject) objectID() string { return o.ID }
func (o *chargeObject) objectID() string        { return o.ID }

func decodeObject(raw json.RawMessage, obj objectWithID) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("%w: missing data.object", models.ErrMalformedEvent)
	}
	if err := json.Unmarshal(raw, obj); err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedEvent, err)
	}
	if obj.objectID() == "" {
		return fmt.Errorf("%w: missing object id", models.ErrMalformedEvent)
	}
	return nil
}

// expandableID returns id of a field that is either an id string or an expanded object
func expandableID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}

	return ""
}
