package payment

import (
	"context"
	"fmt"
	"github.com/rookgm/storefront/internal/models"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"go.uber.org/zap"
	"strings"
)

const (
	// metadata keys set on sessions and payment intents
	metadataOrderID    = "order_id"
	metadataSessionID  = "session_id"
	metadataIdentifier = "identifier"
)

// Config is Stripe client configuration
type Config struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	// BackendURL overrides Stripe API address, used in tests
	BackendURL string
}

// Client is Stripe payment processor client
type Client struct {
	sessions      session.Client
	webhookSecret string
	currency      string
}

// NewClient creates new Stripe client without touching stripe package globals
func NewClient(cfg Config, logger *zap.Logger) *Client {
	backendCfg := &stripe.BackendConfig{
		LeveledLogger:     logger.Sugar(),
		MaxNetworkRetries: stripe.Int64(2),
	}
	if cfg.BackendURL != "" {
		backendCfg.URL = stripe.String(cfg.BackendURL)
	}

	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "eur"
	}

	return &Client{
		sessions: session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.SecretKey,
		},
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
	}
}

// CreateCheckoutSession creates hosted checkout session
func (c *Client) CreateCheckoutSession(ctx context.Context, p models.SessionParams) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:                stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes:  stripe.StringSlice([]string{"card"}),
		SuccessURL:          stripe.String(p.SuccessURL),
		CancelURL:           stripe.String(p.CancelURL),
		AllowPromotionCodes: stripe.Bool(true),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{metadataOrderID: p.OrderID},
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataOrderID, p.OrderID)

	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	if p.ClientRef != "" {
		params.ClientReferenceID = stripe.String(p.ClientRef)
	}

	for _, item := range p.LineItems {
		if item.PriceRef != "" {
			params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
				Price:    stripe.String(item.PriceRef),
				Quantity: stripe.Int64(item.Quantity),
			})
			continue
		}

		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(c.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(item.Name),
					Description: nonEmpty(item.Description),
					Metadata:    map[string]string{metadataIdentifier: item.Identifier},
				},
				UnitAmount: stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	s, err := c.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &models.CheckoutSession{
		ID:  s.ID,
		URL: s.URL,
	}, nil
}

// ListLineItems returns line items of checkout session with expanded products
func (c *Client) ListLineItems(ctx context.Context, sessionID string) ([]models.ProcessorLineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx
	params.AddExpand("data.price.product")

	var items []models.ProcessorLineItem

	iter := c.sessions.ListLineItems(params)
	for iter.Next() {
		li := iter.LineItem()

		item := models.ProcessorLineItem{
			Name:     li.Description,
			Quantity: li.Quantity,
		}
		if item.Quantity == 0 {
			item.Quantity = 1
		}

		if li.Price != nil {
			item.UnitAmount = li.Price.UnitAmount
			if product := li.Price.Product; product != nil {
				item.ProductID = product.ID
				item.Identifier = product.Metadata[metadataIdentifier]
				if product.Name != "" {
					item.Name = product.Name
				}
				item.Description = product.Description
			}
		}

		items = append(items, item)
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list line items of %s: %w", sessionID, err)
	}

	return items, nil
}

// GetSession returns current state of checkout session
func (c *Client) GetSession(ctx context.Context, sessionID string) (*models.SessionState, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := c.sessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve session %s: %w", sessionID, err)
	}

	state := &models.SessionState{
		ID:            s.ID,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		CustomerEmail: s.CustomerEmail,
		ClientRef:     s.ClientReferenceID,
		AmountTotal:   s.AmountTotal,
	}
	if s.PaymentIntent != nil {
		state.PaymentIntentID = s.PaymentIntent.ID
	}
	if s.CustomerDetails != nil {
		if s.CustomerDetails.Email != "" {
			state.CustomerEmail = s.CustomerDetails.Email
		}
		state.CustomerName = s.CustomerDetails.Name
	}

	return state, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}
