package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"github.com/rookgm/storefront/internal/models"
	"github.com/shopspring/decimal"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Message is a rendered e-mail
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers rendered e-mails
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer renders order and payment e-mails and hands them to Sender
type Mailer struct {
	sender   Sender
	currency string
	text     *texttemplate.Template
	html     *htmltemplate.Template
}

// NewMailer creates new Mailer, currency is used for amount formatting
func NewMailer(sender Sender, currency string) (*Mailer, error) {
	text, err := texttemplate.ParseFS(templatesFS, "templates/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}

	html, err := htmltemplate.ParseFS(templatesFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}

	return &Mailer{
		sender:   sender,
		currency: strings.ToUpper(currency),
		text:     text,
		html:     html,
	}, nil
}

type itemView struct {
	Title    string
	Subtitle string
	Quantity int64
	Subtotal string
}

type orderView struct {
	OrderID      string
	CustomerName string
	PaymentID    string
	Total        string
	Reason       string
	Items        []itemView
}

// SendOrderConfirmation sends order summary with its items
func (m *Mailer) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	view := m.orderView(order)
	for _, item := range order.Items {
		view.Items = append(view.Items, itemView{
			Title:    item.Title,
			Subtitle: item.Subtitle,
			Quantity: item.Quantity,
			Subtotal: m.formatAmount(item.Subtotal()),
		})
	}

	return m.send(ctx, order.CustomerEmail, fmt.Sprintf("Order confirmation #%s", order.ID), "order_confirmation", view)
}

// SendPaymentConfirmation sends payment receipt for order
func (m *Mailer) SendPaymentConfirmation(ctx context.Context, order *models.Order) error {
	return m.send(ctx, order.CustomerEmail, fmt.Sprintf("Payment received for order #%s", order.ID), "payment_confirmation", m.orderView(order))
}

// SendPaymentFailed tells customer the payment did not go through
func (m *Mailer) SendPaymentFailed(ctx context.Context, failure *models.PaymentFailed) error {
	view := orderView{
		OrderID:      failure.PaymentID,
		CustomerName: failure.CustomerName,
		PaymentID:    failure.PaymentID,
		Total:        m.formatAmount(failure.Amount),
		Reason:       failure.FailureReason,
	}

	return m.send(ctx, failure.ReceiptEmail, "Problem with your payment", "payment_failed", view)
}

func (m *Mailer) orderView(order *models.Order) orderView {
	view := orderView{
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		Total:        m.formatAmount(order.Total),
	}
	if view.CustomerName == "" {
		view.CustomerName = "Client"
	}
	if order.PaymentID != nil {
		view.PaymentID = *order.PaymentID
	}
	return view
}

func (m *Mailer) send(ctx context.Context, to, subject, name string, view orderView) error {
	if to == "" {
		return models.ErrNoRecipient
	}

	var text, html bytes.Buffer
	if err := m.text.ExecuteTemplate(&text, name+".txt.tmpl", view); err != nil {
		return fmt.Errorf("render %s text: %w", name, err)
	}
	if err := m.html.ExecuteTemplate(&html, name+".html.tmpl", view); err != nil {
		return fmt.Errorf("render %s html: %w", name, err)
	}

	return m.sender.Send(ctx, Message{
		To:      to,
		Subject: subject,
		Text:    text.String(),
		HTML:    html.String(),
	})
}

// formatAmount renders minor currency units, 1050 -> "10.50 EUR"
func (m *Mailer) formatAmount(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2) + " " + m.currency
}
