package payments

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no payment provider is set up
var ErrNotConfigured = errors.New("payment provider is not configured")

// LineItem is one priced entry of a checkout
type LineItem struct {
	Name        string
	Description string
	AmountCents int64
	Quantity    int64
	Currency    string
}

// CheckoutParams describes a hosted checkout to create
type CheckoutParams struct {
	SuccessURL     string
	CancelURL      string
	CustomerEmail  string
	Metadata       map[string]string
	LineItems      []LineItem
	IdempotencyKey string
}

// Session is a created checkout session
type Session struct {
	ID  string
	URL string
}

// SessionDetails is the provider's current view of a checkout session
type SessionDetails struct {
	ID            string
	Status        string
	PaymentStatus string
	Metadata      map[string]string
	CustomerEmail string
}

// Paid reports whether the provider has captured the payment
func (d *SessionDetails) Paid() bool {
	return d != nil && d.PaymentStatus == "paid"
}

// Provider creates and inspects hosted checkout sessions
type Provider interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*Session, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*SessionDetails, error)
}
