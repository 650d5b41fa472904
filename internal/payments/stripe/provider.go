package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/riocapital/blog-api/internal/payments"
)

const defaultAPIBase = "https://api.stripe.com"

// Provider talks to Stripe Checkout over its REST API
type Provider struct {
	secretKey  string
	httpClient *http.Client
	apiBaseURL string
}

// Option customises a Provider
type Option func(*Provider)

// WithBaseURL points the provider at another API host
func WithBaseURL(base string) Option {
	return func(p *Provider) { p.apiBaseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// NewProvider constructs a Stripe provider using the supplied secret key
func NewProvider(secretKey string, opts ...Option) (*Provider, error) {
	key := strings.TrimSpace(secretKey)
	if key == "" {
		return nil, errors.New("stripe secret key is required")
	}

	p := &Provider{
		secretKey:  key,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiBaseURL: defaultAPIBase,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

var _ payments.Provider = (*Provider)(nil)

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func checkoutForm(params payments.CheckoutParams) (url.Values, error) {
	if len(params.LineItems) == 0 {
		return nil, errors.New("at least one line item is required")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	if email := strings.TrimSpace(params.CustomerEmail); email != "" {
		form.Set("customer_email", email)
	}
	for k, v := range params.Metadata {
		if k == "" || v == "" {
			continue
		}
		form.Set("metadata["+k+"]", v)
	}

	for i, item := range params.LineItems {
		if item.AmountCents <= 0 {
			return nil, fmt.Errorf("line item %q has invalid amount", item.Name)
		}
		currency := strings.ToLower(strings.TrimSpace(item.Currency))
		if currency == "" {
			return nil, fmt.Errorf("line item %q currency is required", item.Name)
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}

		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.FormatInt(qty, 10))
		form.Set(prefix+"[price_data][currency]", currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.AmountCents, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if desc := strings.TrimSpace(item.Description); desc != "" {
			form.Set(prefix+"[price_data][product_data][description]", desc)
		}
	}
	return form, nil
}

func (p *Provider) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		msg := strings.TrimSpace(apiErr.Error.Message)
		if msg == "" {
			msg = fmt.Sprintf("stripe returned status %d", resp.StatusCode)
		}
		return errors.New(msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("stripe response decode failed: %w", err)
	}
	return nil
}

// CreateCheckoutSession creates a one-time payment checkout session
func (p *Provider) CreateCheckoutSession(ctx context.Context, params payments.CheckoutParams) (*payments.Session, error) {
	form, err := checkoutForm(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBaseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if params.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", params.IdempotencyKey)
	}

	var payload struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := p.do(req, &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" || payload.URL == "" {
		return nil, errors.New("stripe response missing session details")
	}
	return &payments.Session{ID: payload.ID, URL: payload.URL}, nil
}

// GetCheckoutSession fetches the current state of a checkout session
func (p *Provider) GetCheckoutSession(ctx context.Context, sessionID string) (*payments.SessionDetails, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, errors.New("session id is required")
	}

	endpoint := fmt.Sprintf("%s/v1/checkout/sessions/%s", p.apiBaseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ID              string            `json:"id"`
		Status          string            `json:"status"`
		PaymentStatus   string            `json:"payment_status"`
		Metadata        map[string]string `json:"metadata"`
		CustomerEmail   string            `json:"customer_email"`
		CustomerDetails struct {
			Email string `json:"email"`
		} `json:"customer_details"`
	}
	if err := p.do(req, &payload); err != nil {
		return nil, err
	}

	email := payload.CustomerEmail
	if email == "" {
		email = payload.CustomerDetails.Email
	}
	return &payments.SessionDetails{
		ID:            payload.ID,
		Status:        payload.Status,
		PaymentStatus: payload.PaymentStatus,
		Metadata:      payload.Metadata,
		CustomerEmail: email,
	}, nil
}
