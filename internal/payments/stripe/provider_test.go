package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riocapital/blog-api/internal/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, h http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	p, err := NewProvider("sk_test_123", WithBaseURL(srv.URL))
	require.NoError(t, err)
	return p
}

func TestNewProviderRequiresKey(t *testing.T) {
	_, err := NewProvider("  ")
	assert.Error(t, err)
}

func TestCreateCheckoutSession(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "donation-7", r.Header.Get("Idempotency-Key"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "eur", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "2500", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "1", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "7", r.PostForm.Get("metadata[donation_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","url":"https://checkout.stripe.com/c/cs_test_1"}`))
	})

	sess, err := p.CreateCheckoutSession(context.Background(), payments.CheckoutParams{
		SuccessURL:     "https://example.com/ok",
		CancelURL:      "https://example.com/cancel",
		Metadata:       map[string]string{"donation_id": "7"},
		IdempotencyKey: "donation-7",
		LineItems: []payments.LineItem{
			{Name: "Donation", AmountCents: 2500, Currency: "EUR"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", sess.URL)
}

func TestCreateCheckoutSessionValidation(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := p.CreateCheckoutSession(context.Background(), payments.CheckoutParams{})
	assert.Error(t, err)

	_, err = p.CreateCheckoutSession(context.Background(), payments.CheckoutParams{
		LineItems: []payments.LineItem{{Name: "x", AmountCents: 0, Currency: "eur"}},
	})
	assert.Error(t, err)
}

func TestCreateCheckoutSessionAPIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid currency"}}`))
	})

	_, err := p.CreateCheckoutSession(context.Background(), payments.CheckoutParams{
		LineItems: []payments.LineItem{{Name: "x", AmountCents: 100, Currency: "zzz"}},
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid currency", err.Error())
}

func TestGetCheckoutSession(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"cs_test_1","status":"complete","payment_status":"paid",
			"metadata":{"donation_id":"7"},"customer_details":{"email":"a@b.com"}}`))
	})

	d, err := p.GetCheckoutSession(context.Background(), "cs_test_1")
	require.NoError(t, err)
	assert.True(t, d.Paid())
	assert.Equal(t, "7", d.Metadata["donation_id"])
	assert.Equal(t, "a@b.com", d.CustomerEmail)

	_, err = p.GetCheckoutSession(context.Background(), "")
	assert.Error(t, err)
}
