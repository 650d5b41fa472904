package mocks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/payments"
	"github.com/riocapital/blog-api/internal/service"
)

// MockPaymentProvider is an in-memory checkout provider
type MockPaymentProvider struct {
	mu        sync.Mutex
	sessions  map[string]*payments.SessionDetails
	next      int
	CreateErr error
	GetErr    error
	// Created records the params of every created session
	Created []payments.CheckoutParams
	// Lookups counts GetCheckoutSession calls
	Lookups int
}

// Verify interface compliance
var _ payments.Provider = (*MockPaymentProvider)(nil)

func NewMockPaymentProvider() *MockPaymentProvider {
	return &MockPaymentProvider{sessions: make(map[string]*payments.SessionDetails)}
}

func (m *MockPaymentProvider) CreateCheckoutSession(ctx context.Context, params payments.CheckoutParams) (*payments.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.next++
	id := fmt.Sprintf("cs_test_%d", m.next)
	m.sessions[id] = &payments.SessionDetails{
		ID:            id,
		Status:        "open",
		PaymentStatus: "unpaid",
		Metadata:      params.Metadata,
		CustomerEmail: params.CustomerEmail,
	}
	m.Created = append(m.Created, params)
	return &payments.Session{ID: id, URL: "https://checkout.test/" + id}, nil
}

func (m *MockPaymentProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*payments.SessionDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lookups++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such checkout session: " + sessionID)
	}
	cp := *s
	return &cp, nil
}

// MarkPaid flips a session to paid
// LookupCount returns Lookups under the provider lock
func (m *MockPaymentProvider) LookupCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Lookups
}

func (m *MockPaymentProvider) MarkPaid(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.Status = "complete"
		s.PaymentStatus = "paid"
	}
}

// MockIdentityProvider returns a fixed identity for a known code
type MockIdentityProvider struct {
	Code     string
	Identity *models.ExternalIdentity
	Err      error
}

// Verify interface compliance
var _ service.IdentityProvider = (*MockIdentityProvider)(nil)

func (m *MockIdentityProvider) AuthCodeURL(state string) string {
	return "https://accounts.test/auth?state=" + state
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, code string) (*models.ExternalIdentity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if code != m.Code || m.Identity == nil {
		return nil, errors.New("invalid authorization code")
	}
	cp := *m.Identity
	return &cp, nil
}
