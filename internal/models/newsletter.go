package models

import (
	"encoding/json"
	"time"
)

// Subscriber is a newsletter subscription
type Subscriber struct {
	ID           int64           `json:"id" db:"id"`
	Email        string          `json:"email" db:"email"`
	Preferences  json.RawMessage `json:"preferences" db:"preferences"`
	Active       bool            `json:"is_active" db:"is_active"`
	SubscribedAt time.Time       `json:"subscribed_at" db:"subscribed_at"`
}

// SubscribeInput is the payload of POST /newsletter/subscribe
type SubscribeInput struct {
	Email       string          `json:"email"`
	Preferences json.RawMessage `json:"preferences"`
}

// SubscribeOutcome tells the handler which response to send
type SubscribeOutcome int

const (
	SubscriptionCreated SubscribeOutcome = iota
	SubscriptionReactivated
	SubscriptionAlreadyActive
)

// ImportError describes one rejected row of a subscriber import
type ImportError struct {
	Line    int    `json:"line"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// ImportResult summarises a subscriber CSV import
type ImportResult struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ContactMessage is the payload of POST /contact
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}
