package models

import (
	"encoding/json"
	"time"
)

// DonationStatus is the payment state of a donation
type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationCompleted DonationStatus = "completed"
	DonationRefunded  DonationStatus = "refunded"
)

// Valid reports whether s is a known status
func (s DonationStatus) Valid() bool {
	switch s {
	case DonationPending, DonationCompleted, DonationRefunded:
		return true
	}
	return false
}

// Payment methods
const (
	PaymentMethodCard   = "card"
	PaymentMethodStripe = "stripe"
)

// Donation is a monetary contribution. Amounts are stored in minor units.
type Donation struct {
	ID            int64          `db:"id"`
	DonorName     string         `db:"donor_name"`
	DonorEmail    string         `db:"donor_email"`
	AmountCents   int64          `db:"amount_cents"`
	Currency      string         `db:"currency"`
	Message       string         `db:"message"`
	Anonymous     bool           `db:"anonymous"`
	PaymentMethod string         `db:"payment_method"`
	TransactionID string         `db:"transaction_id"`
	Status        DonationStatus `db:"status"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// Amount returns the amount in major units
func (d *Donation) Amount() float64 {
	return float64(d.AmountCents) / 100
}

// PublicDonor returns the donor name and email as they may be shown.
// Both are empty for anonymous donations.
func (d *Donation) PublicDonor() (name, email string) {
	if d.Anonymous {
		return "", ""
	}
	return d.DonorName, d.DonorEmail
}

type donationJSON struct {
	ID            int64          `json:"id"`
	DonorName     *string        `json:"donor_name"`
	DonorEmail    *string        `json:"donor_email"`
	Amount        float64        `json:"amount"`
	Currency      string         `json:"currency"`
	Message       string         `json:"message"`
	Anonymous     bool           `json:"anonymous"`
	PaymentMethod string         `json:"payment_method"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Status        DonationStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

// MarshalJSON nulls the donor identity of anonymous donations
func (d *Donation) MarshalJSON() ([]byte, error) {
	out := donationJSON{
		ID:            d.ID,
		Amount:        d.Amount(),
		Currency:      d.Currency,
		Message:       d.Message,
		Anonymous:     d.Anonymous,
		PaymentMethod: d.PaymentMethod,
		TransactionID: d.TransactionID,
		Status:        d.Status,
		CreatedAt:     d.CreatedAt,
	}
	if !d.Anonymous {
		out.DonorName = nullable(d.DonorName)
		out.DonorEmail = nullable(d.DonorEmail)
	}
	return json.Marshal(out)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// DonationInput is the payload of POST /donations and POST /donations/checkout
type DonationInput struct {
	DonorName     string  `json:"donor_name"`
	DonorEmail    string  `json:"donor_email"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Message       string  `json:"message"`
	Anonymous     bool    `json:"anonymous"`
	PaymentMethod string  `json:"payment_method"`
}

// AmountCents converts the input amount to minor units
func (in *DonationInput) AmountCents() int64 {
	return int64(in.Amount*100 + 0.5)
}

// CheckoutResult is returned when a hosted checkout session is created
type CheckoutResult struct {
	DonationID  int64  `json:"donation_id"`
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// DonationStats aggregates completed donations
type DonationStats struct {
	TotalAmount   float64   `json:"total_amount"`
	TotalCount    int       `json:"total_count"`
	AverageAmount float64   `json:"average_amount"`
	MonthAmount   float64   `json:"month_amount"`
	MonthCount    int       `json:"month_count"`
	MaxAmount     float64   `json:"max_amount"`
	TopDonor      *TopDonor `json:"top_donor"`
	PendingCount  int       `json:"pending_count"`
	RefundedCount int       `json:"refunded_count"`
}

// TopDonor is the non-anonymous donor with the highest completed total
type TopDonor struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// RecentDonation is the public view used by the recent donations listing
type RecentDonation struct {
	DonorName string    `json:"donor_name"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// DonationExportHeader is the literal CSV header of the donation export
var DonationExportHeader = []string{
	"ID", "Donor Name", "Email", "Amount", "Currency", "Message",
	"Anonymous", "Payment Method", "Transaction ID", "Status", "Created At",
}
