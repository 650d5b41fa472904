package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/riocapital/blog-api/internal/config"
	"github.com/riocapital/blog-api/internal/metrics"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/payments"
	"github.com/riocapital/blog-api/internal/repository"
	"github.com/riocapital/blog-api/internal/validation"
	"github.com/rs/zerolog"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 50
	recentWindow       = 30 * 24 * time.Hour
	exportTimeLayout   = "2006-01-02 15:04:05"
	exportFlushEvery   = 500
)

var errRefundNotCompleted = models.NewValidationError("only completed donations can be refunded")

// donationService is the concrete implementation of DonationService
type donationService struct {
	donations repository.DonationRepository
	provider  payments.Provider
	cfg       config.PaymentsConfig
	validator *validation.Validator
	now       func() time.Time
	log       zerolog.Logger
}

// newDonationService creates a new DonationService. provider may be nil.
func newDonationService(donations repository.DonationRepository, provider payments.Provider, cfg config.PaymentsConfig, log zerolog.Logger) *donationService {
	return &donationService{
		donations: donations,
		provider:  provider,
		cfg:       cfg,
		validator: validation.NewValidator(),
		now:       time.Now,
		log:       log.With().Str("service", "donations").Logger(),
	}
}

// newDonation validates input and builds the pending row
func (s *donationService) newDonation(in *models.DonationInput, method string) (*models.Donation, error) {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if errs := s.validator.ValidateDonation(in); len(errs) > 0 {
		return nil, validation.ToAppError(errs)
	}
	currency := in.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	d := &models.Donation{
		DonorName:     strings.TrimSpace(in.DonorName),
		DonorEmail:    validation.NormalizeEmail(in.DonorEmail),
		AmountCents:   in.AmountCents(),
		Currency:      currency,
		Message:       strings.TrimSpace(in.Message),
		Anonymous:     in.Anonymous,
		PaymentMethod: method,
		Status:        models.DonationPending,
	}
	if d.Anonymous {
		// anonymous rows never store who gave
		d.DonorName = ""
		d.DonorEmail = ""
	}
	return d, nil
}

// Create records a donation and completes it immediately with a simulated
// transaction id
func (s *donationService) Create(ctx context.Context, in *models.DonationInput) (*models.Donation, error) {
	method := strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if method == "" {
		method = models.PaymentMethodCard
	}
	if method == models.PaymentMethodStripe {
		return nil, models.NewValidationError("stripe donations must use the checkout endpoint")
	}
	donation, err := s.newDonation(in, method)
	if err != nil {
		return nil, err
	}
	if err := s.donations.Create(ctx, donation); err != nil {
		return nil, err
	}
	metrics.DonationTransitions.WithLabelValues(method, string(models.DonationPending)).Inc()

	txID := fmt.Sprintf("TXN_%d_%d", donation.ID, s.now().Unix())
	completed, err := s.donations.Complete(ctx, donation.ID, txID)
	if err != nil {
		return nil, err
	}
	if completed == nil {
		return nil, models.NewInternalError(fmt.Errorf("donation %d left pending state before completion", donation.ID))
	}
	metrics.DonationTransitions.WithLabelValues(method, string(models.DonationCompleted)).Inc()

	s.log.Info().
		Int64("donation_id", completed.ID).
		Int64("amount_cents", completed.AmountCents).
		Str("currency", completed.Currency).
		Str("transaction_id", txID).
		Msg("Donation completed")

	return completed, nil
}

func (s *donationService) requireProvider() error {
	if s.provider == nil {
		return models.NewUnavailableError("online payments are not configured")
	}
	return nil
}

// Checkout records a pending donation and opens a hosted checkout session for it
func (s *donationService) Checkout(ctx context.Context, in *models.DonationInput) (*models.CheckoutResult, error) {
	if err := s.requireProvider(); err != nil {
		return nil, err
	}
	donation, err := s.newDonation(in, models.PaymentMethodStripe)
	if err != nil {
		return nil, err
	}
	if err := s.donations.Create(ctx, donation); err != nil {
		return nil, err
	}
	metrics.DonationTransitions.WithLabelValues(models.PaymentMethodStripe, string(models.DonationPending)).Inc()

	id := strconv.FormatInt(donation.ID, 10)
	session, err := s.provider.CreateCheckoutSession(ctx, payments.CheckoutParams{
		SuccessURL:    s.cfg.SuccessURL,
		CancelURL:     s.cfg.CancelURL,
		CustomerEmail: donation.DonorEmail,
		Metadata:      map[string]string{"donation_id": id},
		LineItems: []payments.LineItem{{
			Name:        "Donation to RioCapital",
			Description: donation.Message,
			AmountCents: donation.AmountCents,
			Quantity:    1,
			Currency:    donation.Currency,
		}},
		IdempotencyKey: "donation-" + id,
	})
	if err != nil {
		s.log.Error().Err(err).Int64("donation_id", donation.ID).Msg("Failed to create checkout session")
		return nil, &models.AppError{Code: models.CodeUnavailable, Message: "payment provider unavailable", Err: err}
	}

	if err := s.donations.SetTransactionID(ctx, donation.ID, session.ID); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("donation_id", donation.ID).
		Str("session_id", session.ID).
		Int64("amount_cents", donation.AmountCents).
		Msg("Checkout session created")

	return &models.CheckoutResult{
		DonationID:  donation.ID,
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}, nil
}

// ConfirmCheckout looks a session up with the provider and completes its
// donation when paid. Unpaid sessions leave the donation pending.
func (s *donationService) ConfirmCheckout(ctx context.Context, sessionID string) (*models.Donation, error) {
	if err := s.requireProvider(); err != nil {
		return nil, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, models.NewValidationError("session_id is required")
	}
	donation, err := s.donations.GetByTransactionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, models.NewNotFoundError("checkout session", sessionID)
	}
	if _, err := s.reconcile(ctx, donation); err != nil {
		return nil, err
	}
	return s.donations.GetByID(ctx, donation.ID)
}

// reconcile completes one pending checkout donation if the provider reports
// it paid. It reports whether the donation moved to completed.
func (s *donationService) reconcile(ctx context.Context, donation *models.Donation) (bool, error) {
	if donation.Status != models.DonationPending || donation.TransactionID == "" {
		return false, nil
	}
	details, err := s.provider.GetCheckoutSession(ctx, donation.TransactionID)
	if err != nil {
		return false, fmt.Errorf("get checkout session %s: %w", donation.TransactionID, err)
	}
	if !details.Paid() {
		return false, nil
	}
	if ref := details.Metadata["donation_id"]; ref != "" && ref != strconv.FormatInt(donation.ID, 10) {
		return false, fmt.Errorf("checkout session %s belongs to donation %s, not %d", details.ID, ref, donation.ID)
	}

	completed, err := s.donations.Complete(ctx, donation.ID, donation.TransactionID)
	if err != nil {
		return false, err
	}
	if completed == nil {
		// completed concurrently
		return false, nil
	}
	metrics.DonationTransitions.WithLabelValues(models.PaymentMethodStripe, string(models.DonationCompleted)).Inc()
	s.log.Info().
		Int64("donation_id", donation.ID).
		Str("session_id", donation.TransactionID).
		Msg("Checkout donation completed")
	return true, nil
}

// pending returns checkout donations still awaiting payment
func (s *donationService) pending(ctx context.Context, limit int) ([]*models.Donation, error) {
	return s.donations.ListPending(ctx, models.PaymentMethodStripe, limit)
}

// ReconcilePending checks up to limit pending checkout donations and returns
// how many were completed. Failures on one donation do not stop the rest.
func (s *donationService) ReconcilePending(ctx context.Context, limit int) (int, error) {
	if s.provider == nil {
		return 0, nil
	}
	donations, err := s.pending(ctx, limit)
	if err != nil {
		return 0, err
	}
	completed := 0
	for _, d := range donations {
		ok, err := s.reconcile(ctx, d)
		if err != nil {
			s.log.Warn().Err(err).Int64("donation_id", d.ID).Msg("Reconcile failed")
			continue
		}
		if ok {
			completed++
		}
	}
	return completed, nil
}

func parseDonationStatus(status string) (models.DonationStatus, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" || status == "all" {
		return "", nil
	}
	s := models.DonationStatus(status)
	if !s.Valid() {
		return "", models.NewValidationError("invalid status, must be one of: all, pending, completed, refunded")
	}
	return s, nil
}

// List returns donations for administrators, newest first
func (s *donationService) List(ctx context.Context, status string, page models.Page) ([]*models.Donation, models.Pagination, error) {
	filter, err := parseDonationStatus(status)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	donations, total, err := s.donations.List(ctx, filter, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return donations, models.NewPagination(page, total), nil
}

// Stats aggregates donations with the current calendar month broken out
func (s *donationService) Stats(ctx context.Context) (*models.DonationStats, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return s.donations.Stats(ctx, monthStart)
}

// Recent returns the public listing of recent named donations
func (s *donationService) Recent(ctx context.Context, limit int) ([]*models.RecentDonation, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	donations, err := s.donations.Recent(ctx, s.now().Add(-recentWindow), limit)
	if err != nil {
		return nil, err
	}
	recent := make([]*models.RecentDonation, 0, len(donations))
	for _, d := range donations {
		name, _ := d.PublicDonor()
		recent = append(recent, &models.RecentDonation{
			DonorName: name,
			Amount:    d.Amount(),
			Currency:  d.Currency,
			Message:   d.Message,
			CreatedAt: d.CreatedAt,
		})
	}
	return recent, nil
}

// Export streams every donation to w. Only csv is supported.
func (s *donationService) Export(ctx context.Context, w io.Writer, format string) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" {
		return models.NewValidationError("unsupported format: " + format)
	}
	s.log.Info().Str("format", format).Msg("Starting donations export")

	writer := csv.NewWriter(w)
	if err := writer.Write(models.DonationExportHeader); err != nil {
		return err
	}

	count := 0
	err := s.donations.StreamAll(ctx, func(d *models.Donation) error {
		name, email := d.PublicDonor()
		if err := writer.Write([]string{
			strconv.FormatInt(d.ID, 10),
			name,
			email,
			strconv.FormatFloat(d.Amount(), 'f', 2, 64),
			d.Currency,
			d.Message,
			strconv.FormatBool(d.Anonymous),
			d.PaymentMethod,
			d.TransactionID,
			string(d.Status),
			d.CreatedAt.Format(exportTimeLayout),
		}); err != nil {
			return err
		}
		count++
		if count%exportFlushEvery == 0 {
			writer.Flush()
			return writer.Error()
		}
		return nil
	})
	writer.Flush()
	if err == nil {
		err = writer.Error()
	}

	s.log.Info().Int("count", count).Msg("Donations export completed")
	return err
}

// Refund moves a completed donation to refunded
func (s *donationService) Refund(ctx context.Context, id int64) (*models.Donation, error) {
	refunded, err := s.donations.Refund(ctx, id)
	if err != nil {
		return nil, err
	}
	if refunded == nil {
		existing, err := s.donations.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, models.NewNotFoundError("donation", id)
		}
		return nil, errRefundNotCompleted
	}
	metrics.DonationTransitions.WithLabelValues(refunded.PaymentMethod, string(models.DonationRefunded)).Inc()
	s.log.Info().Int64("donation_id", id).Msg("Donation refunded")
	return refunded, nil
}
