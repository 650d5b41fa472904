package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/riocapital/blog-api/internal/database"
	"github.com/riocapital/blog-api/internal/models"
)

const donationColumns = `id, COALESCE(donor_name, ''), COALESCE(donor_email, ''), amount_cents, currency,
	COALESCE(message, ''), anonymous, payment_method, COALESCE(transaction_id, ''), status,
	created_at, updated_at`

// donationRepo is the concrete implementation of DonationRepository
type donationRepo struct {
	db *database.DB
}

// NewDonationRepo creates a new donation repository
func NewDonationRepo(db *database.DB) DonationRepository {
	return &donationRepo{db: db}
}

func scanDonation(row rowScanner) (*models.Donation, error) {
	var d models.Donation
	err := row.Scan(
		&d.ID, &d.DonorName, &d.DonorEmail, &d.AmountCents, &d.Currency,
		&d.Message, &d.Anonymous, &d.PaymentMethod, &d.TransactionID, &d.Status,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *donationRepo) queryOne(ctx context.Context, query string, args ...interface{}) (*models.Donation, error) {
	d, err := scanDonation(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

func (r *donationRepo) queryMany(ctx context.Context, query string, args ...interface{}) ([]*models.Donation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donations := []*models.Donation{}
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

// Create inserts a new donation
func (r *donationRepo) Create(ctx context.Context, donation *models.Donation) error {
	query := `
		INSERT INTO donations (donor_name, donor_email, amount_cents, currency, message, anonymous,
			payment_method, transaction_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		nullString(donation.DonorName), nullString(donation.DonorEmail), donation.AmountCents,
		donation.Currency, nullString(donation.Message), donation.Anonymous,
		donation.PaymentMethod, nullString(donation.TransactionID), donation.Status,
	).Scan(&donation.ID, &donation.CreatedAt, &donation.UpdatedAt)
	return translateErr(err)
}

// GetByID retrieves a donation by ID
func (r *donationRepo) GetByID(ctx context.Context, id int64) (*models.Donation, error) {
	return r.queryOne(ctx, "SELECT "+donationColumns+" FROM donations WHERE id = $1", id)
}

// GetByTransactionID retrieves a donation by its provider reference
func (r *donationRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.Donation, error) {
	return r.queryOne(ctx, "SELECT "+donationColumns+" FROM donations WHERE transaction_id = $1", transactionID)
}

// SetTransactionID stores the provider reference of a pending donation
func (r *donationRepo) SetTransactionID(ctx context.Context, id int64, transactionID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE donations SET transaction_id = $2, updated_at = NOW() WHERE id = $1", id, transactionID)
	return translateErr(err)
}

// Complete moves a pending donation to completed. It returns nil when the
// donation does not exist or is not pending.
func (r *donationRepo) Complete(ctx context.Context, id int64, transactionID string) (*models.Donation, error) {
	query := `
		UPDATE donations SET status = $2, transaction_id = COALESCE(NULLIF($3, ''), transaction_id), updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING ` + donationColumns
	d, err := r.queryOne(ctx, query, id, models.DonationCompleted, transactionID, models.DonationPending)
	return d, translateErr(err)
}

// Refund moves a completed donation to refunded. It returns nil when the
// donation does not exist or is not completed.
func (r *donationRepo) Refund(ctx context.Context, id int64) (*models.Donation, error) {
	query := `
		UPDATE donations SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING ` + donationColumns
	return r.queryOne(ctx, query, id, models.DonationRefunded, models.DonationCompleted)
}

// List returns a page of donations, newest first, optionally filtered by status
func (r *donationRepo) List(ctx context.Context, status models.DonationStatus, page models.Page) ([]*models.Donation, int, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		where = " WHERE status = $1"
		args = append(args, status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM donations"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + donationColumns + " FROM donations" + where + " ORDER BY created_at DESC, id DESC"
	if status != "" {
		query += " LIMIT $2 OFFSET $3"
	} else {
		query += " LIMIT $1 OFFSET $2"
	}
	donations, err := r.queryMany(ctx, query, append(args, page.PerPage, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return donations, total, nil
}

// Recent returns completed non-anonymous donations created since the given time
func (r *donationRepo) Recent(ctx context.Context, since time.Time, limit int) ([]*models.Donation, error) {
	query := "SELECT " + donationColumns + ` FROM donations
		WHERE status = $1 AND anonymous = FALSE AND created_at >= $2
		ORDER BY created_at DESC, id DESC LIMIT $3`
	return r.queryMany(ctx, query, models.DonationCompleted, since, limit)
}

// ListPending returns the oldest pending donations of a payment method
func (r *donationRepo) ListPending(ctx context.Context, method string, limit int) ([]*models.Donation, error) {
	query := "SELECT " + donationColumns + ` FROM donations
		WHERE status = $1 AND payment_method = $2 AND transaction_id IS NOT NULL
		ORDER BY created_at ASC LIMIT $3`
	return r.queryMany(ctx, query, models.DonationPending, method, limit)
}

// Stats aggregates donation figures; amounts cover completed donations only
func (r *donationRepo) Stats(ctx context.Context, monthStart time.Time) (*models.DonationStats, error) {
	query := `
		SELECT
			COALESCE(SUM(amount_cents) FILTER (WHERE status = 'completed'), 0),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE(SUM(amount_cents) FILTER (WHERE status = 'completed' AND created_at >= $1), 0),
			COUNT(*) FILTER (WHERE status = 'completed' AND created_at >= $1),
			COALESCE(MAX(amount_cents) FILTER (WHERE status = 'completed'), 0),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'refunded')
		FROM donations
	`
	var totalCents, monthCents, maxCents int64
	stats := &models.DonationStats{}
	err := r.db.QueryRowContext(ctx, query, monthStart).Scan(
		&totalCents, &stats.TotalCount, &monthCents, &stats.MonthCount, &maxCents,
		&stats.PendingCount, &stats.RefundedCount,
	)
	if err != nil {
		return nil, err
	}
	stats.TotalAmount = float64(totalCents) / 100
	stats.MonthAmount = float64(monthCents) / 100
	stats.MaxAmount = float64(maxCents) / 100
	if stats.TotalCount > 0 {
		stats.AverageAmount = float64(totalCents) / float64(stats.TotalCount) / 100
	}

	var (
		name  string
		cents int64
	)
	err = r.db.QueryRowContext(ctx, `
		SELECT donor_name, SUM(amount_cents) FROM donations
		WHERE status = 'completed' AND anonymous = FALSE AND donor_name IS NOT NULL AND donor_name <> ''
		GROUP BY donor_name
		ORDER BY SUM(amount_cents) DESC, donor_name
		LIMIT 1`).Scan(&name, &cents)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil {
		stats.TopDonor = &models.TopDonor{Name: name, Amount: float64(cents) / 100}
	}
	return stats, nil
}

// StreamAll streams every donation, newest first, for export
func (r *donationRepo) StreamAll(ctx context.Context, callback func(*models.Donation) error) error {
	rows, err := r.db.QueryContext(ctx, "SELECT "+donationColumns+" FROM donations ORDER BY created_at DESC, id DESC")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return err
		}
		if err := callback(d); err != nil {
			return err
		}
	}
	return rows.Err()
}
