package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/repository"
	"github.com/riocapital/blog-api/internal/validation"
	"github.com/rs/zerolog"
)

// maxImportErrors bounds the per-line errors returned from an import
const maxImportErrors = 100

// newsletterService is the concrete implementation of NewsletterService
type newsletterService struct {
	subscribers repository.NewsletterRepository
	log         zerolog.Logger
}

// newNewsletterService creates a new NewsletterService
func newNewsletterService(subscribers repository.NewsletterRepository, log zerolog.Logger) *newsletterService {
	return &newsletterService{
		subscribers: subscribers,
		log:         log.With().Str("service", "newsletter").Logger(),
	}
}

// Subscribe adds an email to the newsletter or reactivates it
func (s *newsletterService) Subscribe(ctx context.Context, in *models.SubscribeInput) (*models.Subscriber, models.SubscribeOutcome, error) {
	email := validation.NormalizeEmail(in.Email)
	if email == "" {
		return nil, 0, models.NewValidationError("email is required")
	}
	if !validation.IsValidEmail(email) {
		return nil, 0, models.NewValidationError("invalid email format")
	}
	if len(in.Preferences) > 0 && !json.Valid(in.Preferences) {
		return nil, 0, models.NewValidationError("preferences must be valid JSON")
	}

	existing, err := s.subscribers.GetByEmail(ctx, email)
	if err != nil {
		return nil, 0, err
	}
	if existing != nil {
		if existing.Active {
			return existing, models.SubscriptionAlreadyActive, nil
		}
		sub, err := s.subscribers.Reactivate(ctx, existing.ID, in.Preferences)
		if err != nil {
			return nil, 0, err
		}
		s.log.Info().Int64("subscriber_id", sub.ID).Msg("Subscription reactivated")
		return sub, models.SubscriptionReactivated, nil
	}

	sub := &models.Subscriber{Email: email, Preferences: in.Preferences}
	if err := s.subscribers.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// subscribed concurrently
			existing, err := s.subscribers.GetByEmail(ctx, email)
			if err != nil {
				return nil, 0, err
			}
			if existing != nil {
				return existing, models.SubscriptionAlreadyActive, nil
			}
		}
		return nil, 0, err
	}
	s.log.Info().Int64("subscriber_id", sub.ID).Msg("New newsletter subscriber")
	return sub, models.SubscriptionCreated, nil
}

// Unsubscribe deactivates a subscription
func (s *newsletterService) Unsubscribe(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	if email == "" {
		return models.NewValidationError("email is required")
	}
	ok, err := s.subscribers.Deactivate(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("subscriber", email)
	}
	s.log.Info().Msg("Subscriber unsubscribed")
	return nil
}

// List returns subscribers filtered by active state
func (s *newsletterService) List(ctx context.Context, active bool, page models.Page) ([]*models.Subscriber, models.Pagination, error) {
	subs, total, err := s.subscribers.List(ctx, active, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return subs, models.NewPagination(page, total), nil
}

// Import reads a CSV with an email column and upserts every valid address.
// Rejected lines are reported; already active addresses count as skipped.
func (s *newsletterService) Import(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	validator := validation.NewValidator()

	header, err := reader.Read()
	if err == io.EOF {
		return nil, models.NewValidationError("CSV file is empty")
	}
	if err != nil {
		return nil, models.NewValidationError("invalid CSV header: " + err.Error())
	}
	headerMap := make(map[string]int)
	for i, h := range header {
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := headerMap["email"]; !ok {
		return nil, models.NewValidationError("CSV must have an email column")
	}

	result := &models.ImportResult{Errors: []models.ImportError{}}
	reject := func(line int, value, message string) {
		result.Skipped++
		if len(result.Errors) < maxImportErrors {
			result.Errors = append(result.Errors, models.ImportError{Line: line, Value: value, Message: message})
		}
	}

	var emails []string
	lineNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			reject(lineNum, "", "malformed CSV row")
			continue
		}

		if lineNum%1000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		email := getField(record, headerMap, "email")
		if errs := validator.ValidateSubscriberEmail(email); len(errs) > 0 {
			reject(lineNum, email, errs[0].Message)
			continue
		}
		emails = append(emails, validation.NormalizeEmail(email))
	}

	if len(emails) > 0 {
		n, err := s.subscribers.BulkUpsert(ctx, emails)
		if err != nil {
			return nil, err
		}
		result.Imported = n
		result.Skipped += len(emails) - n
	}

	s.log.Info().
		Int("lines", lineNum-1).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("Subscriber import completed")

	return result, nil
}

func getField(record []string, headerMap map[string]int, field string) string {
	if idx, ok := headerMap[field]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
