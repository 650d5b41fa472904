package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/riocapital/blog-api/internal/models"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,80}$`)
	colorRegex    = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

const (
	maxTitleLength        = 200
	maxNameLength         = 50
	maxCategoryNameLength = 100
	maxDonorNameLength    = 100
	maxDonationCents      = 100_000_000
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ToAppError folds a list of field errors into one validation AppError, or nil
func ToAppError(errs []ValidationError) *models.AppError {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return models.NewValidationError(strings.Join(msgs, "; "))
}

// IsValidEmail reports whether s looks like an email address
func IsValidEmail(s string) bool {
	return len(s) <= 255 && emailRegex.MatchString(s)
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// WordCount counts whitespace separated words
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Validator validates request payloads. It remembers the emails it has seen
// so that batch imports can flag in-file duplicates.
type Validator struct {
	seenEmails map[string]bool
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{seenEmails: make(map[string]bool)}
}

// ValidateRegistration validates a local sign-up
func (v *Validator) ValidateRegistration(in *models.RegisterInput) []ValidationError {
	var errors []ValidationError

	if in.Username == "" {
		errors = append(errors, ValidationError{Field: "username", Message: "username is required"})
	} else if !usernameRegex.MatchString(in.Username) {
		errors = append(errors, ValidationError{
			Field:   "username",
			Message: "username must be 3-80 characters of letters, digits, '.', '_' or '-'",
			Value:   in.Username,
		})
	}

	errors = append(errors, v.validateEmail("email", in.Email)...)
	errors = append(errors, ValidatePassword("password", in.Password)...)

	if utf8.RuneCountInString(in.FirstName) > maxNameLength || utf8.RuneCountInString(in.LastName) > maxNameLength {
		errors = append(errors, ValidationError{Field: "name", Message: fmt.Sprintf("names must be at most %d characters", maxNameLength)})
	}
	return errors
}

// ValidatePassword checks the password policy
func ValidatePassword(field, password string) []ValidationError {
	if password == "" {
		return []ValidationError{{Field: field, Message: field + " is required"}}
	}
	if len(password) < models.MinPasswordLength {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("password must be at least %d characters", models.MinPasswordLength),
		}}
	}
	return nil
}

// ValidateUsername checks a username chosen during profile completion
func (v *Validator) ValidateUsername(username string) []ValidationError {
	if !usernameRegex.MatchString(username) {
		return []ValidationError{{
			Field:   "username",
			Message: "username must be 3-80 characters of letters, digits, '.', '_' or '-'",
			Value:   username,
		}}
	}
	return nil
}

// ValidateProfileUpdate validates the self-editable profile fields
func (v *Validator) ValidateProfileUpdate(in *models.ProfileUpdate) []ValidationError {
	var errors []ValidationError

	if in.FirstName != nil && utf8.RuneCountInString(*in.FirstName) > maxNameLength {
		errors = append(errors, ValidationError{Field: "first_name", Message: fmt.Sprintf("first_name must be at most %d characters", maxNameLength)})
	}
	if in.LastName != nil && utf8.RuneCountInString(*in.LastName) > maxNameLength {
		errors = append(errors, ValidationError{Field: "last_name", Message: fmt.Sprintf("last_name must be at most %d characters", maxNameLength)})
	}
	if in.LinkedInURL != nil && *in.LinkedInURL != "" && !isHTTPURL(*in.LinkedInURL) {
		errors = append(errors, ValidationError{Field: "linkedin_url", Message: "linkedin_url must be an http(s) URL", Value: *in.LinkedInURL})
	}
	if in.AvatarURL != nil && *in.AvatarURL != "" && !isHTTPURL(*in.AvatarURL) && !strings.HasPrefix(*in.AvatarURL, "/") {
		errors = append(errors, ValidationError{Field: "avatar_url", Message: "avatar_url must be a URL or an absolute path", Value: *in.AvatarURL})
	}
	return errors
}

// ValidateArticle validates a new article
func (v *Validator) ValidateArticle(in *models.ArticleInput) []ValidationError {
	var errors []ValidationError

	title := strings.TrimSpace(in.Title)
	if title == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "title is required"})
	} else if utf8.RuneCountInString(title) > maxTitleLength {
		errors = append(errors, ValidationError{Field: "title", Message: fmt.Sprintf("title must be at most %d characters", maxTitleLength)})
	}

	if strings.TrimSpace(in.Content) == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "content is required"})
	}

	if in.CategoryID <= 0 {
		errors = append(errors, ValidationError{Field: "category_id", Message: "category_id is required"})
	}
	return errors
}

// ValidateArticleUpdate validates the fields present in a partial update
func (v *Validator) ValidateArticleUpdate(in *models.ArticleUpdate) []ValidationError {
	var errors []ValidationError

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			errors = append(errors, ValidationError{Field: "title", Message: "title cannot be empty"})
		} else if utf8.RuneCountInString(title) > maxTitleLength {
			errors = append(errors, ValidationError{Field: "title", Message: fmt.Sprintf("title must be at most %d characters", maxTitleLength)})
		}
	}
	if in.Content != nil && strings.TrimSpace(*in.Content) == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "content cannot be empty"})
	}
	if in.CategoryID != nil && *in.CategoryID <= 0 {
		errors = append(errors, ValidationError{Field: "category_id", Message: "category_id must be positive"})
	}
	return errors
}

// ValidateCommentContent checks an already sanitised comment body
func (v *Validator) ValidateCommentContent(content string) []ValidationError {
	if strings.TrimSpace(content) == "" {
		return []ValidationError{{Field: "content", Message: "content is required"}}
	}
	if n := WordCount(content); n > models.MaxCommentWords {
		return []ValidationError{{
			Field:   "content",
			Message: fmt.Sprintf("comment exceeds %d words", models.MaxCommentWords),
			Value:   n,
		}}
	}
	return nil
}

// ValidateModeration checks a moderation action
func (v *Validator) ValidateModeration(action models.ModerationAction) []ValidationError {
	if !action.Valid() {
		return []ValidationError{{
			Field:   "action",
			Message: "invalid action, must be one of: approve, reject, delete",
			Value:   action,
		}}
	}
	return nil
}

// ValidateDonation validates a donation request
func (v *Validator) ValidateDonation(in *models.DonationInput) []ValidationError {
	var errors []ValidationError

	if in.Amount <= 0 {
		errors = append(errors, ValidationError{Field: "amount", Message: "amount must be greater than zero", Value: in.Amount})
	} else if in.AmountCents() <= 0 {
		errors = append(errors, ValidationError{Field: "amount", Message: "amount is below the smallest currency unit", Value: in.Amount})
	} else if in.AmountCents() > maxDonationCents {
		errors = append(errors, ValidationError{Field: "amount", Message: "amount is too large", Value: in.Amount})
	}

	if in.Currency != "" && !currencyRegex.MatchString(in.Currency) {
		errors = append(errors, ValidationError{Field: "currency", Message: "currency must be a 3-letter ISO code", Value: in.Currency})
	}
	if in.DonorEmail != "" && !IsValidEmail(in.DonorEmail) {
		errors = append(errors, ValidationError{Field: "donor_email", Message: "invalid email format", Value: in.DonorEmail})
	}
	if utf8.RuneCountInString(in.DonorName) > maxDonorNameLength {
		errors = append(errors, ValidationError{Field: "donor_name", Message: fmt.Sprintf("donor_name must be at most %d characters", maxDonorNameLength)})
	}
	return errors
}

// ValidateCategory validates a category payload
func (v *Validator) ValidateCategory(in *models.CategoryInput) []ValidationError {
	var errors []ValidationError

	name := strings.TrimSpace(in.Name)
	if name == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "name is required"})
	} else if utf8.RuneCountInString(name) > maxCategoryNameLength {
		errors = append(errors, ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", maxCategoryNameLength)})
	}
	if in.Color != "" && !colorRegex.MatchString(in.Color) {
		errors = append(errors, ValidationError{Field: "color", Message: "color must be a hex value like #007BFF", Value: in.Color})
	}
	return errors
}

// ValidateContact validates a contact form submission
func (v *Validator) ValidateContact(in *models.ContactMessage) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(in.Name) == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "name is required"})
	}
	errors = append(errors, v.validateEmail("email", in.Email)...)
	if strings.TrimSpace(in.Subject) == "" {
		errors = append(errors, ValidationError{Field: "subject", Message: "subject is required"})
	}
	if strings.TrimSpace(in.Message) == "" {
		errors = append(errors, ValidationError{Field: "message", Message: "message is required"})
	}
	return errors
}

// ValidateSubscriberEmail validates one imported email and flags repeats
// within the same import. The email is remembered when it is valid.
func (v *Validator) ValidateSubscriberEmail(email string) []ValidationError {
	errs := v.validateEmail("email", email)
	if len(errs) > 0 {
		return errs
	}
	key := NormalizeEmail(email)
	if v.seenEmails[key] {
		return []ValidationError{{Field: "email", Message: "duplicate email", Value: email}}
	}
	v.seenEmails[key] = true
	return nil
}

func (v *Validator) validateEmail(field, email string) []ValidationError {
	if strings.TrimSpace(email) == "" {
		return []ValidationError{{Field: field, Message: field + " is required"}}
	}
	if !IsValidEmail(strings.TrimSpace(email)) {
		return []ValidationError{{Field: field, Message: "invalid email format", Value: email}}
	}
	return nil
}
