package validation

import (
	"strings"
	"testing"

	"github.com/riocapital/blog-api/internal/models"
)

func fields(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateRegistration(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name       string
		in         *models.RegisterInput
		wantFields []string
	}{
		{
			name: "valid registration",
			in:   &models.RegisterInput{Username: "ana.silva", Email: "ana@example.com", Password: "s3cretpass"},
		},
		{
			name:       "missing username",
			in:         &models.RegisterInput{Email: "ana@example.com", Password: "s3cretpass"},
			wantFields: []string{"username"},
		},
		{
			name:       "username with spaces",
			in:         &models.RegisterInput{Username: "ana silva", Email: "ana@example.com", Password: "s3cretpass"},
			wantFields: []string{"username"},
		},
		{
			name:       "invalid email",
			in:         &models.RegisterInput{Username: "ana", Email: "not-an-email", Password: "s3cretpass"},
			wantFields: []string{"email"},
		},
		{
			name:       "short password",
			in:         &models.RegisterInput{Username: "ana", Email: "ana@example.com", Password: "short"},
			wantFields: []string{"password"},
		},
		{
			name:       "everything missing",
			in:         &models.RegisterInput{},
			wantFields: []string{"username", "email", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fields(validator.ValidateRegistration(tt.in))
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("got fields %v, want %v", got, tt.wantFields)
			}
		})
	}
}

func TestValidateArticle(t *testing.T) {
	validator := NewValidator()

	errs := validator.ValidateArticle(&models.ArticleInput{Title: "Rates", Content: "Body", CategoryID: 1})
	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}

	errs = validator.ValidateArticle(&models.ArticleInput{Title: strings.Repeat("x", 201), Content: " ", CategoryID: 0})
	if got := strings.Join(fields(errs), ","); got != "title,content,category_id" {
		t.Errorf("unexpected fields %s", got)
	}
}

func TestValidateArticleUpdate(t *testing.T) {
	validator := NewValidator()
	empty := "  "
	zero := int64(0)

	errs := validator.ValidateArticleUpdate(&models.ArticleUpdate{Title: &empty, CategoryID: &zero})
	if len(errs) != 2 {
		t.Errorf("expected 2 errors, got %v", errs)
	}

	if errs := validator.ValidateArticleUpdate(&models.ArticleUpdate{}); len(errs) != 0 {
		t.Errorf("empty update should be valid, got %v", errs)
	}
}

func TestValidateCommentContent(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"normal", "Great analysis, thanks!", false},
		{"empty", "   ", true},
		{"at limit", strings.Repeat("word ", models.MaxCommentWords), false},
		{"over limit", strings.Repeat("word ", models.MaxCommentWords+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validator.ValidateCommentContent(tt.content)
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, errs)
			}
		})
	}
}

func TestValidateModeration(t *testing.T) {
	validator := NewValidator()

	for _, a := range []models.ModerationAction{models.ActionApprove, models.ActionReject, models.ActionDelete} {
		if errs := validator.ValidateModeration(a); len(errs) != 0 {
			t.Errorf("%s should be valid", a)
		}
	}
	if errs := validator.ValidateModeration("archive"); len(errs) != 1 {
		t.Error("unknown action should be rejected")
	}
}

func TestValidateDonation(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name       string
		in         *models.DonationInput
		wantFields []string
	}{
		{"valid", &models.DonationInput{Amount: 25, Currency: "EUR", DonorEmail: "a@b.com"}, nil},
		{"anonymous without identity", &models.DonationInput{Amount: 5, Anonymous: true}, nil},
		{"zero amount", &models.DonationInput{Amount: 0}, []string{"amount"}},
		{"negative amount", &models.DonationInput{Amount: -3}, []string{"amount"}},
		{"fraction of a cent", &models.DonationInput{Amount: 0.001}, []string{"amount"}},
		{"bad currency", &models.DonationInput{Amount: 5, Currency: "euro"}, []string{"currency"}},
		{"bad email", &models.DonationInput{Amount: 5, DonorEmail: "nope"}, []string{"donor_email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fields(validator.ValidateDonation(tt.in))
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("got fields %v, want %v", got, tt.wantFields)
			}
		})
	}
}

func TestValidateCategory(t *testing.T) {
	validator := NewValidator()

	if errs := validator.ValidateCategory(&models.CategoryInput{Name: "Markets", Color: "#00AAFF"}); len(errs) != 0 {
		t.Errorf("expected valid category, got %v", errs)
	}
	errs := validator.ValidateCategory(&models.CategoryInput{Name: "", Color: "blue"})
	if got := strings.Join(fields(errs), ","); got != "name,color" {
		t.Errorf("unexpected fields %s", got)
	}
}

func TestValidateProfileUpdate(t *testing.T) {
	validator := NewValidator()
	bad := "javascript:alert(1)"
	good := "https://www.linkedin.com/in/ana"
	avatar := "/static/uploads/a.webp"

	if errs := validator.ValidateProfileUpdate(&models.ProfileUpdate{LinkedInURL: &good, AvatarURL: &avatar}); len(errs) != 0 {
		t.Errorf("expected valid profile, got %v", errs)
	}
	if errs := validator.ValidateProfileUpdate(&models.ProfileUpdate{LinkedInURL: &bad}); len(errs) != 1 {
		t.Errorf("expected linkedin error, got %v", errs)
	}
}

func TestValidateSubscriberEmail_Duplicates(t *testing.T) {
	validator := NewValidator()

	if errs := validator.ValidateSubscriberEmail("reader@example.com"); len(errs) != 0 {
		t.Fatalf("first email should be valid: %v", errs)
	}
	errs := validator.ValidateSubscriberEmail("Reader@Example.com")
	if len(errs) != 1 || errs[0].Message != "duplicate email" {
		t.Errorf("expected duplicate email error, got %v", errs)
	}
	if errs := validator.ValidateSubscriberEmail("broken"); len(errs) != 1 {
		t.Errorf("expected format error, got %v", errs)
	}
}

func TestValidateContact(t *testing.T) {
	validator := NewValidator()

	errs := validator.ValidateContact(&models.ContactMessage{Email: "x"})
	if got := strings.Join(fields(errs), ","); got != "name,email,subject,message" {
		t.Errorf("unexpected fields %s", got)
	}
}

func TestToAppError(t *testing.T) {
	if ToAppError(nil) != nil {
		t.Error("no errors should give nil")
	}
	err := ToAppError([]ValidationError{{Field: "a", Message: "a is required"}, {Field: "b", Message: "b is bad"}})
	if err.Code != models.CodeValidation || err.Message != "a is required; b is bad" {
		t.Errorf("unexpected error %+v", err)
	}
}
