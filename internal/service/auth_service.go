package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/riocapital/blog-api/internal/auth"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/repository"
	"github.com/riocapital/blog-api/internal/slug"
	"github.com/riocapital/blog-api/internal/validation"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// authService is the concrete implementation of AuthService
type authService struct {
	users     repository.UserRepository
	identity  IdentityProvider
	validator *validation.Validator
	log       zerolog.Logger
}

// newAuthService creates a new AuthService
func newAuthService(users repository.UserRepository, identity IdentityProvider, log zerolog.Logger) *authService {
	return &authService{
		users:     users,
		identity:  identity,
		validator: validation.NewValidator(),
		log:       log.With().Str("service", "auth").Logger(),
	}
}

var errInvalidCredentials = models.NewAuthenticationError("invalid credentials")

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates a local account. New accounts are always readers.
func (s *authService) Register(ctx context.Context, in *models.RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = validation.NormalizeEmail(in.Email)
	if errs := s.validator.ValidateRegistration(in); len(errs) > 0 {
		return nil, validation.ToAppError(errs)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:         in.Username,
		Email:            in.Email,
		PasswordHash:     hash,
		Role:             string(auth.RoleReader),
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		ProfileCompleted: true,
		Active:           true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("username or email already registered")
		}
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return user, nil
}

// Login checks local credentials. The login may be a username or an email.
func (s *authService) Login(ctx context.Context, in *models.LoginInput) (*models.User, error) {
	login := strings.TrimSpace(in.Username)
	if login == "" {
		login = strings.TrimSpace(in.Email)
	}
	if login == "" || in.Password == "" {
		return nil, models.NewValidationError("username or email and password are required")
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil || !checkPassword(user.PasswordHash, in.Password) {
		s.log.Warn().Str("login", login).Msg("Failed login attempt")
		return nil, errInvalidCredentials
	}
	if !user.Active {
		return nil, models.NewAuthenticationError("account is disabled")
	}
	return user, nil
}

// ActiveUser returns the user behind a session, or nil when the account is
// gone or disabled.
func (s *authService) ActiveUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil || user == nil {
		return nil, err
	}
	if !user.Active {
		return nil, nil
	}
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current one
func (s *authService) ChangePassword(ctx context.Context, p *auth.Principal, current, next string) error {
	if err := principalRequired(p); err != nil {
		return err
	}
	if errs := validation.ValidatePassword("new_password", next); len(errs) > 0 {
		return validation.ToAppError(errs)
	}

	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("user", p.UserID)
	}
	if !checkPassword(user.PasswordHash, current) {
		return models.NewValidationError("current password is incorrect")
	}

	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", user.ID).Msg("Password changed")
	return nil
}

// GoogleEnabled reports whether federated login is configured
func (s *authService) GoogleEnabled() bool {
	return s.identity != nil
}

// GoogleAuthURL returns the consent page URL for state
func (s *authService) GoogleAuthURL(state string) string {
	if s.identity == nil {
		return ""
	}
	return s.identity.AuthCodeURL(state)
}

// LoginWithGoogle exchanges an authorization code and signs the user in.
// Unknown emails get a new reader account that must complete its profile.
func (s *authService) LoginWithGoogle(ctx context.Context, code string) (*models.User, error) {
	if s.identity == nil {
		return nil, models.NewUnavailableError("google sign-in is not configured")
	}

	ident, err := s.identity.Exchange(ctx, code)
	if err != nil {
		s.log.Warn().Err(err).Msg("Google code exchange failed")
		return nil, &models.AppError{Code: models.CodeAuthentication, Message: "google sign-in failed", Err: err}
	}
	if ident.Email == "" || !ident.EmailVerified {
		return nil, models.NewAuthenticationError("google account email is not verified")
	}

	user, err := s.users.GetByGoogleID(ctx, ident.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.users.GetByEmail(ctx, ident.Email)
		if err != nil {
			return nil, err
		}
		if user != nil {
			if err := s.users.LinkGoogle(ctx, user.ID, ident.Subject); err != nil {
				return nil, err
			}
			user.GoogleID = ident.Subject
			s.log.Info().Int64("user_id", user.ID).Msg("Google account linked")
		}
	}
	if user == nil {
		user, err = s.createFederatedUser(ctx, ident)
		if err != nil {
			return nil, err
		}
	}

	if !user.Active {
		return nil, models.NewAuthenticationError("account is disabled")
	}
	return user, nil
}

func (s *authService) createFederatedUser(ctx context.Context, ident *models.ExternalIdentity) (*models.User, error) {
	local := ident.Email
	if i := strings.Index(local, "@"); i > 0 {
		local = local[:i]
	}
	username := slug.Make(local)
	if len(username) < 3 {
		username = "user"
	}
	taken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		username = username + "-" + uuid.NewString()[:8]
	}

	user := &models.User{
		Username:         username,
		Email:            validation.NormalizeEmail(ident.Email),
		Role:             string(auth.RoleReader),
		FirstName:        ident.GivenName,
		LastName:         ident.FamilyName,
		AvatarURL:        ident.Picture,
		GoogleID:         ident.Subject,
		ProfileCompleted: false,
		Active:           true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("an account with this identity already exists")
		}
		return nil, err
	}
	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User created from Google sign-in")
	return user, nil
}

// CompleteProfile lets a federated user choose a username and name
func (s *authService) CompleteProfile(ctx context.Context, p *auth.Principal, username, firstName, lastName string) (*models.User, error) {
	if err := principalRequired(p); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if errs := s.validator.ValidateUsername(username); len(errs) > 0 {
		return nil, validation.ToAppError(errs)
	}

	user, err := s.users.CompleteProfile(ctx, p.UserID, username, strings.TrimSpace(firstName), strings.TrimSpace(lastName))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("username already taken")
		}
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("user", p.UserID)
	}
	return user, nil
}

// UpdateProfile edits the caller's own profile
func (s *authService) UpdateProfile(ctx context.Context, p *auth.Principal, update *models.ProfileUpdate) (*models.User, error) {
	if err := principalRequired(p); err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateProfileUpdate(update); len(errs) > 0 {
		return nil, validation.ToAppError(errs)
	}

	user, err := s.users.UpdateProfile(ctx, p.UserID, update)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("user", p.UserID)
	}
	return user, nil
}

// ListUsers returns a page of accounts
func (s *authService) ListUsers(ctx context.Context, page models.Page) ([]*models.User, models.Pagination, error) {
	users, total, err := s.users.List(ctx, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return users, models.NewPagination(page, total), nil
}

// SetRole changes another user's role
func (s *authService) SetRole(ctx context.Context, p *auth.Principal, id int64, role string) (*models.User, error) {
	r, ok := auth.ParseRole(role)
	if !ok {
		return nil, models.NewValidationError("invalid role, must be one of: reader, collaborator, admin")
	}
	if p != nil && p.UserID == id {
		return nil, models.NewValidationError("you cannot change your own role")
	}

	user, err := s.users.SetRole(ctx, id, string(r))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("user", id)
	}
	s.log.Info().Int64("user_id", id).Str("role", string(r)).Msg("User role changed")
	return user, nil
}

// SetActive enables or disables another user's account
func (s *authService) SetActive(ctx context.Context, p *auth.Principal, id int64, active bool) (*models.User, error) {
	if p != nil && p.UserID == id && !active {
		return nil, models.NewValidationError("you cannot deactivate your own account")
	}

	user, err := s.users.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("user", id)
	}
	s.log.Info().Int64("user_id", id).Bool("active", active).Msg("User activation changed")
	return user, nil
}
