package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/riocapital/blog-api/internal/database"
	"github.com/riocapital/blog-api/internal/models"
)

const userColumns = `id, username, email, password_hash, role,
	COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(bio, ''),
	COALESCE(avatar_url, ''), COALESCE(linkedin_url, ''), COALESCE(google_id, ''),
	profile_completed, is_active, created_at, updated_at`

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.FirstName, &u.LastName, &u.Bio,
		&u.AvatarURL, &u.LinkedInURL, &u.GoogleID,
		&u.ProfileCompleted, &u.Active, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) getOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// Create inserts a new user and fills in its generated fields
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role, first_name, last_name,
			avatar_url, google_id, profile_completed, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Role,
		nullString(user.FirstName), nullString(user.LastName),
		nullString(user.AvatarURL), nullString(user.GoogleID),
		user.ProfileCompleted, user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return translateErr(err)
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByLogin retrieves a user by username or email
func (r *userRepo) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	if strings.Contains(login, "@") {
		return r.getOne(ctx, "LOWER(email) = LOWER($1)", login)
	}
	return r.getOne(ctx, "username = $1", login)
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "LOWER(email) = LOWER($1)", email)
}

// GetByGoogleID retrieves a user by the linked Google account
func (r *userRepo) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.getOne(ctx, "google_id = $1", googleID)
}

// UsernameExists checks if a username is taken
func (r *userRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)", username).Scan(&exists)
	return exists, err
}

// UpdateProfile applies the non-nil fields of update
func (r *userRepo) UpdateProfile(ctx context.Context, id int64, update *models.ProfileUpdate) (*models.User, error) {
	query := `
		UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			bio = COALESCE($4, bio),
			avatar_url = COALESCE($5, avatar_url),
			linkedin_url = COALESCE($6, linkedin_url),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id,
		update.FirstName, update.LastName, update.Bio, update.AvatarURL, update.LinkedInURL,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// CompleteProfile sets the identity fields of a federated account and marks it complete
func (r *userRepo) CompleteProfile(ctx context.Context, id int64, username, firstName, lastName string) (*models.User, error) {
	query := `
		UPDATE users SET username = $2, first_name = $3, last_name = $4,
			profile_completed = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id, username, nullString(firstName), nullString(lastName)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, translateErr(err)
}

// LinkGoogle attaches a Google subject to an existing account
func (r *userRepo) LinkGoogle(ctx context.Context, id int64, googleID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET google_id = $2, updated_at = NOW() WHERE id = $1", id, googleID)
	return translateErr(err)
}

// UpdatePassword replaces the password hash
func (r *userRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1", id, hash)
	return err
}

// SetRole changes a user's role
func (r *userRepo) SetRole(ctx context.Context, id int64, role string) (*models.User, error) {
	query := "UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING " + userColumns
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id, role))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// SetActive activates or deactivates a user
func (r *userRepo) SetActive(ctx context.Context, id int64, active bool) (*models.User, error) {
	query := "UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING " + userColumns
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id, active))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// List returns a page of users, newest first, and the total count
func (r *userRepo) List(ctx context.Context, page models.Page) ([]*models.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2",
		page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*models.User, 0, page.PerPage)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}
