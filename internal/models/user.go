package models

import (
	"time"
)

// User represents a registered account
type User struct {
	ID               int64     `json:"id" db:"id"`
	Username         string    `json:"username" db:"username"`
	Email            string    `json:"email" db:"email"`
	PasswordHash     string    `json:"-" db:"password_hash"`
	Role             string    `json:"role" db:"role"`
	FirstName        string    `json:"first_name" db:"first_name"`
	LastName         string    `json:"last_name" db:"last_name"`
	Bio              string    `json:"bio" db:"bio"`
	AvatarURL        string    `json:"avatar_url" db:"avatar_url"`
	LinkedInURL      string    `json:"linkedin_url" db:"linkedin_url"`
	GoogleID         string    `json:"-" db:"google_id"`
	ProfileCompleted bool      `json:"profile_completed" db:"profile_completed"`
	Active           bool      `json:"is_active" db:"is_active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns "First Last" when both are set, otherwise the username
func (u *User) FullName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}

// ProfileUpdate carries the self-editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
	LinkedInURL *string `json:"linkedin_url"`
}

// RegisterInput is the payload of POST /auth/register
type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginInput is the payload of POST /auth/login. Login accepts the username or the email.
type LoginInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ExternalIdentity is what the OAuth identity provider returns about a user
type ExternalIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
	Picture       string
}

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 8
