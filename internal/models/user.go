package models

import (
	"time"
)

// User represents a registered user account.
// It contains authentication information and core user attributes.
type User struct {
	ID            int64  `json:"id" db:"user_id"`
	Name          string `json:"name" db:"name" validate:"required,min=2,max=100"`
	Email         string `json:"email" db:"email" validate:"required,email"`
	PasswordHash  string `json:"-" db:"password_hash"`
	Salt          string `json:"-" db:"salt"`
	EmailVerified bool   `json:"email_verified" db:"email_verified"`

	// VerificationTokenHash holds the SHA-256 hash of the outstanding email
	// verification token, if any. The raw token is only ever sent by email.
	VerificationTokenHash string     `json:"-" db:"verification_token_hash"`
	VerificationExpiresAt *time.Time `json:"-" db:"verification_expires_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser creates a new User instance with the given name and email.
// Password fields are populated later during the registration process.
func NewUser(name, email string) *User {
	now := time.Now()
	return &User{
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TableName returns the database table name for the User model.
func (u *User) TableName() string {
	return "users"
}

// Sanitize removes sensitive information from the User object when sending to clients.
// This ensures fields like the password hash are never exposed.
func (u *User) Sanitize() *User {
	sanitized := *u
	sanitized.PasswordHash = ""
	sanitized.Salt = ""
	sanitized.VerificationTokenHash = ""
	sanitized.VerificationExpiresAt = nil
	return &sanitized
}

// UserCredentials represents the login credentials provided by a user.
type UserCredentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserRegistration represents the data required for user registration.
type UserRegistration struct {
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,strong_password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// VerifyEmailRequest represents an email verification submission.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}
