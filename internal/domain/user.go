/**
 * @description
 * This file defines the user-side domain models for the payment-service.
 * These structs represent account records as stored in the database along
 * with the request DTOs accepted by the user-facing API endpoints.
 *
 * @notes
 * - Security-sensitive fields (password hash, reset token, failure counters)
 *   are never serialized to JSON responses.
 * - `Blocked` is only ever set by the login failure path crossing the lockout
 *   threshold and only ever cleared by a password reset.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole defines the authorization role of an account.
type UserRole string

const (
	RoleCustomer UserRole = "CUSTOMER"
)

// User represents an account record in the `users` table.
type User struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	FirstName           string    `json:"first_name"`
	LastName            string    `json:"last_name"`
	PhoneNumber         string    `json:"phone_number"`
	Role                UserRole  `json:"role"`
	PasswordHash        string    `json:"-"`
	ResetToken          *string   `json:"-"`
	FailedLoginAttempts int       `json:"-"`
	Blocked             bool      `json:"-"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// LoginRequest carries the credentials posted to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegistrationRequest is the DTO for creating a new account.
type RegistrationRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// UserDataEditionRequest is the DTO for editing profile data.
type UserDataEditionRequest struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// PasswordChangeRequest is the DTO for an authenticated password change.
type PasswordChangeRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// PasswordRecoveryMailRequest asks for a password recovery mail.
type PasswordRecoveryMailRequest struct {
	Email string `json:"email"`
}

// PasswordResetRequest redeems a reset token for a new password.
// Resetting the password is also the only operation that unblocks a
// locked-out account.
type PasswordResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordRecoveryRequestedEvent is published to the message broker when a
// user asks for a recovery mail. The mailer consuming it is a separate
// service; delivery is fire-and-forget from this service's point of view.
type PasswordRecoveryRequestedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	ResetLink  string    `json:"reset_link"`
	ResetToken string    `json:"reset_token"`
	Timestamp  time.Time `json:"timestamp"`
}
