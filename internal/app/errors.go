package app

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the business services. The API layer maps
// them onto HTTP status codes with errors.Is/errors.As.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// callers cannot enumerate accounts. The two cases are logged distinctly
	// for operators.
	ErrInvalidCredentials = errors.New("email or password are incorrect")
	// ErrAccountLocked is returned before any password comparison when the
	// account crossed the lockout threshold. Only a password reset clears it.
	ErrAccountLocked = errors.New("account is blocked after too many failed login attempts")
	// ErrTooManyLoginAttempts is the rate limiter rejecting a login attempt
	// before the credentials were even looked at.
	ErrTooManyLoginAttempts = errors.New("too many login attempts, try again later")

	ErrEmailAlreadyExists = errors.New("a user with this email already exists")
	ErrWrongPassword      = errors.New("wrong password")
	ErrInvalidResetToken  = errors.New("invalid reset token")
	ErrInvalidUserRequest = errors.New("invalid user request")

	// ErrInvalidTransactionRequest covers bad charge inputs, including an
	// unknown owning account. No transaction record exists for these.
	ErrInvalidTransactionRequest = errors.New("invalid transaction request")
	// ErrChargeGatewayUnavailable means the gateway could not settle the
	// charge for reasons unrelated to the caller's input. The transaction
	// record has already been finalized to ERROR when this is returned.
	ErrChargeGatewayUnavailable = errors.New("charge gateway unavailable")
)

// ChargeDeclinedError is returned when the gateway rejected the caller's
// card. The customer message is safe to return to the end user; the
// technical detail has already been persisted on the transaction record.
type ChargeDeclinedError struct {
	CustomerMessage string
	cause           error
}

func (e *ChargeDeclinedError) Error() string {
	return fmt.Sprintf("charge declined: %s", e.CustomerMessage)
}

func (e *ChargeDeclinedError) Unwrap() error {
	return e.cause
}
