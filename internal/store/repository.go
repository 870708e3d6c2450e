/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access performed by the payment-service. Keeping the interface separate
 * from the PostgreSQL implementation lets the business services be tested
 * against in-memory stubs.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For id handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/cardway/payment-service/internal/domain"
	"github.com/google/uuid"
)

// LoginSecurityState is the post-write view of an account's failure
// counters, returned by RecordLoginFailure so callers can log and decide
// without a second read.
type LoginSecurityState struct {
	FailedAttempts int
	Blocked        bool
}

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// User methods
	CreateUser(ctx context.Context, user *domain.User) (uuid.UUID, error)
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	// FindUserByEmail matches the email case-insensitively.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByResetToken(ctx context.Context, resetToken string) (*domain.User, error)
	UpdateUserData(ctx context.Context, user *domain.User) error
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error
	SetResetToken(ctx context.Context, userID uuid.UUID, resetToken string) error
	// ResetPasswordByToken stores the new hash, zeroes the failure counter,
	// clears the blocked flag and consumes the reset token in one write.
	// This is the only operation that unblocks an account.
	ResetPasswordByToken(ctx context.Context, userID uuid.UUID, passwordHash string) error

	// Login security methods. RecordLoginFailure runs the read-modify-write
	// inside a single database transaction: it reads the current counters
	// under a row lock, applies the supplied policy function and persists
	// the result, so concurrent failed logins cannot wipe out each other's
	// increments entirely.
	RecordLoginFailure(ctx context.Context, userID uuid.UUID, apply func(failedAttempts int, blocked bool) (int, bool)) (*LoginSecurityState, error)
	// ResetLoginFailureState zeroes the failure counter after a successful
	// login. It never touches the blocked flag.
	ResetLoginFailureState(ctx context.Context, userID uuid.UUID) error

	// Transaction methods
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	FindTransactionByID(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error)
	FindTransactionByGatewayToken(ctx context.Context, gatewayToken string) (*domain.Transaction, error)
	// MarkTransactionSucceeded finalizes a NEW record to SUCCESS with the
	// gateway settlement details and clears any error message.
	MarkTransactionSucceeded(ctx context.Context, transactionID uuid.UUID, gatewayID, gatewayStatus string, fee int64) error
	// MarkTransactionFailed finalizes a NEW record to ERROR with the
	// technical failure detail.
	MarkTransactionFailed(ctx context.Context, transactionID uuid.UUID, errorMessage string) error
	FilterTransactions(ctx context.Context, userID uuid.UUID, opts domain.TransactionListOptions) ([]domain.Transaction, error)
	// CountTransactions applies the same predicate set as FilterTransactions
	// but ignores pagination, backing the listing's total_elements.
	CountTransactions(ctx context.Context, userID uuid.UUID, filter domain.TransactionFilter) (int64, error)
}
