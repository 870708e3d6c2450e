package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/cardway/payment-service/internal/domain"
	"github.com/cardway/payment-service/internal/store"
)

// stubRepository implements store.Repository through optional function
// fields. Methods a test does not override panic via the embedded nil
// interface, which makes unexpected repository calls fail loudly.
type stubRepository struct {
	store.Repository

	findUserByID         func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	findUserByEmail      func(ctx context.Context, email string) (*domain.User, error)
	recordLoginFailure   func(ctx context.Context, userID uuid.UUID, apply func(int, bool) (int, bool)) (*store.LoginSecurityState, error)
	resetLoginFailure    func(ctx context.Context, userID uuid.UUID) error
	createTransaction    func(ctx context.Context, tx *domain.Transaction) error
	findTransactionByID  func(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error)
	markSucceeded        func(ctx context.Context, transactionID uuid.UUID, gatewayID, gatewayStatus string, fee int64) error
	markFailed           func(ctx context.Context, transactionID uuid.UUID, errorMessage string) error
	filterTransactions   func(ctx context.Context, userID uuid.UUID, opts domain.TransactionListOptions) ([]domain.Transaction, error)
	countTransactions    func(ctx context.Context, userID uuid.UUID, filter domain.TransactionFilter) (int64, error)
	findUserByResetToken func(ctx context.Context, resetToken string) (*domain.User, error)
	setResetToken        func(ctx context.Context, userID uuid.UUID, resetToken string) error
	resetPasswordByToken func(ctx context.Context, userID uuid.UUID, passwordHash string) error
	updatePasswordHash   func(ctx context.Context, userID uuid.UUID, passwordHash string) error
	createUser           func(ctx context.Context, user *domain.User) (uuid.UUID, error)
	updateUserData       func(ctx context.Context, user *domain.User) error
}

func (s *stubRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.findUserByID(ctx, userID)
}

func (s *stubRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUserByEmail(ctx, email)
}

func (s *stubRepository) RecordLoginFailure(ctx context.Context, userID uuid.UUID, apply func(int, bool) (int, bool)) (*store.LoginSecurityState, error) {
	return s.recordLoginFailure(ctx, userID, apply)
}

func (s *stubRepository) ResetLoginFailureState(ctx context.Context, userID uuid.UUID) error {
	return s.resetLoginFailure(ctx, userID)
}

func (s *stubRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return s.createTransaction(ctx, tx)
}

func (s *stubRepository) FindTransactionByID(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	return s.findTransactionByID(ctx, transactionID)
}

func (s *stubRepository) MarkTransactionSucceeded(ctx context.Context, transactionID uuid.UUID, gatewayID, gatewayStatus string, fee int64) error {
	return s.markSucceeded(ctx, transactionID, gatewayID, gatewayStatus, fee)
}

func (s *stubRepository) MarkTransactionFailed(ctx context.Context, transactionID uuid.UUID, errorMessage string) error {
	return s.markFailed(ctx, transactionID, errorMessage)
}

func (s *stubRepository) FilterTransactions(ctx context.Context, userID uuid.UUID, opts domain.TransactionListOptions) ([]domain.Transaction, error) {
	return s.filterTransactions(ctx, userID, opts)
}

func (s *stubRepository) CountTransactions(ctx context.Context, userID uuid.UUID, filter domain.TransactionFilter) (int64, error) {
	return s.countTransactions(ctx, userID, filter)
}

func (s *stubRepository) FindUserByResetToken(ctx context.Context, resetToken string) (*domain.User, error) {
	return s.findUserByResetToken(ctx, resetToken)
}

func (s *stubRepository) SetResetToken(ctx context.Context, userID uuid.UUID, resetToken string) error {
	return s.setResetToken(ctx, userID, resetToken)
}

func (s *stubRepository) ResetPasswordByToken(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return s.resetPasswordByToken(ctx, userID, passwordHash)
}

func (s *stubRepository) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return s.updatePasswordHash(ctx, userID, passwordHash)
}

func (s *stubRepository) CreateUser(ctx context.Context, user *domain.User) (uuid.UUID, error) {
	return s.createUser(ctx, user)
}

func (s *stubRepository) UpdateUserData(ctx context.Context, user *domain.User) error {
	return s.updateUserData(ctx, user)
}
