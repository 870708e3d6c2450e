/**
 * @description
 * This file contains the account lifecycle operations: registration, profile
 * reads and edits, password changes and the password recovery flow. The
 * recovery flow is the only place a locked account can be unblocked: redeeming
 * a reset token clears the blocked flag along with the failure counter.
 *
 * @dependencies
 * - golang.org/x/crypto/bcrypt: Password hashing (via hashPassword).
 * - pkg/rabbitmq: Publishing the recovery mail event for the mailer service.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardway/payment-service/internal/domain"
	"github.com/cardway/payment-service/internal/store"
	"github.com/cardway/payment-service/pkg/rabbitmq"
)

// UserService implements account management.
type UserService struct {
	repo            store.Repository
	producer        rabbitmq.Publisher
	mailExchange    string
	webAppDomainURL string
}

// NewUserService creates a UserService. The producer may be a fallback
// no-op when the broker is unavailable.
func NewUserService(repo store.Repository, producer rabbitmq.Publisher, mailExchange, webAppDomainURL string) *UserService {
	return &UserService{
		repo:            repo,
		producer:        producer,
		mailExchange:    mailExchange,
		webAppDomainURL: strings.TrimRight(webAppDomainURL, "/"),
	}
}

// Register creates a new customer account and returns its id.
func (s *UserService) Register(ctx context.Context, req domain.RegistrationRequest) (uuid.UUID, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return uuid.Nil, fmt.Errorf("%w: email and password are required", ErrInvalidUserRequest)
	}

	if _, err := s.repo.FindUserByEmail(ctx, email); err == nil {
		return uuid.Nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return uuid.Nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		Role:         domain.RoleCustomer,
		PasswordHash: hash,
	}
	userID, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		// The unique index is the authoritative check; the lookup above only
		// covers the common case without a race.
		if errors.Is(err, store.ErrDuplicateEmail) {
			return uuid.Nil, ErrEmailAlreadyExists
		}
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("level=info component=user_service msg=\"user registered\" user_id=%s", userID)
	return userID, nil
}

// GetUserByID fetches an account by id.
func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.repo.FindUserByID(ctx, userID)
}

// EditUserData updates the profile fields of the authenticated account. A
// changed email must remain unique across accounts.
func (s *UserService) EditUserData(ctx context.Context, userID uuid.UUID, req domain.UserDataEditionRequest) (*domain.User, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	newEmail := strings.ToLower(strings.TrimSpace(req.Email))
	if newEmail != "" && newEmail != user.Email {
		existing, err := s.repo.FindUserByEmail(ctx, newEmail)
		if err == nil && existing.ID != userID {
			return nil, ErrEmailAlreadyExists
		}
		if err != nil && !errors.Is(err, store.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
		}
		user.Email = newEmail
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = req.PhoneNumber
	}

	if err := s.repo.UpdateUserData(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to update user data: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password of the authenticated account after
// verifying the old one.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, req domain.PasswordChangeRequest) error {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !passwordMatches(user.PasswordHash, req.OldPassword) {
		return ErrWrongPassword
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Printf("level=info component=user_service msg=\"password changed\" user_id=%s", userID)
	return nil
}

// SendPasswordRecoveryMail generates a single-use reset token for the
// account behind the given email and hands it to the mailer service via the
// message broker. An unknown email is reported to the caller; the endpoint
// exists for users who typed their own address.
func (s *UserService) SendPasswordRecoveryMail(ctx context.Context, email string) error {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.FindUserByEmail(ctx, normalizedEmail)
	if err != nil {
		return err
	}

	resetToken := uuid.NewString()
	if err := s.repo.SetResetToken(ctx, user.ID, resetToken); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	event := domain.PasswordRecoveryRequestedEvent{
		UserID:     user.ID,
		Email:      user.Email,
		ResetLink:  s.webAppDomainURL + "/password-reset/" + resetToken,
		ResetToken: resetToken,
		Timestamp:  time.Now().UTC(),
	}
	// The token is already persisted, so a broker hiccup is not fatal: the
	// user can retry and get a fresh mail.
	if err := s.producer.PublishPasswordRecoveryEvent(ctx, s.mailExchange, event); err != nil {
		log.Printf("level=warn component=user_service msg=\"failed to publish recovery mail event\" user_id=%s err=%v", user.ID, err)
	} else {
		log.Printf("level=info component=user_service msg=\"recovery mail event published\" user_id=%s", user.ID)
	}
	return nil
}

// ResetPassword redeems a reset token for a new password. Besides replacing
// the hash it zeroes the failure counter and clears the blocked flag, making
// this the sole recovery path out of a lockout.
func (s *UserService) ResetPassword(ctx context.Context, req domain.PasswordResetRequest) error {
	if req.Token == "" || req.NewPassword == "" {
		return ErrInvalidResetToken
	}

	user, err := s.repo.FindUserByResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, store.ErrResetTokenNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.ResetPasswordByToken(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	log.Printf("level=info component=user_service msg=\"password reset completed\" user_id=%s", user.ID)
	return nil
}
