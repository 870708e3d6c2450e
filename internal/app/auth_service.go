/**
 * @description
 * This file contains the credential authentication pipeline: account lookup,
 * lockout evaluation, password verification, failure counter bookkeeping and
 * token issuance. There is no server-side session state; a successful login
 * produces a signed token and the token is the session.
 *
 * @dependencies
 * - golang.org/x/crypto/bcrypt: Salted, constant-time password verification.
 * - internal/auth: The token codec.
 * - internal/store: Account persistence.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cardway/payment-service/internal/auth"
	"github.com/cardway/payment-service/internal/metrics"
	"github.com/cardway/payment-service/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// LoginRateLimiter throttles login attempts per subject before any
// database work happens. A nil limiter disables throttling.
type LoginRateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// AuthService implements the login pipeline.
type AuthService struct {
	repo             store.Repository
	codec            *auth.Codec
	metrics          metrics.Recorder
	limiter          LoginRateLimiter
	lockoutThreshold int
	loginRateLimit   int // attempts per minute per email; <= 0 disables
}

// NewAuthService creates an AuthService. A lockoutThreshold <= 0 falls back
// to the default of 10.
func NewAuthService(repo store.Repository, codec *auth.Codec, recorder metrics.Recorder, lockoutThreshold int) *AuthService {
	if lockoutThreshold <= 0 {
		lockoutThreshold = DefaultLockoutThreshold
	}
	return &AuthService{
		repo:             repo,
		codec:            codec,
		metrics:          recorder,
		lockoutThreshold: lockoutThreshold,
	}
}

// SetLoginRateLimiter attaches an optional distributed rate limiter.
func (s *AuthService) SetLoginRateLimiter(limiter LoginRateLimiter, attemptsPerMinute int) {
	s.limiter = limiter
	s.loginRateLimit = attemptsPerMinute
}

// Login authenticates the credentials and returns a signed bearer token
// plus the claims it carries.
//
// Exactly one persistence write happens per call that reaches the password
// comparison: either the failure counter update or the success reset. The
// unknown-email path performs no write at all.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *auth.IdentityClaims, error) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))

	if s.limiter != nil && s.loginRateLimit > 0 {
		count, _, err := s.limiter.ConsumeRateLimit(ctx, "login", normalizedEmail, s.loginRateLimit, time.Minute)
		if err != nil {
			// Rate limiting is best-effort; a broken limiter must not take
			// down logins.
			log.Printf("level=warn component=auth_service msg=\"login rate limiter unavailable\" err=%v", err)
		} else if count > s.loginRateLimit {
			s.recordLoginFailure(metrics.LoginFailureThrottled)
			return "", nil, ErrTooManyLoginAttempts
		}
	}

	user, err := s.repo.FindUserByEmail(ctx, normalizedEmail)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Logged distinctly for operators, but the caller sees the same
			// error as a wrong password.
			log.Printf("level=warn component=auth_service outcome=reject reason=unknown_email email=%s", normalizedEmail)
			s.recordLoginFailure(metrics.LoginFailureInvalidCredentials)
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !loginAllowed(user) {
		log.Printf("level=warn component=auth_service outcome=reject reason=account_locked user_id=%s", user.ID)
		s.recordLoginFailure(metrics.LoginFailureLocked)
		return "", nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		state, recordErr := s.repo.RecordLoginFailure(ctx, user.ID, func(failedAttempts int, blocked bool) (int, bool) {
			return applyLoginFailure(failedAttempts, blocked, s.lockoutThreshold)
		})
		if recordErr != nil {
			log.Printf("level=error component=auth_service msg=\"failed to record login failure\" user_id=%s err=%v", user.ID, recordErr)
		} else if state.Blocked {
			log.Printf("level=warn component=auth_service outcome=reject reason=wrong_password user_id=%s failed_attempts=%d locked=true", user.ID, state.FailedAttempts)
		} else {
			log.Printf("level=warn component=auth_service outcome=reject reason=wrong_password user_id=%s failed_attempts=%d", user.ID, state.FailedAttempts)
		}
		s.recordLoginFailure(metrics.LoginFailureInvalidCredentials)
		return "", nil, ErrInvalidCredentials
	}

	if err := s.repo.ResetLoginFailureState(ctx, user.ID); err != nil {
		return "", nil, fmt.Errorf("failed to reset login failure state: %w", err)
	}

	claims := auth.IdentityClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	token, err := s.codec.Issue(claims)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
	log.Printf("level=info component=auth_service outcome=success user_id=%s", user.ID)
	return token, &claims, nil
}

// VerifyToken delegates to the codec. It exists so the API middleware does
// not need to hold the codec directly.
func (s *AuthService) VerifyToken(tokenString string) (*auth.IdentityClaims, error) {
	return s.codec.Verify(tokenString)
}

func (s *AuthService) recordLoginFailure(reason string) {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure(reason)
	}
}

// hashPassword centralizes the bcrypt cost used everywhere a password is
// (re)hashed.
func hashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// passwordMatches checks a plaintext password against a stored bcrypt hash.
func passwordMatches(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
