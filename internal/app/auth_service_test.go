package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cardway/payment-service/internal/auth"
	"github.com/cardway/payment-service/internal/domain"
	"github.com/cardway/payment-service/internal/store"
)

func testCodec() *auth.Codec {
	return auth.NewCodec("test-secret", time.Hour)
}

func testUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash test password: %v", err)
	}
	return &domain.User{
		ID:           uuid.New(),
		Email:        "alice@example.com",
		Role:         domain.RoleCustomer,
		PasswordHash: string(hash),
	}
}

func TestLoginSuccessIssuesVerifiableToken(t *testing.T) {
	user := testUser(t, "correct horse")
	resetCalls := 0
	repo := &stubRepository{
		findUserByEmail: func(ctx context.Context, email string) (*domain.User, error) {
			if email != "alice@example.com" {
				t.Fatalf("expected normalized email, got %q", email)
			}
			return user, nil
		},
		resetLoginFailure: func(ctx context.Context, userID uuid.UUID) error {
			resetCalls++
			return nil
		},
	}
	codec := testCodec()
	svc := NewAuthService(repo, codec, nil, 0)

	token, claims, err := svc.Login(context.Background(), "  Alice@Example.COM ", "correct horse")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if resetCalls != 1 {
		t.Fatalf("expected one failure-state reset, got %d", resetCalls)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected claims for user %s, got %s", user.ID, claims.UserID)
	}

	verified, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if verified.UserID != user.ID || verified.Email != user.Email {
		t.Fatalf("expected verified claims to match user, got user_id=%s email=%q", verified.UserID, verified.Email)
	}
}

func TestLoginUnknownEmailWritesNothing(t *testing.T) {
	repo := &stubRepository{
		findUserByEmail: func(ctx context.Context, email string) (*domain.User, error) {
			return nil, store.ErrUserNotFound
		},
		recordLoginFailure: func(ctx context.Context, userID uuid.UUID, apply func(int, bool) (int, bool)) (*store.LoginSecurityState, error) {
			t.Fatal("unexpected failure counter write for unknown email")
			return nil, nil
		},
	}
	svc := NewAuthService(repo, testCodec(), nil, 0)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginWrongPasswordRecordsExactlyOneFailure(t *testing.T) {
	user := testUser(t, "correct horse")
	failureWrites := 0
	repo := &stubRepository{
		findUserByEmail: func(ctx context.Context, email string) (*domain.User, error) {
			return user, nil
		},
		recordLoginFailure: func(ctx context.Context, userID uuid.UUID, apply func(int, bool) (int, bool)) (*store.LoginSecurityState, error) {
			failureWrites++
			attempts, blocked := apply(user.FailedLoginAttempts, user.Blocked)
			return &store.LoginSecurityState{FailedAttempts: attempts, Blocked: blocked}, nil
		},
	}
	svc := NewAuthService(repo, testCodec(), nil, 0)

	_, _, err := svc.Login(context.Background(), user.Email, "battery staple")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if failureWrites != 1 {
		t.Fatalf("expected exactly one failure counter write, got %d", failureWrites)
	}
}

func TestLoginTenthFailureBlocksAccount(t *testing.T) {
	user := testUser(t, "correct horse")
	user.FailedLoginAttempts = 9

	var recorded *store.LoginSecurityState
	repo := &stubRepository{
		findUserByEmail: func(ctx context.Context, email string) (*domain.User, error) {
			return user, nil
		},
		recordLoginFailure: func(ctx context.Context, userID uuid.UUID, apply func(int, bool) (int, bool)) (*store.LoginSecurityState, error) {
			attempts, blocked := apply(user.FailedLoginAttempts, user.Blocked)
			recorded = &store.LoginSecurityState{FailedAttempts: attempts, Blocked: blocked}
			return recorded, nil
		},
	}
	svc := NewAuthService(repo, testCodec(), nil, 0)

	_, _, err := svc.Login(context.Background(), user.Email, "battery staple")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if recorded == nil {
		t.Fatal("expected a failure counter write")
	}
	if recorded.FailedAttempts != 10 || !recorded.Blocked {
		t.Fatalf("expected attempts=10 blocked=true, got attempts=%d blocked=%t", recorded.FailedAttempts, recorded.Blocked)
	}
}

func TestLoginBlockedAccountRejectedBeforePasswordCheck(t *testing.T) {
	user := testUser(t, "correct horse")
	user.Blocked = true
	repo := &stubRepository{
		findUserByEmail: func(ctx context.Context, email string) (*domain.User, error) {
			return user, nil
		},
		recordLoginFailure: func(ctx context.Context, userID uuid.UUID, apply func(int, bool) (int, bool)) (*store.LoginSecurityState, error) {
			t.Fatal("unexpected failure counter write for blocked account")
			return nil, nil
		},
		resetLoginFailure: func(ctx context.Context, userID uuid.UUID) error {
			t.Fatal("unexpected failure-state reset for blocked account")
			return nil
		},
	}
	svc := NewAuthService(repo, testCodec(), nil, 0)

	// Even the correct password must not get through while blocked.
	_, _, err := svc.Login(context.Background(), user.Email, "correct horse")
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
}

type stubLimiter struct {
	count int
	err   error
}

func (s *stubLimiter) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	return s.count, 30, s.err
}

func TestLoginThrottledBeforeLookup(t *testing.T) {
	repo := &stubRepository{
		findUserByEmail: func(ctx context.Context, email string) (*domain.User, error) {
			t.Fatal("unexpected user lookup for throttled login")
			return nil, nil
		},
	}
	svc := NewAuthService(repo, testCodec(), nil, 0)
	svc.SetLoginRateLimiter(&stubLimiter{count: 6}, 5)

	_, _, err := svc.Login(context.Background(), "alice@example.com", "whatever")
	if !errors.Is(err, ErrTooManyLoginAttempts) {
		t.Fatalf("expected ErrTooManyLoginAttempts, got %v", err)
	}
}

func TestLoginLimiterFailureDoesNotBlockLogin(t *testing.T) {
	user := testUser(t, "correct horse")
	repo := &stubRepository{
		findUserByEmail: func(ctx context.Context, email string) (*domain.User, error) {
			return user, nil
		},
		resetLoginFailure: func(ctx context.Context, userID uuid.UUID) error {
			return nil
		},
	}
	svc := NewAuthService(repo, testCodec(), nil, 0)
	svc.SetLoginRateLimiter(&stubLimiter{err: errors.New("redis down")}, 5)

	_, _, err := svc.Login(context.Background(), user.Email, "correct horse")
	if err != nil {
		t.Fatalf("expected login to succeed despite limiter failure, got %v", err)
	}
}
