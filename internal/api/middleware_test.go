package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/cardway/payment-service/internal/auth"
)

type stubVerifier struct {
	claims *auth.IdentityClaims
	err    error
}

func (s *stubVerifier) VerifyToken(tokenString string) (*auth.IdentityClaims, error) {
	return s.claims, s.err
}

func authGateHandler(t *testing.T, verifier TokenVerifier, cfg AuthConfig, requireAuth bool) http.Handler {
	t.Helper()
	var inner http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := IdentityFromContext(r.Context()); ok {
			w.Header().Set("X-Test-User", claims.UserID.String())
		}
		w.WriteHeader(http.StatusOK)
	})
	if requireAuth {
		inner = RequireAuth(inner)
	}
	return TokenAuthMiddleware(verifier, cfg)(inner)
}

func TestMiddlewareMissingHeaderPassesThrough(t *testing.T) {
	handler := authGateHandler(t, &stubVerifier{err: auth.ErrTokenInvalid}, AuthConfig{TokenPrefix: "Bearer "}, false)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous request, got %d", rec.Code)
	}
	if rec.Header().Get("X-Test-User") != "" {
		t.Fatal("expected no identity on anonymous request")
	}
}

func TestMiddlewareValidTokenInstallsClaims(t *testing.T) {
	userID := uuid.New()
	verifier := &stubVerifier{claims: &auth.IdentityClaims{UserID: userID}}
	handler := authGateHandler(t, verifier, AuthConfig{TokenPrefix: "Bearer "}, true)

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Test-User"); got != userID.String() {
		t.Fatalf("expected identity %s on the context, got %q", userID, got)
	}
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	handler := authGateHandler(t, &stubVerifier{err: auth.ErrTokenInvalid}, AuthConfig{TokenPrefix: "Bearer "}, false)

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsExpiredToken(t *testing.T) {
	handler := authGateHandler(t, &stubVerifier{err: auth.ErrTokenExpired}, AuthConfig{TokenPrefix: "Bearer "}, false)

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsWrongPrefix(t *testing.T) {
	verifier := &stubVerifier{claims: &auth.IdentityClaims{UserID: uuid.New()}}
	handler := authGateHandler(t, verifier, AuthConfig{TokenPrefix: "Bearer "}, false)

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	req.Header.Set("Authorization", "Token some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong prefix, got %d", rec.Code)
	}
}

func TestMiddlewareReadsConfiguredHeader(t *testing.T) {
	userID := uuid.New()
	verifier := &stubVerifier{claims: &auth.IdentityClaims{UserID: userID}}
	cfg := AuthConfig{HeaderName: "X-Auth-Token", TokenPrefix: ""}
	handler := authGateHandler(t, verifier, cfg, true)

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	req.Header.Set("X-Auth-Token", "raw-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 via configured header, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Test-User"); got != userID.String() {
		t.Fatalf("expected identity %s, got %q", userID, got)
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	handler := authGateHandler(t, &stubVerifier{}, AuthConfig{TokenPrefix: "Bearer "}, true)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous request to protected route, got %d", rec.Code)
	}
}
