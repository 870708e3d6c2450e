/**
 * @description
 * This file contains the HTTP handlers for the user-facing endpoints: login,
 * registration, profile management and the password recovery flow. The login
 * handler is the visible edge of the lockout pipeline; it maps the service's
 * sentinel errors onto the HTTP status codes clients key off.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: Service logic, models and
 *   custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cardway/payment-service/internal/app"
	"github.com/cardway/payment-service/internal/domain"
	"github.com/cardway/payment-service/internal/store"
)

// UserHandlers holds the services the user endpoints call into.
type UserHandlers struct {
	authService *app.AuthService
	userService *app.UserService
	authConfig  AuthConfig
}

// NewUserHandlers creates a new instance of UserHandlers.
func NewUserHandlers(authService *app.AuthService, userService *app.UserService, authConfig AuthConfig) *UserHandlers {
	return &UserHandlers{
		authService: authService,
		userService: userService,
		authConfig:  authConfig,
	}
}

// loginResponse is the login success body. The token itself travels in the
// configured response header, not the body.
type loginResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// LoginHandler handles POST /users/login. On success the signed token is
// placed in the configured header with the configured prefix.
func (h *UserHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, claims, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		// Locked and wrong-password deliberately share one message so the
		// response does not reveal which accounts exist or are locked.
		case errors.Is(err, app.ErrInvalidCredentials), errors.Is(err, app.ErrAccountLocked):
			writeError(w, http.StatusUnauthorized, "email or password are incorrect")
		case errors.Is(err, app.ErrTooManyLoginAttempts):
			writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		default:
			log.Printf("level=error component=api endpoint=login msg=\"unexpected error\" err=%v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	headerName := h.authConfig.HeaderName
	if headerName == "" {
		headerName = "Authorization"
	}
	w.Header().Set(headerName, h.authConfig.TokenPrefix+token)
	writeJSON(w, http.StatusOK, loginResponse{UserID: claims.UserID, Email: claims.Email})
}

// RegisterHandler handles POST /users/registration.
func (h *UserHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := h.userService.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrEmailAlreadyExists):
			writeError(w, http.StatusConflict, "a user with this email already exists")
		case errors.Is(err, app.ErrInvalidUserRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("level=error component=api endpoint=registration msg=\"unexpected error\" err=%v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.Header().Set("Location", "/users/"+userID.String())
	writeJSON(w, http.StatusCreated, map[string]string{"user_id": userID.String()})
}

// GetUserHandler handles GET /users/{id}. Users may only read their own
// record.
func (h *UserHandlers) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if userID != claims.UserID {
		writeError(w, http.StatusForbidden, "cannot access another user's data")
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_user msg=\"unexpected error\" user_id=%s err=%v", userID, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// EditUserDataHandler handles PUT /users for the authenticated user.
func (h *UserHandlers) EditUserDataHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req domain.UserDataEditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userService.EditUserData(r.Context(), claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrEmailAlreadyExists):
			writeError(w, http.StatusConflict, "a user with this email already exists")
		case errors.Is(err, store.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			log.Printf("level=error component=api endpoint=edit_user msg=\"unexpected error\" user_id=%s err=%v", claims.UserID, err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ChangePasswordHandler handles PUT /users/password-change for the
// authenticated user.
func (h *UserHandlers) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req domain.PasswordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), claims.UserID, req); err != nil {
		switch {
		case errors.Is(err, app.ErrWrongPassword):
			writeError(w, http.StatusBadRequest, "wrong password")
		case errors.Is(err, store.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			log.Printf("level=error component=api endpoint=change_password msg=\"unexpected error\" user_id=%s err=%v", claims.UserID, err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SendRecoveryMailHandler handles POST /users/password-recovery-mail. It is
// public: the whole point is that the caller cannot log in.
func (h *UserHandlers) SendRecoveryMailHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.PasswordRecoveryMailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.userService.SendPasswordRecoveryMail(r.Context(), req.Email); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "no account for this email")
			return
		}
		log.Printf("level=error component=api endpoint=password_recovery_mail msg=\"unexpected error\" err=%v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResetPasswordHandler handles PUT /users/password-reset. Redeeming the
// token also unblocks a locked account.
func (h *UserHandlers) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.userService.ResetPassword(r.Context(), req); err != nil {
		if errors.Is(err, app.ErrInvalidResetToken) {
			writeError(w, http.StatusBadRequest, "invalid reset token")
			return
		}
		log.Printf("level=error component=api endpoint=password_reset msg=\"unexpected error\" err=%v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
