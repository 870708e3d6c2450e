/**
 * @description
 * This file sets up the HTTP router for the payment-service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies the middleware stack, including token verification.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes creates and returns the router for the payment service. The
// metricsHandler may be nil, in which case no exposition endpoint is
// mounted.
func Routes(userHandlers *UserHandlers, transactionHandlers *TransactionHandlers, verifier TokenVerifier, authConfig AuthConfig, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Token verification runs on every request; routes decide below whether
	// an identity is required.
	r.Use(TokenAuthMiddleware(verifier, authConfig))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	// Public endpoints: everything a caller needs before having a token.
	r.Post("/users/login", userHandlers.LoginHandler)
	r.Post("/users/registration", userHandlers.RegisterHandler)
	r.Post("/users/password-recovery-mail", userHandlers.SendRecoveryMailHandler)
	r.Put("/users/password-reset", userHandlers.ResetPasswordHandler)

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)

		r.Get("/users/{id}", userHandlers.GetUserHandler)
		r.Put("/users", userHandlers.EditUserDataHandler)
		r.Put("/users/password-change", userHandlers.ChangePasswordHandler)

		r.Post("/transactions", transactionHandlers.CreateTransactionHandler)
		r.Get("/transactions", transactionHandlers.ListTransactionsHandler)
		r.Get("/transactions/{id}", transactionHandlers.GetTransactionHandler)
	})

	return r
}
