/**
 * @description
 * This file contains the HTTP handlers for the transaction endpoints plus the
 * shared response helpers. Handlers parse incoming requests, call the
 * application services and write the HTTP response; they are the bridge
 * between the web layer and the business logic layer.
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
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cardway/payment-service/internal/app"
	"github.com/cardway/payment-service/internal/domain"
	"github.com/cardway/payment-service/internal/store"
)

// errorInfo is the uniform error response body.
type errorInfo struct {
	Timestamp  time.Time `json:"timestamp"`
	StatusCode int       `json:"status_code"`
	Message    string    `json:"message"`
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes the uniform error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorInfo{
		Timestamp:  time.Now().UTC(),
		StatusCode: status,
		Message:    message,
	})
}

// TransactionHandlers holds the application service that handlers will use.
type TransactionHandlers struct {
	service *app.Service
}

// NewTransactionHandlers creates a new instance of TransactionHandlers.
func NewTransactionHandlers(service *app.Service) *TransactionHandlers {
	return &TransactionHandlers{service: service}
}

// CreateTransactionHandler handles POST /transactions: it runs one charge
// attempt for the authenticated user and reports the final state.
func (h *TransactionHandlers) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req domain.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := h.service.ProcessTransaction(r.Context(), claims.UserID, req)
	if err != nil {
		var declined *app.ChargeDeclinedError
		switch {
		case errors.As(err, &declined):
			writeError(w, http.StatusBadRequest, declined.CustomerMessage)
		case errors.Is(err, app.ErrInvalidTransactionRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrChargeGatewayUnavailable):
			writeError(w, http.StatusInternalServerError, "payment could not be processed, try again later")
		default:
			log.Printf("level=error component=api endpoint=create_transaction msg=\"unexpected error\" user_id=%s err=%v", claims.UserID, err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.Header().Set("Location", "/transactions/"+tx.ID.String())
	writeJSON(w, http.StatusCreated, tx)
}

// GetTransactionHandler handles GET /transactions/{id}.
func (h *TransactionHandlers) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	transactionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	tx, err := h.service.GetTransactionByID(r.Context(), claims.UserID, transactionID)
	if err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_transaction msg=\"unexpected error\" transaction_id=%s err=%v", transactionID, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

// ListTransactionsHandler handles GET /transactions with filtering, sorting
// and pagination via query parameters.
func (h *TransactionHandlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	opts, err := parseListOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.FilterTransactions(r.Context(), claims.UserID, opts)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_transactions msg=\"unexpected error\" user_id=%s err=%v", claims.UserID, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// parseListOptions translates the listing query parameters into typed
// options. Absent parameters stay nil; malformed numbers are rejected.
func parseListOptions(r *http.Request) (domain.TransactionListOptions, error) {
	var opts domain.TransactionListOptions
	q := r.URL.Query()

	if v := q.Get("description"); v != "" {
		opts.Filter.Description = &v
	}
	amount, err := parseOptionalInt64(q.Get("amount"), "amount")
	if err != nil {
		return opts, err
	}
	opts.Filter.Amount = amount
	amountFrom, err := parseOptionalInt64(q.Get("amountFrom"), "amountFrom")
	if err != nil {
		return opts, err
	}
	opts.Filter.AmountFrom = amountFrom
	amountTo, err := parseOptionalInt64(q.Get("amountTo"), "amountTo")
	if err != nil {
		return opts, err
	}
	opts.Filter.AmountTo = amountTo

	opts.SortField = domain.TransactionSortField(q.Get("sortBy"))
	opts.Ascending = q.Get("ascending") == "true"

	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return opts, errors.New("offset must be a non-negative integer")
		}
		opts.Offset = offset
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return opts, errors.New("limit must be a non-negative integer")
		}
		opts.Limit = limit
	}

	return opts, nil
}

func parseOptionalInt64(raw, name string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.New(name + " must be an integer amount in cents")
	}
	return &value, nil
}
