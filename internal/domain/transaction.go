/**
 * @description
 * This file defines the transaction domain models for the payment-service.
 * A Transaction is the durable ledger record for one charge attempt against
 * the external payment gateway.
 *
 * @notes
 * - Amounts are `int64` values in the smallest currency unit (cents) to
 *   avoid floating-point inaccuracies with financial data.
 * - Status is monotonic per record: NEW -> SUCCESS or NEW -> ERROR, both
 *   terminal. A record stuck in NEW means the process died between creating
 *   the record and finalizing it; an external reconciliation job resolves
 *   those by re-querying the gateway.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Currency is the closed set of currencies accepted for charges.
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

// ValidCurrency reports whether c is one of the supported currency codes.
func ValidCurrency(c Currency) bool {
	return c == CurrencyEUR || c == CurrencyUSD
}

// TransactionStatus is the lifecycle state of a transaction record.
type TransactionStatus string

const (
	StatusNew     TransactionStatus = "NEW"
	StatusError   TransactionStatus = "ERROR"
	StatusSuccess TransactionStatus = "SUCCESS"
)

// Transaction maps to the `payment_transactions` table.
type Transaction struct {
	ID            uuid.UUID         `json:"id"`
	UserID        uuid.UUID         `json:"user_id"`
	Description   string            `json:"description"`
	Amount        int64             `json:"amount"` // in cents
	Currency      Currency          `json:"currency"`
	GatewayToken  string            `json:"gateway_token"` // caller-supplied card source token, unique
	GatewayEmail  string            `json:"gateway_email"`
	GatewayID     *string           `json:"gateway_id,omitempty"`     // charge id assigned by the gateway
	GatewayStatus *string           `json:"gateway_status,omitempty"` // status string reported by the gateway
	Fee           *int64            `json:"fee,omitempty"`            // in cents
	Status        TransactionStatus `json:"status"`
	ErrorMessage  *string           `json:"error_message,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// CreateTransactionRequest is the DTO for initiating a charge.
type CreateTransactionRequest struct {
	Description  string   `json:"description"`
	Amount       int64    `json:"amount"` // in cents
	Currency     Currency `json:"currency"`
	GatewayToken string   `json:"gateway_token"`
	GatewayEmail string   `json:"gateway_email"`
}

// TransactionFilter holds the optional predicates for transaction listing.
// Absent filters are nil; present filters are intersected with AND. The
// owning user id is always applied and is not part of this struct.
type TransactionFilter struct {
	Description *string
	Amount      *int64
	AmountFrom  *int64
	AmountTo    *int64
}

// TransactionSortField enumerates the columns the listing endpoint may sort
// by. Anything outside this set falls back to ordering by id ascending.
type TransactionSortField string

const (
	SortByID          TransactionSortField = "id"
	SortByDescription TransactionSortField = "description"
	SortByAmount      TransactionSortField = "amount"
	SortByCurrency    TransactionSortField = "currency"
	SortByStatus      TransactionSortField = "status"
	SortByCreatedAt   TransactionSortField = "creationDate"
)

// TransactionListOptions bundles filtering, sorting and pagination for a
// transaction listing request.
type TransactionListOptions struct {
	Filter    TransactionFilter
	SortField TransactionSortField
	Ascending bool
	Offset    int
	Limit     int
}

// TransactionPage is the listing response shape: one page of records plus
// the total match count under the same filter, independent of pagination.
type TransactionPage struct {
	Content       []Transaction `json:"content"`
	TotalElements int64         `json:"total_elements"`
}
