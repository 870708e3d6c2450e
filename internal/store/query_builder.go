/**
 * @description
 * This file builds the dynamic WHERE/ORDER BY fragments for the transaction
 * listing queries. Filters are typed optionals composed with AND, and the
 * sort field goes through a fixed whitelist, so no caller-controlled string
 * ever reaches the SQL text — only positional parameters do.
 */

package store

import (
	"fmt"
	"strings"

	"github.com/cardway/payment-service/internal/domain"
	"github.com/google/uuid"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

// sortColumns maps the caller-facing sort keys to real columns. Unknown
// keys fall back to ordering by id ascending.
var sortColumns = map[domain.TransactionSortField]string{
	domain.SortByID:          "id",
	domain.SortByDescription: "description",
	domain.SortByAmount:      "amount",
	domain.SortByCurrency:    "currency",
	domain.SortByStatus:      "status",
	domain.SortByCreatedAt:   "created_at",
}

// buildTransactionPredicates returns the WHERE clause body and its
// positional arguments. The owning user id is always the first predicate;
// the optional filters are appended in a fixed order so the clause text is
// deterministic for a given filter shape.
func buildTransactionPredicates(userID uuid.UUID, filter domain.TransactionFilter) (string, []any) {
	predicates := []string{"user_id = $1"}
	args := []any{userID}

	appendPredicate := func(condition string, value any) {
		args = append(args, value)
		predicates = append(predicates, fmt.Sprintf(condition, len(args)))
	}

	if filter.Description != nil {
		appendPredicate("description ILIKE $%d", "%"+escapeLikePattern(*filter.Description)+"%")
	}
	if filter.Amount != nil {
		appendPredicate("amount = $%d", *filter.Amount)
	}
	if filter.AmountFrom != nil {
		appendPredicate("amount >= $%d", *filter.AmountFrom)
	}
	if filter.AmountTo != nil {
		appendPredicate("amount <= $%d", *filter.AmountTo)
	}

	return strings.Join(predicates, " AND "), args
}

// buildTransactionOrderBy returns the ORDER BY clause. A whitelisted sort
// field orders descending unless ascending was requested, with id ascending
// as the tie-break so pagination stays stable across pages. Everything else
// orders by id ascending.
func buildTransactionOrderBy(field domain.TransactionSortField, ascending bool) string {
	column, ok := sortColumns[field]
	if !ok {
		return "ORDER BY id ASC"
	}
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}
	if column == "id" {
		return fmt.Sprintf("ORDER BY id %s", direction)
	}
	return fmt.Sprintf("ORDER BY %s %s, id ASC", column, direction)
}

// escapeLikePattern neutralizes LIKE metacharacters in a user-supplied
// substring so they match literally.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
