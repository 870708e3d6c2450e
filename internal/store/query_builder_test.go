package store

import (
	"testing"

	"github.com/google/uuid"

	"github.com/cardway/payment-service/internal/domain"
)

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func TestBuildTransactionPredicatesAlwaysScopesToUser(t *testing.T) {
	userID := uuid.New()
	whereSQL, args := buildTransactionPredicates(userID, domain.TransactionFilter{})

	if whereSQL != "user_id = $1" {
		t.Fatalf("expected bare user scope, got %q", whereSQL)
	}
	if len(args) != 1 || args[0] != userID {
		t.Fatalf("expected single user id argument, got %v", args)
	}
}

func TestBuildTransactionPredicatesComposesWithAND(t *testing.T) {
	userID := uuid.New()
	filter := domain.TransactionFilter{
		Description: strPtr("coffee"),
		AmountFrom:  int64Ptr(300),
		AmountTo:    int64Ptr(900),
	}

	whereSQL, args := buildTransactionPredicates(userID, filter)

	want := "user_id = $1 AND description ILIKE $2 AND amount >= $3 AND amount <= $4"
	if whereSQL != want {
		t.Fatalf("expected %q, got %q", want, whereSQL)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 arguments, got %d", len(args))
	}
	if args[1] != "%coffee%" {
		t.Fatalf("expected substring pattern, got %v", args[1])
	}
	if args[2] != int64(300) || args[3] != int64(900) {
		t.Fatalf("expected range bounds 300/900, got %v/%v", args[2], args[3])
	}
}

func TestBuildTransactionPredicatesExactAmount(t *testing.T) {
	whereSQL, args := buildTransactionPredicates(uuid.New(), domain.TransactionFilter{Amount: int64Ptr(2500)})

	want := "user_id = $1 AND amount = $2"
	if whereSQL != want {
		t.Fatalf("expected %q, got %q", want, whereSQL)
	}
	if args[1] != int64(2500) {
		t.Fatalf("expected amount argument 2500, got %v", args[1])
	}
}

func TestBuildTransactionPredicatesEscapesLikeMetacharacters(t *testing.T) {
	_, args := buildTransactionPredicates(uuid.New(), domain.TransactionFilter{Description: strPtr("50%_off")})

	if args[1] != `%50\%\_off%` {
		t.Fatalf("expected escaped pattern, got %v", args[1])
	}
}

func TestBuildTransactionOrderBy(t *testing.T) {
	tests := []struct {
		name      string
		field     domain.TransactionSortField
		ascending bool
		want      string
	}{
		{
			name:      "default direction is descending with id tiebreak",
			field:     domain.SortByAmount,
			ascending: false,
			want:      "ORDER BY amount DESC, id ASC",
		},
		{
			name:      "ascending when requested",
			field:     domain.SortByAmount,
			ascending: true,
			want:      "ORDER BY amount ASC, id ASC",
		},
		{
			name:      "creation date maps to created_at column",
			field:     domain.SortByCreatedAt,
			ascending: false,
			want:      "ORDER BY created_at DESC, id ASC",
		},
		{
			name:      "id sort has no redundant tiebreak",
			field:     domain.SortByID,
			ascending: true,
			want:      "ORDER BY id ASC",
		},
		{
			name:      "unknown field falls back to id ascending",
			field:     "drop table",
			ascending: false,
			want:      "ORDER BY id ASC",
		},
		{
			name:      "empty field falls back to id ascending",
			field:     "",
			ascending: true,
			want:      "ORDER BY id ASC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildTransactionOrderBy(tt.field, tt.ascending)
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "zero falls back to default", limit: 0, want: defaultPageLimit},
		{name: "negative falls back to default", limit: -5, want: defaultPageLimit},
		{name: "in-range limit kept", limit: 50, want: 50},
		{name: "oversized limit capped", limit: 10000, want: maxPageLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeLimit(tt.limit); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestNormalizeOffset(t *testing.T) {
	if got := normalizeOffset(-1); got != 0 {
		t.Fatalf("expected negative offset to clamp to 0, got %d", got)
	}
	if got := normalizeOffset(40); got != 40 {
		t.Fatalf("expected offset 40 to be kept, got %d", got)
	}
}
