package stripeclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func chargeParams() ChargeParams {
	return ChargeParams{
		Amount:      2500,
		Currency:    "EUR",
		Description: "order 42",
		SourceToken: "tok_visa",
	}
}

func TestChargeParsesSettlement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/charges" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if r.PostForm.Get("amount") != "2500" || r.PostForm.Get("currency") != "eur" {
			t.Fatalf("unexpected form values: %v", r.PostForm)
		}
		if r.PostForm.Get("expand[]") != "balance_transaction" {
			t.Fatalf("expected balance_transaction expansion, got %v", r.PostForm["expand[]"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"ch_123","status":"succeeded","balance_transaction":{"fee":103}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	charge, err := client.Charge(context.Background(), chargeParams())
	if err != nil {
		t.Fatalf("Charge returned error: %v", err)
	}
	if charge.ID != "ch_123" || charge.Status != "succeeded" || charge.Fee != 103 {
		t.Fatalf("unexpected charge: %+v", charge)
	}
}

func TestChargeClassifiesCardError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	_, err := client.Charge(context.Background(), chargeParams())

	var declined *CardDeclinedError
	if !errors.As(err, &declined) {
		t.Fatalf("expected *CardDeclinedError, got %v", err)
	}
	if declined.CustomerMessage != "Your card was declined." {
		t.Fatalf("expected customer message from gateway, got %q", declined.CustomerMessage)
	}
	if declined.TechnicalMessage == "" {
		t.Fatal("expected a technical message for persistence")
	}
}

func TestChargeClassifiesGatewayFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"type":"api_error","message":"Something went wrong."}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	_, err := client.Charge(context.Background(), chargeParams())

	var gatewayErr *GatewayError
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("expected *GatewayError, got %v", err)
	}
}

func TestChargeUnparsableErrorBodyIsGatewayFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream proxy error"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	_, err := client.Charge(context.Background(), chargeParams())

	var gatewayErr *GatewayError
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("expected *GatewayError for unparsable body, got %v", err)
	}
}

func TestChargeTransportFailureIsGatewayFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(server.URL, "sk_test_123")
	_, err := client.Charge(context.Background(), chargeParams())

	var gatewayErr *GatewayError
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("expected *GatewayError for transport failure, got %v", err)
	}
}
