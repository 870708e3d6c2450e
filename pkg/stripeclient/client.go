/**
 * @description
 * This package provides a client for the Stripe charge API, the external
 * payment gateway settling transactions for the payment-service. It is the
 * sole point of contact with the gateway and classifies every failure into
 * one of two buckets: the card/source was rejected (caller's input), or the
 * gateway could not be reached or errored (not the caller's fault). The two
 * buckets drive different HTTP status codes and retry policies upstream.
 *
 * @dependencies
 * - context, encoding/json, net/http, net/url: Standard Go libraries.
 */
package stripeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a client for the Stripe charge API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new charge gateway client. The HTTP timeout bounds
// how long a charge attempt may block a request; timeouts surface as
// *GatewayError.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ChargeParams carries the inputs for one charge attempt.
type ChargeParams struct {
	Amount      int64 // in cents
	Currency    string
	Description string
	SourceToken string
}

// Charge is the settled outcome reported by the gateway.
type Charge struct {
	ID     string
	Status string
	Fee    int64 // in cents
}

// CardDeclinedError means the gateway rejected the caller's card or source
// token. CustomerMessage is safe to show to the end user; TechnicalMessage
// is what gets persisted on the transaction record.
type CardDeclinedError struct {
	CustomerMessage  string
	TechnicalMessage string
}

func (e *CardDeclinedError) Error() string {
	return fmt.Sprintf("card declined: %s", e.TechnicalMessage)
}

// GatewayError means the charge could not be completed for reasons
// unrelated to the caller's input: transport failures, gateway-side faults,
// or a misconfigured API key.
type GatewayError struct {
	TechnicalMessage string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("charge gateway error: %s", e.TechnicalMessage)
}

// chargeResponse is the success payload of POST /v1/charges with the
// balance transaction expanded so the fee arrives in the same round trip.
type chargeResponse struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	BalanceTransaction struct {
		Fee int64 `json:"fee"`
	} `json:"balance_transaction"`
}

// errorResponse is the error envelope returned by the gateway.
type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Charge executes one charge attempt against the gateway. It returns the
// settlement details, a *CardDeclinedError, or a *GatewayError; no other
// error shapes escape this method.
func (c *Client) Charge(ctx context.Context, params ChargeParams) (*Charge, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.Amount, 10))
	form.Set("currency", strings.ToLower(params.Currency))
	form.Set("description", params.Description)
	form.Set("source", params.SourceToken)
	form.Add("expand[]", "balance_transaction")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/charges", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &GatewayError{TechnicalMessage: fmt.Sprintf("failed to create charge request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &GatewayError{TechnicalMessage: fmt.Sprintf("failed to execute charge request: %v", err)}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{TechnicalMessage: fmt.Sprintf("failed to read charge response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyErrorResponse(resp.StatusCode, bodyBytes)
	}

	var successResp chargeResponse
	if err := json.Unmarshal(bodyBytes, &successResp); err != nil {
		return nil, &GatewayError{TechnicalMessage: fmt.Sprintf("failed to decode charge response: %v", err)}
	}

	return &Charge{
		ID:     successResp.ID,
		Status: successResp.Status,
		Fee:    successResp.BalanceTransaction.Fee,
	}, nil
}

// classifyErrorResponse maps a non-2xx gateway reply onto the two failure
// buckets. Only card_error counts as the caller's fault; everything else,
// including unparsable bodies, is a gateway fault.
func classifyErrorResponse(statusCode int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Type == "" {
		log.Printf("level=warn component=stripe_client op=charge status=%d msg=\"non-2xx response (unparsable error body)\"", statusCode)
		return &GatewayError{TechnicalMessage: fmt.Sprintf("gateway returned status %d with unparsable body", statusCode)}
	}

	technical := fmt.Sprintf("type=%s code=%s message=%s", errResp.Error.Type, errResp.Error.Code, errResp.Error.Message)
	if errResp.Error.Type == "card_error" {
		log.Printf("level=warn component=stripe_client op=charge outcome=declined status=%d code=%q", statusCode, errResp.Error.Code)
		return &CardDeclinedError{
			CustomerMessage:  errResp.Error.Message,
			TechnicalMessage: technical,
		}
	}

	log.Printf("level=warn component=stripe_client op=charge outcome=gateway_error status=%d type=%q", statusCode, errResp.Error.Type)
	return &GatewayError{TechnicalMessage: technical}
}
