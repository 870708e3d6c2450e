/**
 * @description
 * This file contains the transaction processing pipeline and the listing
 * queries. Processing a charge is a three-step state machine: persist the
 * record as NEW, call the gateway exactly once, finalize the record to
 * SUCCESS or ERROR. The finalize step runs on a context detached from the
 * caller so a dropped HTTP connection cannot leave a settled charge
 * unrecorded.
 *
 * @dependencies
 * - pkg/stripeclient: The external charge gateway client.
 * - internal/store: Transaction persistence.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/cardway/payment-service/internal/domain"
	"github.com/cardway/payment-service/internal/metrics"
	"github.com/cardway/payment-service/internal/store"
	"github.com/cardway/payment-service/pkg/stripeclient"
)

// ChargeGateway is the surface of the external payment gateway used by the
// processor. Satisfied by *stripeclient.Client.
type ChargeGateway interface {
	Charge(ctx context.Context, params stripeclient.ChargeParams) (*stripeclient.Charge, error)
}

// Service implements transaction processing and querying.
type Service struct {
	repo    store.Repository
	gateway ChargeGateway
	metrics metrics.Recorder
}

// NewService creates a Service.
func NewService(repo store.Repository, gateway ChargeGateway, recorder metrics.Recorder) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		metrics: recorder,
	}
}

// validateChargeRequest checks the caller-controlled inputs of a charge.
func validateChargeRequest(req domain.CreateTransactionRequest) error {
	switch {
	case req.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransactionRequest)
	case !domain.ValidCurrency(req.Currency):
		return fmt.Errorf("%w: unsupported currency %q", ErrInvalidTransactionRequest, req.Currency)
	case req.GatewayToken == "":
		return fmt.Errorf("%w: gateway token is required", ErrInvalidTransactionRequest)
	case req.Description == "":
		return fmt.Errorf("%w: description is required", ErrInvalidTransactionRequest)
	}
	return nil
}

// ProcessTransaction runs one charge attempt end to end for the given user.
// The returned transaction reflects the final persisted state; when the
// charge failed, the error describes why and the record is already ERROR.
//
// Ordering is deliberate: the NEW record is durable before the gateway sees
// the charge, and the gateway is called at most once per call regardless of
// how finalization goes.
func (s *Service) ProcessTransaction(ctx context.Context, userID uuid.UUID, req domain.CreateTransactionRequest) (*domain.Transaction, error) {
	if err := validateChargeRequest(req); err != nil {
		return nil, err
	}
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: unknown user", ErrInvalidTransactionRequest)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	tx := &domain.Transaction{
		ID:           uuid.New(),
		UserID:       user.ID,
		Description:  req.Description,
		Amount:       req.Amount,
		Currency:     req.Currency,
		GatewayToken: req.GatewayToken,
		GatewayEmail: req.GatewayEmail,
		Status:       domain.StatusNew,
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		if errors.Is(err, store.ErrDuplicateGatewayToken) {
			return nil, fmt.Errorf("%w: gateway token already used", ErrInvalidTransactionRequest)
		}
		return nil, fmt.Errorf("failed to create transaction record: %w", err)
	}
	log.Printf("level=info component=transaction_service msg=\"transaction created\" transaction_id=%s user_id=%s amount=%d currency=%s", tx.ID, user.ID, tx.Amount, tx.Currency)

	// Once the gateway might have moved money, the outcome must reach the
	// database even if the caller hangs up mid-request.
	chargeCtx := context.WithoutCancel(ctx)

	charge, chargeErr := s.gateway.Charge(chargeCtx, stripeclient.ChargeParams{
		Amount:      tx.Amount,
		Currency:    string(tx.Currency),
		Description: tx.Description,
		SourceToken: tx.GatewayToken,
	})
	if chargeErr != nil {
		return s.finalizeFailed(chargeCtx, tx, chargeErr)
	}

	if err := s.repo.MarkTransactionSucceeded(chargeCtx, tx.ID, charge.ID, charge.Status, charge.Fee); err != nil {
		// The money moved but the record says NEW. Reconciliation picks the
		// record up via the gateway token; all we can do here is shout.
		log.Printf("level=critical component=transaction_service msg=\"charge settled but finalization failed\" transaction_id=%s gateway_id=%s err=%v", tx.ID, charge.ID, err)
	} else {
		tx.Status = domain.StatusSuccess
		tx.GatewayID = &charge.ID
		tx.GatewayStatus = &charge.Status
		tx.Fee = &charge.Fee
	}

	s.recordChargeOutcome(metrics.ChargeOutcomeSettled)
	log.Printf("level=info component=transaction_service msg=\"charge settled\" transaction_id=%s gateway_id=%s fee=%d", tx.ID, charge.ID, charge.Fee)
	return tx, nil
}

// finalizeFailed writes the ERROR terminal state and maps the gateway error
// onto the service error surface.
func (s *Service) finalizeFailed(ctx context.Context, tx *domain.Transaction, chargeErr error) (*domain.Transaction, error) {
	if err := s.repo.MarkTransactionFailed(ctx, tx.ID, chargeErr.Error()); err != nil {
		log.Printf("level=error component=transaction_service msg=\"failed to finalize transaction to ERROR\" transaction_id=%s err=%v", tx.ID, err)
	} else {
		tx.Status = domain.StatusError
		msg := chargeErr.Error()
		tx.ErrorMessage = &msg
	}

	var declined *stripeclient.CardDeclinedError
	if errors.As(chargeErr, &declined) {
		s.recordChargeOutcome(metrics.ChargeOutcomeDeclined)
		log.Printf("level=warn component=transaction_service outcome=declined transaction_id=%s", tx.ID)
		return tx, &ChargeDeclinedError{CustomerMessage: declined.CustomerMessage, cause: chargeErr}
	}

	s.recordChargeOutcome(metrics.ChargeOutcomeUnavailable)
	log.Printf("level=error component=transaction_service outcome=gateway_error transaction_id=%s err=%v", tx.ID, chargeErr)
	return tx, fmt.Errorf("%w: %v", ErrChargeGatewayUnavailable, chargeErr)
}

// GetTransactionByID fetches one transaction owned by the given user. A
// record owned by someone else is indistinguishable from a missing one.
func (s *Service) GetTransactionByID(ctx context.Context, userID, transactionID uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.repo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		return nil, store.ErrTransactionNotFound
	}
	return tx, nil
}

// FilterTransactions returns one page of the user's transactions plus the
// total match count under the same filter.
func (s *Service) FilterTransactions(ctx context.Context, userID uuid.UUID, opts domain.TransactionListOptions) (*domain.TransactionPage, error) {
	transactions, err := s.repo.FilterTransactions(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to filter transactions: %w", err)
	}
	total, err := s.repo.CountTransactions(ctx, userID, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	return &domain.TransactionPage{Content: transactions, TotalElements: total}, nil
}

func (s *Service) recordChargeOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordChargeOutcome(outcome)
	}
}
