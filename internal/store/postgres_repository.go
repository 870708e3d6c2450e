/**
 * @description
 * This file contains the PostgreSQL implementation of the `Repository`
 * interface using the pgx/v5 driver. All SQL lives here; the business
 * services above it only see domain models and sentinel errors.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and connection pooling.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/cardway/payment-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors returned by the repository. Handlers translate these into
// HTTP status codes; services use them for branching.
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrResetTokenNotFound    = errors.New("reset token not found")
	ErrDuplicateEmail        = errors.New("email already taken")
	ErrDuplicateGatewayToken = errors.New("gateway token already used")
)

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// PostgresRepository is the pgx-backed implementation of Repository.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository instance.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, first_name, last_name, phone_number, user_role, password_hash,
       reset_token, failed_login_attempts, is_blocked, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PhoneNumber,
		&user.Role,
		&user.PasswordHash,
		&user.ResetToken,
		&user.FailedLoginAttempts,
		&user.Blocked,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new user record and returns its id.
func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) (uuid.UUID, error) {
	query := `
		INSERT INTO users (id, email, first_name, last_name, phone_number, user_role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	var userID uuid.UUID
	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PhoneNumber,
		user.Role,
		user.PasswordHash,
	).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, ErrDuplicateEmail
		}
		return uuid.Nil, err
	}
	return userID, nil
}

// FindUserByID retrieves a user by primary key.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, userID))
}

// FindUserByEmail retrieves a user by email, matched case-insensitively.
func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// FindUserByResetToken retrieves the user holding an outstanding reset token.
func (r *PostgresRepository) FindUserByResetToken(ctx context.Context, resetToken string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, resetToken))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrResetTokenNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateUserData persists editable profile fields.
func (r *PostgresRepository) UpdateUserData(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET email = $1, first_name = $2, last_name = $3, phone_number = $4, updated_at = NOW()
		WHERE id = $5
	`
	result, err := r.db.Exec(ctx, query, user.Email, user.FirstName, user.LastName, user.PhoneNumber, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePasswordHash stores a freshly hashed password.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, passwordHash, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetResetToken attaches a recovery token to the account.
func (r *PostgresRepository) SetResetToken(ctx context.Context, userID uuid.UUID, resetToken string) error {
	query := `UPDATE users SET reset_token = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, resetToken, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResetPasswordByToken stores the new hash, clears the failure counters and
// consumes the reset token in a single statement. Clearing is_blocked here
// is intentional: password reset is the one unblock path.
func (r *PostgresRepository) ResetPasswordByToken(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1,
		    failed_login_attempts = 0,
		    is_blocked = FALSE,
		    reset_token = NULL,
		    updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.db.Exec(ctx, query, passwordHash, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RecordLoginFailure applies the lockout policy to the account's counters
// inside one database transaction. The row is locked for the duration of
// the read-modify-write, so an individual call can never base its write on
// a stale read.
func (r *PostgresRepository) RecordLoginFailure(ctx context.Context, userID uuid.UUID, apply func(failedAttempts int, blocked bool) (int, bool)) (*LoginSecurityState, error) {
	var state LoginSecurityState
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var failedAttempts int
		var blocked bool
		row := tx.QueryRow(ctx, `SELECT failed_login_attempts, is_blocked FROM users WHERE id = $1 FOR UPDATE`, userID)
		if err := row.Scan(&failedAttempts, &blocked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}

		newAttempts, newBlocked := apply(failedAttempts, blocked)
		_, err := tx.Exec(ctx,
			`UPDATE users SET failed_login_attempts = $1, is_blocked = $2, updated_at = NOW() WHERE id = $3`,
			newAttempts, newBlocked, userID,
		)
		if err != nil {
			return err
		}
		state = LoginSecurityState{FailedAttempts: newAttempts, Blocked: newBlocked}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// ResetLoginFailureState zeroes the failure counter after a successful
// login. The blocked flag is deliberately left alone.
func (r *PostgresRepository) ResetLoginFailureState(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET failed_login_attempts = 0, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

const transactionColumns = `id, user_id, description, amount, currency, gateway_token, gateway_email,
       gateway_id, gateway_status, fee, status, error_message, created_at, updated_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Description,
		&tx.Amount,
		&tx.Currency,
		&tx.GatewayToken,
		&tx.GatewayEmail,
		&tx.GatewayID,
		&tx.GatewayStatus,
		&tx.Fee,
		&tx.Status,
		&tx.ErrorMessage,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// CreateTransaction inserts the initial NEW record. This write completes
// before the gateway is called so that a crash mid-charge still leaves an
// auditable row behind.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO payment_transactions (id, user_id, description, amount, currency, gateway_token, gateway_email, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Description,
		tx.Amount,
		tx.Currency,
		tx.GatewayToken,
		tx.GatewayEmail,
		tx.Status,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateGatewayToken
	}
	return err
}

// FindTransactionByID retrieves one transaction record.
func (r *PostgresRepository) FindTransactionByID(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE id = $1`
	return scanTransaction(r.db.QueryRow(ctx, query, transactionID))
}

// FindTransactionByGatewayToken retrieves a record by the caller-supplied
// source token, which is unique per charge attempt.
func (r *PostgresRepository) FindTransactionByGatewayToken(ctx context.Context, gatewayToken string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE gateway_token = $1`
	return scanTransaction(r.db.QueryRow(ctx, query, gatewayToken))
}

// MarkTransactionSucceeded finalizes a record to SUCCESS. The status guard
// keeps terminal states terminal: a record that already left NEW is not
// rewritten.
func (r *PostgresRepository) MarkTransactionSucceeded(ctx context.Context, transactionID uuid.UUID, gatewayID, gatewayStatus string, fee int64) error {
	query := `
		UPDATE payment_transactions
		SET status = $1, gateway_id = $2, gateway_status = $3, fee = $4, error_message = NULL, updated_at = NOW()
		WHERE id = $5 AND status = $6
	`
	result, err := r.db.Exec(ctx, query, domain.StatusSuccess, gatewayID, gatewayStatus, fee, transactionID, domain.StatusNew)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// MarkTransactionFailed finalizes a record to ERROR with the technical
// detail of what the gateway reported.
func (r *PostgresRepository) MarkTransactionFailed(ctx context.Context, transactionID uuid.UUID, errorMessage string) error {
	query := `
		UPDATE payment_transactions
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.Exec(ctx, query, domain.StatusError, errorMessage, transactionID, domain.StatusNew)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// FilterTransactions runs the composed filter/sort/pagination query for one
// user's transactions.
func (r *PostgresRepository) FilterTransactions(ctx context.Context, userID uuid.UUID, opts domain.TransactionListOptions) ([]domain.Transaction, error) {
	whereSQL, args := buildTransactionPredicates(userID, opts.Filter)
	query := fmt.Sprintf(
		`SELECT %s FROM payment_transactions WHERE %s %s LIMIT $%d OFFSET $%d`,
		transactionColumns,
		whereSQL,
		buildTransactionOrderBy(opts.SortField, opts.Ascending),
		len(args)+1,
		len(args)+2,
	)
	args = append(args, normalizeLimit(opts.Limit), normalizeOffset(opts.Offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, rows.Err()
}

// CountTransactions returns the total number of records matching the same
// predicate set, independent of pagination.
func (r *PostgresRepository) CountTransactions(ctx context.Context, userID uuid.UUID, filter domain.TransactionFilter) (int64, error) {
	whereSQL, args := buildTransactionPredicates(userID, filter)
	query := `SELECT COUNT(DISTINCT id) FROM payment_transactions WHERE ` + whereSQL

	var total int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
