package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parkhive/internal/models"
)

func (db *DB) GetWallet(ctx context.Context, userID int64) (*models.Wallet, error) {
	query := `SELECT id, user_id, balance, created_at, updated_at
              FROM wallets WHERE user_id = ?`
	var w models.Wallet
	err := db.QueryRowContext(ctx, query, userID).Scan(
		&w.ID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

// CreditWallet adds funds, creating the wallet row on first use.
func (db *DB) CreditWallet(ctx context.Context, userID int64, amount float64) error {
	query := `INSERT INTO wallets (user_id, balance, created_at, updated_at)
              VALUES (?, ?, ?, ?)
              ON CONFLICT(user_id) DO UPDATE SET
                balance = balance + excluded.balance,
                updated_at = excluded.updated_at`
	now := time.Now()
	_, err := db.ExecContext(ctx, query, userID, amount, now, now)
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	return nil
}

// DebitWallet removes funds. The insufficient-funds check and the
// mutation are one conditional statement so two concurrent debits can
// never both pass on the same balance read. A non-positive amount is
// rejected here too: it would satisfy `balance >= ?` and credit the
// wallet instead.
func (db *DB) DebitWallet(ctx context.Context, userID int64, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %v", amount)
	}
	query := `UPDATE wallets SET balance = balance - ?, updated_at = ?
              WHERE user_id = ? AND balance >= ?`
	result, err := db.ExecContext(ctx, query, amount, time.Now(), userID, amount)
	if err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// PayForRequest debits the request's settled amount and flips its paid
// flag in one transaction. The flag update carries a
// status/unpaid precondition, so a duplicate submission matches no
// rows and nothing is debited twice.
func (db *DB) PayForRequest(ctx context.Context, userID, requestID int64) (float64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var status string
	var isPaid bool
	var amount sql.NullFloat64
	querySelect := `SELECT status, is_paid, total_amount FROM parking_requests WHERE id = ?`
	err = tx.QueryRowContext(ctx, querySelect, requestID).Scan(&status, &isPaid, &amount)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read request in tx: %w", err)
	}
	if status != models.StatusEnded || isPaid || !amount.Valid {
		return 0, ErrAlreadyPaid
	}

	queryDebit := `UPDATE wallets SET balance = balance - ?, updated_at = ?
                   WHERE user_id = ? AND balance >= ?`
	result, err := tx.ExecContext(ctx, queryDebit, amount.Float64, time.Now(), userID, amount.Float64)
	if err != nil {
		return 0, fmt.Errorf("failed to debit wallet in tx: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return 0, ErrInsufficientFunds
	}

	queryPaid := `UPDATE parking_requests SET is_paid = 1, updated_at = ?
                  WHERE id = ? AND status = ? AND is_paid = 0`
	result, err = tx.ExecContext(ctx, queryPaid, time.Now(), requestID, models.StatusEnded)
	if err != nil {
		return 0, fmt.Errorf("failed to mark request paid in tx: %w", err)
	}
	rows, _ = result.RowsAffected()
	if rows == 0 {
		return 0, ErrAlreadyPaid
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit payment: %w", err)
	}
	return amount.Float64, nil
}
