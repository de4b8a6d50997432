// ===============================
// internal/services/wallet.go
// ===============================

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"interviewcredits/internal/models"

	"github.com/jmoiron/sqlx"
)

type WalletService struct {
	db *sqlx.DB
}

func NewWalletService(db *sqlx.DB) *WalletService {
	return &WalletService{db: db}
}

// GetOrCreateWallet returns the user's wallet, creating it with balance 0 on
// first access. The insert-or-fetch is atomic: concurrent calls race on the
// primary key and the loser falls through to the select.
func (s *WalletService) GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance_credits)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure wallet exists: %w", err)
	}

	var wallet models.Wallet
	err = s.db.GetContext(ctx, &wallet, `SELECT * FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wallet: %w", err)
	}

	return &wallet, nil
}

// GetWallet returns the wallet view: balance plus the most recent ledger
// entries (capped at 5 for the wallet screen).
func (s *WalletService) GetWallet(ctx context.Context, userID string) (*models.WalletResponse, error) {
	wallet, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.GetRecentTransactions(ctx, userID, 5)
	if err != nil {
		return nil, err
	}

	return &models.WalletResponse{
		BalanceCredits:   wallet.BalanceCredits,
		LastTransactions: transactions,
	}, nil
}

func (s *WalletService) GetRecentTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	query := `
		SELECT * FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	transactions := []models.Transaction{}
	err := s.db.SelectContext(ctx, &transactions, query, userID, limit)
	return transactions, err
}

// ListTransactions returns one ledger page ordered by created_at descending,
// plus the total row count for pagination.
func (s *WalletService) ListTransactions(ctx context.Context, userID string, skip, limit int) (*models.TransactionListResponse, error) {
	var total int
	err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `
		SELECT * FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`

	transactions := []models.Transaction{}
	if err := s.db.SelectContext(ctx, &transactions, query, userID, skip, limit); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &models.TransactionListResponse{
		Transactions: transactions,
		Total:        total,
	}, nil
}

// Credit atomically increases the balance and returns the new value. The
// wallet row is created on the fly for users who never opened the wallet
// screen before their first purchase settled.
func (s *WalletService) Credit(ctx context.Context, userID string, credits int) (int, error) {
	if credits <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", credits)
	}
	return creditWallet(ctx, s.db, userID, credits)
}

// Debit atomically decreases the balance if it covers the amount and appends
// the deduct ledger entry in the same transaction. Returns
// ErrInsufficientCredits without any mutation otherwise.
func (s *WalletService) Debit(ctx context.Context, userID string, credits int, description string) (int, error) {
	if credits <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", credits)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	newBalance, err := debitWallet(ctx, tx, userID, credits)
	if err != nil {
		return 0, err
	}

	if description == "" {
		description = "Credits spent"
	}
	_, err = appendTransaction(ctx, tx, &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeDeduct,
		Credits:     -credits,
		Currency:    "INR",
		Status:      models.TransactionStatusSuccess,
		Description: description,
	})
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit debit: %w", err)
	}

	return newBalance, nil
}

// Refund restores previously deducted credits with a refund ledger entry.
// Admin-only; reference points at what is being compensated.
func (s *WalletService) Refund(ctx context.Context, userID string, credits int, reference string) (int, error) {
	if credits <= 0 {
		return 0, fmt.Errorf("refund amount must be positive, got %d", credits)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	newBalance, err := creditWallet(ctx, tx, userID, credits)
	if err != nil {
		return 0, err
	}

	_, err = appendTransaction(ctx, tx, &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeRefund,
		Credits:     credits,
		Currency:    "INR",
		Status:      models.TransactionStatusSuccess,
		Description: "Credits refunded",
		ExternalRef: optionalString(reference),
	})
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit refund: %w", err)
	}

	return newBalance, nil
}

// Adjust applies a signed manual correction. Negative adjustments respect the
// non-negative balance constraint like any debit.
func (s *WalletService) Adjust(ctx context.Context, userID string, credits int, note string) (int, error) {
	if credits == 0 {
		return 0, fmt.Errorf("adjustment must be non-zero")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var newBalance int
	if credits > 0 {
		newBalance, err = creditWallet(ctx, tx, userID, credits)
	} else {
		newBalance, err = debitWallet(ctx, tx, userID, -credits)
	}
	if err != nil {
		return 0, err
	}

	if note == "" {
		note = "Manual adjustment"
	}
	_, err = appendTransaction(ctx, tx, &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeAdjust,
		Credits:     credits,
		Currency:    "INR",
		Status:      models.TransactionStatusSuccess,
		Description: note,
	})
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit adjustment: %w", err)
	}

	return newBalance, nil
}

// creditWallet adds credits inside the caller's unit of work and returns the
// new balance. The upsert keeps concurrent first-credit races safe and the
// row update serializes per-user mutations on the row lock.
func creditWallet(ctx context.Context, q sqlx.ExtContext, userID string, credits int) (int, error) {
	var newBalance int
	err := sqlx.GetContext(ctx, q, &newBalance, `
		INSERT INTO wallets (user_id, balance_credits, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE
			SET balance_credits = wallets.balance_credits + EXCLUDED.balance_credits,
			    updated_at = CURRENT_TIMESTAMP
		RETURNING balance_credits`, userID, credits)
	if err != nil {
		return 0, fmt.Errorf("failed to credit wallet: %w", err)
	}
	return newBalance, nil
}

// debitWallet subtracts credits inside the caller's unit of work. The guard
// in the WHERE clause makes overdraw impossible: zero matched rows means the
// balance did not cover the amount (or the wallet does not exist yet, which
// is the same thing at balance 0).
func debitWallet(ctx context.Context, q sqlx.ExtContext, userID string, credits int) (int, error) {
	var newBalance int
	err := sqlx.GetContext(ctx, q, &newBalance, `
		UPDATE wallets
		SET balance_credits = balance_credits - $1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $2 AND balance_credits >= $1
		RETURNING balance_credits`, credits, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInsufficientCredits
	}
	if err != nil {
		return 0, fmt.Errorf("failed to debit wallet: %w", err)
	}
	return newBalance, nil
}

// appendTransaction inserts an immutable ledger row and returns its id. There
// is deliberately no update or delete counterpart.
func appendTransaction(ctx context.Context, q sqlx.ExtContext, t *models.Transaction) (int64, error) {
	var id int64
	err := sqlx.GetContext(ctx, q, &id, `
		INSERT INTO transactions (
			user_id, type, credits, amount_inr, currency,
			payment_gateway, external_ref, status, description
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		t.UserID, t.Type, t.Credits, t.AmountINR, t.Currency,
		t.PaymentGateway, t.ExternalRef, t.Status, t.Description)
	if err != nil {
		return 0, fmt.Errorf("failed to append transaction: %w", err)
	}
	return id, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
