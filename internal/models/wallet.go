// ===============================
// internal/models/wallet.go
// ===============================

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds one spendable credit balance per user. It is mutated only
// through WalletService credit/debit operations.
type Wallet struct {
	UserID         string    `json:"userId" db:"user_id"`
	BalanceCredits int       `json:"balanceCredits" db:"balance_credits"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// Transaction types
const (
	TransactionTypePurchase = "purchase"
	TransactionTypeDeduct   = "deduct"
	TransactionTypeRefund   = "refund"
	TransactionTypeAdjust   = "adjust"
)

// Transaction statuses. Ledger rows are appended already terminal; created
// exists to mirror the transactions status constraint and has no write path.
const (
	TransactionStatusCreated = "created"
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
)

// Transaction is an immutable ledger entry. Credits are signed: positive for
// purchase/refund, negative for deduct. Rows are never updated or deleted.
type Transaction struct {
	ID             int64            `json:"id" db:"id"`
	UserID         string           `json:"userId" db:"user_id"`
	Type           string           `json:"type" db:"type"`
	Credits        int              `json:"credits" db:"credits"`
	AmountINR      *decimal.Decimal `json:"amountInr" db:"amount_inr"`
	Currency       string           `json:"currency" db:"currency"`
	PaymentGateway *string          `json:"paymentGateway" db:"payment_gateway"`
	ExternalRef    *string          `json:"externalRef" db:"external_ref"`
	Status         string           `json:"status" db:"status"`
	Description    string           `json:"description" db:"description"`
	CreatedAt      time.Time        `json:"createdAt" db:"created_at"`
}

// WalletResponse is the wallet view returned to clients: current balance plus
// the five most recent ledger entries.
type WalletResponse struct {
	BalanceCredits   int           `json:"balanceCredits"`
	LastTransactions []Transaction `json:"lastTransactions"`
}

// TransactionListResponse is a paginated ledger page.
type TransactionListResponse struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
}
