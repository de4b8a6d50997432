package services

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestGetOrCreateWallet_CreatesOnFirstAccess(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWalletService(db)

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM wallets`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance_credits", "updated_at"}).
			AddRow("user-1", 0, time.Now()))

	wallet, err := svc.GetOrCreateWallet(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", wallet.UserID)
	assert.Equal(t, 0, wallet.BalanceCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredit_ReturnsNewBalance(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWalletService(db)

	mock.ExpectQuery("INSERT INTO wallets").
		WithArgs("user-1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"balance_credits"}).AddRow(10))

	balance, err := svc.Credit(context.Background(), "user-1", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredit_RejectsNonPositiveAmount(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewWalletService(db)

	_, err := svc.Credit(context.Background(), "user-1", 0)
	assert.Error(t, err)

	_, err = svc.Credit(context.Background(), "user-1", -5)
	assert.Error(t, err)
}

func TestDebit_SpendsAndAppendsLedgerRow(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWalletService(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE wallets").
		WithArgs(3, "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance_credits"}).AddRow(7))
	mock.ExpectQuery("INSERT INTO transactions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	balance, err := svc.Debit(context.Background(), "user-1", 3, "Mock interview session")
	require.NoError(t, err)
	assert.Equal(t, 7, balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebit_InsufficientBalanceLeavesWalletUntouched(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWalletService(db)

	// Guarded update matches no row when balance < amount; the transaction
	// rolls back without touching the ledger.
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE wallets").
		WithArgs(5, "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance_credits"}))
	mock.ExpectRollback()

	_, err := svc.Debit(context.Background(), "user-1", 5, "")
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefund_CreditsBackWithRefundRow(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWalletService(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO wallets").
		WithArgs("user-1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"balance_credits"}).AddRow(8))
	mock.ExpectQuery("INSERT INTO transactions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()

	balance, err := svc.Refund(context.Background(), "user-1", 5, "interview-42")
	require.NoError(t, err)
	assert.Equal(t, 8, balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjust_NegativeAdjustmentUsesDebitGuard(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWalletService(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE wallets").
		WithArgs(4, "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance_credits"}))
	mock.ExpectRollback()

	_, err := svc.Adjust(context.Background(), "user-1", -4, "correction")
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTransactions_ReturnsPageAndTotal(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWalletService(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT \* FROM transactions`).
		WithArgs("user-1", 0, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "credits", "currency", "status", "description"}).
			AddRow(int64(1), "user-1", "purchase", 10, "INR", "success", "Purchased 10 credits").
			AddRow(int64(2), "user-1", "deduct", -1, "INR", "success", "Credits spent"))

	page, err := svc.ListTransactions(context.Background(), "user-1", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, "purchase", page.Transactions[0].Type)
	assert.Equal(t, -1, page.Transactions[1].Credits)
	assert.NoError(t, mock.ExpectationsWereMet())
}
