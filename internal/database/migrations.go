// ===============================
// internal/database/migrations.go
// ===============================

package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

func RunMigrations(db *sqlx.DB) error {
	log.Println("📄 Running wallet and payment migrations...")

	// Check if migrations table exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			version VARCHAR(255) UNIQUE NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := []Migration{
		{
			Version: "001_wallets_and_ledger",
			Query: `
				-- Wallets: one balance row per user, created on first access.
				CREATE TABLE IF NOT EXISTS wallets (
					user_id VARCHAR(255) PRIMARY KEY,
					balance_credits INTEGER NOT NULL DEFAULT 0,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT wallets_balance_non_negative CHECK (balance_credits >= 0)
				);

				-- Transactions: append-only ledger, the unit of audit truth.
				CREATE TABLE IF NOT EXISTS transactions (
					id BIGSERIAL PRIMARY KEY,
					user_id VARCHAR(255) NOT NULL,
					type VARCHAR(50) NOT NULL,
					credits INTEGER NOT NULL,
					amount_inr NUMERIC(10,2),
					currency VARCHAR(10) NOT NULL DEFAULT 'INR',
					payment_gateway VARCHAR(50),
					external_ref VARCHAR(255),
					status VARCHAR(50) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT transactions_type_check
						CHECK (type IN ('purchase', 'deduct', 'refund', 'adjust')),
					CONSTRAINT transactions_status_check
						CHECK (status IN ('created', 'success', 'failed'))
				);

				CREATE INDEX IF NOT EXISTS idx_transactions_user_created
					ON transactions(user_id, created_at DESC);
			`,
		},
		{
			Version: "002_payments",
			Query: `
				-- Payments: one row per gateway order. order_id is the
				-- idempotency key for webhook settlement.
				CREATE TABLE IF NOT EXISTS payments (
					id BIGSERIAL PRIMARY KEY,
					user_id VARCHAR(255) NOT NULL,
					order_id VARCHAR(255) UNIQUE NOT NULL,
					amount_inr NUMERIC(10,2) NOT NULL,
					currency VARCHAR(10) NOT NULL DEFAULT 'INR',
					status VARCHAR(50) NOT NULL DEFAULT 'created',
					method VARCHAR(50) NOT NULL DEFAULT 'UPI',
					payload_json JSONB,
					signature VARCHAR(500),
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT payments_status_check
						CHECK (status IN ('created', 'success', 'failed'))
				);

				CREATE INDEX IF NOT EXISTS idx_payments_user_created
					ON payments(user_id, created_at DESC);
			`,
		},
	}

	for _, migration := range migrations {
		if err := applyMigration(db, migration); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}
	}

	log.Println("✅ All migrations applied")
	return nil
}

type Migration struct {
	Version string
	Query   string
}

func applyMigration(db *sqlx.DB, migration Migration) error {
	// Check if migration already applied
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM migrations WHERE version = $1", migration.Version).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check migration status: %w", err)
	}

	if count > 0 {
		log.Printf("⏭️  Migration %s already applied, skipping", migration.Version)
		return nil
	}

	log.Printf("🔧 Applying migration: %s", migration.Version)

	// Apply migration in a transaction
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(migration.Query)
	if err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
	}

	_, err = tx.Exec("INSERT INTO migrations (version) VALUES ($1)", migration.Version)
	if err != nil {
		return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", migration.Version, err)
	}

	log.Printf("✅ Migration %s applied successfully", migration.Version)
	return nil
}
