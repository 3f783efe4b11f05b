package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations run in order at startup. Append only; never edit an applied
// entry.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS entities (
		id UUID PRIMARY KEY,
		app_id TEXT NOT NULL,
		name TEXT NOT NULL,
		gst_registered BOOLEAN NOT NULL DEFAULT FALSE,
		gstin TEXT NOT NULL DEFAULT '',
		pan TEXT NOT NULL DEFAULT '',
		place_of_supply TEXT NOT NULL DEFAULT '',
		invoice_prefix TEXT NOT NULL DEFAULT '',
		next_invoice_number BIGINT NOT NULL DEFAULT 1,
		address JSONB NOT NULL DEFAULT '{}',
		bank_details JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_app_name
		ON entities (app_id, lower(name))`,

	`CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY,
		app_id TEXT NOT NULL,
		name TEXT NOT NULL,
		gst_registered BOOLEAN NOT NULL DEFAULT FALSE,
		gstin TEXT NOT NULL DEFAULT '',
		pan TEXT NOT NULL DEFAULT '',
		place_of_supply TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		address JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_app_name
		ON customers (app_id, lower(name))`,

	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		app_id TEXT NOT NULL,
		name TEXT NOT NULL,
		hsn TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_app_name
		ON products (app_id, lower(name))`,

	`CREATE TABLE IF NOT EXISTS partners (
		id UUID PRIMARY KEY,
		app_id TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_partners_app_name
		ON partners (app_id, lower(name))`,

	`CREATE TABLE IF NOT EXISTS invoices (
		id UUID PRIMARY KEY,
		app_id TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		entity_id UUID NOT NULL REFERENCES entities (id),
		customer_id UUID NOT NULL REFERENCES customers (id),
		partner TEXT NOT NULL DEFAULT '',
		invoice_number TEXT NOT NULL,
		invoice_date TEXT NOT NULL,
		payment_terms INTEGER NOT NULL DEFAULT 10,
		due_date TEXT NOT NULL,
		gst_type TEXT NOT NULL DEFAULT '',
		gst_applicable BOOLEAN NOT NULL DEFAULT FALSE,
		items JSONB NOT NULL DEFAULT '[]',
		gross_total NUMERIC NOT NULL DEFAULT 0,
		total_discount NUMERIC NOT NULL DEFAULT 0,
		taxable_total NUMERIC NOT NULL DEFAULT 0,
		total_gst NUMERIC NOT NULL DEFAULT 0,
		total NUMERIC NOT NULL DEFAULT 0,
		igst NUMERIC NOT NULL DEFAULT 0,
		cgst NUMERIC NOT NULL DEFAULT 0,
		sgst NUMERIC NOT NULL DEFAULT 0,
		narration TEXT NOT NULL DEFAULT '',
		payment_date TEXT NOT NULL DEFAULT '',
		payment_received_in TEXT NOT NULL DEFAULT '',
		total_amount_received NUMERIC NOT NULL DEFAULT 0,
		tds_receivable NUMERIC NOT NULL DEFAULT 0,
		gst_tds NUMERIC NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_app_status ON invoices (app_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_app_entity ON invoices (app_id, entity_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_app_customer ON invoices (app_id, customer_id)`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
		id UUID PRIMARY KEY,
		app_id TEXT NOT NULL,
		action TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		user_name TEXT NOT NULL DEFAULT '',
		user_email TEXT NOT NULL DEFAULT '',
		ts TIMESTAMPTZ NOT NULL DEFAULT now(),
		changes JSONB NOT NULL DEFAULT '{}',
		invoice_id TEXT NOT NULL DEFAULT '',
		invoice_number TEXT NOT NULL DEFAULT '',
		amount NUMERIC NOT NULL DEFAULT 0,
		customer_name TEXT NOT NULL DEFAULT '',
		entity_name TEXT NOT NULL DEFAULT '',
		product_name TEXT NOT NULL DEFAULT '',
		partner_name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_app_ts ON audit_logs (app_id, ts DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_app_invoice ON audit_logs (app_id, invoice_id)`,

	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		app_id TEXT NOT NULL,
		email TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_login_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_app_email
		ON users (app_id, lower(email))`,

	`CREATE TABLE IF NOT EXISTS invitations (
		app_id TEXT NOT NULL,
		email TEXT NOT NULL,
		initial_role TEXT NOT NULL,
		status TEXT NOT NULL,
		invited_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		accepted_at TIMESTAMPTZ,
		accepted_by TEXT NOT NULL DEFAULT '',
		revoked_at TIMESTAMPTZ,
		PRIMARY KEY (app_id, email)
	)`,
}

// Migrate applies any pending schema migrations. Versions already recorded
// in schema_migrations are skipped, so startup is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var current int
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(ctx, migrations[i]); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, i+1); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", i+1, err)
		}
	}
	return nil
}
