package database

import (
	"fmt"

	"abrechnung-backend/models"

	"gorm.io/gorm"
)

// MigrateTenantSchema applies (idempotent) schema migrations for a single tenant schema.
// It pins search_path to the tenant and performs:
// - AutoMigrate (tables/columns)
// - Money column types (NUMERIC(12,2))
// - Indexes (invoices, recurring schedule scans, payments)
// - Basic CHECK constraints
// - Idempotency keys table + unique index
func MigrateTenantSchema(schema string) error {
	if schema == "" {
		return fmt.Errorf("schema name is empty")
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		// Pin the tenant schema for this transaction
		if err := tx.Exec(`SET search_path = "` + schema + `", public`).Error; err != nil {
			return fmt.Errorf("set search_path failed: %w", err)
		}

		// --- AutoMigrate tables/columns/index tags (non-destructive) ---
		if err := tx.AutoMigrate(
			&models.Product{},
			&models.Customer{},
			&models.Subscription{},
			&models.RecurringInvoice{},
			&models.RecurringInvoiceItem{},
			&models.Invoice{},
			&models.InvoiceItem{},
			&models.Payment{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("tenant automigrate failed: %w", err)
		}

		// --- Enforce money columns as NUMERIC (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE products                ALTER COLUMN unit_price      TYPE numeric(12,2)`,
			`ALTER TABLE customers               ALTER COLUMN lifetime_spend  TYPE numeric(14,2)`,
			`ALTER TABLE recurring_invoice_items ALTER COLUMN unit_price      TYPE numeric(12,2)`,
			`ALTER TABLE invoices                ALTER COLUMN subtotal        TYPE numeric(12,2)`,
			`ALTER TABLE invoices                ALTER COLUMN total_discount  TYPE numeric(12,2)`,
			`ALTER TABLE invoices                ALTER COLUMN total_taxable   TYPE numeric(12,2)`,
			`ALTER TABLE invoices                ALTER COLUMN total_cgst      TYPE numeric(12,2)`,
			`ALTER TABLE invoices                ALTER COLUMN total_sgst      TYPE numeric(12,2)`,
			`ALTER TABLE invoices                ALTER COLUMN total_igst      TYPE numeric(12,2)`,
			`ALTER TABLE invoices                ALTER COLUMN grand_total     TYPE numeric(12,2)`,
			`ALTER TABLE invoices                ALTER COLUMN paid_total      TYPE numeric(12,2)`,
			`ALTER TABLE invoice_items           ALTER COLUMN unit_price      TYPE numeric(12,2)`,
			`ALTER TABLE invoice_items           ALTER COLUMN taxable_amount  TYPE numeric(12,2)`,
			`ALTER TABLE invoice_items           ALTER COLUMN line_net        TYPE numeric(12,2)`,
			`ALTER TABLE payments                ALTER COLUMN amount          TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Composite / helpful indexes (idempotent) ---
		indexes := []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_invoice_number ON invoices (invoice_number)`,
			`CREATE INDEX IF NOT EXISTS idx_recurring_due ON recurring_invoices (status, next_invoice_date)`,
			`CREATE INDEX IF NOT EXISTS idx_invoices_recurring ON invoices (recurring_invoice_id)`,
			`CREATE INDEX IF NOT EXISTS idx_payments_invoice_paid_at ON payments (invoice_id, paid_at)`,
			`CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice ON invoice_items (invoice_id)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'recurring_invoices'::regclass
					  AND conname  = 'chk_recurring_interval_positive'
				) THEN
					ALTER TABLE recurring_invoices
					ADD CONSTRAINT chk_recurring_interval_positive
					CHECK ("interval" > 0);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'recurring_invoice_items'::regclass
					  AND conname  = 'chk_recurring_items_quantity_positive'
				) THEN
					ALTER TABLE recurring_invoice_items
					ADD CONSTRAINT chk_recurring_items_quantity_positive
					CHECK (quantity > 0);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'subscriptions'::regclass
					  AND conname  = 'chk_subscriptions_usage_nonneg'
				) THEN
					ALTER TABLE subscriptions
					ADD CONSTRAINT chk_subscriptions_usage_nonneg
					CHECK (used_products >= 0 AND used_customers >= 0 AND used_invoices >= 0);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'payments'::regclass
					  AND conname  = 'chk_payments_amount_nonneg'
				) THEN
					ALTER TABLE payments
					ADD CONSTRAINT chk_payments_amount_nonneg
					CHECK (amount >= 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
