package database

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var schemaNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidSchemaName rejects anything that cannot be safely interpolated
// into a SET search_path statement.
func ValidSchemaName(schema string) bool {
	return schemaNamePattern.MatchString(schema)
}

// PinSchema pins search_path to the tenant schema for the duration of the
// current transaction. SET LOCAL reverts at TX end, so the pin can never
// leak onto a pooled connection. Schemas are a postgres concept; other
// dialects run a single namespace and need no pin.
func PinSchema(tx *gorm.DB, schema string) error {
	if !ValidSchemaName(schema) {
		return fmt.Errorf("invalid tenant schema %q", schema)
	}
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec(`SET LOCAL search_path = "` + schema + `", public`).Error
}

// GetTenantDB returns the request's tenant-pinned transaction as opened by
// middlewares.TenantTx. There is no non-transactional fallback: a plain
// session cannot pin search_path without poisoning a pooled connection.
func GetTenantDB(c *fiber.Ctx) (*gorm.DB, error) {
	if v := c.Locals("tx"); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx, nil
		}
	}
	return nil, errors.New("no tenant transaction in request context")
}

// TenantTxn runs fn inside a transaction pinned to the given tenant schema.
// Callers without a request context (the scheduler sweep, registration
// seeding) go through here instead of pinning a shared session.
func TenantTxn(schema string, fn func(tx *gorm.DB) error) error {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		return errors.New("tenant schema missing")
	}
	if DB == nil {
		return errors.New("database not initialized")
	}
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := PinSchema(tx, schema); err != nil {
			return err
		}
		return fn(tx)
	})
}

// TenantSchemas lists every registered tenant schema from the public
// companies table.
func TenantSchemas() ([]string, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var schemas []string
	err := DB.Table("public.companies").
		Where("schema_name <> ''").
		Pluck("schema_name", &schemas).Error
	return schemas, err
}
