package controllers

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"abrechnung-backend/middlewares"
	"abrechnung-backend/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestApp builds a fiber app with the production error handler, a
// fresh in-memory tenant database exposed as the request transaction
// local, and the handler routes under test.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Subscription{},
		&models.Customer{},
		&models.Product{},
		&models.RecurringInvoice{},
		&models.RecurringInvoiceItem{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
	))

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("schema", "acme")
		c.Locals("userID", "user-1")
		c.Locals("tx", db)
		return c.Next()
	})

	app.Post("/api/logout", Logout)
	app.Put("/api/recurring-invoice/:id", UpdateRecurringInvoice)
	app.Post("/api/invoices/:id/payments", CreatePayment)

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}
