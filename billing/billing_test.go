package billing

import (
	"testing"
	"time"

	"abrechnung-backend/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory sqlite database with the tenant
// tables migrated. A single connection keeps the :memory: database alive
// across the pool.
func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func seedSubscription(t *testing.T, db *gorm.DB, status string, usedInvoices, maxInvoices int) *models.Subscription {
	t.Helper()
	now := time.Now().UTC()
	sub := &models.Subscription{
		Plan:               "monthly",
		Status:             status,
		CurrentPeriodStart: now.AddDate(0, 0, -1),
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
		MaxProducts:        100,
		MaxCustomers:       100,
		MaxInvoices:        maxInvoices,
		UsedInvoices:       usedInvoices,
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func seedCustomer(t *testing.T, db *gorm.DB, interState bool) *models.Customer {
	t.Helper()
	cust := &models.Customer{
		CompanyName:  "Acme Trading",
		Address:      "1 Market Road",
		City:         "Pune",
		Country:      "IN",
		Zip:          "411001",
		Email:        "billing@acme.test",
		TaxNumber:    "27AAACA1234F1Z5",
		StateCode:    "27",
		IsInterState: interState,
		Active:       true,
	}
	require.NoError(t, db.Create(cust).Error)
	return cust
}

func seedTemplate(t *testing.T, db *gorm.DB, customerID uint, next time.Time, end *time.Time) *models.RecurringInvoice {
	t.Helper()
	tmpl := &models.RecurringInvoice{
		CId:             customerID,
		Frequency:       string(FrequencyMonthly),
		Interval:        1,
		NextInvoiceDate: next,
		EndDate:         end,
		Status:          string(TemplateActive),
		Items: []models.RecurringInvoiceItem{
			{Name: "Hosting", UnitPrice: 100, Quantity: 2, DiscountPercent: 10, TaxRate: 18},
		},
	}
	require.NoError(t, db.Create(tmpl).Error)
	return tmpl
}

func invoiceCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&n).Error)
	return n
}
