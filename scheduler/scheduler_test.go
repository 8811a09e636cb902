package scheduler

import (
	"testing"
	"time"

	"abrechnung-backend/billing"
	"abrechnung-backend/database"
	"abrechnung-backend/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSweepDB(t *testing.T) *gorm.DB {
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
		&models.RecurringInvoice{},
		&models.RecurringInvoiceItem{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
	))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
	return db
}

func seedSweepTemplate(t *testing.T, db *gorm.DB, customerID uint, next time.Time, status billing.TemplateStatus) *models.RecurringInvoice {
	t.Helper()
	tmpl := &models.RecurringInvoice{
		CId:             customerID,
		Frequency:       string(billing.FrequencyMonthly),
		Interval:        1,
		NextInvoiceDate: next,
		Status:          string(status),
		Items: []models.RecurringInvoiceItem{
			{Name: "Hosting", UnitPrice: 100, Quantity: 1, TaxRate: 18},
		},
	}
	require.NoError(t, db.Create(tmpl).Error)
	return tmpl
}

// The sweep generates exactly one invoice per due active template and
// leaves future or paused templates alone.
func TestSweepTenantRunsOnlyDueActiveTemplates(t *testing.T) {
	db := newSweepDB(t)
	now := time.Now().UTC()

	require.NoError(t, db.Create(&models.Subscription{
		Plan:               "monthly",
		Status:             string(billing.SubscriptionActive),
		CurrentPeriodStart: now.AddDate(0, 0, -1),
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
		MaxProducts:        100,
		MaxCustomers:       100,
		MaxInvoices:        100,
	}).Error)

	cust := &models.Customer{
		CompanyName: "Acme Trading",
		Address:     "1 Market Road",
		City:        "Pune",
		Country:     "IN",
		Zip:         "411001",
		Email:       "billing@acme.test",
		Active:      true,
	}
	require.NoError(t, db.Create(cust).Error)

	due := seedSweepTemplate(t, db, cust.Id, now.AddDate(0, 0, -1), billing.TemplateActive)
	future := seedSweepTemplate(t, db, cust.Id, now.AddDate(0, 0, 5), billing.TemplateActive)
	paused := seedSweepTemplate(t, db, cust.Id, now.AddDate(0, 0, -1), billing.TemplatePaused)

	s := New(zap.NewNop())
	s.sweepTenant("acme", now)

	var n int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	var inv models.Invoice
	require.NoError(t, db.First(&inv).Error)
	require.NotNil(t, inv.RecurringInvoiceID)
	assert.Equal(t, due.ID, *inv.RecurringInvoiceID)

	var reloaded models.RecurringInvoice
	require.NoError(t, db.First(&reloaded, due.ID).Error)
	assert.True(t, reloaded.NextInvoiceDate.After(now), "due template must be advanced")

	reloaded = models.RecurringInvoice{}
	require.NoError(t, db.First(&reloaded, future.ID).Error)
	assert.Equal(t, 0, reloaded.TotalGenerated)
	reloaded = models.RecurringInvoice{}
	require.NoError(t, db.First(&reloaded, paused.ID).Error)
	assert.Equal(t, 0, reloaded.TotalGenerated)
}

// A tenant whose subscription lapsed is skipped without aborting the sweep
// or touching the schedule.
func TestSweepTenantSkipsGatedTemplates(t *testing.T) {
	db := newSweepDB(t)
	now := time.Now().UTC()

	require.NoError(t, db.Create(&models.Subscription{
		Plan:               "monthly",
		Status:             string(billing.SubscriptionExpired),
		CurrentPeriodStart: now.AddDate(0, -2, 0),
		CurrentPeriodEnd:   now.AddDate(0, -1, 0),
		MaxInvoices:        100,
	}).Error)

	cust := &models.Customer{
		CompanyName: "Acme Trading",
		Address:     "1 Market Road",
		City:        "Pune",
		Country:     "IN",
		Zip:         "411001",
		Email:       "billing@acme.test",
		Active:      true,
	}
	require.NoError(t, db.Create(cust).Error)

	next := now.AddDate(0, 0, -1)
	tmpl := seedSweepTemplate(t, db, cust.Id, next, billing.TemplateActive)

	s := New(zap.NewNop())
	s.sweepTenant("acme", now)

	var n int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)

	var reloaded models.RecurringInvoice
	require.NoError(t, db.First(&reloaded, tmpl.ID).Error)
	assert.True(t, reloaded.NextInvoiceDate.Equal(next), "gated template must not be advanced")
}
