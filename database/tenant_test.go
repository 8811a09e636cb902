package database

import (
	"errors"
	"testing"

	"abrechnung-backend/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTenantTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Customer{}))

	prev := DB
	DB = db
	t.Cleanup(func() { DB = prev })
	return db
}

func TestTenantTxnCommitsOnSuccess(t *testing.T) {
	db := newTenantTestDB(t)

	err := TenantTxn("acme", func(tx *gorm.DB) error {
		return tx.Create(&models.Customer{
			CompanyName: "Acme Trading",
			Address:     "1 Market Road",
			City:        "Pune",
			Country:     "IN",
			Zip:         "411001",
			Email:       "billing@acme.test",
		}).Error
	})
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&models.Customer{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestTenantTxnRollsBackOnError(t *testing.T) {
	db := newTenantTestDB(t)
	boom := errors.New("boom")

	err := TenantTxn("acme", func(tx *gorm.DB) error {
		if err := tx.Create(&models.Customer{
			CompanyName: "Acme Trading",
			Address:     "1 Market Road",
			City:        "Pune",
			Country:     "IN",
			Zip:         "411001",
			Email:       "billing@acme.test",
		}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, db.Model(&models.Customer{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
}

func TestTenantTxnValidatesSchema(t *testing.T) {
	newTenantTestDB(t)

	for _, schema := range []string{"", `acme"; drop table customers; --`, "Acme"} {
		err := TenantTxn(schema, func(tx *gorm.DB) error { return nil })
		assert.Error(t, err, schema)
	}
}
