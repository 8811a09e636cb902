package billing

import (
	"testing"
	"time"

	"abrechnung-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSubscriptionActive(t *testing.T) {
	now := time.Now().UTC()

	t.Run("missing record fails closed", func(t *testing.T) {
		db := newTestDB(t)
		state, err := CheckSubscriptionActive(db, now)
		require.NoError(t, err)
		assert.False(t, state.IsActive)
		assert.Equal(t, "missing", state.Status)
	})

	t.Run("trial within period is active", func(t *testing.T) {
		db := newTestDB(t)
		seedSubscription(t, db, string(SubscriptionTrial), 0, 10)
		state, err := CheckSubscriptionActive(db, now)
		require.NoError(t, err)
		assert.True(t, state.IsActive)
		assert.Equal(t, "monthly", state.Plan)
	})

	t.Run("cancelled is inactive", func(t *testing.T) {
		db := newTestDB(t)
		seedSubscription(t, db, string(SubscriptionCancelled), 0, 10)
		state, err := CheckSubscriptionActive(db, now)
		require.NoError(t, err)
		assert.False(t, state.IsActive)
	})

	t.Run("past period end is inactive even when status says active", func(t *testing.T) {
		db := newTestDB(t)
		sub := seedSubscription(t, db, string(SubscriptionActive), 0, 10)
		require.NoError(t, db.Model(sub).
			Update("current_period_end", now.AddDate(0, 0, -1)).Error)
		state, err := CheckSubscriptionActive(db, now)
		require.NoError(t, err)
		assert.False(t, state.IsActive)
	})

	t.Run("exposes usage and limits", func(t *testing.T) {
		db := newTestDB(t)
		seedSubscription(t, db, string(SubscriptionActive), 7, 20)
		state, err := CheckSubscriptionActive(db, now)
		require.NoError(t, err)
		assert.Equal(t, 7, state.Usage[ResourceInvoices])
		assert.Equal(t, 20, state.Limits[ResourceInvoices])
	})
}

func TestCheckUsageLimitBoundary(t *testing.T) {
	now := time.Now().UTC()

	t.Run("one below limit proceeds", func(t *testing.T) {
		db := newTestDB(t)
		seedSubscription(t, db, string(SubscriptionActive), 9, 10)
		check, err := CheckUsageLimit(db, ResourceInvoices, 1, now)
		require.NoError(t, err)
		assert.True(t, check.CanProceed)
		assert.Equal(t, 9, check.Used)
		assert.Equal(t, 10, check.Limit)
	})

	t.Run("at limit is rejected", func(t *testing.T) {
		db := newTestDB(t)
		seedSubscription(t, db, string(SubscriptionActive), 10, 10)
		check, err := CheckUsageLimit(db, ResourceInvoices, 1, now)
		require.NoError(t, err)
		assert.False(t, check.CanProceed)
	})

	t.Run("batch increment counts fully", func(t *testing.T) {
		db := newTestDB(t)
		seedSubscription(t, db, string(SubscriptionActive), 8, 10)
		check, err := CheckUsageLimit(db, ResourceInvoices, 3, now)
		require.NoError(t, err)
		assert.False(t, check.CanProceed)
	})

	t.Run("check never mutates usage", func(t *testing.T) {
		db := newTestDB(t)
		sub := seedSubscription(t, db, string(SubscriptionActive), 5, 10)
		_, err := CheckUsageLimit(db, ResourceInvoices, 1, now)
		require.NoError(t, err)

		var reloaded models.Subscription
		require.NoError(t, db.First(&reloaded, sub.ID).Error)
		assert.Equal(t, 5, reloaded.UsedInvoices)
	})

	t.Run("expired subscription is a distinguished failure", func(t *testing.T) {
		db := newTestDB(t)
		seedSubscription(t, db, string(SubscriptionExpired), 0, 10)
		_, err := CheckUsageLimit(db, ResourceInvoices, 1, now)
		require.Error(t, err)
		be, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindExpired, be.Kind)
	})

	t.Run("bad inputs rejected", func(t *testing.T) {
		db := newTestDB(t)
		seedSubscription(t, db, string(SubscriptionActive), 0, 10)
		_, err := CheckUsageLimit(db, Resource("widgets"), 1, now)
		assert.Error(t, err)
		_, err = CheckUsageLimit(db, ResourceInvoices, 0, now)
		assert.Error(t, err)
	})
}

func TestAuthorize(t *testing.T) {
	now := time.Now().UTC()
	db := newTestDB(t)
	seedSubscription(t, db, string(SubscriptionActive), 10, 10)

	err := Authorize(db, ResourceInvoices, 1, now)
	require.Error(t, err)
	be, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindLimitExceeded, be.Kind)
	assert.Equal(t, 10, be.Details["used"])
	assert.Equal(t, 10, be.Details["limit"])
}
