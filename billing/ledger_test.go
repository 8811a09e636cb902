package billing

import (
	"testing"

	"abrechnung-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementAccumulates(t *testing.T) {
	db := newTestDB(t)
	sub := seedSubscription(t, db, string(SubscriptionActive), 0, 100)

	require.NoError(t, Increment(db, ResourceInvoices, 1))
	require.NoError(t, Increment(db, ResourceInvoices, 1))
	require.NoError(t, Increment(db, ResourceCustomers, 3))

	var reloaded models.Subscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, 2, reloaded.UsedInvoices)
	assert.Equal(t, 3, reloaded.UsedCustomers)
	assert.Equal(t, 0, reloaded.UsedProducts)
}

func TestIncrementValidation(t *testing.T) {
	db := newTestDB(t)
	seedSubscription(t, db, string(SubscriptionActive), 0, 100)

	assert.Error(t, Increment(db, Resource("widgets"), 1))
	assert.Error(t, Increment(db, ResourceInvoices, 0))
	assert.Error(t, Increment(db, ResourceInvoices, -4))
}

func TestIncrementWithoutSubscription(t *testing.T) {
	db := newTestDB(t)

	err := Increment(db, ResourceInvoices, 1)
	require.Error(t, err)
	be, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, be.Kind)
}
