package billing

import (
	"abrechnung-backend/models"

	"gorm.io/gorm"
)

var usageColumns = map[Resource]string{
	ResourceProducts:  "used_products",
	ResourceCustomers: "used_customers",
	ResourceInvoices:  "used_invoices",
}

// Increment adds n to the tenant's stored counter for resource. The
// bump happens in a single UPDATE so concurrent creations cannot lose
// increments to a read-modify-write race. Call it only after the guarded
// creation succeeded; this flow never decrements (deletion flows own
// that).
func Increment(db *gorm.DB, resource Resource, n int) error {
	col, ok := usageColumns[resource]
	if !ok {
		return NewValidation("unknown resource kind " + string(resource))
	}
	if n <= 0 {
		return NewValidation("increment must be positive")
	}

	// One subscription row per tenant schema, so the update is deliberately
	// unscoped within the tenant.
	res := db.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&models.Subscription{}).
		Update(col, gorm.Expr(col+" + ?", n))
	if res.Error != nil {
		return NewTransient("usage increment failed", res.Error)
	}
	if res.RowsAffected == 0 {
		return NewNotFound("subscription")
	}
	return nil
}
