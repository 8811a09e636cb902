package models

import "time"

// Subscription is the single per-tenant plan record. It lives in the
// tenant schema; limits are advisory soft caps checked before gated
// creations, usage columns are bumped only after the creation succeeded.
type Subscription struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Plan   string `json:"plan" gorm:"not null"`   // trial|monthly|quarterly|yearly|enterprise
	Status string `json:"status" gorm:"not null"` // trial|active|expired|cancelled

	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`

	MaxProducts  int `json:"max_products"`
	MaxCustomers int `json:"max_customers"`
	MaxInvoices  int `json:"max_invoices"`

	UsedProducts  int `json:"used_products"`
	UsedCustomers int `json:"used_customers"`
	UsedInvoices  int `json:"used_invoices"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlanLimits are the per-plan defaults applied on registration and on
// plan changes.
type PlanLimits struct {
	Products  int
	Customers int
	Invoices  int
	Days      int // period length
}

var planDefaults = map[string]PlanLimits{
	"trial":      {Products: 10, Customers: 10, Invoices: 20, Days: 14},
	"monthly":    {Products: 100, Customers: 200, Invoices: 500, Days: 30},
	"quarterly":  {Products: 250, Customers: 500, Invoices: 1500, Days: 90},
	"yearly":     {Products: 1000, Customers: 2000, Invoices: 6000, Days: 365},
	"enterprise": {Products: 100000, Customers: 100000, Invoices: 1000000, Days: 365},
}

// LimitsForPlan returns the defaults for plan, falling back to trial for
// anything unknown.
func LimitsForPlan(plan string) PlanLimits {
	if l, ok := planDefaults[plan]; ok {
		return l
	}
	return planDefaults["trial"]
}

func KnownPlan(plan string) bool {
	_, ok := planDefaults[plan]
	return ok
}
