package billing

import (
	"errors"
	"time"

	"abrechnung-backend/models"

	"gorm.io/gorm"
)

// Resource is a metered resource kind gated by the subscription.
type Resource string

const (
	ResourceProducts  Resource = "products"
	ResourceCustomers Resource = "customers"
	ResourceInvoices  Resource = "invoices"
)

func (r Resource) Valid() bool {
	switch r {
	case ResourceProducts, ResourceCustomers, ResourceInvoices:
		return true
	}
	return false
}

// SubscriptionState is the gate's read-only answer about a tenant's plan.
type SubscriptionState struct {
	IsActive  bool                 `json:"is_active"`
	Plan      string               `json:"plan"`
	Status    string               `json:"status"`
	PeriodEnd time.Time            `json:"current_period_end"`
	Usage     map[Resource]int     `json:"usage"`
	Limits    map[Resource]int     `json:"limits"`
	Record    *models.Subscription `json:"-"`
}

// LimitCheck is the answer to "may one more unit be consumed".
type LimitCheck struct {
	CanProceed bool `json:"can_proceed"`
	Used       int  `json:"used"`
	Limit      int  `json:"limit"`
}

// CheckSubscriptionActive fails closed: a missing record, an
// expired/cancelled status or a past period end all mean not active.
// Read-only; db must be scoped to the tenant.
func CheckSubscriptionActive(db *gorm.DB, now time.Time) (*SubscriptionState, error) {
	var sub models.Subscription
	if err := db.First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &SubscriptionState{IsActive: false, Status: "missing"}, nil
		}
		return nil, NewTransient("subscription lookup failed", err)
	}

	state := &SubscriptionState{
		Plan:      sub.Plan,
		Status:    sub.Status,
		PeriodEnd: sub.CurrentPeriodEnd,
		Usage: map[Resource]int{
			ResourceProducts:  sub.UsedProducts,
			ResourceCustomers: sub.UsedCustomers,
			ResourceInvoices:  sub.UsedInvoices,
		},
		Limits: map[Resource]int{
			ResourceProducts:  sub.MaxProducts,
			ResourceCustomers: sub.MaxCustomers,
			ResourceInvoices:  sub.MaxInvoices,
		},
		Record: &sub,
	}

	switch SubscriptionStatus(sub.Status) {
	case SubscriptionTrial, SubscriptionActive:
		state.IsActive = !now.After(sub.CurrentPeriodEnd)
	default:
		state.IsActive = false
	}
	return state, nil
}

// CheckUsageLimit reports whether used+n stays within the limit. It never
// mutates usage; callers increment through the Ledger only after the
// guarded creation succeeded, so failed operations are never charged.
func CheckUsageLimit(db *gorm.DB, resource Resource, n int, now time.Time) (*LimitCheck, error) {
	if !resource.Valid() {
		return nil, NewValidation("unknown resource kind " + string(resource))
	}
	if n <= 0 {
		return nil, NewValidation("requested increment must be positive")
	}

	state, err := CheckSubscriptionActive(db, now)
	if err != nil {
		return nil, err
	}
	if !state.IsActive {
		return nil, NewExpired("subscription is " + state.Status)
	}

	used := state.Usage[resource]
	limit := state.Limits[resource]
	return &LimitCheck{
		CanProceed: used+n <= limit,
		Used:       used,
		Limit:      limit,
	}, nil
}

// Authorize combines the active and limit checks into a single pass/fail
// answer, returning the structured limit_exceeded error on rejection.
func Authorize(db *gorm.DB, resource Resource, n int, now time.Time) error {
	check, err := CheckUsageLimit(db, resource, n, now)
	if err != nil {
		return err
	}
	if !check.CanProceed {
		return NewLimitExceeded(string(resource), check.Used, check.Limit)
	}
	return nil
}
