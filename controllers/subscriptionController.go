package controllers

import (
	"time"

	"abrechnung-backend/billing"
	"abrechnung-backend/database"
	"abrechnung-backend/middlewares"
	"abrechnung-backend/models"

	"github.com/gofiber/fiber/v2"
)

type PlanChangeDTO struct {
	Plan string `json:"plan" validate:"required"`
}

// GET /api/subscription
func GetSubscription(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	state, err := billing.CheckSubscriptionActive(db, time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(state)
}

// PUT /api/subscription/plan
// A plan change is a subscription status transition: trial→active or
// active→active. Expired and cancelled subscriptions cannot be changed
// here; they need a new signup flow. Changing plan resets the period and
// limit columns to the new plan's defaults; usage counters carry over.
func ChangePlan(c *fiber.Ctx) error {
	var in PlanChangeDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if !models.KnownPlan(in.Plan) {
		return billing.NewValidation("unknown plan " + in.Plan)
	}
	if in.Plan == "trial" {
		return billing.NewValidation("cannot change back to trial")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	now := time.Now().UTC()
	state, err := billing.CheckSubscriptionActive(db, now)
	if err != nil {
		return err
	}
	if state.Record == nil {
		return billing.NewNotFound("subscription")
	}

	from := billing.SubscriptionStatus(state.Status)
	if !billing.CanTransitionSubscription(from, billing.SubscriptionActive) {
		return billing.NewInvalidState("subscription", state.Status)
	}

	limits := models.LimitsForPlan(in.Plan)
	updates := map[string]any{
		"plan":                 in.Plan,
		"status":               string(billing.SubscriptionActive),
		"current_period_start": now,
		"current_period_end":   now.AddDate(0, 0, limits.Days),
		"max_products":         limits.Products,
		"max_customers":        limits.Customers,
		"max_invoices":         limits.Invoices,
	}
	if err := db.Model(&models.Subscription{}).
		Where("id = ?", state.Record.ID).
		Updates(updates).Error; err != nil {
		return billing.NewTransient("plan change failed", err)
	}

	out, err := billing.CheckSubscriptionActive(db, now)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// PUT /api/subscription/cancel
func CancelSubscription(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	now := time.Now().UTC()
	state, err := billing.CheckSubscriptionActive(db, now)
	if err != nil {
		return err
	}
	if state.Record == nil {
		return billing.NewNotFound("subscription")
	}

	from := billing.SubscriptionStatus(state.Status)
	if !billing.CanTransitionSubscription(from, billing.SubscriptionCancelled) {
		return billing.NewInvalidState("subscription", state.Status)
	}

	if err := db.Model(&models.Subscription{}).
		Where("id = ?", state.Record.ID).
		Update("status", string(billing.SubscriptionCancelled)).Error; err != nil {
		return billing.NewTransient("cancel failed", err)
	}
	return c.JSON(fiber.Map{"message": "subscription cancelled"})
}
