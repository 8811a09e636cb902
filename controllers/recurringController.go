package controllers

import (
	"errors"
	"strings"
	"time"

	"abrechnung-backend/billing"
	"abrechnung-backend/database"
	"abrechnung-backend/middlewares"
	"abrechnung-backend/models"
	"abrechnung-backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RecurringItemDTO struct {
	ProductID       string  `json:"product_id" validate:"omitempty,uuid4"`
	Name            string  `json:"name" validate:"required,min=1"`
	UnitPrice       float64 `json:"unit_price" validate:"gte=0"`
	Quantity        int     `json:"quantity" validate:"required,gt=0"`
	DiscountPercent float64 `json:"discount_percent" validate:"gte=0,lte=100"`
	TaxRate         float64 `json:"tax_rate" validate:"gte=0,lte=100"`
}

type RecurringCreateDTO struct {
	CustomerID      uint               `json:"customer_id" validate:"required"`
	Frequency       string             `json:"frequency" validate:"required,frequency"`
	Interval        int                `json:"interval" validate:"required,gt=0"`
	NextInvoiceDate time.Time          `json:"next_invoice_date" validate:"required"`
	EndDate         *time.Time         `json:"end_date" validate:"omitempty"`
	Items           []RecurringItemDTO `json:"items" validate:"required,min=1,dive"`
}

type RecurringUpdateDTO struct {
	Frequency       *string    `json:"frequency" validate:"omitempty,frequency"`
	Interval        *int       `json:"interval" validate:"omitempty,gt=0"`
	NextInvoiceDate *time.Time `json:"next_invoice_date" validate:"omitempty"`
	EndDate         *time.Time `json:"end_date" validate:"omitempty"`
}

// POST /api/recurring-invoice
func CreateRecurringInvoice(c *fiber.Ctx) error {
	var in RecurringCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.EndDate != nil && in.EndDate.Before(in.NextInvoiceDate) {
		return billing.NewValidation("end_date is before next_invoice_date")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var customer models.Customer
	if err := db.First(&customer, "id = ?", in.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.NewNotFound("customer")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	tmpl := models.RecurringInvoice{
		CId:             customer.Id,
		Frequency:       in.Frequency,
		Interval:        in.Interval,
		NextInvoiceDate: in.NextInvoiceDate.UTC(),
		EndDate:         in.EndDate,
		Status:          string(billing.TemplateActive),
	}
	for _, it := range in.Items {
		tmpl.Items = append(tmpl.Items, models.RecurringInvoiceItem{
			ProductID:       it.ProductID,
			Name:            strings.TrimSpace(it.Name),
			UnitPrice:       utils.Round2(it.UnitPrice),
			Quantity:        it.Quantity,
			DiscountPercent: it.DiscountPercent,
			TaxRate:         it.TaxRate,
		})
	}

	if err := db.Create(&tmpl).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create recurring invoice")
	}
	return c.Status(fiber.StatusCreated).JSON(tmpl)
}

// GET /api/recurring-invoices
func GetRecurringInvoices(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	q := db.Preload("Items").Preload("Customer").Order("next_invoice_date")
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}

	var templates []models.RecurringInvoice
	if err := q.Find(&templates).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"recurring_invoices": templates})
}

// GET /api/recurring-invoice/:id
func GetRecurringInvoice(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var tmpl models.RecurringInvoice
	if err := db.Preload("Items").Preload("Customer").
		First(&tmpl, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.NewNotFound("recurring invoice")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(tmpl)
}

// PUT /api/recurring-invoice/:id
// Schedule fields only; line items are replaced via a dedicated flow if
// ever needed. Only active or paused templates can be edited.
func UpdateRecurringInvoice(c *fiber.Ctx) error {
	var in RecurringUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var tmpl models.RecurringInvoice
	if err := db.First(&tmpl, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.NewNotFound("recurring invoice")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	switch billing.TemplateStatus(tmpl.Status) {
	case billing.TemplateActive, billing.TemplatePaused:
	default:
		return billing.NewInvalidState("recurring invoice", tmpl.Status)
	}

	// NextInvoiceDate never moves behind the last generated invoice; a
	// backdated schedule would re-bill an already generated cycle.
	if in.NextInvoiceDate != nil && tmpl.LastGeneratedAt != nil &&
		in.NextInvoiceDate.Before(*tmpl.LastGeneratedAt) {
		return billing.NewValidation("next_invoice_date cannot predate the last generated invoice")
	}

	updates := utils.UpdatesFromPtrDTO(&in, nil)
	if len(updates) > 0 {
		if err := db.Model(&tmpl).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not update recurring invoice")
		}
	}

	var out models.RecurringInvoice
	if err := db.Preload("Items").First(&out, "id = ?", tmpl.ID).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reload recurring invoice")
	}
	return c.JSON(out)
}

// PUT /api/recurring-invoice/:id/pause|resume|cancel
func PauseRecurringInvoice(c *fiber.Ctx) error {
	return transitionRecurring(c, billing.TemplatePaused)
}

func ResumeRecurringInvoice(c *fiber.Ctx) error {
	return transitionRecurring(c, billing.TemplateActive)
}

func CancelRecurringInvoice(c *fiber.Ctx) error {
	return transitionRecurring(c, billing.TemplateCancelled)
}

func transitionRecurring(c *fiber.Ctx, to billing.TemplateStatus) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var tmpl models.RecurringInvoice
	if err := db.First(&tmpl, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.NewNotFound("recurring invoice")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	from := billing.TemplateStatus(tmpl.Status)
	if from == to {
		return c.JSON(tmpl)
	}
	if !billing.CanTransitionTemplate(from, to) {
		return billing.NewInvalidState("recurring invoice", tmpl.Status)
	}

	if err := db.Model(&tmpl).Update("status", string(to)).Error; err != nil {
		return billing.NewTransient("status update failed", err)
	}
	tmpl.Status = string(to)
	return c.JSON(tmpl)
}

// POST /api/recurring-invoices/:id/run
// Manual "run now". Send an Idempotency-Key header when retrying: the
// stored response is replayed instead of the template being claimed a
// second time.
func RunRecurringInvoice(c *fiber.Ctx) error {
	id := utils.ParseIntDefault(c.Params("id"), 0)
	if id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid recurring invoice id")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	runner := billing.NewRunner(zap.L())
	result, err := runner.RunNow(db, uint(id), time.Now().UTC())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}
