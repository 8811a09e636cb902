package controllers

import (
	"errors"
	"time"

	"abrechnung-backend/billing"
	"abrechnung-backend/database"
	"abrechnung-backend/middlewares"
	"abrechnung-backend/models"
	"abrechnung-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PaymentCreateDTO struct {
	Amount    float64    `json:"amount" validate:"required,gt=0"`
	Method    string     `json:"method" validate:"required,min=1"`
	Reference string     `json:"reference" validate:"omitempty"`
	Note      string     `json:"note" validate:"omitempty"`
	PaidAt    *time.Time `json:"paid_at" validate:"omitempty"`
}

// GET /api/invoices
func GetInvoices(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	q := db.Preload("Items").Order("invoice_date DESC")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if tmplID := utils.ParseIntDefault(c.Query("recurring_invoice_id"), 0); tmplID > 0 {
		q = q.Where("recurring_invoice_id = ?", tmplID)
	}

	var invoices []models.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"invoices": invoices})
}

// GET /api/invoice/:id
func GetInvoice(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var invoice models.Invoice
	if err := db.Preload("Items").First(&invoice, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.NewNotFound("invoice")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(invoice)
}

// POST /api/invoices/:id/payments
// Generated invoices are immutable except for the payment rollup: the
// paid total accumulates and status flips to paid once it covers the
// grand total.
func CreatePayment(c *fiber.Ctx) error {
	var in PaymentCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var invoice models.Invoice
	if err := db.First(&invoice, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.NewNotFound("invoice")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	// Only issued invoices take payments: drafts have no final total yet,
	// paid invoices are settled.
	if invoice.Status != "issued" {
		return billing.NewInvalidState("invoice", invoice.Status)
	}

	amount := utils.Round2(in.Amount)
	remaining := utils.Round2(invoice.GrandTotal - invoice.PaidTotal)
	if amount > remaining {
		return billing.NewValidation("payment exceeds the open invoice balance")
	}

	paidAt := time.Now().UTC()
	if in.PaidAt != nil {
		paidAt = in.PaidAt.UTC()
	}
	payment := models.Payment{
		InvoiceID: invoice.ID,
		Amount:    amount,
		Method:    in.Method,
		Reference: in.Reference,
		Note:      in.Note,
		PaidAt:    paidAt,
	}
	if err := db.Create(&payment).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not record payment")
	}

	newPaid := utils.Round2(invoice.PaidTotal + payment.Amount)
	updates := map[string]any{"paid_total": newPaid}
	if newPaid >= invoice.GrandTotal {
		updates["status"] = "paid"
	}
	if err := db.Model(&invoice).Updates(updates).Error; err != nil {
		return billing.NewTransient("payment rollup failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(payment)
}

// GET /api/invoices/:id/payments
func ListPayments(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	invoiceID := utils.ParseIntDefault(c.Params("id"), 0)
	if invoiceID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid invoice id")
	}

	var payments []models.Payment
	if err := db.Where("invoice_id = ?", invoiceID).
		Order("paid_at").Find(&payments).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"payments": payments})
}
