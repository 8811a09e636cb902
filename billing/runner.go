package billing

import (
	"encoding/json"
	"errors"
	"time"

	"abrechnung-backend/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RunResult is what a successful RunNow hands back to the caller.
type RunResult struct {
	InvoiceID       uint      `json:"invoice_id"`
	InvoiceNumber   string    `json:"invoice_number"`
	Amount          float64   `json:"amount"`
	InvoiceDate     time.Time `json:"invoice_date"`
	NextInvoiceDate time.Time `json:"next_invoice_date"`
	Completed       bool      `json:"completed"`
}

// Runner materializes one invoice from a recurring template and advances
// its schedule. One Runner is safe for concurrent use; per-template
// exclusion comes from the conditional claim on the template row.
type Runner struct {
	Log *zap.Logger
}

func NewRunner(log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Log: log}
}

const numberRetries = 3

// RunNow generates one invoice from template templateID. db must be the
// tenant-scoped handle; now is injected so schedules are testable.
//
// Hard preconditions (template exists, is active, not past its end date)
// persist nothing on failure except the forced active→completed move for
// an ended template. The schedule is advanced as the claim, before the
// invoice is written: of two concurrent runs only one wins the claim, and
// a crash after the claim skips a cycle instead of double-billing.
func (r *Runner) RunNow(db *gorm.DB, templateID uint, now time.Time) (*RunResult, error) {
	var tmpl models.RecurringInvoice
	if err := db.Preload("Items").First(&tmpl, "id = ?", templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("recurring invoice")
		}
		return nil, NewTransient("template lookup failed", err)
	}

	switch TemplateStatus(tmpl.Status) {
	case TemplateActive:
	case TemplateCompleted:
		// A completed template is one whose end date passed; repeated runs
		// keep answering expired, never invalid_state, so callers can rely
		// on one stable outcome.
		return nil, NewExpired("recurring invoice has ended")
	default:
		return nil, NewInvalidState("recurring invoice", tmpl.Status)
	}

	// Ended templates are completed before any line-item work so no
	// partial invoice ever exists for them.
	if tmpl.EndDate != nil && now.After(*tmpl.EndDate) {
		if err := r.transition(db, &tmpl, TemplateCompleted); err != nil {
			return nil, err
		}
		return nil, NewExpired("recurring invoice ended on " + tmpl.EndDate.Format("2006-01-02"))
	}

	if len(tmpl.Items) == 0 {
		return nil, NewValidation("recurring invoice has no line items")
	}

	// Gate before claiming so a rejected run leaves the schedule alone.
	if err := Authorize(db, ResourceInvoices, 1, now); err != nil {
		return nil, err
	}

	var customer models.Customer
	if err := db.First(&customer, "id = ?", tmpl.CId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("customer")
		}
		return nil, NewTransient("customer lookup failed", err)
	}

	nextDate, err := NextRunDate(tmpl.NextInvoiceDate, Frequency(tmpl.Frequency), tmpl.Interval)
	if err != nil {
		return nil, NewValidation(err.Error())
	}

	if err := r.claim(db, &tmpl, nextDate); err != nil {
		return nil, err
	}

	invoice, err := buildInvoice(&tmpl, &customer, now)
	if err != nil {
		return nil, err
	}

	// Invoice numbers are unique per tenant; regenerate on a duplicate.
	var persistErr error
	for attempt := 0; attempt < numberRetries; attempt++ {
		invoice.InvoiceNumber = NewInvoiceNumber(now)
		persistErr = db.Create(invoice).Error
		if persistErr == nil || !errors.Is(persistErr, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if persistErr != nil {
		return nil, NewTransient("invoice persist failed", persistErr)
	}

	completed := tmpl.EndDate != nil && nextDate.After(*tmpl.EndDate)
	finalize := map[string]any{
		"total_generated":   gorm.Expr("total_generated + 1"),
		"last_generated_at": now,
	}
	if completed {
		finalize["status"] = string(TemplateCompleted)
	}
	if err := db.Model(&models.RecurringInvoice{}).
		Where("id = ?", tmpl.ID).
		Updates(finalize).Error; err != nil {
		// Invoice exists; the advanced schedule already serves as the
		// release, so surface the failure for a later reconcile.
		return nil, NewTransient("template finalize failed", err)
	}

	// Usage ledger bump. A failure here under-counts (fails open) which is
	// acceptable for advisory soft caps.
	if err := Increment(db, ResourceInvoices, 1); err != nil {
		r.Log.Warn("invoice usage increment failed",
			zap.Uint("template_id", tmpl.ID),
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Error(err))
	}

	// Best-effort customer aggregate; the invoice is the source of truth.
	// SavePoint-wrapped so a failure cannot poison an enclosing request TX.
	if err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.Customer{}).
			Where("id = ?", customer.Id).
			Update("lifetime_spend", gorm.Expr("lifetime_spend + ?", invoice.GrandTotal)).Error
	}); err != nil {
		r.Log.Warn("customer lifetime spend update failed",
			zap.Uint("customer_id", customer.Id),
			zap.Float64("amount", invoice.GrandTotal),
			zap.Error(err))
	}

	return &RunResult{
		InvoiceID:       invoice.ID,
		InvoiceNumber:   invoice.InvoiceNumber,
		Amount:          invoice.GrandTotal,
		InvoiceDate:     invoice.InvoiceDate,
		NextInvoiceDate: nextDate,
		Completed:       completed,
	}, nil
}

// claim advances the schedule only if nobody else has: the UPDATE matches
// on the status and next date the runner read, so of two runs holding the
// same snapshot exactly one wins. RowsAffected 0 means a concurrent run
// (or an edit) got there first.
func (r *Runner) claim(db *gorm.DB, tmpl *models.RecurringInvoice, nextDate time.Time) error {
	claim := db.Model(&models.RecurringInvoice{}).
		Where("id = ? AND status = ? AND next_invoice_date = ?",
			tmpl.ID, string(TemplateActive), tmpl.NextInvoiceDate).
		Update("next_invoice_date", nextDate)
	if claim.Error != nil {
		return NewTransient("template claim failed", claim.Error)
	}
	if claim.RowsAffected == 0 {
		return NewConflict("recurring invoice was claimed by a concurrent run")
	}
	return nil
}

func (r *Runner) transition(db *gorm.DB, tmpl *models.RecurringInvoice, to TemplateStatus) error {
	if !CanTransitionTemplate(TemplateStatus(tmpl.Status), to) {
		return NewInvalidState("recurring invoice", tmpl.Status)
	}
	if err := db.Model(tmpl).Update("status", string(to)).Error; err != nil {
		return NewTransient("status update failed", err)
	}
	tmpl.Status = string(to)
	return nil
}

// customerSnapshot is the denormalized shape frozen onto each invoice.
type customerSnapshot struct {
	Id           uint   `json:"id"`
	CompanyName  string `json:"company_name"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Country      string `json:"country"`
	Zip          string `json:"zip"`
	TaxNumber    string `json:"tax_number"`
	StateCode    string `json:"state_code"`
	IsInterState bool   `json:"is_inter_state"`
}

func buildInvoice(tmpl *models.RecurringInvoice, customer *models.Customer, now time.Time) (*models.Invoice, error) {
	snap, err := json.Marshal(customerSnapshot{
		Id:           customer.Id,
		CompanyName:  customer.CompanyName,
		FirstName:    customer.FirstName,
		LastName:     customer.LastName,
		Address:      customer.Address,
		City:         customer.City,
		Country:      customer.Country,
		Zip:          customer.Zip,
		TaxNumber:    customer.TaxNumber,
		StateCode:    customer.StateCode,
		IsInterState: customer.IsInterState,
	})
	if err != nil {
		return nil, NewValidation("customer snapshot encode failed")
	}

	var (
		items                           []models.InvoiceItem
		subtotal, discount, taxable     decimal.Decimal
		totalCGST, totalSGST, totalIGST decimal.Decimal
	)
	for _, it := range tmpl.Items {
		if it.Quantity <= 0 {
			return nil, NewValidation("line item quantity must be positive")
		}
		if it.UnitPrice < 0 || it.DiscountPercent < 0 || it.DiscountPercent > 100 || it.TaxRate < 0 {
			return nil, NewValidation("line item has invalid price, discount or tax rate")
		}

		line := computeLine(it, customer.IsInterState)
		items = append(items, line)

		subtotal = subtotal.Add(decimal.NewFromFloat(line.UnitPrice).Mul(decimal.NewFromInt(int64(line.Quantity))))
		discount = discount.Add(decimal.NewFromFloat(line.DiscountAmount))
		taxable = taxable.Add(decimal.NewFromFloat(line.TaxableAmount))
		totalCGST = totalCGST.Add(decimal.NewFromFloat(line.CGSTAmount))
		totalSGST = totalSGST.Add(decimal.NewFromFloat(line.SGSTAmount))
		totalIGST = totalIGST.Add(decimal.NewFromFloat(line.IGSTAmount))
	}

	grand := taxable.Add(totalCGST).Add(totalSGST).Add(totalIGST)
	tmplID := tmpl.ID

	return &models.Invoice{
		InvoiceDate:        now,
		CId:                customer.Id,
		CustomerSnapshot:   snap,
		RecurringInvoiceID: &tmplID,
		Items:              items,
		Subtotal:           subtotal.Round(2).InexactFloat64(),
		TotalDiscount:      discount.Round(2).InexactFloat64(),
		TotalTaxable:       taxable.Round(2).InexactFloat64(),
		TotalCGST:          totalCGST.Round(2).InexactFloat64(),
		TotalSGST:          totalSGST.Round(2).InexactFloat64(),
		TotalIGST:          totalIGST.Round(2).InexactFloat64(),
		GrandTotal:         grand.Round(2).InexactFloat64(),
		Status:             "issued",
	}, nil
}

var hundred = decimal.NewFromInt(100)

// computeLine does the tax split for one line. Inter-state customers get
// the full rate as IGST, intra-state customers get it split evenly into
// CGST and SGST. Components are rounded to 2 decimal places so stored
// totals add up exactly.
func computeLine(it models.RecurringInvoiceItem, interState bool) models.InvoiceItem {
	price := decimal.NewFromFloat(it.UnitPrice)
	qty := decimal.NewFromInt(int64(it.Quantity))
	rate := decimal.NewFromFloat(it.TaxRate)

	itemTotal := price.Mul(qty)
	discountAmt := itemTotal.Mul(decimal.NewFromFloat(it.DiscountPercent)).Div(hundred).Round(2)
	taxableAmt := itemTotal.Sub(discountAmt)

	var cgst, sgst, igst decimal.Decimal
	if interState {
		igst = taxableAmt.Mul(rate).Div(hundred).Round(2)
	} else {
		half := taxableAmt.Mul(rate).Div(hundred).Div(decimal.NewFromInt(2)).Round(2)
		cgst, sgst = half, half
	}
	lineNet := taxableAmt.Add(cgst).Add(sgst).Add(igst)

	return models.InvoiceItem{
		ProductID:       it.ProductID,
		Name:            it.Name,
		UnitPrice:       it.UnitPrice,
		Quantity:        it.Quantity,
		DiscountPercent: it.DiscountPercent,
		TaxRate:         it.TaxRate,
		DiscountAmount:  discountAmt.InexactFloat64(),
		TaxableAmount:   taxableAmt.Round(2).InexactFloat64(),
		CGSTAmount:      cgst.InexactFloat64(),
		SGSTAmount:      sgst.InexactFloat64(),
		IGSTAmount:      igst.InexactFloat64(),
		LineNet:         lineNet.Round(2).InexactFloat64(),
	}
}
