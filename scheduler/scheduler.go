// Package scheduler runs due recurring invoices on a cron schedule. It is
// an optional built-in trigger; manual "run now" calls stay safe alongside
// it because every run goes through the same per-template claim.
package scheduler

import (
	"os"
	"time"

	"abrechnung-backend/billing"
	"abrechnung-backend/database"
	"abrechnung-backend/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Scheduler struct {
	cron   *cron.Cron
	runner *billing.Runner
	log    *zap.Logger
}

func New(log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		runner: billing.NewRunner(log),
		log:    log,
	}
}

// Start registers the sweep under SCHEDULER_CRON (default: hourly on the
// hour) and starts the cron loop.
func (s *Scheduler) Start() error {
	spec := os.Getenv("SCHEDULER_CRON")
	if spec == "" {
		spec = "0 * * * *"
	}
	if _, err := s.cron.AddFunc(spec, s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("recurring invoice scheduler started", zap.String("cron", spec))
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep walks every tenant schema and runs each due active template.
// Failures are per-template; one tenant's broken template never stalls
// the rest of the sweep.
func (s *Scheduler) Sweep() {
	schemas, err := database.TenantSchemas()
	if err != nil {
		s.log.Error("tenant enumeration failed", zap.Error(err))
		return
	}

	now := time.Now().UTC()
	for _, schema := range schemas {
		s.sweepTenant(schema, now)
	}
}

func (s *Scheduler) sweepTenant(schema string, now time.Time) {
	// Scan and runs each get their own schema-pinned transaction; a plain
	// pinned session would leak its search_path back into the pool.
	var due []models.RecurringInvoice
	err := database.TenantTxn(schema, func(tx *gorm.DB) error {
		return tx.Where("status = ? AND next_invoice_date <= ?",
			string(billing.TemplateActive), now).Find(&due).Error
	})
	if err != nil {
		s.log.Error("due template scan failed", zap.String("schema", schema), zap.Error(err))
		return
	}

	for _, tmpl := range due {
		var result *billing.RunResult
		err := database.TenantTxn(schema, func(tx *gorm.DB) error {
			r, err := s.runner.RunNow(tx, tmpl.ID, now)
			result = r
			return err
		})
		if err != nil {
			if be, ok := billing.AsError(err); ok && !be.Retryable() {
				// Definitive business answer (expired, limit, bad items);
				// nothing to do until the tenant intervenes.
				s.log.Info("template skipped",
					zap.String("schema", schema),
					zap.Uint("template_id", tmpl.ID),
					zap.String("kind", string(be.Kind)),
					zap.String("reason", be.Message))
				continue
			}
			s.log.Error("template run failed",
				zap.String("schema", schema),
				zap.Uint("template_id", tmpl.ID),
				zap.Error(err))
			continue
		}
		s.log.Info("invoice generated",
			zap.String("schema", schema),
			zap.Uint("template_id", tmpl.ID),
			zap.String("invoice_number", result.InvoiceNumber),
			zap.Float64("amount", result.Amount),
			zap.Time("next_invoice_date", result.NextInvoiceDate))
	}
}
