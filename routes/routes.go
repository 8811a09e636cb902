package routes

import (
	"github.com/gofiber/fiber/v2"

	"abrechnung-backend/controllers"
	"abrechnung-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.Authenticate())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then per-request tenant transaction (pins search_path and commits/rolls back)
	protected.Use(middlewares.TenantTx())

	// Customers (creation gated on the customers limit)
	protected.Post("/customer", controllers.CreateCustomer)
	protected.Get("/customers", controllers.GetCustomers)
	protected.Get("/customer/:id", controllers.GetCustomer)
	protected.Put("/customer/:id", controllers.UpdateCustomer)

	// Products (batch create, gated on the products limit)
	protected.Post("/product", controllers.CreateProducts)
	protected.Get("/products", controllers.GetProducts)
	protected.Put("/products/:id", controllers.UpdateProduct)

	// Subscription / plan
	protected.Get("/subscription", controllers.GetSubscription)
	protected.Put("/subscription/plan", controllers.ChangePlan)
	protected.Put("/subscription/cancel", controllers.CancelSubscription)

	// Recurring invoice templates
	protected.Post("/recurring-invoice", controllers.CreateRecurringInvoice)
	protected.Get("/recurring-invoices", controllers.GetRecurringInvoices)
	protected.Get("/recurring-invoice/:id", controllers.GetRecurringInvoice)
	protected.Put("/recurring-invoice/:id", controllers.UpdateRecurringInvoice)
	protected.Put("/recurring-invoice/:id/pause", controllers.PauseRecurringInvoice)
	protected.Put("/recurring-invoice/:id/resume", controllers.ResumeRecurringInvoice)
	protected.Put("/recurring-invoice/:id/cancel", controllers.CancelRecurringInvoice)
	protected.Post("/recurring-invoices/:id/run", controllers.RunRecurringInvoice)

	// Generated invoices + payments
	protected.Get("/invoices", controllers.GetInvoices)
	protected.Get("/invoice/:id", controllers.GetInvoice)
	protected.Post("/invoices/:id/payments", controllers.CreatePayment)
	protected.Get("/invoices/:id/payments", controllers.ListPayments)
}
