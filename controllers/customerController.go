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
	"gorm.io/gorm"
)

type CustomerCreateDTO struct {
	CompanyName  string `json:"company_name" validate:"required,min=1"`
	Address      string `json:"address" validate:"required,min=1"`
	City         string `json:"city" validate:"required,min=1"`
	Country      string `json:"country" validate:"required,min=1"`
	Zip          string `json:"zip" validate:"required,min=1"`
	Email        string `json:"email" validate:"required,email"`
	FirstName    string `json:"first_name" validate:"omitempty"`
	LastName     string `json:"last_name" validate:"omitempty"`
	PhoneNumber  string `json:"phone_number" validate:"omitempty"`
	MobileNumber string `json:"mobile_number" validate:"omitempty"`
	TaxNumber    string `json:"tax_number" validate:"omitempty"`
	StateCode    string `json:"state_code" validate:"omitempty"`
	IsInterState bool   `json:"is_inter_state"`
}

type CustomerUpdateDTO struct {
	Address      *string `json:"address" validate:"omitempty"`
	City         *string `json:"city" validate:"omitempty"`
	Country      *string `json:"country" validate:"omitempty"`
	Zip          *string `json:"zip" validate:"omitempty"`
	Email        *string `json:"email" validate:"omitempty,email"`
	PhoneNumber  *string `json:"phone_number" validate:"omitempty"`
	MobileNumber *string `json:"mobile_number" validate:"omitempty"`
	TaxNumber    *string `json:"tax_number" validate:"omitempty"`
	StateCode    *string `json:"state_code" validate:"omitempty"`
	IsInterState *bool   `json:"is_inter_state"`
}

// POST /api/customer
// Creation is gated: the subscription must be usable and the customers
// counter below its limit. Usage is incremented only after the insert
// succeeded.
func CreateCustomer(c *fiber.Ctx) error {
	var in CustomerCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	if err := billing.Authorize(db, billing.ResourceCustomers, 1, time.Now().UTC()); err != nil {
		return err
	}

	customer := models.Customer{
		CompanyName:  in.CompanyName,
		Address:      in.Address,
		City:         in.City,
		Country:      in.Country,
		Zip:          in.Zip,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PhoneNumber:  in.PhoneNumber,
		MobileNumber: in.MobileNumber,
		TaxNumber:    in.TaxNumber,
		StateCode:    in.StateCode,
		IsInterState: in.IsInterState,
		Active:       true,
	}

	if err := db.Create(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "customer already exists")
		}
		return fiber.NewError(fiber.StatusBadRequest, "could not create customer")
	}

	if err := billing.Increment(db, billing.ResourceCustomers, 1); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(customer)
}

// GET /api/customers
func GetCustomers(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var customers []models.Customer
	if err := db.Order("company_name").Find(&customers).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"customers": customers})
}

// GET /api/customer/:id
func GetCustomer(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var customer models.Customer
	if err := db.First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.NewNotFound("customer")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(customer)
}

// PUT /api/customer/:id
func UpdateCustomer(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing customer id in path")
	}

	var in CustomerUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var existing models.Customer
	if err := db.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.NewNotFound("customer")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	updates := utils.UpdatesFromPtrDTO(&in, nil)
	if len(updates) > 0 {
		if err := db.Model(&models.Customer{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not update customer")
		}
	}

	var out models.Customer
	if err := db.First(&out, "id = ?", id).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reload customer")
	}
	return c.JSON(out)
}
