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

type ProductCreateDTO struct {
	Name        string  `json:"name" validate:"required,min=1"`
	Description string  `json:"description" validate:"omitempty"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	TaxRate     float64 `json:"tax_rate" validate:"gte=0,lte=100"`
}

type ProductUpdateDTO struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description" validate:"omitempty"`
	UnitPrice   *float64 `json:"unit_price" validate:"omitempty,gte=0"`
	TaxRate     *float64 `json:"tax_rate" validate:"omitempty,gte=0,lte=100"`
}

// POST /api/product (accepts a batch; the whole batch is gated up front)
func CreateProducts(c *fiber.Ctx) error {
	var inputs []ProductCreateDTO
	if err := c.BodyParser(&inputs); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(inputs) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "empty product batch")
	}
	for i := range inputs {
		if err := middlewares.ValidateStruct(&inputs[i]); err != nil {
			return err
		}
		utils.NormalizeDTO(&inputs[i])
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	if err := billing.Authorize(db, billing.ResourceProducts, len(inputs), time.Now().UTC()); err != nil {
		return err
	}

	var created []models.Product
	for _, in := range inputs {
		product := models.Product{
			Name:        in.Name,
			Description: in.Description,
			UnitPrice:   in.UnitPrice,
			TaxRate:     in.TaxRate,
			Active:      true,
		}
		if err := db.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not create product")
		}
		created = append(created, product)
	}

	if err := billing.Increment(db, billing.ResourceProducts, len(created)); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// GET /api/products
func GetProducts(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var products []models.Product
	if err := db.Where("active = ?", true).Order("name").Find(&products).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(fiber.Map{"products": products})
}

// PUT /api/products/:id
func UpdateProduct(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing product id in path")
	}

	var in ProductUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var existing models.Product
	if err := db.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.NewNotFound("product")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	updates := utils.UpdatesFromPtrDTO(&in, nil)
	if len(updates) > 0 {
		if err := db.Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not update product")
		}
	}

	var out models.Product
	if err := db.First(&out, "id = ?", id).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reload product")
	}
	return c.JSON(out)
}
