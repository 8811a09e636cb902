package controllers

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"abrechnung-backend/billing"
	"abrechnung-backend/database"
	"abrechnung-backend/middlewares"
	"abrechnung-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func Register(c *fiber.Ctx) error {
	var data map[string]string
	if err := c.BodyParser(&data); err != nil {
		return err
	}

	var mailExist models.User
	database.DB.Where("email = ?", data["email"]).First(&mailExist)
	if mailExist.Email != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "email already exists",
		})
	}

	if data["password"] != data["password_confirm"] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "passwords do not match",
		})
	}

	tx := database.DB.Begin()

	user := models.User{
		FirstName: data["first_name"],
		LastName:  data["last_name"],
		Email:     data["email"],
	}
	user.SetPassword(data["password"])
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "could not create user",
			"error":   err.Error(),
		})
	}

	contactPerson := models.ContactPerson{
		FirstName:    data["first_name"],
		LastName:     data["last_name"],
		Salutation:   data["salutation"],
		Title:        data["title"],
		PhoneNumber:  data["phone_number"],
		MobileNumber: data["mobile_number"],
	}
	if err := tx.Create(&contactPerson).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "could not create contact person",
			"error":   err.Error(),
		})
	}

	company := models.Company{
		CompanyName: data["company_name"],
		Address:     data["address"],
		City:        data["city"],
		Country:     data["country"],
		Zip:         data["zip"],
		Homepage:    data["homepage"],
		UID:         data["uid"],
		UserId:      user.Id,
		PId:         contactPerson.Id,
	}

	schemaName, err := createSchema(company.CompanyName)
	if err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "registration failed due to internal error",
			"error":   err.Error(),
		})
	}
	company.SchemaName = schemaName

	if err := tx.Create(&company).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "could not create company",
			"error":   err.Error(),
		})
	}

	user.SchemaName = schemaName
	if err := tx.Updates(&user).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "registration failed",
			"error":   err.Error(),
		})
	}

	if err := database.MigrateTenantSchema(schemaName); err != nil {
		tx.Rollback()
		return c.Status(500).JSON(fiber.Map{"message": "could not migrate tenant schema"})
	}

	// Every new tenant starts on a trial subscription.
	if err := seedTrialSubscription(schemaName); err != nil {
		tx.Rollback()
		return c.Status(500).JSON(fiber.Map{"message": "could not create trial subscription"})
	}

	tx.Commit()

	database.DB.Preload("User").Preload("ContactPerson").First(&company)
	return c.JSON(company)
}

func seedTrialSubscription(schema string) error {
	limits := models.LimitsForPlan("trial")
	now := time.Now().UTC()
	return database.TenantTxn(schema, func(tx *gorm.DB) error {
		return tx.Create(&models.Subscription{
			Plan:               "trial",
			Status:             string(billing.SubscriptionTrial),
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   now.AddDate(0, 0, limits.Days),
			MaxProducts:        limits.Products,
			MaxCustomers:       limits.Customers,
			MaxInvoices:        limits.Invoices,
		}).Error
	})
}

func createSchema(customer string) (string, error) {
	safeName := strings.ToLower(strings.TrimSpace(customer))
	safeName = strings.ReplaceAll(safeName, " ", "_")
	// Validate schema name (only letters, numbers, underscores; must start with letter/underscore)
	valid := regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	if !valid.MatchString(safeName) {
		return "", fmt.Errorf("invalid schema name after sanitization: %s", safeName)
	}

	// Create schema if not exists
	if err := database.DB.Exec("CREATE SCHEMA IF NOT EXISTS " + safeName).Error; err != nil {
		return "", err
	}
	return safeName, nil
}

func Login(c *fiber.Ctx) error {
	var data map[string]string
	if err := c.BodyParser(&data); err != nil {
		return err
	}

	var user models.User

	if _, err := mail.ParseAddress(data["email"]); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "invalid email format",
		})
	}

	database.DB.Table("public.users").Where("email = ?", data["email"]).First(&user)

	if _, err := uuid.Parse(user.Id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "invalid credentials",
		})
	}

	if err := user.ComparePassword(data["password"]); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "invalid credentials",
		})
	}

	token, err := middlewares.GenerateJWT(user.Id, user.SchemaName)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "could not issue token",
		})
	}

	if err := database.MigrateTenantSchema(user.SchemaName); err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "could not migrate tenant schema"})
	}

	return c.JSON(fiber.Map{
		"token":  token,
		"schema": user.SchemaName,
		"user": fiber.Map{
			"id":    user.Id,
			"name":  user.FirstName + " " + user.LastName,
			"email": user.Email,
		},
	})
}

// Logout is an acknowledgment only: auth is stateless bearer tokens, so
// the client discards its token and there is no server-side session to end.
func Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "success",
	})
}
