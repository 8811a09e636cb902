package middlewares

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"abrechnung-backend/billing"
)

var kindStatus = map[billing.Kind]int{
	billing.KindUnauthenticated: fiber.StatusUnauthorized,
	billing.KindExpired:         fiber.StatusForbidden,
	billing.KindLimitExceeded:   fiber.StatusForbidden,
	billing.KindNotFound:        fiber.StatusNotFound,
	billing.KindConflict:        fiber.StatusConflict,
	billing.KindInvalidState:    fiber.StatusUnprocessableEntity,
	billing.KindValidation:      fiber.StatusUnprocessableEntity,
	billing.KindTransient:       fiber.StatusServiceUnavailable,
}

// ErrorHandler centralizes error responses and keeps messages sanitized.
// Billing errors carry a machine-readable kind plus enough detail for the
// client to decide between retrying, upgrading the plan and fixing input.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Billing errors (kind -> status, details passed through)
	if be, ok := billing.AsError(err); ok {
		status, known := kindStatus[be.Kind]
		if !known {
			status = fiber.StatusInternalServerError
		}
		body := fiber.Map{"kind": string(be.Kind), "message": be.Message}
		for k, v := range be.Details {
			body[k] = v
		}
		if be.Kind == billing.KindTransient {
			zap.L().Error("transient failure", zap.Error(err))
			body["message"] = "temporary failure, retry the request"
		}
		return c.Status(status).JSON(body)
	}

	// 2) Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 3) Validation errors (422 + per-field info)
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"kind":    string(billing.KindValidation),
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 4) Unknown errors (500)
	zap.L().Error("internal error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
