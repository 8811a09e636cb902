package middlewares

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"abrechnung-backend/database"
	"abrechnung-backend/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newIdempotencyApp wires the middleware in front of a counting handler on
// an in-memory database, mimicking the auth middleware via locals.
func newIdempotencyApp(t *testing.T) (*fiber.App, *int) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.IdempotencyKey{}))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	calls := 0
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("schema", "acme")
		c.Locals("userID", "user-1")
		return c.Next()
	})
	app.Use(Idempotency())
	app.Post("/run", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"calls": calls})
	})
	return app, &calls
}

func postRun(t *testing.T, app *fiber.App, key, body string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/run", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

// A retry with the same key must replay the stored response without the
// handler running a second time.
func TestIdempotencyReplayRunsHandlerOnce(t *testing.T) {
	app, calls := newIdempotencyApp(t)

	first, body1 := postRun(t, app, "key-1", `{"x":1}`)
	require.Equal(t, fiber.StatusCreated, first.StatusCode)
	require.Equal(t, 1, *calls)

	second, body2 := postRun(t, app, "key-1", `{"x":1}`)
	assert.Equal(t, fiber.StatusCreated, second.StatusCode)
	assert.Equal(t, body1, body2)
	assert.Equal(t, 1, *calls, "handler must run exactly once per key")

	// The stored record survives the replay untouched.
	var rec models.IdempotencyKey
	require.NoError(t, database.DB.Where("key = ?", "key-1").First(&rec).Error)
	assert.Equal(t, fiber.StatusCreated, rec.ResponseStatus)
	assert.JSONEq(t, body1, string(rec.ResponseBody))
}

func TestIdempotencyRejectsKeyReuseWithDifferentRequest(t *testing.T) {
	app, calls := newIdempotencyApp(t)

	first, _ := postRun(t, app, "key-1", `{"x":1}`)
	require.Equal(t, fiber.StatusCreated, first.StatusCode)

	second, _ := postRun(t, app, "key-1", `{"x":2}`)
	assert.Equal(t, fiber.StatusConflict, second.StatusCode)
	assert.Equal(t, 1, *calls)
}

func TestIdempotencyPassesThroughWithoutKey(t *testing.T) {
	app, calls := newIdempotencyApp(t)

	postRun(t, app, "", `{"x":1}`)
	postRun(t, app, "", `{"x":1}`)
	assert.Equal(t, 2, *calls)
}
