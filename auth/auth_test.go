package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	assert.True(t, Verify("secret", "secret"))
	assert.False(t, Verify("secret", "Secret"))
	assert.False(t, Verify("secret", ""))

	hash, err := HashToken("s3cret")
	require.NoError(t, err)
	assert.True(t, Verify(hash, "s3cret"))
	assert.False(t, Verify(hash, "wrong"))
	assert.False(t, Verify(hash, hash))
}

func TestMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware(""))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("GET", "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(TokenHeader, DevPassword)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
