// auth/auth.go
package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const TokenHeader = "X-StudyDock-Token"

// DevPassword is accepted when no password is configured.
const DevPassword = "dev"

// Middleware rejects requests whose token header does not match secret.
// secret may be plain text or a bcrypt hash.
func Middleware(secret string) fiber.Handler {
	if secret == "" {
		secret = DevPassword
	}

	return func(c *fiber.Ctx) error {
		if !Verify(secret, c.Get(TokenHeader)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		return c.Next()
	}
}

func Verify(secret, token string) bool {
	if token == "" {
		return false
	}
	if isBcrypt(secret) {
		return bcrypt.CompareHashAndPassword([]byte(secret), []byte(token)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(token)) == 1
}

// HashToken returns a bcrypt hash suitable for the password setting.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
