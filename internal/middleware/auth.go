package middleware

import (
	"invoicehub-backend/internal/application/auth"
	"invoicehub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth rejects requests without a session user with 401.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := ActorID(c); !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// ActorID returns the id of the session user.
func ActorID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := auth.ActorID(GetUser(c))
	return id, err == nil
}
