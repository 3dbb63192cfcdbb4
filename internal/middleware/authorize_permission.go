package middleware

import (
	"invoicehub-backend/internal/application/policies"
	"invoicehub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthorizePermission checks that the session user's membership role in the
// organization named by route parameter param allows permission.
func AuthorizePermission(db *gorm.DB, permission, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, ok := ActorID(c)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		orgID, err := uuid.Parse(c.Params(param))
		if err != nil {
			return response.Error(c, "Invalid organization id", fiber.StatusBadRequest, nil)
		}
		if err := policies.Authorize(c.UserContext(), db, actorID, orgID, permission); err != nil {
			return response.FromError(c, err)
		}
		return c.Next()
	}
}
