package profiles

import (
	profilesvc "invoicehub-backend/internal/application/profiles"
	"invoicehub-backend/internal/middleware"
	"invoicehub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *profilesvc.Service
}

// Me GET /api/v1/profiles/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	p, err := h.Service.Get(c.UserContext(), actorID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Profile retrieved successfully", p, nil)
}

// UpdateMe PATCH /api/v1/profiles/me
func (h *Handlers) UpdateMe(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var patch profilesvc.Patch
	if err := c.BodyParser(&patch); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.Update(c.UserContext(), actorID, patch)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Profile updated successfully", p, nil)
}
