package clients

import (
	clientsvc "invoicehub-backend/internal/application/clients"
	"invoicehub-backend/internal/middleware"
	"invoicehub-backend/internal/pkg/pagination"
	"invoicehub-backend/internal/pkg/request"
	"invoicehub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *clientsvc.Service
}

// Create POST /api/v1/clients/
func (h *Handlers) Create(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in clientsvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	client, err := h.Service.Create(c.UserContext(), actorID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Client created successfully", client, nil)
}

// List GET /api/v1/clients/?organization_id=&search=&ordering=&page=&page_size=
func (h *Handlers) List(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	orgID, err := request.UUIDQuery(c, "organization_id")
	if err != nil {
		return response.FromError(c, err)
	}
	list, meta, err := h.Service.List(c.UserContext(), actorID, clientsvc.ListFilter{
		OrganizationID: orgID,
		Search:         c.Query("search"),
		Ordering:       c.Query("ordering"),
		Page:           pagination.FromQuery(c),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Clients retrieved successfully", list, meta)
}

// ListForOrganization GET /api/v1/organizations/:id/clients
func (h *Handlers) ListForOrganization(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	orgID, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	out, err := h.Service.ListByOrganization(c.UserContext(), actorID, orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Clients retrieved successfully", out, nil)
}

// Get GET /api/v1/clients/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	client, err := h.Service.Get(c.UserContext(), actorID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Client retrieved successfully", client, nil)
}

// Replace PUT /api/v1/clients/:id
func (h *Handlers) Replace(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in clientsvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	client, err := h.Service.Replace(c.UserContext(), actorID, id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Client updated successfully", client, nil)
}

// Update PATCH /api/v1/clients/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var p clientsvc.Patch
	if err := c.BodyParser(&p); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	client, err := h.Service.Update(c.UserContext(), actorID, id, p)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Client updated successfully", client, nil)
}

// Delete DELETE /api/v1/clients/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.Delete(c.UserContext(), actorID, id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Client deleted successfully", nil, nil)
}
