package org

import (
	"encoding/json"

	orgsvc "invoicehub-backend/internal/application/org"
	"invoicehub-backend/internal/middleware"
	"invoicehub-backend/internal/pkg/pagination"
	"invoicehub-backend/internal/pkg/request"
	"invoicehub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles org handlers with dependencies.
type Handlers struct {
	Service *orgsvc.Service
}

// Create POST /api/v1/organizations/
func (h *Handlers) Create(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in orgsvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	org, err := h.Service.Create(c.UserContext(), actorID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Organization created successfully", org, nil)
}

// List GET /api/v1/organizations/
func (h *Handlers) List(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	orgs, meta, err := h.Service.List(c.UserContext(), actorID, pagination.FromQuery(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organizations retrieved successfully", orgs, meta)
}

// Get GET /api/v1/organizations/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	orgID, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	detail, err := h.Service.GetByID(c.UserContext(), actorID, orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organization retrieved successfully", detail, nil)
}

// Update PATCH /api/v1/organizations/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	orgID, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(c.Body(), &body); err != nil || len(body) == 0 {
		return response.FromError(c, orgsvc.ErrNoUpdateFields)
	}
	org, err := h.Service.Update(c.UserContext(), actorID, orgID, body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organization updated successfully", org, nil)
}

// AddMemberRequest body for POST /api/v1/organizations/:id/members.
type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// AddMember POST /api/v1/organizations/:id/members
func (h *Handlers) AddMember(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	orgID, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return response.Error(c, "user_id is required", fiber.StatusBadRequest, nil)
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return response.Error(c, "Invalid user ID format (must be a valid UUID)", fiber.StatusBadRequest, nil)
	}
	m, err := h.Service.AddMember(c.UserContext(), actorID, orgID, userID, req.Role)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Member added successfully", m, nil)
}
