package invoices

import (
	invoicesvc "invoicehub-backend/internal/application/invoices"
	"invoicehub-backend/internal/middleware"
	"invoicehub-backend/internal/pkg/pagination"
	"invoicehub-backend/internal/pkg/request"
	"invoicehub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles invoice handlers with the invoice service.
type Handlers struct {
	Service *invoicesvc.Service
}

// BulkDeleteRequest body for POST /api/v1/invoices/bulk-delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// Create POST /api/v1/invoices/ assigns the reference number server-side.
func (h *Handlers) Create(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in invoicesvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	inv, err := h.Service.Create(c.UserContext(), actorID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Invoice created successfully", inv, nil)
}

// List GET /api/v1/invoices/
func (h *Handlers) List(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	f, err := listFilter(c)
	if err != nil {
		return response.FromError(c, err)
	}
	list, meta, err := h.Service.List(c.UserContext(), actorID, f)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invoices retrieved successfully", list, meta)
}

func listFilter(c *fiber.Ctx) (invoicesvc.ListFilter, error) {
	f := invoicesvc.ListFilter{
		RefNo:         c.Query("ref_no"),
		RefNoContains: c.Query("ref_no__icontains"),
		Ordering:      c.Query("ordering"),
		Page:          pagination.FromQuery(c),
	}
	var err error
	if f.OrganizationID, err = request.UUIDQuery(c, "organization"); err != nil {
		return f, err
	}
	if f.CreatedBy, err = request.UUIDQuery(c, "created_by"); err != nil {
		return f, err
	}
	if f.UpdatedBy, err = request.UUIDQuery(c, "updated_by"); err != nil {
		return f, err
	}
	if f.Date, err = request.DateQuery(c, "date"); err != nil {
		return f, err
	}
	if f.DateFrom, err = request.DateQuery(c, "date__gte"); err != nil {
		return f, err
	}
	if f.DateTo, err = request.DateQuery(c, "date__lte"); err != nil {
		return f, err
	}
	if f.DueDate, err = request.DateQuery(c, "due_date"); err != nil {
		return f, err
	}
	if f.DueFrom, err = request.DateQuery(c, "due_date__gte"); err != nil {
		return f, err
	}
	if f.DueTo, err = request.DateQuery(c, "due_date__lte"); err != nil {
		return f, err
	}
	return f, nil
}

// Get GET /api/v1/invoices/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	inv, err := h.Service.Get(c.UserContext(), actorID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invoice retrieved successfully", inv, nil)
}

// Update PUT and PATCH /api/v1/invoices/:id. Omitted fields are kept.
func (h *Handlers) Update(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in invoicesvc.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	inv, err := h.Service.Update(c.UserContext(), actorID, id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invoice updated successfully", inv, nil)
}

// Delete DELETE /api/v1/invoices/:id
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
	return response.Success(c, "Invoice deleted successfully", nil, nil)
}

// BulkDelete POST /api/v1/invoices/bulk-delete
func (h *Handlers) BulkDelete(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req BulkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.FromError(c, invoicesvc.ErrNoIDs)
	}
	n, err := h.Service.BulkDelete(c.UserContext(), actorID, req.IDs)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invoices deleted successfully", fiber.Map{"deleted_count": n}, nil)
}

// GenerateReference GET /api/v1/invoices/generate-irn?organization=<id>
// previews the next number without reserving it.
func (h *Handlers) GenerateReference(c *fiber.Ctx) error {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	orgID, err := request.UUIDQuery(c, "organization")
	if err != nil {
		return response.FromError(c, err)
	}
	if orgID == nil || *orgID == uuid.Nil {
		return response.FromError(c, invoicesvc.ErrOrganizationNeeded)
	}
	ref, err := h.Service.PreviewReference(c.UserContext(), actorID, *orgID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Reference number generated", fiber.Map{"reference_number": ref}, nil)
}
