package clients

import (
	"context"
	"strings"

	"invoicehub-backend/internal/application/policies"
	"invoicehub-backend/internal/domain"
	"invoicehub-backend/internal/pkg/apperr"
	"invoicehub-backend/internal/pkg/constants"
	"invoicehub-backend/internal/pkg/pagination"
	"invoicehub-backend/internal/pkg/validation"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrClientNotFound = apperr.New("Client not found", apperr.ErrNotFound)
	ErrOrgNotFound    = apperr.New("Organization not found", apperr.ErrNotFound)
)

var orderingFields = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "name",
}

// Service encapsulates client operations.
type Service struct {
	DB *gorm.DB
}

// Input is the create/replace payload.
type Input struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name" validate:"required,max=255"`
	Address        string    `json:"address" validate:"required"`
	Email          string    `json:"email" validate:"required,email"`
	PhoneNumber    string    `json:"phone_number" validate:"required,max=30"`
}

// Patch is a partial update. Nil means unchanged.
type Patch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Address     *string `json:"address" validate:"omitempty,min=1"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,min=1,max=30"`
}

// ListFilter narrows List.
type ListFilter struct {
	OrganizationID *uuid.UUID
	Search         string
	Ordering       string
	Page           pagination.Page
}

// OrganizationClients is the clients of one organization with its name.
type OrganizationClients struct {
	OrganizationID   uuid.UUID       `json:"organization_id"`
	OrganizationName string          `json:"organization_name"`
	Clients          []domain.Client `json:"clients"`
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var c domain.Client
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, apperr.Database(err, "find client")
	}
	return &c, nil
}

func (s *Service) requireOrganization(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	var org domain.Organization
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, apperr.Database(err, "find organization")
	}
	return &org, nil
}

// Create adds a client to an organization actorID can manage.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, in Input) (*domain.Client, error) {
	if in.OrganizationID == uuid.Nil {
		return nil, apperr.Validation("organization_id is required")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := policies.Authorize(ctx, s.DB, actorID, in.OrganizationID, constants.ManageClients); err != nil {
		return nil, err
	}
	if _, err := s.requireOrganization(ctx, in.OrganizationID); err != nil {
		return nil, err
	}
	c := &domain.Client{
		OrganizationID: in.OrganizationID,
		Name:           strings.TrimSpace(in.Name),
		Address:        strings.TrimSpace(in.Address),
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		PhoneNumber:    strings.TrimSpace(in.PhoneNumber),
	}
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		return nil, apperr.Database(err, "create client")
	}
	return c, nil
}

// Get returns a client visible to actorID.
func (s *Service) Get(ctx context.Context, actorID, id uuid.UUID) (*domain.Client, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policies.Authorize(ctx, s.DB, actorID, c.OrganizationID, constants.ViewData); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns clients of actorID's organizations. Search matches name,
// email or phone number, case-insensitively.
func (s *Service) List(ctx context.Context, actorID uuid.UUID, f ListFilter) ([]domain.Client, pagination.Meta, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Client{})
	if f.OrganizationID != nil {
		if err := policies.Authorize(ctx, s.DB, actorID, *f.OrganizationID, constants.ViewData); err != nil {
			return nil, pagination.Meta{}, err
		}
		q = q.Where("organization_id = ?", *f.OrganizationID)
	} else {
		ids, err := policies.MemberOrganizationIDs(ctx, s.DB, actorID)
		if err != nil {
			return nil, pagination.Meta{}, err
		}
		if len(ids) == 0 {
			return []domain.Client{}, pagination.BuildMeta(f.Page, 0), nil
		}
		q = q.Where("organization_id IN ?", ids)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(phone_number) LIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, pagination.Meta{}, apperr.Database(err, "count clients")
	}
	var out []domain.Client
	order := pagination.Ordering(f.Ordering, orderingFields, "created_at DESC")
	if err := pagination.Apply(q.Order(order), f.Page).Find(&out).Error; err != nil {
		return nil, pagination.Meta{}, apperr.Database(err, "list clients")
	}
	return out, pagination.BuildMeta(f.Page, total), nil
}

// ListByOrganization returns every client of orgID with the organization's name.
func (s *Service) ListByOrganization(ctx context.Context, actorID, orgID uuid.UUID) (*OrganizationClients, error) {
	if err := policies.Authorize(ctx, s.DB, actorID, orgID, constants.ViewData); err != nil {
		return nil, err
	}
	org, err := s.requireOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	var list []domain.Client
	if err := s.DB.WithContext(ctx).Where("organization_id = ?", orgID).Order("name ASC").Find(&list).Error; err != nil {
		return nil, apperr.Database(err, "list organization clients")
	}
	if list == nil {
		list = []domain.Client{}
	}
	return &OrganizationClients{OrganizationID: org.ID, OrganizationName: org.Name, Clients: list}, nil
}

// Replace overwrites every editable field of a client. The organization cannot change.
func (s *Service) Replace(ctx context.Context, actorID, id uuid.UUID, in Input) (*domain.Client, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	in.OrganizationID = c.OrganizationID
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	return s.apply(ctx, actorID, c, Patch{Name: &in.Name, Address: &in.Address, Email: &email, PhoneNumber: &in.PhoneNumber})
}

// Update applies a partial change to a client.
func (s *Service) Update(ctx context.Context, actorID, id uuid.UUID, p Patch) (*domain.Client, error) {
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, actorID, c, p)
}

func (s *Service) apply(ctx context.Context, actorID uuid.UUID, c *domain.Client, p Patch) (*domain.Client, error) {
	if err := policies.Authorize(ctx, s.DB, actorID, c.OrganizationID, constants.ManageClients); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if p.Name != nil {
		fields["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Address != nil {
		fields["address"] = strings.TrimSpace(*p.Address)
	}
	if p.Email != nil {
		fields["email"] = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.PhoneNumber != nil {
		fields["phone_number"] = strings.TrimSpace(*p.PhoneNumber)
	}
	if len(fields) == 0 {
		return c, nil
	}
	if err := s.DB.WithContext(ctx).Model(&domain.Client{}).Where("id = ?", c.ID).Updates(fields).Error; err != nil {
		return nil, apperr.Database(err, "update client")
	}
	return s.find(ctx, c.ID)
}

// Delete soft-deletes a client.
func (s *Service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	c, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := policies.Authorize(ctx, s.DB, actorID, c.OrganizationID, constants.ManageClients); err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(c).Error; err != nil {
		return apperr.Database(err, "delete client")
	}
	return nil
}
