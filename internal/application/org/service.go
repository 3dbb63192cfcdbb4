package org

import (
	"context"
	"strings"

	"invoicehub-backend/internal/application/irn"
	"invoicehub-backend/internal/application/policies"
	"invoicehub-backend/internal/domain"
	"invoicehub-backend/internal/infrastructure/database"
	"invoicehub-backend/internal/pkg/apperr"
	"invoicehub-backend/internal/pkg/constants"
	"invoicehub-backend/internal/pkg/pagination"
	"invoicehub-backend/internal/pkg/validation"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

const (
	defaultTemplateID = 1
	defaultThemeColor = "blue"
	defaultCurrency   = "USD"
	defaultTimeZone   = "UTC"
	defaultDateFormat = "YYYY-MM-DD"
	defaultTerms      = "Default terms and conditions."
	defaultNote       = "Additional notes."
	defaultExpiryDays = 30
)

var (
	ErrOrgNotFound     = apperr.New("Organization not found", apperr.ErrNotFound)
	ErrNameRequired    = apperr.Validation("name is required")
	ErrPrefixTaken     = apperr.New("invoice_reference_prefix is already used by another organization", apperr.ErrConflict)
	ErrPrefixReserved  = apperr.Validation("invoice_reference_prefix " + irn.DefaultPrefix + " is reserved")
	ErrAlreadyMember   = apperr.New("User is already a member of this organization.", apperr.ErrConflict)
	ErrUserNotFound    = apperr.New("User not found", apperr.ErrNotFound)
	ErrInvalidRole     = apperr.Validation("role must be one of owner, member, guest")
	ErrNoUpdateFields  = apperr.Validation("No update fields provided")
	ErrNoValidFields   = apperr.Validation("No valid fields to update")
	ErrInvalidBusiness = apperr.Validation("business_type must be one of freelancing, ngo, profit_business")
)

var businessTypes = []string{domain.BusinessFreelancing, domain.BusinessNGO, domain.BusinessProfitBusiness}

// Service encapsulates organization operations.
type Service struct {
	DB *gorm.DB
}

// CreateInput is the organization create payload.
type CreateInput struct {
	Name               string  `json:"name" validate:"required,max=255"`
	Prefix             *string `json:"invoice_reference_prefix"`
	Address            *string `json:"address"`
	Email              *string `json:"email" validate:"omitempty,email"`
	PhoneNumber        *string `json:"phone_number" validate:"omitempty,max=30"`
	Website            *string `json:"website" validate:"omitempty,url"`
	DefaultTemplateID  *int    `json:"default_template_id" validate:"omitempty,min=1"`
	ThemeColor         *string `json:"theme_color" validate:"omitempty,max=20"`
	BaseCurrency       *string `json:"base_currency" validate:"omitempty,len=3"`
	TimeZone           *string `json:"time_zone" validate:"omitempty,max=50"`
	BusinessType       *string `json:"business_type"`
	DateFormat         *string `json:"date_format" validate:"omitempty,max=20"`
	TermsAndConditions *string `json:"terms_and_conditions"`
	Note               *string `json:"note"`
	InvoiceExpiryDays  *int    `json:"invoice_expiry_days" validate:"omitempty,min=0"`
}

// MemberView is a member row joined with the user's name.
type MemberView struct {
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
	Role     string    `json:"role"`
}

// Detail is an organization with its members.
type Detail struct {
	domain.Organization
	Members []MemberView `json:"members"`
}

// Create creates an organization and makes actorID its owner.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, in CreateInput) (*domain.Organization, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrNameRequired
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	prefix, err := validation.NormalizePrefix(in.Prefix)
	if err != nil {
		return nil, err
	}
	if in.BusinessType != nil && !lo.Contains(businessTypes, *in.BusinessType) {
		return nil, ErrInvalidBusiness
	}

	org := &domain.Organization{
		Name:               in.Name,
		Prefix:             prefix,
		Address:            in.Address,
		Email:              in.Email,
		PhoneNumber:        in.PhoneNumber,
		Website:            in.Website,
		DefaultTemplateID:  lo.FromPtrOr(in.DefaultTemplateID, defaultTemplateID),
		ThemeColor:         lo.FromPtrOr(in.ThemeColor, defaultThemeColor),
		BaseCurrency:       strings.ToUpper(lo.FromPtrOr(in.BaseCurrency, defaultCurrency)),
		TimeZone:           lo.FromPtrOr(in.TimeZone, defaultTimeZone),
		BusinessType:       lo.FromPtrOr(in.BusinessType, domain.BusinessProfitBusiness),
		DateFormat:         lo.FromPtrOr(in.DateFormat, defaultDateFormat),
		TermsAndConditions: lo.FromPtrOr(in.TermsAndConditions, defaultTerms),
		Note:               lo.FromPtrOr(in.Note, defaultNote),
		InvoiceExpiryDays:  lo.FromPtrOr(in.InvoiceExpiryDays, defaultExpiryDays),
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensurePrefixFree(tx, prefix, uuid.Nil); err != nil {
			return err
		}
		if err := tx.Create(org).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrPrefixTaken
			}
			return apperr.Database(err, "create organization")
		}
		owner := &domain.OrganizationMember{UserID: actorID, OrganizationID: org.ID, Role: constants.Owner}
		if err := tx.Create(owner).Error; err != nil {
			return apperr.Database(err, "create owner membership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// ensurePrefixFree rejects the default prefix, a prefix held by another
// organization (deleted ones included), and a prefix under which another
// organization has already issued reference numbers.
func (s *Service) ensurePrefixFree(tx *gorm.DB, prefix *string, self uuid.UUID) error {
	if prefix == nil {
		return nil
	}
	if *prefix == irn.DefaultPrefix {
		return ErrPrefixReserved
	}
	var count int64
	q := tx.Unscoped().Model(&domain.Organization{}).Where("invoice_reference_prefix = ?", *prefix)
	if self != uuid.Nil {
		q = q.Where("id <> ?", self)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperr.Database(err, "check prefix")
	}
	if count > 0 {
		return ErrPrefixTaken
	}

	q = tx.Unscoped().Model(&domain.Invoice{}).Where("reference_number LIKE ?", *prefix+"-%")
	if self != uuid.Nil {
		q = q.Where("organization_id <> ?", self)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperr.Database(err, "check issued prefix")
	}
	if count > 0 {
		return ErrPrefixTaken
	}
	return nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	var org domain.Organization
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, apperr.Database(err, "find organization")
	}
	return &org, nil
}

// GetByID returns the organization and its members. actorID must be a member.
func (s *Service) GetByID(ctx context.Context, actorID, orgID uuid.UUID) (*Detail, error) {
	if err := policies.Authorize(ctx, s.DB, actorID, orgID, constants.ViewData); err != nil {
		return nil, err
	}
	org, err := s.find(ctx, orgID)
	if err != nil {
		return nil, err
	}
	var members []MemberView
	if err := s.DB.WithContext(ctx).
		Table("organization_members AS m").
		Select("m.user_id, u.fullname AS user_name, m.role").
		Joins("LEFT JOIN users u ON u.user_id = m.user_id").
		Where("m.organization_id = ?", orgID).
		Order("m.created_at ASC").
		Scan(&members).Error; err != nil {
		return nil, apperr.Database(err, "list members")
	}
	if members == nil {
		members = []MemberView{}
	}
	return &Detail{Organization: *org, Members: members}, nil
}

// List returns the organizations actorID belongs to.
func (s *Service) List(ctx context.Context, actorID uuid.UUID, page pagination.Page) ([]domain.Organization, pagination.Meta, error) {
	ids, err := policies.MemberOrganizationIDs(ctx, s.DB, actorID)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	if len(ids) == 0 {
		return []domain.Organization{}, pagination.BuildMeta(page, 0), nil
	}
	q := s.DB.WithContext(ctx).Model(&domain.Organization{}).Where("id IN ?", ids)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, pagination.Meta{}, apperr.Database(err, "count organizations")
	}
	var out []domain.Organization
	if err := pagination.Apply(q.Order("created_at DESC"), page).Find(&out).Error; err != nil {
		return nil, pagination.Meta{}, apperr.Database(err, "list organizations")
	}
	return out, pagination.BuildMeta(page, total), nil
}

var updatableFields = map[string]bool{
	"name":                     true,
	"invoice_reference_prefix": true,
	"address":                  true,
	"email":                    true,
	"phone_number":             true,
	"website":                  true,
	"default_template_id":      true,
	"theme_color":              true,
	"base_currency":            true,
	"time_zone":                true,
	"business_type":            true,
	"date_format":              true,
	"terms_and_conditions":     true,
	"note":                     true,
	"invoice_expiry_days":      true,
}

// Update applies whitelisted fields. Only owners may update. Changing the
// prefix affects only numbers issued afterwards.
func (s *Service) Update(ctx context.Context, actorID, orgID uuid.UUID, fields map[string]interface{}) (*domain.Organization, error) {
	if len(fields) == 0 {
		return nil, ErrNoUpdateFields
	}
	if err := policies.Authorize(ctx, s.DB, actorID, orgID, constants.UpdateOrganization); err != nil {
		return nil, err
	}
	if _, err := s.find(ctx, orgID); err != nil {
		return nil, err
	}

	valid := lo.PickBy(fields, func(k string, _ interface{}) bool { return updatableFields[k] })
	if len(valid) == 0 {
		return nil, ErrNoValidFields
	}
	if v, ok := valid["name"]; ok {
		name, _ := v.(string)
		if strings.TrimSpace(name) == "" {
			return nil, ErrNameRequired
		}
		valid["name"] = strings.TrimSpace(name)
	}
	if v, ok := valid["business_type"]; ok {
		bt, _ := v.(string)
		if !lo.Contains(businessTypes, bt) {
			return nil, ErrInvalidBusiness
		}
	}
	var prefix *string
	if v, ok := valid["invoice_reference_prefix"]; ok {
		if v != nil {
			raw, isStr := v.(string)
			if !isStr {
				return nil, apperr.Validation("invoice_reference_prefix must be a string")
			}
			p, err := validation.NormalizePrefix(&raw)
			if err != nil {
				return nil, err
			}
			prefix = p
		}
		valid["invoice_reference_prefix"] = prefix
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensurePrefixFree(tx, prefix, orgID); err != nil {
			return err
		}
		if err := tx.Model(&domain.Organization{}).Where("id = ?", orgID).Updates(valid).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrPrefixTaken
			}
			return apperr.Database(err, "update organization")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.find(ctx, orgID)
}

// AddMember adds userID to the organization with role. Only owners may add members.
func (s *Service) AddMember(ctx context.Context, actorID, orgID, userID uuid.UUID, role string) (*domain.OrganizationMember, error) {
	if role == "" {
		role = constants.Member
	}
	if !constants.IsValidRole(role) {
		return nil, ErrInvalidRole
	}
	if err := policies.Authorize(ctx, s.DB, actorID, orgID, constants.AddMember); err != nil {
		return nil, err
	}
	if _, err := s.find(ctx, orgID); err != nil {
		return nil, err
	}
	var user domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Database(err, "find user")
	}
	if _, err := policies.MembershipRole(ctx, s.DB, userID, orgID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, policies.ErrNotMember) {
		return nil, err
	}

	m := &domain.OrganizationMember{UserID: userID, OrganizationID: orgID, Role: role}
	if err := s.DB.WithContext(ctx).Create(m).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyMember
		}
		return nil, apperr.Database(err, "add member")
	}
	return m, nil
}
