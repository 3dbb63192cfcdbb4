package irn

import (
	"context"

	"invoicehub-backend/internal/domain"
	"invoicehub-backend/internal/pkg/apperr"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore reads organizations and invoices through GORM. Pass a transaction
// handle as DB to make the lookup part of an insert.
type GormStore struct {
	DB *gorm.DB
	// ForUpdate locks the organization row (Postgres only).
	ForUpdate bool
}

func (s *GormStore) organizationQuery(ctx context.Context, id uuid.UUID) *gorm.DB {
	q := s.DB.WithContext(ctx)
	if s.ForUpdate && q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q.Where("id = ?", id)
}

func (s *GormStore) FindOrganization(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	var org domain.Organization
	if err := s.organizationQuery(ctx, id).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, apperr.Database(err, "find organization")
	}
	return &org, nil
}

func (s *GormStore) LatestReference(ctx context.Context, stem string) (string, bool, error) {
	var refs []string
	err := s.DB.WithContext(ctx).
		Unscoped().
		Model(&domain.Invoice{}).
		Where("reference_number LIKE ?", stem+"%").
		Order("reference_number DESC").
		Limit(1).
		Pluck("reference_number", &refs).Error
	if err != nil {
		return "", false, apperr.Database(err, "latest reference")
	}
	if len(refs) == 0 {
		return "", false, nil
	}
	return refs[0], true, nil
}
