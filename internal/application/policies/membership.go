package policies

import (
	"context"

	"invoicehub-backend/internal/domain"
	"invoicehub-backend/internal/pkg/apperr"
	"invoicehub-backend/internal/pkg/constants"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotMember         = apperr.New("You are not a member of this organization", apperr.ErrPermissionDenied)
	ErrForbidden         = apperr.New("User is Forbidden from performing this action", apperr.ErrPermissionDenied)
	ErrNotResourceOwner  = apperr.New("You do not have permission to modify this resource", apperr.ErrPermissionDenied)
	ErrUnknownPermission = apperr.New("Permission configuration error", apperr.ErrDatabase)
)

// MembershipRole returns userID's role in orgID, or ErrNotMember.
func MembershipRole(ctx context.Context, db *gorm.DB, userID, orgID uuid.UUID) (string, error) {
	var m domain.OrganizationMember
	err := db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotMember
		}
		return "", apperr.Database(err, "find membership")
	}
	return m.Role, nil
}

// Authorize checks that userID holds a role in orgID allowed to perform permission.
func Authorize(ctx context.Context, db *gorm.DB, userID, orgID uuid.UUID, permission string) error {
	if _, ok := constants.PermissionRoles[permission]; !ok {
		return ErrUnknownPermission
	}
	role, err := MembershipRole(ctx, db, userID, orgID)
	if err != nil {
		return err
	}
	if !constants.AllowedRole(permission, role) {
		return ErrForbidden
	}
	return nil
}

// MemberOrganizationIDs lists the organizations userID belongs to.
func MemberOrganizationIDs(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.WithContext(ctx).
		Model(&domain.OrganizationMember{}).
		Where("user_id = ?", userID).
		Pluck("organization_id", &ids).Error
	if err != nil {
		return nil, apperr.Database(err, "list memberships")
	}
	return ids, nil
}
