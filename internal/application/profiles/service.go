package profiles

import (
	"context"

	"invoicehub-backend/internal/application/user"
	"invoicehub-backend/internal/domain"
	"invoicehub-backend/internal/pkg/apperr"
	"invoicehub-backend/internal/pkg/validation"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrUserNotFound = apperr.New("User not found", apperr.ErrNotFound)

// Service reads and edits the signed-in user's profile.
type Service struct {
	DB *gorm.DB
}

// View is a profile with the owning user's name and email.
type View struct {
	domain.Profile
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

// Patch carries profile changes. Nil means unchanged.
type Patch struct {
	Fullname    *string `json:"fullname"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=30"`
	About       *string `json:"about"`
	Gender      *string `json:"gender" validate:"omitempty,max=20"`
	Country     *string `json:"country" validate:"omitempty,max=100"`
	City        *string `json:"city" validate:"omitempty,max=180"`
}

// Get returns the profile of userID, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Database(err, "find user")
	}
	if err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&domain.Profile{UserID: userID}).Error; err != nil {
		return nil, apperr.Database(err, "ensure profile")
	}
	var p domain.Profile
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, apperr.Database(err, "find profile")
	}
	return &View{Profile: p, Fullname: u.Fullname, Email: u.Email}, nil
}

// Update applies p to userID's profile and name.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, p Patch) (*View, error) {
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	var fullname string
	if p.Fullname != nil {
		n, err := user.NormalizeFullname(*p.Fullname)
		if err != nil {
			return nil, err
		}
		fullname = n
	}
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			fields[col] = *v
		}
	}
	set("phone_number", p.PhoneNumber)
	set("about", p.About)
	set("gender", p.Gender)
	set("country", p.Country)
	set("city", p.City)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if fullname != "" {
			if err := tx.Model(&domain.User{}).Where("user_id = ?", userID).Update("fullname", fullname).Error; err != nil {
				return apperr.Database(err, "update fullname")
			}
		}
		if len(fields) > 0 {
			if err := tx.Model(&domain.Profile{}).Where("user_id = ?", userID).Updates(fields).Error; err != nil {
				return apperr.Database(err, "update profile")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}
