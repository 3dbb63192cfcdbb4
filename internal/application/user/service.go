package user

import (
	"context"
	"strings"
	"unicode"

	"invoicehub-backend/internal/domain"
	"invoicehub-backend/internal/infrastructure/database"
	"invoicehub-backend/internal/pkg/apperr"
	"invoicehub-backend/internal/pkg/validation"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

var (
	ErrInvalidEmail     = apperr.Validation("Invalid email format")
	ErrInvalidPassword  = apperr.Validation("Invalid password format")
	ErrFullnameRequired = apperr.Validation("Full name is required and must be a non-empty string")
	ErrInvalidFullname  = apperr.Validation("Full name contains invalid characters (only letters, spaces, hyphens, and apostrophes allowed)")
	ErrEmailTaken       = apperr.New("Email already registered", apperr.ErrConflict)
)

// Service holds the DB for user accounts.
type Service struct {
	DB *gorm.DB
}

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}

// Register creates a user and its empty profile.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Email == "" || !validation.IsValidEmail(in.Email) {
		return nil, ErrInvalidEmail
	}
	if in.Password == "" || !validation.IsValidPassword(in.Password) {
		return nil, ErrInvalidPassword
	}
	fullname, err := NormalizeFullname(in.Fullname)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))

	var existing domain.User
	err = s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Database(err, "find user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	u := &domain.User{Email: email, PasswordHash: string(hash), Fullname: fullname}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return apperr.Database(err, "create user")
		}
		if err := tx.Create(&domain.Profile{UserID: u.UserID}).Error; err != nil {
			return apperr.Database(err, "create profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// NormalizeFullname validates a display name and title-cases it.
func NormalizeFullname(fullname string) (string, error) {
	trimmed := strings.TrimSpace(fullname)
	if trimmed == "" {
		return "", ErrFullnameRequired
	}
	if !validation.IsValidFullname(trimmed) {
		return "", ErrInvalidFullname
	}
	return titleCaseAndNormalize(trimmed), nil
}

func titleCaseAndNormalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	capitalize := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !capitalize {
				b.WriteRune(' ')
				capitalize = true
			}
			continue
		}
		if capitalize {
			b.WriteRune(unicode.ToUpper(r))
			capitalize = false
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
