package validation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"invoicehub-backend/internal/pkg/apperr"

	"github.com/go-playground/validator/v10"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Fullname: letters, spaces, hyphens, apostrophes only.
var fullnameRe = regexp.MustCompile(`^[A-Za-z\s\-']+$`)

// Invoice reference prefix: uppercase letters and digits, at most 10.
var prefixRe = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidPassword requires at least 8 characters with a letter, a digit and a
// punctuation or symbol character.
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit, hasSpecial := false, false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}

func IsValidFullname(fullname string) bool {
	return fullname != "" && fullnameRe.MatchString(fullname)
}

// NormalizePrefix uppercases and trims p. Empty input yields nil (no prefix).
func NormalizePrefix(p *string) (*string, error) {
	if p == nil {
		return nil, nil
	}
	s := strings.ToUpper(strings.TrimSpace(*p))
	if s == "" {
		return nil, nil
	}
	if !prefixRe.MatchString(s) {
		return nil, apperr.Validation("invoice_reference_prefix must be 1-10 letters or digits")
	}
	return &s, nil
}

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Struct validates req using its `validate` tags. Failures are returned as a
// validation error whose message lists the offending fields.
func Struct(req interface{}) error {
	err := validatorInstance().Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if apperr.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
		}
		return apperr.Validation("Validation failed: " + strings.Join(parts, ", "))
	}
	return apperr.Validation(err.Error())
}
