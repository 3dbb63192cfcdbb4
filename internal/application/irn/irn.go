// Package irn allocates invoice reference numbers of the form
// PREFIX-YYYYMMDD-NNNNNN.
package irn

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"invoicehub-backend/internal/domain"
	"invoicehub-backend/internal/pkg/apperr"

	"github.com/google/uuid"
)

const (
	DefaultPrefix = "INV"
	SuffixWidth   = 6
	MaxSuffix     = 999999

	dateLayout = "20060102"
)

var (
	ErrOrganizationNotFound = apperr.New("Organization not found", apperr.ErrNotFound)
	ErrSequenceExhausted    = apperr.New("Invoice reference sequence exhausted for this day", apperr.ErrSequenceExhausted)
	ErrMalformedReference   = apperr.New("Malformed invoice reference number", apperr.ErrDatabase)
)

// Store is the read side the generator needs.
type Store interface {
	// FindOrganization returns ErrOrganizationNotFound when id does not exist.
	FindOrganization(ctx context.Context, id uuid.UUID) (*domain.Organization, error)
	// LatestReference returns the highest reference number starting with stem,
	// deleted invoices included. ok is false when none exists.
	LatestReference(ctx context.Context, stem string) (ref string, ok bool, err error)
}

// Clock returns the current time.
type Clock func() time.Time

// Generator computes the next reference number. It never writes.
type Generator struct {
	Store Store
	Now   Clock
}

// NewGenerator returns a Generator on the UTC wall clock.
func NewGenerator(store Store) *Generator {
	return &Generator{Store: store, Now: func() time.Time { return time.Now().UTC() }}
}

// Next returns the next reference number for the organization on today's date.
func (g *Generator) Next(ctx context.Context, organizationID uuid.UUID) (string, error) {
	now := time.Now().UTC()
	if g.Now != nil {
		now = g.Now()
	}
	return g.NextOn(ctx, organizationID, now)
}

// NextOn returns the next reference number for the organization stamped with day.
func (g *Generator) NextOn(ctx context.Context, organizationID uuid.UUID, day time.Time) (string, error) {
	org, err := g.Store.FindOrganization(ctx, organizationID)
	if err != nil {
		return "", err
	}
	return g.NextFor(ctx, org, day)
}

// NextFor is NextOn for an organization the caller has already loaded.
func (g *Generator) NextFor(ctx context.Context, org *domain.Organization, day time.Time) (string, error) {
	stem := Stem(Prefix(org), day)
	latest, ok, err := g.Store.LatestReference(ctx, stem)
	if err != nil {
		return "", err
	}
	next := 1
	if ok {
		n, err := ParseSuffix(latest)
		if err != nil {
			return "", err
		}
		next = n + 1
	}
	if next > MaxSuffix {
		return "", ErrSequenceExhausted
	}
	return Format(Prefix(org), day, next), nil
}

// Prefix returns the organization's reference prefix, DefaultPrefix when unset.
func Prefix(org *domain.Organization) string {
	if org == nil || org.Prefix == nil {
		return DefaultPrefix
	}
	p := strings.TrimSpace(*org.Prefix)
	if p == "" {
		return DefaultPrefix
	}
	return p
}

// Stem is the shared leading part of every reference for prefix on day.
func Stem(prefix string, day time.Time) string {
	return prefix + "-" + day.Format(dateLayout) + "-"
}

// Format renders a reference number.
func Format(prefix string, day time.Time, suffix int) string {
	return fmt.Sprintf("%s%0*d", Stem(prefix, day), SuffixWidth, suffix)
}

// ParseSuffix extracts the numeric counter from ref.
func ParseSuffix(ref string) (int, error) {
	i := strings.LastIndexByte(ref, '-')
	digits := ref[i+1:]
	if i < 0 || len(digits) != SuffixWidth || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, ErrMalformedReference
	}
	return strconv.Atoi(digits)
}
