// Package request parses path and query values shared by handlers.
package request

import (
	"strings"
	"time"

	"invoicehub-backend/internal/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// UUIDParam parses route parameter name as a UUID.
func UUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid " + name + " format (must be a valid UUID)")
	}
	return id, nil
}

// UUIDQuery parses ?name= as a UUID. Absent means nil.
func UUIDQuery(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, apperr.Validation(name + " must be a valid UUID")
	}
	return &id, nil
}

// DateQuery parses ?name=YYYY-MM-DD as midnight UTC. Absent means nil.
func DateQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, apperr.Validation(name + " must be formatted as YYYY-MM-DD")
	}
	return &t, nil
}
