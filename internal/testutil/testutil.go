// Package testutil holds fixtures shared by handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"invoicehub-backend/internal/domain"
	"invoicehub-backend/internal/infrastructure/database"
	"invoicehub-backend/internal/pkg/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory SQLite database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewRedis starts a miniredis server and returns a client for it.
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return rdb, mr
}

// CreateUser inserts a user without a usable password.
func CreateUser(t *testing.T, db *gorm.DB, fullname, email string) domain.User {
	t.Helper()
	u := domain.User{Fullname: fullname, Email: email, PasswordHash: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// CreateOrganization inserts an organization with owner as its owner member.
func CreateOrganization(t *testing.T, db *gorm.DB, name string, prefix *string, owner uuid.UUID) domain.Organization {
	t.Helper()
	org := domain.Organization{Name: name, Prefix: prefix}
	require.NoError(t, db.Create(&org).Error)
	AddMember(t, db, org.ID, owner, constants.Owner)
	return org
}

// AddMember links userID to orgID with role.
func AddMember(t *testing.T, db *gorm.DB, orgID, userID uuid.UUID, role string) {
	t.Helper()
	require.NoError(t, db.Create(&domain.OrganizationMember{OrganizationID: orgID, UserID: userID, Role: role}).Error)
}

// AsUser puts a session user into Locals the way the session middleware does.
func AsUser(u domain.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{
			"user_id":  u.UserID.String(),
			"fullname": u.Fullname,
			"email":    u.Email,
		})
		return c.Next()
	}
}

// Do sends a request with an optional JSON body and decodes the JSON response.
func Do(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

// Data returns the "data" object of a success envelope.
func Data(out map[string]interface{}) map[string]interface{} {
	m, _ := out["data"].(map[string]interface{})
	return m
}

// ErrorMessage returns error.message of an error envelope.
func ErrorMessage(out map[string]interface{}) string {
	e, _ := out["error"].(map[string]interface{})
	s, _ := e["message"].(string)
	return s
}
