package database

import (
	"fmt"
	"testing"

	"invoicehub-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	require.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(gorm.ErrRecordNotFound))
}

func TestSQLite_DuplicateReferenceIsUniqueViolation(t *testing.T) {
	db, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	org := domain.Organization{Name: "Acme"}
	require.NoError(t, db.Create(&org).Error)

	first := domain.Invoice{OrganizationID: org.ID, ReferenceNumber: "INV-20240301-000001", Title: "a"}
	require.NoError(t, db.Create(&first).Error)

	dup := domain.Invoice{OrganizationID: org.ID, ReferenceNumber: "INV-20240301-000001", Title: "b"}
	err = db.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}
