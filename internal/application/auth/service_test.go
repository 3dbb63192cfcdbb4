package auth

import (
	"context"
	"testing"

	"invoicehub-backend/internal/domain"
	"invoicehub-backend/internal/infrastructure/database"
	"invoicehub-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoginUser(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := domain.User{Fullname: "Test User", Email: "test@example.com", PasswordHash: string(hash)}
	require.NoError(t, db.Create(&u).Error)
	ctx := context.Background()

	got, err := LoginUser(ctx, db, LoginInput{Email: "Test@Example.com ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, u.UserID, got.UserID)

	_, err = LoginUser(ctx, db, LoginInput{Email: "test@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrIncorrectPassword)
	assert.Equal(t, 401, apperr.HTTPStatus(err))

	_, err = LoginUser(ctx, db, LoginInput{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = LoginUser(ctx, db, LoginInput{Email: "test@example.com"})
	assert.ErrorIs(t, err, ErrEmailPasswordRequired)
}

func TestVerifyUserAndActorID(t *testing.T) {
	_, err := VerifyUser(nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = VerifyUser("not a map")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = VerifyUser(map[string]interface{}{"email": "a@b.com"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	id := uuid.New()
	shape, err := VerifyUser(map[string]interface{}{"user_id": id.String(), "fullname": "Ada", "email": "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", shape.Fullname)

	got, err := ActorID(map[string]interface{}{"user_id": id.String()})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ActorID(map[string]interface{}{"user_id": "not-a-uuid"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
