package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"invoicehub-backend/internal/pkg/apperr"
	"invoicehub-backend/internal/pkg/constants"
	"invoicehub-backend/internal/testutil"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(c *fiber.Ctx) error { return c.SendString("ok") }

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffix: ".invoicehub.app", DevPassword: "letmein"}))
	app.Get("/", okHandler)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://web.invoicehub.app")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://web.invoicehub.app", resp.Header.Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req.Header.Set("dev-password", "letmein")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestTracing(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	generated := resp.Header.Get("X-Trace-Id")
	_, err = uuid.Parse(generated)
	assert.NoError(t, err)

	incoming := uuid.New().String()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", incoming)
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, incoming, string(body))

	req.Header.Set("X-Trace-Id", "not-a-uuid")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", resp.Header.Get("X-Trace-Id"))
}

func TestRequireAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/open", RequireAuth(), okHandler)
	app.Get("/bad", func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": "nope"})
		return c.Next()
	}, RequireAuth(), okHandler)
	app.Get("/good", func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": uuid.New().String()})
		return c.Next()
	}, RequireAuth(), okHandler)

	for path, want := range map[string]int{"/open": 401, "/bad": 401, "/good": 200} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, path)
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/conflict", func(c *fiber.Ctx) error { return apperr.New("taken", apperr.ErrConflict) })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db password leaked") })

	cases := []struct {
		path string
		code int
		msg  string
	}{
		{"/fiber", fiber.StatusTeapot, "short and stout"},
		{"/conflict", fiber.StatusConflict, "taken"},
		{"/boom", fiber.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tc.code, resp.StatusCode)
		var out map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, tc.msg, out["error"].(map[string]interface{})["message"])
	}
}

func TestAuthorizePermission(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "Olivia Owner", "olivia@example.com")
	member := testutil.CreateUser(t, db, "Mark Member", "mark@example.com")
	org := testutil.CreateOrganization(t, db, "Acme", nil, owner.UserID)
	testutil.AddMember(t, db, org.ID, member.UserID, constants.Member)

	run := func(as interface{}, orgID string) int {
		app := fiber.New()
		app.Post("/orgs/:id/members", func(c *fiber.Ctx) error {
			c.Locals("user", as)
			return c.Next()
		}, AuthorizePermission(db, constants.AddMember, "id"), okHandler)
		resp, err := app.Test(httptest.NewRequest("POST", "/orgs/"+orgID+"/members", nil))
		require.NoError(t, err)
		return resp.StatusCode
	}
	asUser := func(id uuid.UUID) interface{} {
		return map[string]interface{}{"user_id": id.String()}
	}

	assert.Equal(t, fiber.StatusOK, run(asUser(owner.UserID), org.ID.String()))
	assert.Equal(t, fiber.StatusForbidden, run(asUser(member.UserID), org.ID.String()))
	assert.Equal(t, fiber.StatusForbidden, run(asUser(uuid.New()), org.ID.String()))
	assert.Equal(t, fiber.StatusBadRequest, run(asUser(owner.UserID), "not-a-uuid"))
	assert.Equal(t, fiber.StatusUnauthorized, run(nil, org.ID.String()))
}

func TestHealthMarker(t *testing.T) {
	rdb, mr := testutil.NewRedis(t)
	app := fiber.New()
	app.Use(Tracing())
	app.Use(HealthMarker(rdb))
	app.Get("/health/json", okHandler)
	app.Get("/api/ok", okHandler)
	app.Get("/api/fail", func(c *fiber.Ctx) error { return c.Status(fiber.StatusInternalServerError).SendString("x") })

	for _, p := range []string{"/health/json", "/api/ok", "/api/fail"} {
		_, err := app.Test(httptest.NewRequest("GET", p, nil))
		require.NoError(t, err)
	}

	total, err := mr.Get(KeyReqTotal)
	require.NoError(t, err)
	assert.Equal(t, "2", total)
	errs, err := mr.Get(KeyReqErrors)
	require.NoError(t, err)
	assert.Equal(t, "1", errs)

	entries, err := rdb.LRange(context.Background(), KeyErrorLog, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(entries[0]), &entry))
	assert.Equal(t, "/api/fail", entry["path"])
	assert.NotEmpty(t, entry["trace_id"])
}

func TestSessionCookieParsing(t *testing.T) {
	assert.Equal(t, "abc", sessionIDFromCookie("s:abc"))
	assert.Equal(t, "abc", sessionIDFromCookie("s:abc.signature"))
	assert.Equal(t, "abc", sessionIDFromCookie("abc"))
	assert.Equal(t, "", sessionIDFromCookie(""))
}

func TestSessionCookieConfig(t *testing.T) {
	c := SessionCookieConfig(SessionConfig{})
	assert.Equal(t, SessionCookieName, c.Name)
	assert.Equal(t, "Lax", c.SameSite)
	assert.False(t, c.Secure)

	c = SessionCookieConfig(SessionConfig{AllowCrossSiteDev: true})
	assert.Equal(t, "None", c.SameSite)
	assert.True(t, c.Secure)
}
