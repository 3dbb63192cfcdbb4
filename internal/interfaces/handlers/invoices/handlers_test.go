package invoices

import (
	"fmt"
	"testing"
	"time"

	invoicesvc "invoicehub-backend/internal/application/invoices"
	"invoicehub-backend/internal/domain"
	"invoicehub-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var day = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

type env struct {
	db    *gorm.DB
	owner domain.User
	org   domain.Organization
}

func setupEnv(t *testing.T) env {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "Olivia Owner", "olivia@example.com")
	prefix := "ACME"
	org := testutil.CreateOrganization(t, db, "Acme", &prefix, owner.UserID)
	return env{db: db, owner: owner, org: org}
}

func (e env) app(as domain.User) *fiber.App {
	h := &Handlers{Service: &invoicesvc.Service{DB: e.db, Now: func() time.Time { return day }}}
	app := fiber.New()
	app.Use(testutil.AsUser(as))
	app.Get("/invoices/generate-irn", h.GenerateReference)
	app.Post("/invoices/bulk-delete", h.BulkDelete)
	app.Post("/invoices", h.Create)
	app.Get("/invoices", h.List)
	app.Get("/invoices/:id", h.Get)
	app.Put("/invoices/:id", h.Update)
	app.Patch("/invoices/:id", h.Update)
	app.Delete("/invoices/:id", h.Delete)
	return app
}

func (e env) create(t *testing.T, app *fiber.App, title string) map[string]interface{} {
	t.Helper()
	status, out := testutil.Do(t, app, "POST", "/invoices", map[string]interface{}{
		"organization": e.org.ID.String(),
		"title":        title,
	})
	require.Equal(t, fiber.StatusCreated, status, out)
	return testutil.Data(out)
}

func TestCreateInvoice_AssignsReference(t *testing.T) {
	e := setupEnv(t)
	app := e.app(e.owner)

	status, out := testutil.Do(t, app, "POST", "/invoices", map[string]interface{}{
		"organization":   e.org.ID.String(),
		"title":          "Website",
		"client_details": map[string]interface{}{"name": "Globex"},
		"items_details": []map[string]interface{}{
			{"description": "Design", "quantity": "2", "unit_price": "100.50"},
		},
		"tax":              "20",
		"discount":         "1",
		"reference_number": "HACK-1",
	})
	require.Equal(t, fiber.StatusCreated, status, out)
	data := testutil.Data(out)
	assert.Equal(t, "ACME-20240301-000001", data["reference_number"])
	assert.Equal(t, "220", data["total"])
	assert.Equal(t, "1", data["discount"])
	assert.Equal(t, "2024-03-31T00:00:00Z", data["due_date"])
	assert.Equal(t, "Globex", data["client_details"].(map[string]interface{})["name"])

	assert.Equal(t, "ACME-20240301-000002", e.create(t, app, "Second")["reference_number"])
}

func TestCreateInvoice_Errors(t *testing.T) {
	e := setupEnv(t)
	app := e.app(e.owner)

	status, _ := testutil.Do(t, app, "POST", "/invoices", map[string]interface{}{"title": "No org"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = testutil.Do(t, app, "POST", "/invoices", map[string]interface{}{"organization": e.org.ID.String()})
	assert.Equal(t, fiber.StatusBadRequest, status)

	guest := testutil.CreateUser(t, e.db, "Gus Guest", "gus@example.com")
	testutil.AddMember(t, e.db, e.org.ID, guest.UserID, "guest")
	status, _ = testutil.Do(t, e.app(guest), "POST", "/invoices", map[string]interface{}{"organization": e.org.ID.String(), "title": "Nope"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = testutil.Do(t, app, "POST", "/invoices", map[string]interface{}{
		"organization": e.org.ID.String(), "title": "Early", "date": "2024-03-10", "due_date": "2024-03-09",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestInvoiceGetUpdateDelete(t *testing.T) {
	e := setupEnv(t)
	app := e.app(e.owner)
	inv := e.create(t, app, "Original")
	path := "/invoices/" + inv["id"].(string)

	status, out := testutil.Do(t, app, "GET", path, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Original", testutil.Data(out)["title"])

	status, out = testutil.Do(t, app, "PATCH", path, map[string]interface{}{"title": "Renamed", "reference_number": "X-1"})
	require.Equal(t, fiber.StatusOK, status, out)
	assert.Equal(t, "Renamed", testutil.Data(out)["title"])
	assert.Equal(t, inv["reference_number"], testutil.Data(out)["reference_number"])

	member := testutil.CreateUser(t, e.db, "Mark Member", "mark@example.com")
	testutil.AddMember(t, e.db, e.org.ID, member.UserID, "member")
	memberApp := e.app(member)
	status, _ = testutil.Do(t, memberApp, "GET", path, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = testutil.Do(t, memberApp, "PUT", path, map[string]interface{}{"title": "Mine now"})
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = testutil.Do(t, memberApp, "DELETE", path, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = testutil.Do(t, app, "DELETE", path, nil)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = testutil.Do(t, app, "GET", path, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	assert.Equal(t, "ACME-20240301-000002", e.create(t, app, "After delete")["reference_number"])
}

func TestInvoiceList_Filters(t *testing.T) {
	e := setupEnv(t)
	app := e.app(e.owner)
	for i := 0; i < 3; i++ {
		e.create(t, app, fmt.Sprintf("Invoice %d", i))
	}

	status, out := testutil.Do(t, app, "GET", "/invoices?ref_no=ACME-20240301-000002", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"], 1)

	status, out = testutil.Do(t, app, "GET", "/invoices?ref_no__icontains=acme-2024&page_size=2", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"], 2)
	meta := out["metadata"].(map[string]interface{})
	assert.Equal(t, float64(3), meta["count"])
	assert.Equal(t, float64(2), meta["total_pages"])

	status, out = testutil.Do(t, app, "GET", "/invoices?date=2024-03-01&created_by="+e.owner.UserID.String(), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"], 3)

	status, out = testutil.Do(t, app, "GET", "/invoices?date__gte=2024-03-02", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"], 0)

	status, _ = testutil.Do(t, app, "GET", "/invoices?date__lte=yesterday", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, out = testutil.Do(t, app, "GET", "/invoices?due_date=2024-03-31", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"], 3)

	status, out = testutil.Do(t, app, "GET", "/invoices?due_date__lte=2024-03-30", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"], 0)

	status, _ = testutil.Do(t, app, "GET", "/invoices?due_date__gte=soon", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestBulkDelete(t *testing.T) {
	e := setupEnv(t)
	app := e.app(e.owner)
	a := e.create(t, app, "A")["id"].(string)
	b := e.create(t, app, "B")["id"].(string)

	status, _ := testutil.Do(t, app, "POST", "/invoices/bulk-delete", map[string]interface{}{"ids": []string{}})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = testutil.Do(t, app, "POST", "/invoices/bulk-delete", map[string]interface{}{
		"ids": []string{a, "00000000-0000-0000-0000-000000000001"},
	})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, out := testutil.Do(t, app, "POST", "/invoices/bulk-delete", map[string]interface{}{"ids": []string{a, b}})
	require.Equal(t, fiber.StatusOK, status, out)
	assert.Equal(t, float64(2), testutil.Data(out)["deleted_count"])
}

func TestGenerateReference_Preview(t *testing.T) {
	e := setupEnv(t)
	app := e.app(e.owner)

	status, out := testutil.Do(t, app, "GET", "/invoices/generate-irn?organization="+e.org.ID.String(), nil)
	require.Equal(t, fiber.StatusOK, status, out)
	assert.Equal(t, "ACME-20240301-000001", testutil.Data(out)["reference_number"])

	status, out = testutil.Do(t, app, "GET", "/invoices/generate-irn?organization="+e.org.ID.String(), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ACME-20240301-000001", testutil.Data(out)["reference_number"])

	status, _ = testutil.Do(t, app, "GET", "/invoices/generate-irn", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	stranger := testutil.CreateUser(t, e.db, "Sam Stranger", "sam@example.com")
	status, _ = testutil.Do(t, e.app(stranger), "GET", "/invoices/generate-irn?organization="+e.org.ID.String(), nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}
