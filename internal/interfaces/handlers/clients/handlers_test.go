package clients

import (
	"testing"

	clientsvc "invoicehub-backend/internal/application/clients"
	"invoicehub-backend/internal/domain"
	"invoicehub-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupClientApp(db *gorm.DB, as domain.User) *fiber.App {
	h := &Handlers{Service: &clientsvc.Service{DB: db}}
	app := fiber.New()
	app.Use(testutil.AsUser(as))
	app.Post("/clients", h.Create)
	app.Get("/clients", h.List)
	app.Get("/clients/:id", h.Get)
	app.Put("/clients/:id", h.Replace)
	app.Patch("/clients/:id", h.Update)
	app.Delete("/clients/:id", h.Delete)
	app.Get("/organizations/:id/clients", h.ListForOrganization)
	return app
}

func TestClientCRUD(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "Olivia Owner", "olivia@example.com")
	org := testutil.CreateOrganization(t, db, "Acme", nil, owner.UserID)
	app := setupClientApp(db, owner)

	status, out := testutil.Do(t, app, "POST", "/clients", map[string]interface{}{
		"organization_id": org.ID.String(),
		"name":            "Globex",
		"address":         "1 Main St",
		"email":           "Billing@Globex.com",
		"phone_number":    "+1 555 0100",
	})
	require.Equal(t, fiber.StatusCreated, status, out)
	id := testutil.Data(out)["id"].(string)
	assert.Equal(t, "billing@globex.com", testutil.Data(out)["email"])

	status, out = testutil.Do(t, app, "GET", "/clients/"+id, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Globex", testutil.Data(out)["name"])

	status, out = testutil.Do(t, app, "PATCH", "/clients/"+id, map[string]interface{}{"name": "Globex Corp"})
	require.Equal(t, fiber.StatusOK, status, out)
	assert.Equal(t, "Globex Corp", testutil.Data(out)["name"])
	assert.Equal(t, "1 Main St", testutil.Data(out)["address"])

	status, out = testutil.Do(t, app, "PUT", "/clients/"+id, map[string]interface{}{
		"name": "Globex", "address": "2 Side St", "email": "ap@globex.com", "phone_number": "555",
	})
	require.Equal(t, fiber.StatusOK, status, out)
	assert.Equal(t, "2 Side St", testutil.Data(out)["address"])
	assert.Equal(t, org.ID.String(), testutil.Data(out)["organization_id"])

	status, out = testutil.Do(t, app, "GET", "/organizations/"+org.ID.String()+"/clients", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Acme", testutil.Data(out)["organization_name"])
	assert.Len(t, testutil.Data(out)["clients"], 1)

	status, _ = testutil.Do(t, app, "DELETE", "/clients/"+id, nil)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = testutil.Do(t, app, "GET", "/clients/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestClientList_SearchAndScope(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "Olivia Owner", "olivia@example.com")
	stranger := testutil.CreateUser(t, db, "Sam Stranger", "sam@example.com")
	org := testutil.CreateOrganization(t, db, "Acme", nil, owner.UserID)
	other := testutil.CreateOrganization(t, db, "Other", nil, stranger.UserID)
	for _, c := range []domain.Client{
		{OrganizationID: org.ID, Name: "Globex", Address: "a", Email: "a@globex.com", PhoneNumber: "1"},
		{OrganizationID: org.ID, Name: "Initech", Address: "b", Email: "b@initech.com", PhoneNumber: "2"},
		{OrganizationID: other.ID, Name: "Globex Foreign", Address: "c", Email: "c@x.com", PhoneNumber: "3"},
	} {
		c := c
		require.NoError(t, db.Create(&c).Error)
	}
	app := setupClientApp(db, owner)

	status, out := testutil.Do(t, app, "GET", "/clients?search=GLOBEX", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"], 1)

	status, out = testutil.Do(t, app, "GET", "/clients?ordering=name&page_size=1", nil)
	require.Equal(t, fiber.StatusOK, status)
	list := out["data"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "Globex", list[0].(map[string]interface{})["name"])
	assert.Equal(t, float64(2), out["metadata"].(map[string]interface{})["count"])

	status, _ = testutil.Do(t, app, "GET", "/clients?organization_id="+other.ID.String(), nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestClientCreate_Validation(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "Olivia Owner", "olivia@example.com")
	org := testutil.CreateOrganization(t, db, "Acme", nil, owner.UserID)
	app := setupClientApp(db, owner)

	status, _ := testutil.Do(t, app, "POST", "/clients", map[string]interface{}{
		"organization_id": org.ID.String(), "name": "No Email", "address": "x", "phone_number": "1",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = testutil.Do(t, app, "GET", "/clients/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
