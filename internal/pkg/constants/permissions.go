package constants

const (
	ViewData           = "view_data"
	CreateInvoice      = "create_invoice"
	ManageClients      = "manage_clients"
	UpdateOrganization = "update_organization"
	AddMember          = "add_member"
)

// PermissionRoles maps each permission to the membership roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewData:           {Guest, Member, Owner},
	CreateInvoice:      {Member, Owner},
	ManageClients:      {Member, Owner},
	UpdateOrganization: {Owner},
	AddMember:          {Owner},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
