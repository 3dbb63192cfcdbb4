package constants

// Organization membership roles.
const (
	Owner  = "owner"
	Member = "member"
	Guest  = "guest"
)

// ValidRoles is the set of allowed membership roles.
var ValidRoles = []string{Owner, Member, Guest}

// IsValidRole returns true if role is one of the allowed membership roles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
