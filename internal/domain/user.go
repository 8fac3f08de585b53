package domain

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

func ValidRole(r string) bool {
	switch Role(r) {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// User is an admin-UI account. Non-admins may only act on the services listed
// in LinkedServices.
type User struct {
	Document
	Email          string   `json:"email"`
	PasswordHash   string   `json:"passwordHash"`
	Role           Role     `json:"role"`
	LinkedServices []string `json:"linkedServices,omitempty"`
}

func (u *User) Doc() *Document { return &u.Document }

// HasService reports whether the user is linked to the named service.
// Admins have access to everything.
func (u *User) HasService(name string) bool {
	if u.Role == RoleAdmin {
		return true
	}
	for _, s := range u.LinkedServices {
		if s == name {
			return true
		}
	}
	return false
}
