package domain

import "strings"

// Role is the single enumerated role type shared by every consumer.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
	RoleOwner Role = "OWNER"
	RoleNone  Role = "NONE"
)

// ParseRole normalizes a role string to one of the enumerated values.
// Matching is case-insensitive and accepts the legacy STORE_OWNER alias still
// emitted by older identity deployments. Anything unrecognized maps to RoleNone.
func ParseRole(raw string) Role {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ADMIN":
		return RoleAdmin
	case "USER":
		return RoleUser
	case "OWNER", "STORE_OWNER":
		return RoleOwner
	default:
		return RoleNone
	}
}

// View identifies which dashboard variant a session may render. The variants
// are mutually exclusive and selected solely by role.
type View string

const (
	LoginView View = "login"
	AdminView View = "admin"
	UserView  View = "user"
	OwnerView View = "owner"
)

// ViewForRole maps a role to its dashboard variant. No session (RoleNone)
// resolves to the login view.
func ViewForRole(role Role) View {
	switch role {
	case RoleAdmin:
		return AdminView
	case RoleUser:
		return UserView
	case RoleOwner:
		return OwnerView
	default:
		return LoginView
	}
}

// User is owned by the external identity collaborator; this service references
// users but never manages them. StoreID links an OWNER to the store they manage.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Role    Role   `json:"role"`
	StoreID string `json:"storeId,omitempty"`
}
