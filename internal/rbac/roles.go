package rbac

// Role names. Keep these stable; they are part of the token contract.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// IsAdmin reports whether role may act on sessions owned by other users.
func IsAdmin(role string) bool { return role == RoleAdmin }
