package domain

// Role is the caller role asserted by the identity provider.
type Role string

const (
	RoleUser       Role = "user"
	RoleDriver     Role = "driver"
	RoleSuperAdmin Role = "superadmin"
)

// Caller identifies who is invoking an operation.
type Caller struct {
	ID   string
	Role Role
}
