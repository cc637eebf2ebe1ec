package domain

// Role is one of the fixed account roles.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Authority returns the role-level authority string, e.g. ROLE_ADMIN.
func (r Role) Authority() string {
	return "ROLE_" + string(r)
}

// Permission is a fine-grained capability granted through a role.
type Permission string

const (
	PermissionAdminCreate Permission = "ADMIN_CREATE"
	PermissionAdminRead   Permission = "ADMIN_READ"
	PermissionAdminUpdate Permission = "ADMIN_UPDATE"
	PermissionAdminDelete Permission = "ADMIN_DELETE"
	PermissionUserCreate  Permission = "USER_CREATE"
	PermissionUserRead    Permission = "USER_READ"
	PermissionUserUpdate  Permission = "USER_UPDATE"
	PermissionUserDelete  Permission = "USER_DELETE"
)
