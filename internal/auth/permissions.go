package auth

// Permission names stored in security.permission.name.
const (
	PermissionRolesCreate    = "roles:create"
	PermissionCodeSetsCreate = "codesets:create"
)
