package auth

import (
	"fmt"
	"slices"

	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/config"
)

// Role is the access level of an API client.
type Role string

const (
	// RoleViewer may read status, patterns and history.
	RoleViewer Role = config.APIRoleViewer
	// RoleOperator may also actuate.
	RoleOperator Role = config.APIRoleOperator
)

// ParseRole validates a configured role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := rolePermissions[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Permission represents a named capability in the API.
type Permission string

// Permission constants.
const (
	PermHapticsRead    Permission = "haptics:read"
	PermHapticsOperate Permission = "haptics:operate"
)

// rolePermissions is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleViewer:   {PermHapticsRead},
	RoleOperator: {PermHapticsRead, PermHapticsOperate},
}

// HasPermission reports whether role grants perm.
func HasPermission(role Role, perm Permission) bool {
	return slices.Contains(rolePermissions[role], perm)
}
