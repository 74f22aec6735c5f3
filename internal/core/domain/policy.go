package domain

// Requirement is what a protected action demands from its caller: either any
// authenticated identity or exactly one role.
type Requirement struct {
	role Role
	any  bool
}

// AnyRole is satisfied by every authenticated user.
func AnyRole() Requirement { return Requirement{any: true} }

// RequireRole is satisfied only by users holding exactly role.
func RequireRole(role Role) Requirement { return Requirement{role: role} }

// Role returns the required role, or "" for AnyRole.
func (r Requirement) Role() Role { return r.role }

// Authorize is the single server-side enforcement point. A nil identity is
// an authentication failure; a role mismatch is an authorization failure.
// Roles have no hierarchy: admin does not satisfy a client requirement.
func Authorize(identity *User, req Requirement) error {
	if identity == nil {
		return ErrUnauthenticated
	}

	switch identity.Role {
	case RoleClient, RolePhotographer, RoleAdmin:
	default:
		if req.role == RoleAdmin {
			return ErrAdminOnly
		}
		return ErrForbidden
	}

	if req.any {
		return nil
	}
	if !req.role.Valid() || identity.Role != req.role {
		if req.role == RoleAdmin {
			return ErrAdminOnly
		}
		return ErrForbidden
	}
	return nil
}
