package media

import (
	"github.com/google/uuid"

	"github.com/centrio/centrio-backend/pkg/enums"
)

// Caller is the already-verified identity behind a request.
type Caller struct {
	UserID   uuid.UUID
	Role     enums.MemberRole
	TenantID *uuid.UUID
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == enums.MemberRoleAdmin
}

// Scope narrows catalog reads. A nil TenantID reads every tenant. WithGlobal
// also admits rows that belong to no tenant.
type Scope struct {
	TenantID   *uuid.UUID
	WithGlobal bool
}

// TenantScope reads exactly one tenant, or everything when tenantID is nil.
func TenantScope(tenantID *uuid.UUID) Scope {
	return Scope{TenantID: tenantID}
}
