// Package access decides whether a caller may perform a media operation.
// Callers are expected to check here before invoking the media service.
package access

import (
	"github.com/google/uuid"

	"github.com/centrio/centrio-backend/internal/media"
	"github.com/centrio/centrio-backend/pkg/db/models"
	"github.com/centrio/centrio-backend/pkg/enums"
	pkgerrors "github.com/centrio/centrio-backend/pkg/errors"
)

var uploaderRoles = []enums.MemberRole{
	enums.MemberRoleAdmin,
	enums.MemberRoleManager,
	enums.MemberRoleTeacher,
}

// Guard holds the media capability rules.
type Guard struct{}

// NewGuard returns the media capability guard.
func NewGuard() Guard {
	return Guard{}
}

// ResolveTenant returns the tenant filter a caller may use. Admins and
// unscoped callers keep what they asked for; tenant-scoped callers are pinned
// to their own tenant and rejected when they ask for another.
func (Guard) ResolveTenant(caller media.Caller, requested *uuid.UUID) (*uuid.UUID, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	if caller.IsAdmin() || caller.TenantID == nil {
		return requested, nil
	}
	if requested == nil {
		own := *caller.TenantID
		return &own, nil
	}
	if *requested != *caller.TenantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant not accessible")
	}
	return requested, nil
}

// ReadScope is ResolveTenant for catalog reads. Callers pinned to their own
// tenant also see global assets, matching CanRead.
func (g Guard) ReadScope(caller media.Caller, requested *uuid.UUID) (media.Scope, error) {
	tenantID, err := g.ResolveTenant(caller, requested)
	if err != nil {
		return media.Scope{}, err
	}
	pinned := !caller.IsAdmin() && caller.TenantID != nil
	return media.Scope{TenantID: tenantID, WithGlobal: pinned}, nil
}

// CanUpload checks the role needed to ingest files.
func (Guard) CanUpload(caller media.Caller) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	for _, role := range uploaderRoles {
		if caller.Role == role {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "role may not upload media")
}

// CanRead allows admins everything and others their own tenant plus global
// assets. Another tenant's asset is reported as not found.
func (Guard) CanRead(caller media.Caller, asset *models.MediaAsset) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	if caller.IsAdmin() || caller.TenantID == nil || asset.TenantID == nil {
		return nil
	}
	if *asset.TenantID != *caller.TenantID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "media asset not found")
	}
	return nil
}

// CanModify covers update and soft delete: admins, or the uploader.
func (g Guard) CanModify(caller media.Caller, asset *models.MediaAsset) error {
	if err := g.CanRead(caller, asset); err != nil {
		return err
	}
	if caller.IsAdmin() || asset.UploaderID == caller.UserID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "only the uploader or an admin may change this asset")
}

// CanHardDelete is admin only.
func (Guard) CanHardDelete(caller media.Caller) error {
	return requireAdmin(caller)
}

// CanViewGlobalStats is admin only.
func (Guard) CanViewGlobalStats(caller media.Caller) error {
	return requireAdmin(caller)
}

func requireAdmin(caller media.Caller) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

func requireIdentity(caller media.Caller) error {
	if caller.UserID == uuid.Nil || !caller.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing")
	}
	return nil
}
