package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/centrio/centrio-backend/api/middleware"
	"github.com/centrio/centrio-backend/internal/media"
	"github.com/centrio/centrio-backend/pkg/enums"
	pkgerrors "github.com/centrio/centrio-backend/pkg/errors"
	"github.com/centrio/centrio-backend/pkg/logger"
)

// callerFromRequest rebuilds the verified caller placed on the context by the auth middleware.
func callerFromRequest(r *http.Request) (media.Caller, error) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		return media.Caller{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return media.Caller{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseMemberRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return media.Caller{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role")
	}
	caller := media.Caller{UserID: uid, Role: role}
	if raw := middleware.TenantIDFromContext(ctx); raw != "" {
		tid, err := uuid.Parse(raw)
		if err != nil {
			return media.Caller{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid tenant id")
		}
		caller.TenantID = &tid
	}
	return caller, nil
}

func parseMediaID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media id").WithDetails(map[string]any{"field": "mediaId"})
	}
	return id, nil
}

func mediaContext(r *http.Request, logg *logger.Logger, id uuid.UUID) context.Context {
	if logg == nil {
		return r.Context()
	}
	return logg.WithMediaID(r.Context(), id.String())
}
