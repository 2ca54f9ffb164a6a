package controllers

import (
	"errors"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/centrio/centrio-backend/api/responses"
	"github.com/centrio/centrio-backend/api/validators"
	"github.com/centrio/centrio-backend/internal/access"
	"github.com/centrio/centrio-backend/internal/media"
	"github.com/centrio/centrio-backend/pkg/enums"
	pkgerrors "github.com/centrio/centrio-backend/pkg/errors"
	"github.com/centrio/centrio-backend/pkg/logger"
	"github.com/centrio/centrio-backend/pkg/pagination"
)

const (
	multipartMemory   = 32 << 20
	multipartOverhead = 1 << 20
	maxAltTextLen     = 1000
	maxDescriptionLen = 5000
	maxSearchLen      = 200
)

// UploadLimits bound multipart request bodies.
type UploadLimits struct {
	MaxFileBytes  int64
	MaxBatchFiles int
}

func (l UploadLimits) requestCap(files int) int64 {
	if l.MaxFileBytes <= 0 {
		return 0
	}
	if files < 1 {
		files = 1
	}
	return l.MaxFileBytes*int64(files) + multipartOverhead
}

// MediaUpload ingests one multipart file (field "file").
func MediaUpload(svc media.Service, guard access.Guard, limits UploadLimits, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := guard.CanUpload(caller); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := parseMultipart(w, r, limits.requestCap(1)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		tenantID, err := uploadTenant(r, guard, caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		headers := r.MultipartForm.File["file"]
		if len(headers) != 1 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "exactly one file is required").WithDetails(map[string]any{"field": "file"}))
			return
		}
		file, err := headers[0].Open()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable upload"))
			return
		}
		defer file.Close()

		asset, err := svc.Ingest(r.Context(), media.IngestInput{
			File:        uploadFile(headers[0], file),
			UploaderID:  caller.UserID,
			TenantID:    tenantID,
			AltText:     formText(r, "alt_text", maxAltTextLen),
			Description: formText(r, "description", maxDescriptionLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, media.ToAsset(*asset))
	}
}

// MediaBatchUpload ingests every multipart file under field "files".
// The response is 201 when at least one file was stored, otherwise 200; per-file
// failures are reported in the body either way.
func MediaBatchUpload(svc media.Service, guard access.Guard, limits UploadLimits, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := guard.CanUpload(caller); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := parseMultipart(w, r, limits.requestCap(limits.MaxBatchFiles)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		tenantID, err := uploadTenant(r, guard, caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "at least one file is required").WithDetails(map[string]any{"field": "files"}))
			return
		}

		files := make([]*media.UploadFile, 0, len(headers))
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable upload").WithDetails(map[string]any{"field": "files", "file_name": header.Filename}))
				return
			}
			defer f.Close()
			files = append(files, uploadFile(header, f))
		}

		result, err := svc.IngestBatch(r.Context(), media.BatchInput{
			Files:      files,
			UploaderID: caller.UserID,
			TenantID:   tenantID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if len(result.Created) > 0 {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, media.ToBatchPage(result))
	}
}

// MediaList returns a filtered page of active assets.
func MediaList(svc media.Service, guard access.Guard, maxPageSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if maxPageSize <= 0 {
			maxPageSize = pagination.MaxPageSize
		}
		page, err := validators.ParseQueryInt(r, "page", pagination.DefaultPage, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultPageSize, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requested, err := validators.ParseQueryUUID(r, "tenant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scope, err := guard.ReadScope(caller, requested)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := media.ListParams{
			Scope:    scope,
			Search:   validators.SanitizeString(r.URL.Query().Get("search"), maxSearchLen),
			Page:     page,
			PageSize: pageSize,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category, err := parseCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			params.Category = &category
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, media.ToListPage(result))
	}
}

// MediaByCategory returns every active asset in one category, newest first.
func MediaByCategory(svc media.Service, guard access.Guard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := parseCategory(chi.URLParam(r, "category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requested, err := validators.ParseQueryUUID(r, "tenant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scope, err := guard.ReadScope(caller, requested)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.FindByCategory(r.Context(), category, scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, media.ToAssets(rows))
	}
}

// MediaGet returns one active asset.
func MediaGet(svc media.Service, guard access.Guard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseMediaID(chi.URLParam(r, "mediaId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := mediaContext(r, logg, id)
		asset, err := svc.FindByID(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := guard.CanRead(caller, asset); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, media.ToAsset(*asset))
	}
}

// MediaUpdate applies a JSON patch of the editable fields.
func MediaUpdate(svc media.Service, guard access.Guard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseMediaID(chi.URLParam(r, "mediaId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := mediaContext(r, logg, id)

		var payload media.UpdateInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payload.AltText = sanitizePtr(payload.AltText, maxAltTextLen)
		payload.Description = sanitizePtr(payload.Description, maxDescriptionLen)

		current, err := svc.FindByID(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := guard.CanModify(caller, current); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		updated, err := svc.Update(ctx, id, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, media.ToAsset(*updated))
	}
}

// MediaDelete soft deletes an asset and makes a best-effort attempt to remove its blob.
func MediaDelete(svc media.Service, guard access.Guard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseMediaID(chi.URLParam(r, "mediaId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := mediaContext(r, logg, id)
		current, err := svc.FindByID(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := guard.CanModify(caller, current); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.SoftDelete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// MediaStats returns per-category totals for the caller's tenant scope.
func MediaStats(svc media.Service, guard access.Guard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requested, err := validators.ParseQueryUUID(r, "tenant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scope, err := guard.ReadScope(caller, requested)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if scope.TenantID == nil {
			if err := guard.CanViewGlobalStats(caller); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		stats, err := svc.Stats(r.Context(), scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// AdminMediaHardDelete removes the blob and the catalog row regardless of state.
func AdminMediaHardDelete(svc media.Service, guard access.Guard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := guard.CanHardDelete(caller); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseMediaID(chi.URLParam(r, "mediaId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := mediaContext(r, logg, id)
		if err := svc.HardDelete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// AdminMediaStats returns totals across every tenant.
func AdminMediaStats(svc media.Service, guard access.Guard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := guard.CanViewGlobalStats(caller); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.Stats(r.Context(), media.Scope{})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body too large").WithDetails(map[string]any{"limit_bytes": tooLarge.Limit})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

func uploadTenant(r *http.Request, guard access.Guard, caller media.Caller) (*uuid.UUID, error) {
	requested, err := validators.ParseOptionalUUID(r.FormValue("tenant_id"), "tenant_id")
	if err != nil {
		return nil, err
	}
	return guard.ResolveTenant(caller, requested)
}

func uploadFile(header *multipart.FileHeader, content multipart.File) *media.UploadFile {
	return &media.UploadFile{
		Content:   content,
		FileName:  header.Filename,
		MimeType:  header.Header.Get("Content-Type"),
		SizeBytes: header.Size,
	}
}

func formText(r *http.Request, key string, maxLen int) *string {
	value := validators.SanitizeString(r.FormValue(key), maxLen)
	if value == "" {
		return nil
	}
	return &value
}

func sanitizePtr(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	clean := validators.SanitizeString(*value, maxLen)
	return &clean
}

func parseCategory(raw string) (enums.MediaCategory, error) {
	category, err := enums.ParseMediaCategory(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media category").WithDetails(map[string]any{"field": "category"})
	}
	return category, nil
}

// MediaFile serves a stored blob by name from root. Temp and dot files are never exposed.
func MediaFile(root string, logg *logger.Logger) http.HandlerFunc {
	files := os.DirFS(root)
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "storedName")
		if !fs.ValidPath(name) || strings.Contains(name, "/") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "file not found"))
			return
		}
		info, err := fs.Stat(files, name)
		if err != nil || info.IsDir() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "file not found"))
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeFileFS(w, r, files, name)
	}
}
