package media

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/centrio/centrio-backend/pkg/db"
	"github.com/centrio/centrio-backend/pkg/db/models"
	"github.com/centrio/centrio-backend/pkg/enums"
	pkgerrors "github.com/centrio/centrio-backend/pkg/errors"
	"github.com/centrio/centrio-backend/pkg/logger"
	"github.com/centrio/centrio-backend/pkg/metrics"
	"github.com/centrio/centrio-backend/pkg/storage/local"
)

const (
	// sniffLen matches the mimetype detection read limit.
	sniffLen = 3072

	defaultBatchWorkers = 4
)

type mediaRepository interface {
	Create(ctx context.Context, asset *models.MediaAsset) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error)
	FindByIDAnyState(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.MediaAsset, error)
	MarkDeleted(ctx context.Context, id uuid.UUID) error
	Purge(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q listQuery) ([]models.MediaAsset, int64, error)
	ListByCategory(ctx context.Context, category enums.MediaCategory, scope Scope) ([]models.MediaAsset, error)
	Aggregate(ctx context.Context, scope Scope) ([]categoryTotal, error)
}

type blobStore interface {
	Store(ctx context.Context, r io.Reader, suggestedName string) (*local.StoredObject, error)
	Remove(ctx context.Context, storagePath string) (bool, error)
}

// Service exposes the media asset lifecycle.
type Service interface {
	Ingest(ctx context.Context, input IngestInput) (*models.MediaAsset, error)
	IngestBatch(ctx context.Context, input BatchInput) (*BatchResult, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error)
	FindByCategory(ctx context.Context, category enums.MediaCategory, scope Scope) ([]models.MediaAsset, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.MediaAsset, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, scope Scope) (*Stats, error)
}

// ServiceParams configure the media service.
type ServiceParams struct {
	Repo          mediaRepository
	Blobs         blobStore
	Logger        *logger.Logger
	Metrics       *metrics.MediaMetrics
	PublicBaseURL string
	BatchWorkers  int
	MaxPageSize   int
	StatsCacheTTL time.Duration
	StatsCacheLen int
}

type service struct {
	repo          mediaRepository
	blobs         blobStore
	logg          *logger.Logger
	metrics       *metrics.MediaMetrics
	publicBaseURL string
	batchWorkers  int
	maxPageSize   int
	stats         *statsCache
}

// NewService constructs the media service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if params.Blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if strings.TrimSpace(params.PublicBaseURL) == "" {
		return nil, fmt.Errorf("public base url required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	workers := params.BatchWorkers
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	return &service{
		repo:          params.Repo,
		blobs:         params.Blobs,
		logg:          logg,
		metrics:       params.Metrics,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(params.PublicBaseURL), "/"),
		batchWorkers:  workers,
		maxPageSize:   params.MaxPageSize,
		stats:         newStatsCache(params.StatsCacheLen, params.StatsCacheTTL),
	}, nil
}

// UploadFile is one uploaded file as handed over by the transport layer.
type UploadFile struct {
	Content   io.Reader
	FileName  string
	MimeType  string
	// SizeBytes is the client-declared size. The catalog records the bytes
	// actually written; a mismatch is only logged.
	SizeBytes int64
}

// IngestInput describes a single upload.
type IngestInput struct {
	File        *UploadFile
	UploaderID  uuid.UUID
	TenantID    *uuid.UUID
	AltText     *string
	Description *string
}

// UpdateInput carries the editable fields. Nil fields are left untouched.
type UpdateInput struct {
	AltText         *string  `json:"alt_text" validate:"omitempty,max=1000"`
	Description     *string  `json:"description" validate:"omitempty,max=5000"`
	Width           *int     `json:"width" validate:"omitempty,min=0"`
	Height          *int     `json:"height" validate:"omitempty,min=0"`
	DurationSeconds *float64 `json:"duration_seconds" validate:"omitempty,min=0"`
}

func (s *service) Ingest(ctx context.Context, input IngestInput) (*models.MediaAsset, error) {
	if input.UploaderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "uploader identity missing")
	}
	if input.File == nil || input.File.Content == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}

	content := bufio.NewReaderSize(input.File.Content, sniffLen)
	head, err := content.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "read upload")
	}
	if len(head) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}

	mimeType := resolveMimeType(input.File.MimeType, head)
	category := Classify(mimeType)
	originalName := strings.TrimSpace(input.File.FileName)

	obj, err := s.blobs.Store(ctx, content, originalName)
	if err != nil {
		s.metrics.ObserveIngest(category.String(), metrics.OutcomeFailure, 0)
		if errors.Is(err, local.ErrTooLarge) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds maximum upload size")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "store file")
	}
	if originalName == "" {
		originalName = obj.StoredName
	}
	if declared := input.File.SizeBytes; declared > 0 && declared != obj.Size {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"declared_size": declared,
			"written_size":  obj.Size,
			"storage_path":  obj.StoragePath,
		}), "upload size differs from declared size")
	}

	asset := &models.MediaAsset{
		ID:           uuid.New(),
		StoredName:   obj.StoredName,
		OriginalName: originalName,
		StoragePath:  obj.StoragePath,
		PublicURL:    s.publicURL(obj.StoredName),
		MimeType:     mimeType,
		SizeBytes:    obj.Size,
		Category:     category,
		AltText:      trimmedOrNil(input.AltText),
		Description:  trimmedOrNil(input.Description),
		TenantID:     input.TenantID,
		UploaderID:   input.UploaderID,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, asset); err != nil {
		s.metrics.ObserveIngest(category.String(), metrics.OutcomeFailure, 0)
		s.removeBlob(ctx, asset, "ingest_rollback")
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "media asset already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist media asset")
	}

	s.metrics.ObserveIngest(category.String(), metrics.OutcomeSuccess, asset.SizeBytes)
	s.stats.purge()
	s.logg.Info(s.logg.WithMediaID(ctx, asset.ID.String()), "media asset ingested")
	return asset, nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media id required")
	}
	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapCatalogError(err, "load media asset")
	}
	return asset, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.MediaAsset, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media id required")
	}
	fields, err := input.fields()
	if err != nil {
		return nil, err
	}
	asset, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, mapCatalogError(err, "update media asset")
	}
	return asset, nil
}

func (s *service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "media id required")
	}
	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapCatalogError(err, "load media asset")
	}

	s.removeBlob(ctx, asset, "soft_delete")

	if err := s.repo.MarkDeleted(ctx, id); err != nil {
		return mapCatalogError(err, "deactivate media asset")
	}
	s.metrics.IncDelete("soft")
	s.stats.purge()
	s.logg.Info(s.logg.WithMediaID(ctx, id.String()), "media asset soft deleted")
	return nil
}

func (s *service) HardDelete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "media id required")
	}
	asset, err := s.repo.FindByIDAnyState(ctx, id)
	if err != nil {
		return mapCatalogError(err, "load media asset")
	}

	s.removeBlob(ctx, asset, "hard_delete")

	if err := s.repo.Purge(ctx, id); err != nil {
		return mapCatalogError(err, "purge media asset")
	}
	s.metrics.IncDelete("hard")
	s.stats.purge()
	s.logg.Info(s.logg.WithMediaID(ctx, id.String()), "media asset purged")
	return nil
}

// removeBlob deletes the asset's file. Failures are logged and counted, never returned.
func (s *service) removeBlob(ctx context.Context, asset *models.MediaAsset, operation string) {
	removed, err := s.blobs.Remove(ctx, asset.StoragePath)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"media_id":     asset.ID.String(),
		"storage_path": asset.StoragePath,
		"operation":    operation,
	})
	if err != nil {
		s.metrics.IncBlobRemoveFailure(operation)
		s.logg.Error(logCtx, "blob removal failed", err)
		return
	}
	if !removed {
		s.logg.Warn(logCtx, "blob already absent")
	}
}

func (s *service) publicURL(storedName string) string {
	return s.publicBaseURL + "/" + storedName
}

func (in UpdateInput) fields() (map[string]any, error) {
	fields := map[string]any{}
	if in.AltText != nil {
		fields["alt_text"] = strings.TrimSpace(*in.AltText)
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Width != nil {
		if *in.Width < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "width must not be negative")
		}
		fields["width"] = *in.Width
	}
	if in.Height != nil {
		if *in.Height < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "height must not be negative")
		}
		fields["height"] = *in.Height
	}
	if in.DurationSeconds != nil {
		if *in.DurationSeconds < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration_seconds must not be negative")
		}
		fields["duration_seconds"] = *in.DurationSeconds
	}
	return fields, nil
}

func mapCatalogError(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "media asset not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	clean := strings.TrimSpace(*value)
	if clean == "" {
		return nil
	}
	return &clean
}
