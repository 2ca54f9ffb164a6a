package media

import (
	"time"

	"github.com/google/uuid"

	"github.com/centrio/centrio-backend/pkg/db/models"
	"github.com/centrio/centrio-backend/pkg/enums"
	pkgerrors "github.com/centrio/centrio-backend/pkg/errors"
)

// Asset is the public JSON shape of a catalog record.
type Asset struct {
	ID              uuid.UUID           `json:"id"`
	StoredName      string              `json:"stored_name"`
	OriginalName    string              `json:"original_name"`
	StoragePath     string              `json:"storage_path"`
	PublicURL       string              `json:"public_url"`
	MimeType        string              `json:"mime_type"`
	SizeBytes       int64               `json:"size_bytes"`
	Category        enums.MediaCategory `json:"category"`
	AltText         *string             `json:"alt_text,omitempty"`
	Description     *string             `json:"description,omitempty"`
	Width           *int                `json:"width,omitempty"`
	Height          *int                `json:"height,omitempty"`
	DurationSeconds *float64            `json:"duration_seconds,omitempty"`
	TenantID        *uuid.UUID          `json:"tenant_id,omitempty"`
	UploaderID      uuid.UUID           `json:"uploader_id"`
	Active          bool                `json:"active"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ListPage is the JSON shape of a paginated listing.
type ListPage struct {
	Items      []Asset `json:"items"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

// BatchFailureItem is the JSON shape of one failed batch entry.
type BatchFailureItem struct {
	Index    int    `json:"index"`
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

// BatchPage is the JSON shape of a batch upload response.
type BatchPage struct {
	Created  []Asset            `json:"created"`
	Failures []BatchFailureItem `json:"failures"`
}

// ToAsset converts a catalog row into its public shape.
func ToAsset(m models.MediaAsset) Asset {
	return Asset{
		ID:              m.ID,
		StoredName:      m.StoredName,
		OriginalName:    m.OriginalName,
		StoragePath:     m.StoragePath,
		PublicURL:       m.PublicURL,
		MimeType:        m.MimeType,
		SizeBytes:       m.SizeBytes,
		Category:        m.Category,
		AltText:         m.AltText,
		Description:     m.Description,
		Width:           m.Width,
		Height:          m.Height,
		DurationSeconds: m.DurationSeconds,
		TenantID:        m.TenantID,
		UploaderID:      m.UploaderID,
		Active:          m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ToAssets converts a slice of catalog rows, never returning nil.
func ToAssets(rows []models.MediaAsset) []Asset {
	out := make([]Asset, len(rows))
	for i, m := range rows {
		out[i] = ToAsset(m)
	}
	return out
}

// ToListPage converts a list result into its public shape.
func ToListPage(res *ListResult) ListPage {
	return ListPage{
		Items:      ToAssets(res.Items),
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	}
}

// ToBatchPage converts a batch result into its public shape.
// Failure messages use the public error text only.
func ToBatchPage(res *BatchResult) BatchPage {
	page := BatchPage{
		Created:  ToAssets(res.Created),
		Failures: make([]BatchFailureItem, len(res.Failures)),
	}
	for i, f := range res.Failures {
		page.Failures[i] = BatchFailureItem{
			Index:    f.Index,
			FileName: f.FileName,
			Error:    publicErrorMessage(f.Err),
		}
	}
	return page
}

func publicErrorMessage(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return pkgerrors.MetadataFor(pkgerrors.CodeInternal).PublicMessage
	}
	if pkgerrors.MetadataFor(typed.Code()).DetailsAllowed {
		return typed.Message()
	}
	return pkgerrors.MetadataFor(typed.Code()).PublicMessage
}
