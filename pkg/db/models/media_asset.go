package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/centrio/centrio-backend/pkg/enums"
)

// MediaAsset is the catalog record for one uploaded file.
type MediaAsset struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	StoredName      string              `gorm:"column:stored_name;not null;uniqueIndex"`
	OriginalName    string              `gorm:"column:original_name;not null"`
	StoragePath     string              `gorm:"column:storage_path;not null;uniqueIndex"`
	PublicURL       string              `gorm:"column:public_url;not null"`
	MimeType        string              `gorm:"column:mime_type;not null"`
	SizeBytes       int64               `gorm:"column:size_bytes;not null"`
	Category        enums.MediaCategory `gorm:"column:category;not null;index"`
	AltText         *string             `gorm:"column:alt_text"`
	Description     *string             `gorm:"column:description"`
	Width           *int                `gorm:"column:width"`
	Height          *int                `gorm:"column:height"`
	DurationSeconds *float64            `gorm:"column:duration_seconds"`
	TenantID        *uuid.UUID          `gorm:"column:tenant_id;type:uuid;index"`
	UploaderID      uuid.UUID           `gorm:"column:uploader_id;type:uuid;not null"`
	IsActive        bool                `gorm:"column:is_active;not null"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the catalog table name.
func (MediaAsset) TableName() string {
	return "media_assets"
}

// State maps the stored active flag onto the lifecycle state.
func (m MediaAsset) State() enums.AssetState {
	if m.IsActive {
		return enums.AssetStateActive
	}
	return enums.AssetStateDeleted
}
