package media

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/centrio/centrio-backend/pkg/db/models"
	"github.com/centrio/centrio-backend/pkg/enums"
)

const mediaAssetsDDL = `
CREATE TABLE IF NOT EXISTS media_assets (
  id TEXT PRIMARY KEY,
  stored_name TEXT NOT NULL UNIQUE,
  original_name TEXT NOT NULL,
  storage_path TEXT NOT NULL UNIQUE,
  public_url TEXT NOT NULL,
  mime_type TEXT NOT NULL,
  size_bytes INTEGER NOT NULL,
  category TEXT NOT NULL,
  alt_text TEXT,
  description TEXT,
  width INTEGER,
  height INTEGER,
  duration_seconds REAL,
  tenant_id TEXT,
  uploader_id TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`

func setupMediaTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.Exec(mediaAssetsDDL).Error)
	return conn
}

type assetOption func(*models.MediaAsset)

func withCategory(category enums.MediaCategory, mimeType string) assetOption {
	return func(m *models.MediaAsset) {
		m.Category = category
		m.MimeType = mimeType
	}
}

func withSize(size int64) assetOption {
	return func(m *models.MediaAsset) { m.SizeBytes = size }
}

func withTenant(id uuid.UUID) assetOption {
	return func(m *models.MediaAsset) { m.TenantID = &id }
}

func withCreatedAt(ts time.Time) assetOption {
	return func(m *models.MediaAsset) { m.CreatedAt = ts }
}

func withText(name string, description, alt *string) assetOption {
	return func(m *models.MediaAsset) {
		m.OriginalName = name
		m.Description = description
		m.AltText = alt
	}
}

func seedAsset(t *testing.T, conn *gorm.DB, opts ...assetOption) models.MediaAsset {
	t.Helper()

	id := uuid.New()
	stored := id.String() + ".png"
	asset := models.MediaAsset{
		ID:           id,
		StoredName:   stored,
		OriginalName: "photo.png",
		StoragePath:  stored,
		PublicURL:    "http://localhost/files/" + stored,
		MimeType:     "image/png",
		SizeBytes:    10,
		Category:     enums.MediaCategoryImage,
		UploaderID:   uuid.New(),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&asset)
	}
	require.NoError(t, conn.WithContext(context.Background()).Create(&asset).Error)
	return asset
}

func strPtr(v string) *string {
	return &v
}
