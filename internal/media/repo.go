package media

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/centrio/centrio-backend/pkg/db/models"
	"github.com/centrio/centrio-backend/pkg/enums"
)

// mutableColumns are the only columns an update may touch.
var mutableColumns = map[string]struct{}{
	"alt_text":         {},
	"description":      {},
	"width":            {},
	"height":           {},
	"duration_seconds": {},
}

// Repository exposes media catalog persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a media repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// activeOnly is the single place default reads exclude soft-deleted rows.
func activeOnly(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

func byTenant(scope Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if scope.TenantID == nil {
			return db
		}
		if scope.WithGlobal {
			return db.Where("(tenant_id = ? OR tenant_id IS NULL)", *scope.TenantID)
		}
		return db.Where("tenant_id = ?", *scope.TenantID)
	}
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

// Create persists a catalog row.
func (r *Repository) Create(ctx context.Context, asset *models.MediaAsset) error {
	return r.db.WithContext(ctx).Create(asset).Error
}

// FindByID retrieves an active asset. Inactive or missing rows yield gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error) {
	var m models.MediaAsset
	if err := activeOnly(r.db.WithContext(ctx)).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByIDAnyState retrieves an asset regardless of its active flag.
func (r *Repository) FindByIDAnyState(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error) {
	var m models.MediaAsset
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Update applies fields to an active asset and returns the refreshed row.
// Keys outside the mutable column set are dropped.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.MediaAsset, error) {
	updates := make(map[string]any, len(fields))
	for column, value := range fields {
		if _, ok := mutableColumns[column]; ok {
			updates[column] = value
		}
	}

	var out *models.MediaAsset
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			res := activeOnly(tx.Model(&models.MediaAsset{})).
				Where("id = ?", id).
				Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		var m models.MediaAsset
		if err := activeOnly(tx).First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		out = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkDeleted flips an active asset to inactive.
func (r *Repository) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	res := activeOnly(r.db.WithContext(ctx).Model(&models.MediaAsset{})).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": false})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Purge physically removes the row whatever its state.
func (r *Repository) Purge(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MediaAsset{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type listQuery struct {
	category *enums.MediaCategory
	scope    Scope
	search   string
	offset   int
	limit    int
}

func (q listQuery) filters(db *gorm.DB) *gorm.DB {
	db = byTenant(q.scope)(activeOnly(db))
	if q.category != nil {
		db = db.Where("category = ?", *q.category)
	}
	if q.search != "" {
		pattern := "%" + escapeLike(strings.ToLower(q.search)) + "%"
		db = db.Where(
			`(LOWER(original_name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(alt_text) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern,
		)
	}
	return db
}

// List returns one page of active assets plus the unpaginated match count.
func (r *Repository) List(ctx context.Context, q listQuery) ([]models.MediaAsset, int64, error) {
	var total int64
	if err := q.filters(r.db.WithContext(ctx).Model(&models.MediaAsset{})).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]models.MediaAsset, 0, q.limit)
	if total == 0 {
		return rows, 0, nil
	}
	if err := newestFirst(q.filters(r.db.WithContext(ctx))).
		Offset(q.offset).
		Limit(q.limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListByCategory returns every active asset of a category, newest first.
func (r *Repository) ListByCategory(ctx context.Context, category enums.MediaCategory, scope Scope) ([]models.MediaAsset, error) {
	rows := []models.MediaAsset{}
	err := newestFirst(byTenant(scope)(activeOnly(r.db.WithContext(ctx)))).
		Where("category = ?", category).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type categoryTotal struct {
	Category  enums.MediaCategory
	Count     int64
	SizeBytes int64
}

// Aggregate groups active assets by category with count and summed size.
func (r *Repository) Aggregate(ctx context.Context, scope Scope) ([]categoryTotal, error) {
	var rows []categoryTotal
	err := byTenant(scope)(activeOnly(r.db.WithContext(ctx).Model(&models.MediaAsset{}))).
		Select("category, COUNT(*) AS count, CAST(COALESCE(SUM(size_bytes), 0) AS BIGINT) AS size_bytes").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// StoragePathsInUse returns the subset of paths that an active row still
// references. Paths owned only by soft-deleted rows are not included.
func (r *Repository) StoragePathsInUse(ctx context.Context, paths []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(paths))
	if len(paths) == 0 {
		return out, nil
	}
	var found []string
	err := activeOnly(r.db.WithContext(ctx).Model(&models.MediaAsset{})).
		Where("storage_path IN ?", paths).
		Pluck("storage_path", &found).Error
	if err != nil {
		return nil, err
	}
	for _, p := range found {
		out[p] = struct{}{}
	}
	return out, nil
}

// SampleStoragePaths returns up to limit storage paths of active rows, newest first.
func (r *Repository) SampleStoragePaths(ctx context.Context, limit int) ([]string, error) {
	paths := []string{}
	if limit <= 0 {
		return paths, nil
	}
	err := newestFirst(activeOnly(r.db.WithContext(ctx).Model(&models.MediaAsset{}))).
		Limit(limit).
		Pluck("storage_path", &paths).Error
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
