package media

import (
	"context"
	"strings"

	"github.com/centrio/centrio-backend/pkg/db/models"
	"github.com/centrio/centrio-backend/pkg/enums"
	pkgerrors "github.com/centrio/centrio-backend/pkg/errors"
	"github.com/centrio/centrio-backend/pkg/pagination"
)

// ListParams configures media listing filters and pagination.
type ListParams struct {
	Category *enums.MediaCategory
	Scope    Scope
	Search   string
	Page     int
	PageSize int
}

// ListResult is one page of active assets.
type ListResult struct {
	Items      []models.MediaAsset
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Category != nil && !params.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid media category")
	}

	page := pagination.Params{Page: params.Page, PageSize: params.PageSize}.Normalize(s.maxPageSize)
	query := listQuery{
		category: params.Category,
		scope:    params.Scope,
		search:   strings.TrimSpace(params.Search),
		offset:   page.Offset(),
		limit:    page.PageSize,
	}

	rows, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list media assets")
	}

	return &ListResult{
		Items:      rows,
		Total:      total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: pagination.TotalPages(total, page.PageSize),
	}, nil
}

func (s *service) FindByCategory(ctx context.Context, category enums.MediaCategory, scope Scope) ([]models.MediaAsset, error) {
	if !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid media category")
	}
	rows, err := s.repo.ListByCategory(ctx, category, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list media assets by category")
	}
	return rows, nil
}
