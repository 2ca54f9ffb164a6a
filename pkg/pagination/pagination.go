package pagination

const (
	// DefaultPage is used when a caller does not ask for a page.
	DefaultPage = 1
	// DefaultPageSize is the standard page size when none is provided.
	DefaultPageSize = 20
	// MaxPageSize caps how many rows a single page may return.
	MaxPageSize = 200
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Normalize applies the defaults and clamps PageSize to maxPageSize.
// A non-positive maxPageSize falls back to MaxPageSize.
func (p Params) Normalize(maxPageSize int) Params {
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}
	out := p
	if out.Page <= 0 {
		out.Page = DefaultPage
	}
	if out.PageSize <= 0 {
		out.PageSize = DefaultPageSize
	}
	if out.PageSize > maxPageSize {
		out.PageSize = maxPageSize
	}
	return out
}

// Offset returns the number of rows to skip. Call on normalized params.
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// TotalPages returns ceil(total / pageSize).
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
