package enums

import "fmt"

// MediaCategory is the fixed classification derived from an asset's MIME type.
type MediaCategory string

const (
	MediaCategoryImage    MediaCategory = "image"
	MediaCategoryVideo    MediaCategory = "video"
	MediaCategoryAudio    MediaCategory = "audio"
	MediaCategoryDocument MediaCategory = "document"
	MediaCategoryOther    MediaCategory = "other"
)

var validMediaCategories = []MediaCategory{
	MediaCategoryImage,
	MediaCategoryVideo,
	MediaCategoryAudio,
	MediaCategoryDocument,
	MediaCategoryOther,
}

// MediaCategories returns every known category in a stable order.
func MediaCategories() []MediaCategory {
	out := make([]MediaCategory, len(validMediaCategories))
	copy(out, validMediaCategories)
	return out
}

// String returns the literal string for the category.
func (c MediaCategory) String() string {
	return string(c)
}

// IsValid reports whether the category is known.
func (c MediaCategory) IsValid() bool {
	for _, candidate := range validMediaCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseMediaCategory converts raw input into a MediaCategory.
func ParseMediaCategory(value string) (MediaCategory, error) {
	for _, candidate := range validMediaCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media category %q", value)
}
