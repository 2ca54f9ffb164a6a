package media

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/centrio/centrio-backend/pkg/enums"
)

const genericMimeType = "application/octet-stream"

var documentMarkers = []string{
	"pdf",
	"document",
	"text",
	"spreadsheet",
	"presentation",
	"msword",
	"excel",
	"powerpoint",
}

// Classify maps a MIME type onto its media category. It never fails:
// anything unrecognised is MediaCategoryOther.
func Classify(mimeType string) enums.MediaCategory {
	mediaType := normalizeMimeType(mimeType)
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return enums.MediaCategoryImage
	case strings.HasPrefix(mediaType, "video/"):
		return enums.MediaCategoryVideo
	case strings.HasPrefix(mediaType, "audio/"):
		return enums.MediaCategoryAudio
	}
	for _, marker := range documentMarkers {
		if strings.Contains(mediaType, marker) {
			return enums.MediaCategoryDocument
		}
	}
	return enums.MediaCategoryOther
}

// normalizeMimeType lowercases the value and drops parameters such as charset.
func normalizeMimeType(value string) string {
	clean := strings.ToLower(strings.TrimSpace(value))
	if idx := strings.IndexByte(clean, ';'); idx >= 0 {
		clean = strings.TrimSpace(clean[:idx])
	}
	return clean
}

// resolveMimeType returns the declared type unless it is missing or generic,
// in which case the leading bytes are sniffed.
func resolveMimeType(declared string, head []byte) string {
	clean := strings.TrimSpace(declared)
	if clean != "" && !strings.EqualFold(normalizeMimeType(clean), genericMimeType) {
		return clean
	}
	if len(head) == 0 {
		if clean == "" {
			return genericMimeType
		}
		return clean
	}
	return mimetype.Detect(head).String()
}
