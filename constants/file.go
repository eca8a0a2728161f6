package constants

import "strings"

const (
	PDF  = "PDF"
	TEXT = "TEXT"
)

// FileTypes holds the formats the text acquisition stage understands.
var FileTypes = []string{PDF, TEXT}

// AllowedExtensions holds the default allowed file extensions for course documents.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
	"txt": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a (normalized or raw) extension to one of FileTypes, or "".
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "txt", "text":
		return TEXT
	default:
		return ""
	}
}

// ContentType returns the MIME type recorded on a documents row.
func ContentType(ext string) string {
	switch MapExtToFormat(ext) {
	case PDF:
		return "application/pdf"
	case TEXT:
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
