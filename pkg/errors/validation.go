package errors

import (
	"strings"
	"unicode"
)

// ValidateImagePath validates a source image path from a configuration file.
//
// The rules are intentionally conservative:
//   - No empty paths
//   - No control characters or null bytes
//   - Maximum length of 4096 characters
//
// Existence is checked later, when the image is measured.
func ValidateImagePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidConfig, "image path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidConfig, "image path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "image path contains invalid characters: %q", path)
		}
	}

	return nil
}

// outputExtensions is the set of raster formats the compositor is asked to write.
var outputExtensions = map[string]bool{
	"png":  true,
	"tif":  true,
	"tiff": true,
	"jpg":  true,
	"jpeg": true,
	"webp": true,
}

// ValidateOutputExtension validates the file extension used for rendered sheet sides.
// A leading dot is accepted.
func ValidateOutputExtension(ext string) error {
	e := strings.ToLower(strings.TrimPrefix(ext, "."))
	if e == "" {
		return New(ErrCodeInvalidConfig, "output extension cannot be empty")
	}
	if !outputExtensions[e] {
		return New(ErrCodeInvalidConfig, "unsupported output extension: %q (must be one of: png, tif, tiff, jpg, jpeg, webp)", ext)
	}
	return nil
}
