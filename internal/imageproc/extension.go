// Package imageproc holds the pure parts of the pipeline: extension checks,
// resizing and destination naming.
package imageproc

import (
	"path"
	"strings"

	"resize4me/internal/models"
)

var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// CheckExtension returns the lowercase extension of key, dot included,
// or an UnsupportedFormatError when it is not jpg, jpeg or png.
func CheckExtension(key string) (string, error) {
	ext := strings.ToLower(path.Ext(key))
	if _, ok := supportedExtensions[ext]; !ok {
		return "", &models.UnsupportedFormatError{Key: key}
	}
	return ext, nil
}

// ContentType maps a normalized extension to its MIME type.
func ContentType(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return "application/octet-stream"
}
