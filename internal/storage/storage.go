// Package storage persists uploaded product images and returns the URL
// clients use to fetch them.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store saves uploaded files.
type Store interface {
	// Save writes the content under name and returns its public URL.
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ImageExtension returns the normalised extension of an accepted image. Both
// the file extension and the declared content type must name jpeg, png or webp.
func ImageExtension(filename, contentType string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	want, ok := imageTypes[ext]
	if !ok {
		return "", false
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if ct == "image/jpg" {
		ct = "image/jpeg"
	}
	if ct != want {
		return "", false
	}
	return ext, true
}

// NewFileName builds a unique object name such as image-1700000000000-9f2c4e1a.png.
func NewFileName(field, ext string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate file name: %w", err)
	}
	suffix, _, _ := strings.Cut(id.String(), "-")
	return fmt.Sprintf("%s-%d-%s%s", field, time.Now().UnixMilli(), suffix, ext), nil
}
