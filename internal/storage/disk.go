package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// diskStore implements Store on the local file system.
type diskStore struct {
	dir    string
	prefix string
	logger zerolog.Logger
}

// NewDiskStore creates a store writing into dir. URLs are prefix + "/" + name.
func NewDiskStore(dir, prefix string, logger zerolog.Logger) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &diskStore{
		dir:    dir,
		prefix: strings.TrimSuffix(prefix, "/"),
		logger: logger.With().Str("component", "disk-store").Logger(),
	}, nil
}

func (s *diskStore) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to create upload file")
		return "", fmt.Errorf("failed to create upload file %s: %w", path, err)
	}

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		s.logger.Error().Err(err).Str("file", path).Msg("failed to write upload file")
		return "", fmt.Errorf("failed to write upload file %s: %w", path, err)
	}

	s.logger.Info().Str("file", path).Int64("bytes", n).Str("content_type", contentType).Msg("file stored")
	return s.prefix + "/" + name, nil
}
