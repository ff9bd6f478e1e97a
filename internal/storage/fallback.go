package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// fallbackStore tries the remote store first, then falls back to local disk.
type fallbackStore struct {
	remote Store
	local  Store
	logger zerolog.Logger
}

// NewFallbackStore creates a store that tries remote first and writes to local
// when remote fails. A nil remote always uses local.
func NewFallbackStore(remote, local Store, logger zerolog.Logger) Store {
	return &fallbackStore{
		remote: remote,
		local:  local,
		logger: logger.With().Str("component", "fallback-store").Logger(),
	}
}

func (s *fallbackStore) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if s.remote == nil {
		s.logger.Debug().Str("file", name).Msg("remote store not configured, using local disk")
		return s.local.Save(ctx, name, contentType, r)
	}

	// The body may be consumed by a failed remote attempt.
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload %s: %w", name, err)
	}

	url, err := s.remote.Save(ctx, name, contentType, bytes.NewReader(data))
	if err == nil {
		return url, nil
	}

	s.logger.Warn().
		Err(err).
		Str("file", name).
		Msg("failed to store remotely, falling back to local disk")

	return s.local.Save(ctx, name, contentType, bytes.NewReader(data))
}
