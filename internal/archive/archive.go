// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive stores raw genotype files exactly as uploaded, on the
// local filesystem or in an S3 bucket. Keys never contain a raw subject
// identifier.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/pdiddy/genocode/pkg/types"
)

var (
	// ErrNotFound is returned by Get for a key that holds no object.
	ErrNotFound = errors.New("archived object not found")

	// ErrInvalidKey is returned for keys that are empty, absolute, or
	// escape the archive root.
	ErrInvalidKey = errors.New("invalid archive key")
)

// Archiver stores and retrieves raw upload bytes by key.
type Archiver interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Key returns the archive key for an upload: uploads/<pseudonym>/<uploadID>.txt.
func Key(pseudonym, uploadID string) string {
	return path.Join("uploads", pseudonym, uploadID+".txt")
}

// New builds the archiver selected by cfg. It returns nil when archiving
// is disabled.
func New(ctx context.Context, cfg types.ArchiveConfig) (Archiver, error) {
	switch cfg.Backend {
	case "", types.ArchiveNone:
		return nil, nil
	case types.ArchiveFS:
		return NewFS(cfg.Dir)
	case types.ArchiveS3:
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

// DeleteAll removes every key, continuing past failures, and returns
// the failures combined.
func DeleteAll(ctx context.Context, a Archiver, keys []string) error {
	if a == nil {
		return nil
	}
	var result *multierror.Error
	for _, k := range keys {
		if err := a.Delete(ctx, k); err != nil {
			result = multierror.Append(result, fmt.Errorf("deleting %s: %w", k, err))
		}
	}
	return result.ErrorOrNil()
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	clean := path.Clean(key)
	if clean != key || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
