package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	domrepo "CreditScore/internal/domain/repository"
	"CreditScore/internal/service/cache"
	"CreditScore/internal/service/metrics"
	applogger "CreditScore/pkg/logger"
)

// ErrArtifactNotFound is returned when the named artifact does not exist.
var ErrArtifactNotFound = errors.New("artifact not found")

// FSArtifactSource reads artifacts from a directory.
type FSArtifactSource struct {
	dir string
}

func NewFSArtifactSource(dir string) *FSArtifactSource {
	return &FSArtifactSource{dir: dir}
}

// Open reads dir/name. Names must stay inside the artifact directory.
func (s *FSArtifactSource) Open(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("artifact %q: name escapes artifact directory", name)
	}
	b, err := os.ReadFile(filepath.Join(s.dir, clean))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
		}
		return nil, fmt.Errorf("read artifact %s: %w", name, err)
	}
	return b, nil
}

// CachedArtifactSource keeps artifact bytes in a BytesCache for ttl.
// Decoding still happens per request; only the read is shared.
type CachedArtifactSource struct {
	inner domrepo.ArtifactSource
	cache cache.BytesCache
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCachedArtifactSource(inner domrepo.ArtifactSource, c cache.BytesCache, ttl time.Duration) *CachedArtifactSource {
	return &CachedArtifactSource{inner: inner, cache: c, ttl: ttl}
}

// SetLogger injects a structured logger.
func (s *CachedArtifactSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CachedArtifactSource) Open(ctx context.Context, name string) ([]byte, error) {
	key := "artifact:" + name
	b, ok, err := s.cache.GetBytes(ctx, key)
	metrics.ObserveLookup("artifact", ok, err)
	if err == nil && ok {
		return b, nil
	}
	if err != nil && s.l != nil {
		s.l.Warn("artifact cache get failed", applogger.String("artifact", name), applogger.Error(err))
	}

	b, err = s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetBytes(ctx, key, b, s.ttl); err != nil && s.l != nil {
		s.l.Warn("artifact cache set failed", applogger.String("artifact", name), applogger.Error(err))
	}
	return b, nil
}
