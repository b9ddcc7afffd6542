package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"facestage/internal/config"
	"facestage/internal/services"
)

var (
	// ErrExists is returned when a key is already stored.
	ErrExists = errors.New("artifact already exists")
	// ErrInvalidKey rejects empty, absolute or traversing keys.
	ErrInvalidKey = errors.New("invalid artifact key")
)

// Info describes a stored artifact.
type Info struct {
	Key         string
	Size        int64
	ContentType string
	ETag        string
	URL         string
}

// Store persists snapshot artifacts. Keys are slash-separated and
// create-only.
type Store interface {
	Driver() string
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
}

// SnapshotKey is the artifact key for a session's snapshot.
func SnapshotKey(prefix, sessionID string, at time.Time) string {
	key := path.Join("snapshots", at.UTC().Format("2006/01/02"), sessionID+".png")
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}
	return key
}

// Open builds the store selected by cfg. It returns nil when sharing is
// disabled.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	if !cfg.Share.Enabled {
		return nil, nil
	}
	switch cfg.Share.Backend {
	case config.ShareBackendS3:
		store, err := NewS3(ctx, S3Config{
			Bucket:   cfg.Share.S3Bucket,
			Region:   cfg.Share.S3Region,
			Endpoint: cfg.Share.S3Endpoint,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "share", "open s3", cfg.Share.S3Bucket, err)
		}
		return store, nil
	case config.ShareBackendLocal, "":
		store, err := NewLocal(cfg.Share.Dir)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "share", "open local", cfg.Share.Dir, err)
		}
		return store, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "share", "open", fmt.Sprintf("unknown backend %q", cfg.Share.Backend), nil)
	}
}

func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: contains '..'", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: absolute", ErrInvalidKey)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}
