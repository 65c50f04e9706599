// Package publish uploads merged artifacts to an S3-compatible bucket.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"xcpack/internal/config"
)

// ErrDisabled is returned by New when publishing is not configured.
var ErrDisabled = errors.New("publish: not configured")

// Publisher uploads artifact directories below Prefix.
type Publisher struct {
	Store  Store
	Prefix string
}

// New returns a Publisher on a MinioStore, or ErrDisabled when cfg has no
// endpoint or bucket.
func New(cfg config.Publish) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	store, err := NewMinioStore(cfg)
	if err != nil {
		return nil, err
	}
	return &Publisher{Store: store, Prefix: cfg.Prefix}, nil
}

// ObjectKey is <prefix>/<artifact>/<rel> with forward slashes.
func ObjectKey(prefix, artifact, rel string) string {
	return path.Join(strings.Trim(prefix, "/"), artifact, filepath.ToSlash(rel))
}

// Publish uploads every regular file under artifactDir and returns the
// object keys in walk order. Symlinks are skipped: frameworks link their
// current version, which is uploaded through its real path.
func (p *Publisher) Publish(ctx context.Context, artifactDir string) ([]string, error) {
	name := filepath.Base(artifactDir)
	var keys []string
	err := filepath.WalkDir(artifactDir, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(artifactDir, file)
		if err != nil {
			return err
		}
		key := ObjectKey(p.Prefix, name, rel)
		if err := p.put(ctx, key, file); err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return keys, fmt.Errorf("publish %s: %w", name, err)
	}
	return keys, nil
}

func (p *Publisher) put(ctx context.Context, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	return p.Store.Put(ctx, key, f, info.Size())
}
