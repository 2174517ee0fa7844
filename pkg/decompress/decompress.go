//go:generate mockgen -destination=./mocks/decompress.go . Decompressor

// Package decompress normalizes compressed artifacts into their decompressed form.
package decompress

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/glorpus-work/phablet/pkg/artifact"
	"github.com/glorpus-work/phablet/pkg/errors"
	"github.com/glorpus-work/phablet/pkg/fsutil"
)

// Decompressor turns a compressed artifact into its decompressed sibling.
type Decompressor interface {
	// Decompress writes the decompressed content of path next to it, without the
	// compression suffix, and returns that path.
	Decompress(ctx context.Context, path string) (string, error)
}

// codecs maps a compression suffix to the archives codec able to read it.
var codecs = map[string]archives.Decompressor{
	".gz":  archives.Gz{},
	".xz":  archives.Xz{},
	".bz2": archives.Bz2{},
	".zst": archives.Zstd{},
	".lz4": archives.Lz4{},
}

// Manager decompresses artifacts using github.com/mholt/archives codecs.
// The compressed input is left in place.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// Target returns the path Decompress would write for path.
func Target(path string) string {
	return filepath.Join(filepath.Dir(path), artifact.TrimCompression(filepath.Base(path)))
}

// Decompress implements Decompressor.
func (m *Manager) Decompress(ctx context.Context, path string) (string, error) {
	codec, ok := codecs[strings.ToLower(filepath.Ext(path))]
	if !ok || !artifact.IsCompressed(filepath.Base(path)) {
		return "", fmt.Errorf("%w: %s has no supported compression suffix", errors.ErrDownloadFailed, path)
	}
	target := Target(path)

	src, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(errors.ErrDownloadFailed, "failed to open compressed file %s: %v", path, err)
	}
	defer func() { _ = src.Close() }()

	rc, err := codec.OpenReader(src)
	if err != nil {
		return "", errors.Wrapf(errors.ErrDownloadFailed, "failed to read %s: %v", path, err)
	}
	defer func() { _ = rc.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(target), ".decompress-*.tmp")
	if err != nil {
		return "", errors.Wrapf(errors.ErrDownloadFailed, "could not create temp file: %v", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: rc}); err != nil {
		_ = tmp.Close()
		return "", errors.Wrapf(errors.ErrDownloadFailed, "failed to decompress %s: %v", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", errors.Wrapf(errors.ErrDownloadFailed, "could not sync %s: %v", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrapf(errors.ErrDownloadFailed, "could not close %s: %v", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, fsutil.FileModeSecure); err != nil {
		return "", errors.Wrapf(errors.ErrDownloadFailed, "could not set permissions: %v", err)
	}
	if err := fsutil.Move(tmpPath, target); err != nil {
		return "", errors.Wrapf(errors.ErrDownloadFailed, "could not finalize %s: %v", target, err)
	}
	return target, nil
}

// ctxReader stops a long copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
