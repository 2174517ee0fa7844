package decompress

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mholt/archives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/phablet/pkg/errors"
)

func compress(t *testing.T, codec archives.Compressor, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := codec.OpenWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestManager_Decompress(t *testing.T) {
	content := "ubuntu touch root filesystem"

	tests := []struct {
		name   string
		file   string
		codec  archives.Compressor
		target string
	}{
		{name: "gzip", file: "rootfs.img.gz", codec: archives.Gz{}, target: "rootfs.img"},
		{name: "xz", file: "rootfs.img.xz", codec: archives.Xz{}, target: "rootfs.img"},
		{name: "bzip2", file: "rootfs.img.bz2", codec: archives.Bz2{}, target: "rootfs.img"},
		{name: "zstd", file: "rootfs.img.zst", codec: archives.Zstd{}, target: "rootfs.img"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(src, compress(t, tt.codec, content), 0o644))

			got, err := NewManager().Decompress(context.Background(), src)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.target), got)

			data, err := os.ReadFile(got)
			require.NoError(t, err)
			assert.Equal(t, content, string(data))

			// compressed input is retained
			assert.FileExists(t, src)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 2, "no temp files left behind")
		})
	}
}

func TestManager_DecompressOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "boot.img.gz")
	require.NoError(t, os.WriteFile(src, compress(t, archives.Gz{}, "new"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "boot.img"), []byte("old contents"), 0o644))

	got, err := NewManager().Decompress(context.Background(), src)
	require.NoError(t, err)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestManager_DecompressErrors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.img.gz")
	require.NoError(t, os.WriteFile(corrupt, []byte("not gzip at all"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{name: "unsupported suffix", path: filepath.Join(dir, "image.zip")},
		{name: "missing file", path: filepath.Join(dir, "missing.img.gz")},
		{name: "corrupt stream", path: corrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager().Decompress(context.Background(), tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrDownloadFailed)
		})
	}
	assert.NoFileExists(t, filepath.Join(dir, "corrupt.img"))
}

func TestManager_DecompressCanceled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "rootfs.img.gz")
	require.NoError(t, os.WriteFile(src, compress(t, archives.Gz{}, "payload"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewManager().Decompress(ctx, src)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "rootfs.img"))
}

func TestTarget(t *testing.T) {
	assert.Equal(t, filepath.Join("/s", "rootfs.img"), Target("/s/rootfs.img.gz"))
	assert.Equal(t, filepath.Join("/s", "boot.img"), Target("/s/boot.img"))
}
