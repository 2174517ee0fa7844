package checksum

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestMD5Sum_Verify(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string) string
		want    Result
		wantErr bool
	}{
		{
			name: "valid single entry",
			setup: func(t *testing.T, dir string) string {
				writeFile(t, dir, "boot.img", "boot")
				return writeFile(t, dir, "boot.img.md5sum", md5Hex("boot")+"  boot.img\n")
			},
			want: Valid,
		},
		{
			name: "valid binary marker and uppercase digest",
			setup: func(t *testing.T, dir string) string {
				writeFile(t, dir, "boot.img", "boot")
				upper := []byte(md5Hex("boot"))
				for i, c := range upper {
					if c >= 'a' && c <= 'f' {
						upper[i] = c - 'a' + 'A'
					}
				}
				return writeFile(t, dir, "boot.img.md5sum", string(upper)+" *boot.img\r\n\n")
			},
			want: Valid,
		},
		{
			name: "digest file absent",
			setup: func(t *testing.T, dir string) string {
				writeFile(t, dir, "boot.img", "boot")
				return filepath.Join(dir, "boot.img.md5sum")
			},
			want: Missing,
		},
		{
			name: "named file absent",
			setup: func(t *testing.T, dir string) string {
				return writeFile(t, dir, "boot.img.md5sum", md5Hex("boot")+"  boot.img\n")
			},
			want: Missing,
		},
		{
			name: "content mismatch",
			setup: func(t *testing.T, dir string) string {
				writeFile(t, dir, "boot.img", "corrupted")
				return writeFile(t, dir, "boot.img.md5sum", md5Hex("boot")+"  boot.img\n")
			},
			want:    Mismatch,
			wantErr: true,
		},
		{
			name: "mismatch wins over missing",
			setup: func(t *testing.T, dir string) string {
				writeFile(t, dir, "a.img", "bad")
				return writeFile(t, dir, "all.md5sum", md5Hex("a")+"  a.img\n"+md5Hex("b")+"  b.img\n")
			},
			want:    Mismatch,
			wantErr: true,
		},
		{
			name: "malformed line",
			setup: func(t *testing.T, dir string) string {
				return writeFile(t, dir, "boot.img.md5sum", "not a checksum\n")
			},
			want:    Mismatch,
			wantErr: true,
		},
		{
			name: "empty digest file",
			setup: func(t *testing.T, dir string) string {
				return writeFile(t, dir, "boot.img.md5sum", "\n")
			},
			want:    Mismatch,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			digest := tt.setup(t, dir)

			got, err := NewMD5Sum().Verify(context.Background(), digest, dir)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMD5Sum_UnreadableFileIsNotMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "boot.img"), 0o755))
	digest := writeFile(t, dir, "boot.img.md5sum", md5Hex("boot")+"  boot.img\n")

	got, err := NewMD5Sum().Verify(context.Background(), digest, dir)
	require.Error(t, err)
	assert.Equal(t, Missing, got)
	assert.Contains(t, err.Error(), "boot.img")
}

func TestMD5Sum_ReportsEveryFailingEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.img", "x")
	writeFile(t, dir, "b.img", "y")
	digest := writeFile(t, dir, "all.md5sum", md5Hex("a")+"  a.img\n"+md5Hex("b")+"  b.img\n")

	got, err := NewMD5Sum().Verify(context.Background(), digest, dir)
	require.Error(t, err)
	assert.Equal(t, Mismatch, got)
	assert.Contains(t, err.Error(), "a.img")
	assert.Contains(t, err.Error(), "b.img")
}

func TestMD5Sum_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.img", "a")
	digest := writeFile(t, dir, "a.img.md5sum", md5Hex("a")+"  a.img\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMD5Sum().Verify(ctx, digest, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteDigestFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "system.img", "system")
	digest := filepath.Join(dir, "system.img.md5sum")

	require.NoError(t, WriteDigestFile(digest, dir, "system.img"))

	content, err := os.ReadFile(digest)
	require.NoError(t, err)
	assert.Equal(t, md5Hex("system")+"  system.img\n", string(content))

	got, err := NewMD5Sum().Verify(context.Background(), digest, dir)
	require.NoError(t, err)
	assert.Equal(t, Valid, got)
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "valid", Valid.String())
	assert.Equal(t, "mismatch", Mismatch.String())
	assert.Equal(t, "missing", Missing.String())
}
