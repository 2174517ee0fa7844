package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMove_File_SameFilesystem tests moving a staged file within the same filesystem
func TestMove_File_SameFilesystem(t *testing.T) {
	tempDir := t.TempDir()

	srcFile := filepath.Join(tempDir, "dl-123.tmp")
	dstFile := filepath.Join(tempDir, "boot.img")

	content := "boot image"
	require.NoError(t, os.WriteFile(srcFile, []byte(content), 0644))

	require.NoError(t, Move(srcFile, dstFile))

	movedContent, err := os.ReadFile(dstFile)
	require.NoError(t, err)
	assert.Equal(t, content, string(movedContent))

	_, err = os.Stat(srcFile)
	assert.True(t, os.IsNotExist(err))
}

func TestMove_OverwritesDestination(t *testing.T) {
	tempDir := t.TempDir()
	srcFile := filepath.Join(tempDir, "new")
	dstFile := filepath.Join(tempDir, "system.img")

	require.NoError(t, os.WriteFile(dstFile, []byte("old"), 0644))
	require.NoError(t, os.WriteFile(srcFile, []byte("new"), 0644))

	require.NoError(t, Move(srcFile, dstFile))

	content, err := os.ReadFile(dstFile)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestMove_CreatesDestinationDir(t *testing.T) {
	tempDir := t.TempDir()
	srcFile := filepath.Join(tempDir, "src")
	dstFile := filepath.Join(tempDir, "nested", "dir", "dst")
	require.NoError(t, os.WriteFile(srcFile, []byte("x"), 0644))

	require.NoError(t, Move(srcFile, dstFile))
	assert.FileExists(t, dstFile)
}

func TestMove_Errors(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name string
		src  string
		dst  string
	}{
		{name: "empty source", src: "", dst: filepath.Join(tempDir, "x")},
		{name: "empty destination", src: filepath.Join(tempDir, "x"), dst: ""},
		{name: "missing source", src: filepath.Join(tempDir, "missing"), dst: filepath.Join(tempDir, "y")},
		{name: "directory source", src: tempDir, dst: filepath.Join(t.TempDir(), "z")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Move(tt.src, tt.dst))
		})
	}
}

func TestCopy(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "a")
	dst := filepath.Join(tempDir, "b")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))

	require.NoError(t, Copy(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
	assert.FileExists(t, src)
}

func TestFileHelpers(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "recovery.img")
	require.NoError(t, os.WriteFile(file, []byte("12345"), 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(tempDir))
	assert.False(t, FileExists(filepath.Join(tempDir, "missing")))

	size, err := FileSize(file)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	size, err = FileSize(filepath.Join(tempDir, "missing"))
	require.NoError(t, err)
	assert.Zero(t, size)

	require.NoError(t, RemoveIfExists(file))
	require.NoError(t, RemoveIfExists(file))
	assert.NoFileExists(t, file)
}

func TestDirectoryHelpers(t *testing.T) {
	base := t.TempDir()
	nested := filepath.Join(base, "parent", "child")

	require.NoError(t, EnsureDir(nested))
	assert.DirExists(t, nested)
	assert.True(t, IsDir(nested))

	filePath := filepath.Join(base, "other", "file.txt")
	require.NoError(t, EnsureFileDir(filePath))
	assert.DirExists(t, filepath.Dir(filePath))

	require.NoError(t, os.WriteFile(filePath, nil, 0644))
	assert.False(t, IsDir(filePath))
	assert.False(t, IsDir(filepath.Join(base, "missing")))
}

func TestGetImagesDir(t *testing.T) {
	dir, err := GetImagesDir()
	if err != nil {
		t.Skipf("no user cache dir: %v", err)
	}
	assert.Equal(t, imagesDirName, filepath.Base(dir))
	assert.Equal(t, AppName, filepath.Base(filepath.Dir(dir)))
}
