//go:build integration

package main

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// startImageServer serves the given files from a temporary directory, adding
// an .md5sum digest next to every file.
func startImageServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		sum := md5.Sum([]byte(content))
		digest := fmt.Sprintf("%s  %s\n", hex.EncodeToString(sum[:]), name)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".md5sum"), []byte(digest), 0o644))
	}
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(srv.Close)
	return srv
}

// writeTempConfig writes a config file pointing downloads at uri.
func writeTempConfig(t *testing.T, path, uri, stagingDir string, artifacts []string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("settings:\n")
	fmt.Fprintf(&b, "  download_uri: %s\n", uri)
	fmt.Fprintf(&b, "  catalog_uri: %s/\n", uri)
	fmt.Fprintf(&b, "  staging_dir: %s\n", stagingDir)
	b.WriteString("  lock_timeout: 0s\n")
	b.WriteString("  artifacts:\n")
	for _, a := range artifacts {
		fmt.Fprintf(&b, "    - %q\n", a)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

// runCLI executes the root command and returns what it wrote to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// startDirServer serves dir with directory listings.
func startDirServer(t *testing.T, dir string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(srv.Close)
	return srv
}
