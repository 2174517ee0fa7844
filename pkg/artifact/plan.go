// Package artifact resolves artifact names into their remote and local locations
// and keeps the ordered table of final local files handed to downstream consumers.
package artifact

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/phablet/pkg/errors"
)

// DigestSuffix is appended to an artifact name to form its companion digest artifact.
const DigestSuffix = ".md5sum"

// compressionSuffixes lists the name suffixes that mark a compressed artifact.
var compressionSuffixes = []string{".gz", ".xz", ".bz2", ".zst", ".lz4"}

// ResolvedArtifact is the deterministic location triple of one artifact.
type ResolvedArtifact struct {
	Name       string
	RemoteURI  string
	LocalPath  string
	DigestName string
}

// Resolve computes where name lives remotely and locally. It performs no I/O.
func Resolve(baseURI, stagingDir, name string) ResolvedArtifact {
	return ResolvedArtifact{
		Name:       name,
		RemoteURI:  joinURI(baseURI, name),
		LocalPath:  filepath.Join(stagingDir, name),
		DigestName: name + DigestSuffix,
	}
}

// DigestURI returns the remote location of the companion digest artifact.
func (r ResolvedArtifact) DigestURI() string {
	return r.RemoteURI + DigestSuffix
}

// DigestPath returns the local location of the companion digest artifact.
func (r ResolvedArtifact) DigestPath() string {
	return r.LocalPath + DigestSuffix
}

// IsDigest reports whether name is itself a digest artifact.
func IsDigest(name string) bool {
	return strings.HasSuffix(name, DigestSuffix)
}

// IsCompressed reports whether name ends with a known compression suffix.
func IsCompressed(name string) bool {
	return compressionSuffix(name) != ""
}

// TrimCompression strips the compression suffix from name, if any.
func TrimCompression(name string) string {
	return strings.TrimSuffix(name, compressionSuffix(name))
}

func compressionSuffix(name string) string {
	for _, s := range compressionSuffixes {
		if strings.HasSuffix(name, s) && len(name) > len(s) {
			return s
		}
	}
	return ""
}

// ValidateStagingDir checks that dir exists and is a directory.
func ValidateStagingDir(dir string) error {
	if dir == "" {
		return errors.Wrap(errors.ErrInvalidConfiguration, "staging directory cannot be empty")
	}
	st, err := os.Stat(dir)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidConfiguration, "directory %s does not exist or is not a directory", dir)
	}
	if !st.IsDir() {
		return errors.Wrapf(errors.ErrInvalidConfiguration, "%s is not a directory", dir)
	}
	return nil
}

func joinURI(baseURI, name string) string {
	return strings.TrimSuffix(baseURI, "/") + "/" + name
}
