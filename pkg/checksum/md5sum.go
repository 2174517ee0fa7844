// Package checksum validates staged files against their md5sum companion files.
package checksum

import (
	"bufio"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// md5HexLen is the length of a hex encoded MD5 digest.
const md5HexLen = 32

// entry is one line of a digest file.
type entry struct {
	sum  string
	name string
}

// MD5Sum checks digest files in-process with the same semantics as `md5sum -c`.
type MD5Sum struct{}

// NewMD5Sum creates a new in-process verifier.
func NewMD5Sum() *MD5Sum {
	return &MD5Sum{}
}

// Verify implements Verifier.
func (v *MD5Sum) Verify(ctx context.Context, digestPath, workingDir string) (Result, error) {
	entries, err := readDigestFile(digestPath)
	if err != nil {
		if os.IsNotExist(err) || os.IsPermission(err) {
			return Missing, nil
		}
		return Mismatch, err
	}
	if len(entries) == 0 {
		return Mismatch, fmt.Errorf("%s: no properly formatted MD5 checksum lines found", digestPath)
	}

	var mismatches *multierror.Error
	missing := false
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return Missing, err
		}
		got, err := md5File(filepath.Join(workingDir, e.name))
		if err != nil {
			if os.IsNotExist(err) {
				missing = true
				continue
			}
			// Unreadable is not corrupt.
			return Missing, fmt.Errorf("%s: %w", e.name, err)
		}
		if got != e.sum {
			mismatches = multierror.Append(mismatches, fmt.Errorf("%s: FAILED (want %s, got %s)", e.name, e.sum, got))
		}
	}

	switch {
	case mismatches.ErrorOrNil() != nil:
		return Mismatch, mismatches.ErrorOrNil()
	case missing:
		return Missing, nil
	default:
		return Valid, nil
	}
}

func readDigestFile(path string) ([]entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var entries []entry
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// parseLine accepts "<hex>  <name>" and the binary form "<hex> *<name>".
func parseLine(line string) (entry, error) {
	if len(line) < md5HexLen+2 || line[md5HexLen] != ' ' {
		return entry{}, fmt.Errorf("improperly formatted checksum line")
	}
	sum := strings.ToLower(line[:md5HexLen])
	if _, err := hex.DecodeString(sum); err != nil {
		return entry{}, fmt.Errorf("invalid digest %q", line[:md5HexLen])
	}
	name := line[md5HexLen+2:]
	if mode := line[md5HexLen+1]; mode != ' ' && mode != '*' {
		return entry{}, fmt.Errorf("improperly formatted checksum line")
	}
	if name == "" {
		return entry{}, fmt.Errorf("missing file name")
	}
	return entry{sum: sum, name: name}, nil
}

func md5File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteDigestFile writes a digest file for the named files, all relative to workingDir.
func WriteDigestFile(digestPath, workingDir string, names ...string) error {
	var b strings.Builder
	for _, name := range names {
		sum, err := md5File(filepath.Join(workingDir, name))
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "%s  %s\n", sum, name)
	}
	return os.WriteFile(digestPath, []byte(b.String()), 0o644)
}
