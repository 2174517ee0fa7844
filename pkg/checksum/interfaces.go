//go:generate mockgen -destination=./mocks/checksum.go . Verifier
package checksum

import "context"

// Result is the outcome of a digest check.
type Result int

const (
	// Missing means the digest file, or a file it names, is not present yet.
	Missing Result = iota
	// Valid means every file named by the digest file matches.
	Valid
	// Mismatch means a named file exists but its content does not match.
	Mismatch
)

func (r Result) String() string {
	switch r {
	case Valid:
		return "valid"
	case Mismatch:
		return "mismatch"
	default:
		return "missing"
	}
}

// Verifier checks local files against a companion digest file.
// Paths inside the digest file are relative to workingDir.
// A Missing result carries an error only when a named file exists but
// cannot be read; a Mismatch result may carry an error describing which
// entries failed.
type Verifier interface {
	Verify(ctx context.Context, digestPath, workingDir string) (Result, error)
}
