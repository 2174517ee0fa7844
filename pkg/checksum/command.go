package checksum

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"
)

// DefaultCommand is the checker invoked by Command when no template is given.
const DefaultCommand = "md5sum -c {digest}"

// Command runs an external checksum tool such as `md5sum -c`.
// The template placeholder {digest} is replaced with the digest file path.
type Command struct {
	template string
}

// NewCommand creates a verifier running template. An empty template uses DefaultCommand.
func NewCommand(template string) *Command {
	if strings.TrimSpace(template) == "" {
		template = DefaultCommand
	}
	return &Command{template: template}
}

// Verify implements Verifier. The tool only runs once the digest file and
// every file it names are present. Exit status zero is then Valid, any other
// exit is Mismatch.
func (c *Command) Verify(ctx context.Context, digestPath, workingDir string) (Result, error) {
	if _, err := os.Stat(digestPath); err != nil {
		return Missing, nil
	}
	if res, err := namedFilesPresent(digestPath, workingDir); res != Valid {
		return res, err
	}

	args, err := c.args(digestPath)
	if err != nil {
		return Mismatch, err
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = workingDir
	out, err := cmd.CombinedOutput()
	if err == nil {
		return Valid, nil
	}
	if ctx.Err() != nil {
		return Missing, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Mismatch, fmt.Errorf("%s exited with %d: %s", args[0], exitErr.ExitCode(), strings.TrimSpace(string(out)))
	}
	return Mismatch, fmt.Errorf("running %s: %w", args[0], err)
}

func (c *Command) args(digestPath string) ([]string, error) {
	args, err := shellwords.Parse(c.template)
	if err != nil {
		return nil, fmt.Errorf("invalid checksum command %q: %w", c.template, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("invalid checksum command %q: empty", c.template)
	}
	for i, a := range args {
		args[i] = strings.ReplaceAll(a, "{digest}", digestPath)
	}
	return args, nil
}

// namedFilesPresent reports Missing when a file named by the digest is absent
// from workingDir. A digest the parser rejects is left to the tool.
func namedFilesPresent(digestPath, workingDir string) (Result, error) {
	entries, err := readDigestFile(digestPath)
	if err != nil {
		if os.IsNotExist(err) || os.IsPermission(err) {
			return Missing, nil
		}
		return Valid, nil
	}
	for _, e := range entries {
		if _, err := os.Stat(filepath.Join(workingDir, e.name)); err != nil {
			if os.IsNotExist(err) {
				return Missing, nil
			}
			return Missing, fmt.Errorf("%s: %w", e.name, err)
		}
	}
	return Valid, nil
}
