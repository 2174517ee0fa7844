package transport

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/glorpus-work/phablet/pkg/errors"
	"github.com/glorpus-work/phablet/pkg/fsutil"
)

// Default command templates. {uri} and {path} are substituted per fetch.
const (
	DefaultBaseCommand  = "wget -c {uri} -O {path}"
	DefaultOtherCommand = "curl -f -C - {uri} -o {path}"
)

// maxOutputTail bounds how much tool output is kept in an error.
const maxOutputTail = 512

// Command fetches by running an external resumable download tool.
type Command struct {
	template string
}

// NewCommand creates a fetcher that runs template.
func NewCommand(template string) *Command {
	return &Command{template: template}
}

// Fetch implements Fetcher.
func (c *Command) Fetch(ctx context.Context, uri, localPath string) error {
	args, err := expand(c.template, uri, localPath)
	if err != nil {
		return err
	}
	if err := fsutil.EnsureFileDir(localPath); err != nil {
		return errors.Wrap(errors.ErrDownloadFailed, "could not create download dir: "+err.Error())
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v: %s", errors.ErrDownloadFailed, args[0], uri, err, tail(out))
	}
	return nil
}

func expand(template, uri, localPath string) ([]string, error) {
	args, err := shellwords.Parse(template)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid fetch command %q: %v", errors.ErrDownloadFailed, template, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: empty fetch command", errors.ErrDownloadFailed)
	}
	r := strings.NewReplacer("{uri}", uri, "{path}", localPath)
	for i, a := range args {
		args[i] = r.Replace(a)
	}
	return args, nil
}

func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > maxOutputTail {
		s = s[len(s)-maxOutputTail:]
	}
	return s
}
