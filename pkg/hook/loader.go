package hook

import (
	"os"
	"path/filepath"

	"github.com/glorpus-work/phablet/pkg/errors"
)

// HookFileExtension is the extension of hook script files.
const HookFileExtension = ".tengo"

// LoadHookFile reads the Tengo script at path and registers it as hookType.
// An empty path is not an error and registers nothing.
func LoadHookFile(manager HookManager, hookType HookType, path string) error {
	if path == "" {
		return nil
	}
	if ext := filepath.Ext(path); ext != HookFileExtension {
		return errors.Wrapf(errors.ErrHookLoad, "%s: unsupported hook file extension %q", path, ext)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(errors.ErrHookLoad, "error reading hook file %s: %v", path, err)
	}

	if err := manager.AddHook(Hook{
		Type:    hookType,
		Content: string(content),
	}); err != nil {
		return errors.Wrapf(errors.ErrHookLoad, "error adding hook %s: %v", hookType, err)
	}
	return nil
}

// HookTemplate generates a template for a hook script.
func HookTemplate(hookType HookType) string {
	switch hookType {
	case PostDownload:
		return `// Post-download hook
// This script runs after every artifact was fetched, verified and decompressed
// Available variables:
// - files: map - artifact name to final local path
// - stagingDir: string - directory holding the artifacts
// - baseURI: string - location the artifacts were fetched from
// - offline: bool - whether the run used the local cache only
//
// Set err to a non-empty string to fail the run.

// Example: make sure the recovery image is present
/*
if !files["recovery.img"] {
    err = "recovery image missing"
}
*/`

	default:
		return "// Unknown hook type: " + string(hookType)
	}
}
