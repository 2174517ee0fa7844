package hook

import "context"

// HookType represents the type of hook.
type HookType string

// Supported hook types.
const (
	// PostDownload runs once every artifact of a download run succeeded.
	PostDownload HookType = "post-download"
)

// Hook represents a hook script with its type and content.
type Hook struct {
	Type    HookType
	Content string
}

// HookContext contains information passed to hooks.
type HookContext struct {
	// Files maps each artifact name to its final local path.
	Files      map[string]string
	StagingDir string
	BaseURI    string
	Offline    bool
	Vars       map[string]interface{}
}

// HookManager defines the interface for managing hooks.
type HookManager interface {
	// Execute runs the specified hook type with the given hook context
	Execute(ctx context.Context, hookType HookType, hctx HookContext) error

	// AddHook adds a new hook
	AddHook(hook Hook) error

	// RemoveHook removes a hook of the specified type
	RemoveHook(hookType HookType) error

	// HasHook checks if a hook of the specified type exists
	HasHook(hookType HookType) bool
}
