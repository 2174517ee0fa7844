//go:generate mockgen -destination=./mocks/transport.go . Fetcher
package transport

import "context"

// Fetcher performs a single resumable fetch of one URI to one local path.
// When localPath already holds N bytes, implementations continue from byte N
// instead of restarting from zero.
type Fetcher interface {
	Fetch(ctx context.Context, uri, localPath string) error
}
