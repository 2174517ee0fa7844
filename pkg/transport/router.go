package transport

import (
	"context"
	"strings"
)

// Router sends URIs rooted at the designated base host to one fetcher and
// everything else to another.
type Router struct {
	baseHost string
	base     Fetcher
	other    Fetcher
}

// NewRouter creates a Router. An empty baseHost routes everything to other.
func NewRouter(baseHost string, base, other Fetcher) *Router {
	return &Router{
		baseHost: strings.TrimSuffix(baseHost, "/"),
		base:     base,
		other:    other,
	}
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, uri, localPath string) error {
	return r.Select(uri).Fetch(ctx, uri, localPath)
}

// Select returns the fetcher responsible for uri.
func (r *Router) Select(uri string) Fetcher {
	if r.baseHost == "" {
		return r.other
	}
	rest, ok := strings.CutPrefix(uri, r.baseHost)
	if ok && (rest == "" || strings.HasPrefix(rest, "/")) {
		return r.base
	}
	return r.other
}
