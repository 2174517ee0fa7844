// Package catalog reads the release and revision listings published by the
// image server.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/phablet/pkg/errors"
	"github.com/glorpus-work/phablet/pkg/transport"
)

// DefaultMaxConcurrent bounds the listings fetched at once by Available.
const DefaultMaxConcurrent = 4

// Release is one published series and, once listed, its revisions.
type Release struct {
	Name      string
	URI       string
	Revisions []string
}

// Client fetches listings over HTTP.
type Client struct {
	client        *http.Client
	userAgent     string
	maxConcurrent int
	log           logrus.FieldLogger
}

// NewClient creates a catalog client. A non-positive maxConcurrent selects DefaultMaxConcurrent.
func NewClient(timeout time.Duration, userAgent string, maxConcurrent int, log logrus.FieldLogger) *Client {
	if userAgent == "" {
		userAgent = transport.DefaultUserAgent
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Client{
		client:        &http.Client{Timeout: timeout},
		userAgent:     userAgent,
		maxConcurrent: maxConcurrent,
		log:           log,
	}
}

// Releases lists the releases below uri.
func (c *Client) Releases(ctx context.Context, uri string) ([]Release, error) {
	names, err := c.list(ctx, uri)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(uri, "/") + "/"
	releases := make([]Release, 0, len(names))
	for _, name := range names {
		releases = append(releases, Release{Name: name, URI: base + name + "/"})
	}
	return releases, nil
}

// Revisions lists the revisions of the release at uri, newest first.
func (c *Client) Revisions(ctx context.Context, uri string) ([]string, error) {
	names, err := c.list(ctx, uri)
	if err != nil {
		return nil, err
	}
	SortRevisions(names)
	return names, nil
}

// Available lists every release below uri together with its revisions.
// Release listings are fetched concurrently.
func (c *Client) Available(ctx context.Context, uri string) ([]Release, error) {
	c.log.WithField("uri", uri).Info("Retrieving available revisions")

	releases, err := c.Releases(ctx, uri)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)
	for i := range releases {
		g.Go(func() error {
			revs, err := c.Revisions(ctx, releases[i].URI)
			if err != nil {
				return err
			}
			releases[i].Revisions = revs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return releases, nil
}

func (c *Client) list(ctx context.Context, uri string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, http.NoBody)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCatalog, "invalid uri %s: %v", uri, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCatalog, "request %s: %v", uri, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d for %s: %w", resp.StatusCode, uri, errors.ErrCatalog)
	}

	names, err := ParseListing(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCatalog, "parse %s: %v", uri, err)
	}
	c.log.WithField("uri", uri).Debugf("Found %d entries", len(names))
	return names, nil
}
