// Package transport fetches remote artifacts into the staging directory,
// continuing partial files where the server supports byte ranges.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/glorpus-work/phablet/pkg/errors"
	"github.com/glorpus-work/phablet/pkg/fsutil"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "phablet/1.0"

// HTTP is a resumable fetcher built on net/http.
type HTTP struct {
	client    *http.Client
	userAgent string
}

// NewHTTP creates a new HTTP fetcher. headerTimeout bounds the wait for response
// headers only, so large images are not cut off mid-body; zero disables it.
func NewHTTP(headerTimeout time.Duration, userAgent string) *HTTP {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ResponseHeaderTimeout = headerTimeout
	return &HTTP{
		client:    &http.Client{Transport: tr},
		userAgent: userAgent,
	}
}

// Fetch implements Fetcher.
func (h *HTTP) Fetch(ctx context.Context, uri, localPath string) error {
	if err := fsutil.EnsureFileDir(localPath); err != nil {
		return errors.Wrap(errors.ErrDownloadFailed, "could not create download dir: "+err.Error())
	}
	offset, err := fsutil.FileSize(localPath)
	if err != nil {
		return errors.Wrapf(errors.ErrDownloadFailed, "stat %s: %v", localPath, err)
	}

	resp, err := h.doRequest(ctx, uri, offset)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return writeBody(resp.Body, localPath, false)
	case http.StatusPartialContent:
		if err := checkContentRange(resp.Header.Get("Content-Range"), offset); err != nil {
			return errors.Wrapf(errors.ErrDownloadFailed, "%s: %v", uri, err)
		}
		return writeBody(resp.Body, localPath, true)
	case http.StatusRequestedRangeNotSatisfiable:
		if offset > 0 {
			// Nothing left to transfer.
			return nil
		}
		fallthrough
	default:
		return fmt.Errorf("unexpected status code: %d for %s: %w", resp.StatusCode, uri, errors.ErrDownloadFailed)
	}
}

func (h *HTTP) doRequest(ctx context.Context, uri string, offset int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, http.NoBody)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDownloadFailed, "failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrDownloadFailed, err)
	}
	return resp, nil
}

// checkContentRange makes sure a 206 response continues exactly at offset.
func checkContentRange(header string, offset int64) error {
	rest, ok := strings.CutPrefix(header, "bytes ")
	if !ok {
		return fmt.Errorf("invalid Content-Range %q", header)
	}
	start, _, ok := strings.Cut(rest, "-")
	if !ok {
		return fmt.Errorf("invalid Content-Range %q", header)
	}
	n, err := strconv.ParseInt(start, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid Content-Range %q", header)
	}
	if n != offset {
		return fmt.Errorf("server resumed at byte %d, expected %d", n, offset)
	}
	return nil
}

func writeBody(body io.Reader, localPath string, appendMode bool) error {
	flags := os.O_WRONLY | os.O_CREATE
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(localPath, flags, fsutil.FileModeSecure)
	if err != nil {
		return errors.Wrapf(errors.ErrDownloadFailed, "could not open %s: %v", localPath, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return errors.Wrapf(errors.ErrDownloadFailed, "could not write %s: %v", localPath, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.Wrapf(errors.ErrDownloadFailed, "could not sync %s: %v", localPath, err)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(errors.ErrDownloadFailed, "could not close %s: %v", localPath, err)
	}
	return nil
}
