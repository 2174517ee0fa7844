package download

import (
	"context"
	"os"
	"time"

	"github.com/glorpus-work/phablet/pkg/transport"
)

// gate routes every network transfer of the manager. In offline mode it
// reports nothing fetched and never calls the transport.
type gate struct {
	offline bool
	fetcher transport.Fetcher
}

// fetchResult tells what a fetch did. A resumed fetch of a complete file
// transfers without changing it.
type fetchResult struct {
	transferred bool
	changed     bool
}

type fileStamp struct {
	exists  bool
	size    int64
	modTime time.Time
}

func stampOf(path string) fileStamp {
	fi, err := os.Stat(path)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{exists: true, size: fi.Size(), modTime: fi.ModTime()}
}

func (s fileStamp) same(o fileStamp) bool {
	return s.exists == o.exists && s.size == o.size && s.modTime.Equal(o.modTime)
}

func (g *gate) fetch(ctx context.Context, uri, path string) (fetchResult, error) {
	if g.offline {
		return fetchResult{}, nil
	}
	before := stampOf(path)
	if err := g.fetcher.Fetch(ctx, uri, path); err != nil {
		return fetchResult{}, err
	}
	after := stampOf(path)
	return fetchResult{transferred: true, changed: after.exists && !after.same(before)}, nil
}
