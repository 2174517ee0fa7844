// Package download acquires the artifacts of a provisioning run into a staging
// directory: it fetches each artifact and its digest, verifies them, and
// decompresses compressed artifacts. Re-running a download only fetches what
// is not already present and valid.
package download

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/glorpus-work/phablet/pkg/artifact"
	"github.com/glorpus-work/phablet/pkg/checksum"
	"github.com/glorpus-work/phablet/pkg/decompress"
	"github.com/glorpus-work/phablet/pkg/errors"
	"github.com/glorpus-work/phablet/pkg/fsutil"
	"github.com/glorpus-work/phablet/pkg/hook"
	"github.com/glorpus-work/phablet/pkg/metrics"
	"github.com/glorpus-work/phablet/pkg/transport"
)

const (
	// LockFileName is created in the staging directory while a download runs.
	LockFileName = ".phablet.lock"
	// DefaultLockTimeout bounds the wait for a staging directory held by another process.
	DefaultLockTimeout = 10 * time.Second

	lockRetryDelay = 200 * time.Millisecond
)

// Run statuses reported to metrics.
const (
	statusOK     = "ok"
	statusFailed = "failed"
)

// Manager downloads a fixed list of artifacts into a staging directory.
// It is not safe to share between goroutines except for Files.
type Manager struct {
	baseURI     string
	stagingDir  string
	artifacts   []string
	offline     bool
	lockTimeout time.Duration

	gate         *gate
	verifier     checksum.Verifier
	decompressor decompress.Decompressor
	hooks        hook.HookManager
	metrics      metrics.Metrics
	log          logrus.FieldLogger

	runMu    sync.Mutex
	verified map[string]bool
	filesMu  sync.RWMutex
	files    *artifact.Files
}

// New creates a Manager for artifacts under baseURI. Empty names in artifacts
// are skipped. It fails with ErrInvalidConfiguration when stagingDir is not an
// existing directory.
func New(baseURI, stagingDir string, artifacts []string, offline bool, opts ...Option) (*Manager, error) {
	if err := artifact.ValidateStagingDir(stagingDir); err != nil {
		return nil, err
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	m := &Manager{
		baseURI:      baseURI,
		stagingDir:   stagingDir,
		artifacts:    append([]string(nil), artifacts...),
		offline:      offline,
		lockTimeout:  DefaultLockTimeout,
		gate:         &gate{offline: offline, fetcher: transport.NewHTTP(0, "")},
		verifier:     checksum.NewMD5Sum(),
		decompressor: decompress.NewManager(),
		metrics:      metrics.Noop{},
		log:          discard,
		files:        artifact.NewFiles(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Files returns a copy of the table of final local paths, keyed by artifact name.
func (m *Manager) Files() *artifact.Files {
	m.filesMu.RLock()
	defer m.filesMu.RUnlock()
	return m.files.Clone()
}

// Download processes every artifact in order and stops at the first failure.
// With validate set each artifact is checked against its digest; offline runs
// never touch the network and only trust what is already staged.
func (m *Manager) Download(ctx context.Context, validate bool) (err error) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	log := m.log.WithFields(logrus.Fields{
		"run":     uuid.NewString(),
		"offline": m.offline,
	})

	defer func() {
		if err != nil {
			m.metrics.IncRun(statusFailed)
			log.WithError(err).Error("Download failed")
			return
		}
		m.metrics.IncRun(statusOK)
	}()

	unlock, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	// digest names whose pair checked out during this run
	m.verified = make(map[string]bool)

	log.WithField("path", m.stagingDir).Infof("Downloading %d artifacts", len(m.artifacts))
	for _, name := range m.artifacts {
		if name == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", errors.ErrDownloadFailed, err)
		}
		if err := m.process(ctx, log.WithField("artifact", name), name, validate); err != nil {
			return &ArtifactError{Name: name, Err: err}
		}
	}

	return m.runHooks(ctx, log)
}

func (m *Manager) process(ctx context.Context, log logrus.FieldLogger, name string, validate bool) error {
	r := artifact.Resolve(m.baseURI, m.stagingDir, name)

	if artifact.IsDigest(name) {
		return m.processDigest(ctx, log, r, validate)
	}

	m.setFile(name, r.LocalPath)

	trusted := false
	if validate && !m.offline {
		trusted = m.isDownloaded(ctx, log, r)
	}

	var res fetchResult
	if !trusted {
		var err error
		if res, err = m.fetch(ctx, log, metrics.KindArtifact, r.RemoteURI, r.LocalPath); err != nil {
			return err
		}
		if validate {
			if err := m.validate(ctx, log, r, res.transferred); err != nil {
				return err
			}
		}
	}
	if err := m.requireLocal(r.LocalPath); err != nil {
		return err
	}

	if artifact.IsCompressed(name) {
		final, err := m.decompress(ctx, log, r.LocalPath, res.changed)
		if err != nil {
			return err
		}
		m.setFile(name, final)
	}
	return nil
}

// processDigest handles a digest listed as an artifact of its own. It is
// fetched whole, never resumed, unless the pair it belongs to has verified.
// Listed digests get no table entry.
func (m *Manager) processDigest(ctx context.Context, log logrus.FieldLogger, r artifact.ResolvedArtifact, validate bool) error {
	if !m.offline && validate && !m.verified[r.Name] {
		pair := artifact.Resolve(m.baseURI, m.stagingDir, strings.TrimSuffix(r.Name, artifact.DigestSuffix))
		if res, _ := m.verify(ctx, pair); res == checksum.Valid {
			m.verified[r.Name] = true
		}
	}

	if m.offline || m.verified[r.Name] {
		log.Debug("Digest already in place")
		return m.requireLocal(r.LocalPath)
	}

	if err := fsutil.RemoveIfExists(r.LocalPath); err != nil {
		return errors.Wrapf(errors.ErrDownloadFailed, "could not remove stale digest %s: %v", r.LocalPath, err)
	}
	if _, err := m.fetch(ctx, log, metrics.KindDigest, r.RemoteURI, r.LocalPath); err != nil {
		return err
	}
	return m.requireLocal(r.LocalPath)
}

// isDownloaded reports whether the staged artifact is already complete and
// valid. A stale pair that does not match is removed so it is fetched whole.
func (m *Manager) isDownloaded(ctx context.Context, log logrus.FieldLogger, r artifact.ResolvedArtifact) bool {
	res, err := m.verify(ctx, r)
	switch res {
	case checksum.Valid:
		log.Info("Already downloaded")
		m.verified[r.DigestName] = true
		return true
	case checksum.Mismatch:
		log.WithError(err).Warn("Staged artifact does not match its digest, fetching again")
		_ = fsutil.RemoveIfExists(r.LocalPath)
		_ = fsutil.RemoveIfExists(r.DigestPath())
	default:
		if err != nil {
			log.WithError(err).Debug("Could not read digest")
		}
	}
	return false
}

// validate refreshes the digest when online and checks the pair.
func (m *Manager) validate(ctx context.Context, log logrus.FieldLogger, r artifact.ResolvedArtifact, online bool) error {
	if online {
		if err := fsutil.RemoveIfExists(r.DigestPath()); err != nil {
			return errors.Wrapf(errors.ErrDownloadFailed, "could not remove stale digest %s: %v", r.DigestPath(), err)
		}
		if _, err := m.fetch(ctx, log, metrics.KindDigest, r.DigestURI(), r.DigestPath()); err != nil {
			return err
		}
	}

	res, err := m.verify(ctx, r)
	switch res {
	case checksum.Valid:
		log.Debug("Digest verified")
		m.verified[r.DigestName] = true
		return nil
	case checksum.Mismatch:
		if err == nil {
			err = fmt.Errorf("content does not match %s", r.DigestName)
		}
		return errors.Wrap(errors.ErrIntegrityFailed, err.Error())
	default:
		msg := fmt.Sprintf("%s or the file it names is missing", r.DigestName)
		if m.offline {
			msg += " from the local cache"
		}
		if err != nil {
			msg = fmt.Sprintf("%s: %v", msg, err)
		}
		return errors.Wrap(errors.ErrDownloadFailed, msg)
	}
}

func (m *Manager) verify(ctx context.Context, r artifact.ResolvedArtifact) (checksum.Result, error) {
	res, err := m.verifier.Verify(ctx, r.DigestPath(), m.stagingDir)
	m.metrics.IncVerification(res.String())
	return res, err
}

func (m *Manager) fetch(ctx context.Context, log logrus.FieldLogger, kind, uri, path string) (fetchResult, error) {
	log = log.WithFields(logrus.Fields{"uri": uri, "path": path})
	if !m.offline {
		log.Infof("Fetching %s", kind)
	}
	res, err := m.gate.fetch(ctx, uri, path)
	if err != nil {
		return fetchResult{}, errors.Wrapf(errors.ErrDownloadFailed, "fetch %s: %v", uri, err)
	}
	if res.transferred {
		m.metrics.IncFetch(kind)
	}
	return res, nil
}

// decompress skips the work when the compressed artifact did not change in
// this run and its decompressed sibling is already staged.
func (m *Manager) decompress(ctx context.Context, log logrus.FieldLogger, path string, changed bool) (string, error) {
	target := decompress.Target(path)
	if !changed && fsutil.FileExists(target) {
		log.WithField("path", target).Debug("Already decompressed")
		return target, nil
	}

	log.WithField("path", target).Info("Decompressing")
	final, err := m.decompressor.Decompress(ctx, path)
	if err != nil {
		return "", errors.Wrap(errors.ErrDownloadFailed, err.Error())
	}
	m.metrics.IncDecompression()
	return final, nil
}

func (m *Manager) requireLocal(path string) error {
	if fsutil.FileExists(path) {
		return nil
	}
	if m.offline {
		return errors.Wrapf(errors.ErrDownloadFailed, "%s is not in the local cache", path)
	}
	return errors.Wrapf(errors.ErrDownloadFailed, "%s is missing after fetch", path)
}

func (m *Manager) runHooks(ctx context.Context, log logrus.FieldLogger) error {
	if m.hooks == nil || !m.hooks.HasHook(hook.PostDownload) {
		return nil
	}
	log.Debug("Running post-download hook")
	err := m.hooks.Execute(ctx, hook.PostDownload, hook.HookContext{
		Files:      m.Files().Map(),
		StagingDir: m.stagingDir,
		BaseURI:    m.baseURI,
		Offline:    m.offline,
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errors.ErrHookExecution, hook.PostDownload, err)
	}
	return nil
}

// lock takes the cross-process lock on the staging directory.
func (m *Manager) lock(ctx context.Context) (func(), error) {
	fl := flock.New(filepath.Join(m.stagingDir, LockFileName))

	var locked bool
	var err error
	if m.lockTimeout <= 0 {
		locked, err = fl.TryLock()
	} else {
		lctx, cancel := context.WithTimeout(ctx, m.lockTimeout)
		defer cancel()
		locked, err = fl.TryLockContext(lctx, lockRetryDelay)
		if err != nil && ctx.Err() == nil && lctx.Err() != nil {
			locked, err = false, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: could not lock %s: %w", errors.ErrDownloadFailed, m.stagingDir, err)
	}
	if !locked {
		return nil, errors.Wrapf(errors.ErrDownloadFailed, "%s is in use by another process", m.stagingDir)
	}
	return func() { _ = fl.Unlock() }, nil
}

func (m *Manager) setFile(name, path string) {
	m.filesMu.Lock()
	defer m.filesMu.Unlock()
	m.files.Set(name, path)
}
