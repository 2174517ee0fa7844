package download

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/glorpus-work/phablet/pkg/checksum"
	"github.com/glorpus-work/phablet/pkg/decompress"
	"github.com/glorpus-work/phablet/pkg/hook"
	"github.com/glorpus-work/phablet/pkg/metrics"
	"github.com/glorpus-work/phablet/pkg/transport"
)

// Option configures a Manager.
type Option func(*Manager)

// WithTransport sets the fetcher used for every network transfer.
func WithTransport(f transport.Fetcher) Option {
	return func(m *Manager) {
		m.gate.fetcher = f
	}
}

// WithVerifier sets the digest verifier.
func WithVerifier(v checksum.Verifier) Option {
	return func(m *Manager) {
		m.verifier = v
	}
}

// WithDecompressor sets the decompressor applied to compressed artifacts.
func WithDecompressor(d decompress.Decompressor) Option {
	return func(m *Manager) {
		m.decompressor = d
	}
}

// WithLogger sets the logger. Run entries carry the run, artifact, uri and path fields.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(mt metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithHooks sets the hook manager whose post-download hook runs after a successful run.
func WithHooks(h hook.HookManager) Option {
	return func(m *Manager) {
		m.hooks = h
	}
}

// WithLockTimeout bounds the wait for the staging directory lock.
func WithLockTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.lockTimeout = d
	}
}
