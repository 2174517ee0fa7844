// Package metrics counts what the acquisition pipeline does.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Fetch kinds.
const (
	KindArtifact = "artifact"
	KindDigest   = "digest"
)

// Metrics defines counters for the download manager.
type Metrics interface {
	IncFetch(kind string)
	IncVerification(result string)
	IncDecompression()
	IncRun(status string)
}

// Noop implements Metrics without emitting anything.
type Noop struct{}

func (Noop) IncFetch(string)        {}
func (Noop) IncVerification(string) {}
func (Noop) IncDecompression()      {}
func (Noop) IncRun(string)          {}

// Prom implements Metrics backed by Prometheus counters.
type Prom struct {
	fetches        *prometheus.CounterVec
	verifications  *prometheus.CounterVec
	decompressions prometheus.Counter
	runs           *prometheus.CounterVec
}

// NewProm creates the counters and registers them on reg.
func NewProm(namespace string, reg prometheus.Registerer) (*Prom, error) {
	p := &Prom{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Network fetches by kind (artifact or digest)",
		}, []string{"kind"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Digest verifications by result",
		}, []string{"result"}),
		decompressions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decompressions_total",
			Help:      "Compressed artifacts decompressed",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_runs_total",
			Help:      "Download runs by status",
		}, []string{"status"}),
	}
	for _, c := range []prometheus.Collector{p.fetches, p.verifications, p.decompressions, p.runs} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prom) IncFetch(kind string) {
	p.fetches.WithLabelValues(kind).Inc()
}

func (p *Prom) IncVerification(result string) {
	p.verifications.WithLabelValues(result).Inc()
}

func (p *Prom) IncDecompression() {
	p.decompressions.Inc()
}

func (p *Prom) IncRun(status string) {
	p.runs.WithLabelValues(status).Inc()
}

// WriteTextfile writes every metric gathered by g to path in the text exposition format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
