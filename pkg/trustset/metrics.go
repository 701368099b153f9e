package trustset

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"go.inet256.org/trustd/pkg/valregistry"
)

const metricsNamespace = "trustd"

// Metrics records the outcome of refresh cycles.
// A nil *Metrics records nothing.
type Metrics struct {
	refreshes   *prometheus.CounterVec
	peers       prometheus.Gauge
	dropped     *prometheus.GaugeVec
	lastSuccess prometheus.Gauge
}

// NewMetrics creates the refresh metrics and registers them with reg, if reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_total",
			Help:      "Refresh cycles by result.",
		}, []string{"result"}),
		peers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "trusted_peers",
			Help:      "Number of peers in the current trust set.",
		}),
		dropped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "dropped_records",
			Help:      "Validators dropped during the last successful refresh, by reason.",
		}, []string{"reason"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_refresh_success_timestamp_seconds",
			Help:      "Unix time of the last successful refresh.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.refreshes, m.peers, m.dropped, m.lastSuccess)
	}
	return m
}

func (m *Metrics) observeSuccess(now time.Time, peers int, stats ExtractStats) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues("success").Inc()
	m.peers.Set(float64(peers))
	for _, reason := range []DropReason{DropPublicKey, DropAddress, DropDuplicate} {
		m.dropped.WithLabelValues(string(reason)).Set(float64(stats.Dropped[reason]))
	}
	m.lastSuccess.Set(float64(now.UnixNano()) / 1e9)
}

func (m *Metrics) observeFailure(err error) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case valregistry.IsTransport(err):
		return "transport"
	case valregistry.IsDecode(err):
		return "decode"
	default:
		return "other"
	}
}
