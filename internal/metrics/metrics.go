// Package metrics exposes pipeline counters and gauges through a
// per-instance prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rzbill/geyserstream/internal/broadcast"
	"github.com/rzbill/geyserstream/internal/ingest"
	"github.com/rzbill/geyserstream/internal/progress"
	"github.com/rzbill/geyserstream/internal/updates"
)

const namespace = "geyser"

// DropReason labels why a notification never reached its channel.
type DropReason string

const (
	DropFull        DropReason = "full"
	DropInvalid     DropReason = "invalid"
	DropStartup     DropReason = "startup"
	DropUnsupported DropReason = "unsupported"
)

var dropReasons = []DropReason{DropFull, DropInvalid, DropStartup, DropUnsupported}

type dropKey struct {
	category updates.Category
	reason   DropReason
}

// Metrics holds the plugin's collectors. Counters are resolved up front so
// the host callback path never allocates label values.
type Metrics struct {
	reg      *prometheus.Registry
	factory  promauto.Factory
	received map[updates.Category]prometheus.Counter
	dropped  map[dropKey]prometheus.Counter
}

// New returns metrics bound to a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	receivedVec := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_received_total",
		Help:      "counts host notifications accepted into an ingest channel",
	}, []string{"category"})
	droppedVec := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dropped_total",
		Help:      "counts host notifications dropped before reaching subscribers",
	}, []string{"category", "reason"})

	m := &Metrics{
		reg:      reg,
		factory:  factory,
		received: make(map[updates.Category]prometheus.Counter, len(updates.Categories)),
		dropped:  make(map[dropKey]prometheus.Counter, len(updates.Categories)*len(dropReasons)),
	}
	for _, c := range updates.Categories {
		m.received[c] = receivedVec.WithLabelValues(string(c))
		for _, r := range dropReasons {
			m.dropped[dropKey{c, r}] = droppedVec.WithLabelValues(string(c), string(r))
		}
	}
	return m
}

// Received counts an accepted notification.
func (m *Metrics) Received(c updates.Category) {
	if ctr, ok := m.received[c]; ok {
		ctr.Inc()
	}
}

// Dropped counts a dropped notification.
func (m *Metrics) Dropped(c updates.Category, reason DropReason) {
	if ctr, ok := m.dropped[dropKey{c, reason}]; ok {
		ctr.Inc()
	}
}

// Observe registers gauges read from the live pipeline. Call it once per
// registry.
func (m *Metrics) Observe(set *ingest.Set, hubs *broadcast.Service, highWater *progress.HighWaterSlot) {
	for _, c := range updates.Categories {
		c := c
		labels := prometheus.Labels{"category": string(c)}
		m.factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "channel_depth", Help: "queued notifications per ingest channel", ConstLabels: labels,
		}, func() float64 { n, _ := set.Stats(c); return float64(n) })
		m.factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "channel_capacity", Help: "configured ingest channel capacity", ConstLabels: labels,
		}, func() float64 { _, n := set.Stats(c); return float64(n) })
		m.factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "subscribers", Help: "attached stream subscribers", ConstLabels: labels,
		}, func() float64 { return float64(hubs.Subscribers(c)) })
		m.factory.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Name: "subscribers_evicted_total", Help: "subscribers disconnected for overflowing their queue", ConstLabels: labels,
		}, func() float64 { return float64(hubs.Evicted(c)) })
	}
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: "highest_write_slot", Help: "highest slot with an observed account write",
	}, func() float64 { return float64(highWater.Load()) })
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// HTTPHandler exposes the registry in the prometheus text format.
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
