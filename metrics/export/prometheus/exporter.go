package prometheus

import (
	"net/http"

	subAuth "github.com/MrEthical07/subAuth"
	"github.com/MrEthical07/subAuth/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsSource interface {
	MetricsSnapshot() subAuth.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter is a [prometheus.Collector] that reads engine metrics on every
// scrape.
type Exporter struct {
	source     metricsSource
	counters   map[subAuth.MetricID]*prometheus.Desc
	histograms map[subAuth.MetricID]*prometheus.Desc
	dropped    *prometheus.Desc
}

// NewPrometheusExporter creates an exporter that reads from engine.
func NewPrometheusExporter(engine *subAuth.Engine) *Exporter {
	return NewPrometheusExporterFromSource(engine)
}

// NewPrometheusExporterFromSource creates an exporter from any value that
// exposes a metrics snapshot and an audit drop count.
func NewPrometheusExporterFromSource(source metricsSource) *Exporter {
	e := &Exporter{
		source:     source,
		counters:   make(map[subAuth.MetricID]*prometheus.Desc, len(internaldefs.CounterDefs)),
		histograms: make(map[subAuth.MetricID]*prometheus.Desc, len(internaldefs.HistogramDefs)),
		dropped:    prometheus.NewDesc(internaldefs.AuditDroppedName, "Audit events dropped because the buffer was full.", nil, nil),
	}
	for _, def := range internaldefs.CounterDefs {
		e.counters[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	for _, def := range internaldefs.HistogramDefs {
		e.histograms[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	return e
}

// Describe implements [prometheus.Collector].
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, def := range internaldefs.CounterDefs {
		ch <- e.counters[def.ID]
	}
	for _, def := range internaldefs.HistogramDefs {
		ch <- e.histograms[def.ID]
	}
	ch <- e.dropped
}

// Collect implements [prometheus.Collector]. Histogram sums are not
// tracked by the engine and are exported as zero.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	if e == nil || e.source == nil {
		return
	}

	snapshot := e.source.MetricsSnapshot()
	for _, def := range internaldefs.CounterDefs {
		v, ok := snapshot.Counters[def.ID]
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(e.counters[def.ID], prometheus.CounterValue, float64(v))
	}

	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramUpperBounds))
		for i, bound := range internaldefs.HistogramUpperBounds {
			buckets[bound] = cumulative[i]
		}
		count := cumulative[len(cumulative)-1]
		ch <- prometheus.MustNewConstHistogram(e.histograms[def.ID], count, 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(e.dropped, prometheus.CounterValue, float64(e.source.AuditDropped()))
}

// Registry returns a fresh registry holding only this exporter.
func (e *Exporter) Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(e)
	return reg
}

// Handler serves the exporter's metrics from a private registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.Registry(), promhttp.HandlerOpts{})
}
