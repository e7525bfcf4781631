package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/pinlock"
	"github.com/MrEthical07/pinlock/metrics/export/internaldefs"
)

// ContentType is the exposition format version served by Handler.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Source is the engine surface the exporter reads.
type Source = internaldefs.Source

// PrometheusExporter renders PIN engine state in Prometheus text exposition
// format.
type PrometheusExporter struct {
	source Source
}

// NewPrometheusExporter creates an exporter that reads from engine.
func NewPrometheusExporter(engine *pinlock.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource creates an exporter over any Source, such
// as a test double.
func NewPrometheusExporterFromSource(source Source) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves the exposition, reading lockout state with the request
// context.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", ContentType)
		_, _ = w.Write([]byte(p.RenderContext(r.Context())))
	})
}

// Render is RenderContext with a background context.
func (p *PrometheusExporter) Render() string {
	return p.RenderContext(context.Background())
}

// RenderContext writes the lockout gauges, the audit dispatcher counters and,
// when the engine collects them, the operation counters and the derivation
// histogram.
func (p *PrometheusExporter) RenderContext(ctx context.Context) string {
	if p == nil || p.source == nil {
		return ""
	}

	var w expositionWriter
	w.b.Grow(8192)

	if state, err := internaldefs.ReadLockout(ctx, p.source); err == nil {
		for _, def := range internaldefs.LockoutGaugeDefs {
			w.header(def.Name, def.Help, "gauge")
			w.sample(def.Name, "", strconv.FormatFloat(def.Value(state), 'g', -1, 64))
		}
	}

	stats := p.source.AuditStats()
	for _, def := range internaldefs.AuditCounterDefs {
		w.counter(def.Name, def.Help, def.Value(stats))
	}
	w.header(internaldefs.AuditPendingName, "Audit events waiting for the sink.", "gauge")
	w.sample(internaldefs.AuditPendingName, "", strconv.Itoa(stats.Pending))

	snapshot := p.source.MetricsSnapshot()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 {
		return w.b.String()
	}
	for _, def := range internaldefs.CounterDefs {
		w.counter(def.Name, def.Help, snapshot.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		buckets := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
		w.histogram(def.Name, def.Help, buckets)
	}

	return w.b.String()
}

type expositionWriter struct {
	b strings.Builder
}

func (w *expositionWriter) header(name, help, kind string) {
	w.b.WriteString("# HELP ")
	w.b.WriteString(name)
	w.b.WriteByte(' ')
	w.b.WriteString(escapeHelp(help))
	w.b.WriteString("\n# TYPE ")
	w.b.WriteString(name)
	w.b.WriteByte(' ')
	w.b.WriteString(kind)
	w.b.WriteByte('\n')
}

func (w *expositionWriter) sample(name, labels, value string) {
	w.b.WriteString(name)
	w.b.WriteString(labels)
	w.b.WriteByte(' ')
	w.b.WriteString(value)
	w.b.WriteByte('\n')
}

func (w *expositionWriter) counter(name, help string, value uint64) {
	w.header(name, help, "counter")
	w.sample(name, "", strconv.FormatUint(value, 10))
}

// Snapshots carry no sum, so _sum is always 0.
func (w *expositionWriter) histogram(name, help string, cumulative [8]uint64) {
	w.header(name, help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		w.sample(name+"_bucket", `{le="`+le+`"}`, strconv.FormatUint(cumulative[i], 10))
	}
	w.sample(name+"_count", "", strconv.FormatUint(cumulative[len(cumulative)-1], 10))
	w.sample(name+"_sum", "", "0")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, `\`, `\\`)
	return strings.ReplaceAll(help, "\n", `\n`)
}
