package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/pinlock"
	"github.com/MrEthical07/pinlock/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is returned when no Meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when no metrics source is supplied.
	ErrNilSource = errors.New("nil metrics source")
)

// Source is the engine surface the exporter reads.
type Source = internaldefs.Source

type histogramGauges struct {
	id      pinlock.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes engine state as observable instruments read in one
// callback per collection.
type OTelExporter struct {
	source       Source
	registration metric.Registration

	lockout      []metric.Float64ObservableGauge
	audit        []metric.Int64ObservableCounter
	auditPending metric.Int64ObservableGauge
	counters     []metric.Int64ObservableCounter
	histograms   []histogramGauges

	observables []metric.Observable
}

// NewOTelExporter registers instruments on meter that read from engine on
// every collection.
func NewOTelExporter(meter metric.Meter, engine *pinlock.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource is NewOTelExporter over any Source.
func NewOTelExporterFromSource(meter metric.Meter, source Source) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	if err := e.createInstruments(meter); err != nil {
		return nil, err
	}

	registration, err := meter.RegisterCallback(e.observe, e.observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *OTelExporter) createInstruments(meter metric.Meter) error {
	for _, def := range internaldefs.LockoutGaugeDefs {
		ins, err := meter.Float64ObservableGauge(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return fmt.Errorf("create lockout gauge %s: %w", def.Name, err)
		}
		e.lockout = append(e.lockout, ins)
		e.observables = append(e.observables, ins)
	}

	for _, def := range internaldefs.AuditCounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return fmt.Errorf("create audit counter %s: %w", def.Name, err)
		}
		e.audit = append(e.audit, ins)
		e.observables = append(e.observables, ins)
	}
	pending, err := meter.Int64ObservableGauge(internaldefs.AuditPendingName,
		metric.WithDescription("Audit events waiting for the sink."))
	if err != nil {
		return fmt.Errorf("create audit pending gauge: %w", err)
	}
	e.auditPending = pending
	e.observables = append(e.observables, pending)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, ins)
		e.observables = append(e.observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h := histogramGauges{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := def.Name + "_bucket_le_" + suffix
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			e.observables = append(e.observables, ins)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return fmt.Errorf("create histogram count gauge %s_count: %w", def.Name, err)
		}
		h.count = count
		e.observables = append(e.observables, count)
		e.histograms = append(e.histograms, h)
	}
	return nil
}

// observe skips the lockout gauges when the engine cannot be read and the
// operation counters when it does not collect them.
func (e *OTelExporter) observe(ctx context.Context, o metric.Observer) error {
	if state, err := internaldefs.ReadLockout(ctx, e.source); err == nil {
		for i, def := range internaldefs.LockoutGaugeDefs {
			o.ObserveFloat64(e.lockout[i], def.Value(state))
		}
	}

	stats := e.source.AuditStats()
	for i, def := range internaldefs.AuditCounterDefs {
		o.ObserveInt64(e.audit[i], int64(def.Value(stats)))
	}
	o.ObserveInt64(e.auditPending, int64(stats.Pending))

	snapshot := e.source.MetricsSnapshot()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 {
		return nil
	}
	for i, def := range internaldefs.CounterDefs {
		o.ObserveInt64(e.counters[i], int64(snapshot.Counters[def.ID]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i, ins := range h.buckets {
			o.ObserveInt64(ins, int64(cumulative[i]))
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
