// Package metrics defines the recorders a planning run reports to. Sinks such
// as PromSink and InfluxSink live in infra/metrics and register themselves
// with the factory; NewMetricsSink returns a MultiSink when several sinks are
// configured.
package metrics
