// Package otel publishes engine metrics through an OpenTelemetry
// [metric.Meter] using observable instruments.
//
// Counters keep their Prometheus names. The latency histogram is exposed
// as one cumulative gauge per bucket bound plus a count gauge, because the
// engine keeps fixed buckets rather than raw samples.
package otel
