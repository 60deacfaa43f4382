// Package prometheus renders engine metrics in the Prometheus text format.
//
// Counters are named goaccounts_*_total. The operation latency histogram,
// goaccounts_operation_latency_seconds, is present only when latency
// histograms are enabled. Nothing is registered globally; mount
// [Exporter.Handler] where it is needed.
package prometheus
