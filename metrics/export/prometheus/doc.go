// Package prometheus exports engine counters and latency histograms through
// a client_golang Collector.
//
// Counters are named vms_*_total; histograms are vms_login_latency_seconds
// and vms_validate_latency_seconds. [Handler] mounts the collector on a
// private registry; callers serve it at /metrics.
package prometheus
