// Package prometheus renders engine metrics in the Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a [realmauth.Engine] and exposes an
// [net/http.Handler] that renders all counters and histograms. Counter
// names are prefixed realmauth_*_total; the single histogram is
// realmauth_validate_latency_seconds.
//
// The exporter never registers in a global Prometheus registry; callers
// mount the Handler where they want it scraped.
package prometheus
