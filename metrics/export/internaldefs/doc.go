// Package internaldefs holds the stable metric name and bucket definitions
// shared by the exporter implementations.
//
// Counter and histogram definitions live here so the Prometheus and OTel
// exporters emit identical metric names and bucket boundaries. A change in
// this package affects all exporters at once.
package internaldefs
