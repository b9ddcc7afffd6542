// Package metrics exposes kiosk counters and histograms through a
// Prometheus registry and an optional /metrics HTTP listener.
package metrics
