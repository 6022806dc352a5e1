// Package metrics provides Prometheus metrics for the publisher, the
// listener session and the LED strip.
//
// Every metric is registered with promauto on the default registry and
// exported by exporters.HTTPHandler. A small cache mirrors the counters the
// status API reports so handlers do not need to scrape the registry.
package metrics
