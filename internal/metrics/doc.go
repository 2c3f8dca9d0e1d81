// Package metrics provides observability hooks for moniker resolution and the
// incremental change-tracking graph.
//
// # Design Philosophy
//
// This package implements the Null Object pattern to enable metrics collection
// without requiring explicit nil checks throughout the codebase. By default,
// all components use NoopRecorder which implements the Recorder interface with
// no-op methods.
//
// # Usage Pattern
//
// Components receive a Recorder through their options:
//
//	provider, err := moniker.NewProvider(moniker.Options{
//	    Definition: def,
//	    Recorder:   metrics.NoopRecorder{}, // Default: no metrics
//	})
//
// # Activation
//
// The watch command swaps in a Prometheus recorder and serves the registry:
//
//	reg := prometheus.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	http.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
