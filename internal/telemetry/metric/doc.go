// Package metric exposes roster's Prometheus metrics.
//
// The Registry owns a private prometheus.Registry. Snapshot scheduler
// events are fed through Observe, which is registered with
// Manager.SubscribeAll; HTTP requests are fed by the server middleware.
package metric
