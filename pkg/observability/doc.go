/*
Package observability exports engine activity as Prometheus metrics.

Metrics are fed by domain.LifecycleHooks, so any executor configured with
runtime.WithLifecycleHooks(m.Hooks()) is instrumented without further wiring.
*/
package observability
