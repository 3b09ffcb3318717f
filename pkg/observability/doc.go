/*
Package observability turns controller lifecycle hooks into Prometheus metrics.

Metrics owns a private registry so several controllers (or tests) never collide
on the global one. Wire Metrics.Hooks into a controller and serve Metrics.Handler
on /metrics.
*/
package observability
