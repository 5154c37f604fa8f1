// Package middleware provides net/http middleware for the mcstructs
// inspection server.
//
// This package includes:
//   - OpenTelemetry request tracing
//   - Prometheus request metrics
//   - slog request logging
//
// All three resolve the route pattern through chi, so labels and span names
// stay low-cardinality:
//
//	r := chi.NewRouter()
//	r.Use(
//	    middleware.OpenTelemetry(),
//	    middleware.Prometheus(middleware.WithRegistry(reg)),
//	    middleware.Logger(logger),
//	)
//
// # OpenTelemetry Middleware
//
// The tracer comes from the global provider unless WithTracer is given.
// Configure the provider in main() before starting the server:
//
//	otel.SetTracerProvider(tp)
//
// # Prometheus Metrics
//
//   - mcstructs_http_requests_total: requests by route, method and status
//   - mcstructs_http_request_duration_seconds: handling time by route
//
// Expose them with promhttp.HandlerFor on the same registry.
package middleware
