// Package tracing provides OpenTelemetry tracing integration.
//
// The HTTP middleware extracts W3C trace context from incoming requests,
// opens a server span per request, and echoes the trace id back in the
// X-Trace-Id response header. Usecase-level spans (search orchestration,
// crawl execution) hang off the same tracer via GetTracer.
//
// No exporter is configured here: spans go to whatever tracer provider
// the process installs globally, and default to no-ops otherwise, so the
// instrumentation is free when tracing is off.
//
// Example usage:
//
//	handler := tracing.Middleware(mux)
//
//	ctx, span := tracing.GetTracer().Start(ctx, "operation-name")
//	defer span.End()
package tracing
