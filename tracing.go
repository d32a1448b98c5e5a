package megaupload

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this package's spans in whatever exporter the
// caller wires up (grounded on kenneth/s3-encryption-gateway's and
// quantarax/backend's use of go.opentelemetry.io/otel around their own
// I/O-bound pipelines).
const tracerName = "github.com/arvengrid/megaupload"

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// InstallDefaultTracerProvider registers an SDK TracerProvider as the
// global provider, for callers that have not already wired one up
// themselves. No span processor or exporter is attached to it. Spans are produced either way; without this (or a
// caller-installed provider) they are simply dropped by otel's no-op
// default.
func InstallDefaultTracerProvider() *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return tp
}

// startUploadSpan opens the top-level span for a single Coordinator.Run
// call.
func startUploadSpan(ctx context.Context, uploadID string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "megaupload.upload", trace.WithAttributes(
		attribute.String("upload_id", uploadID),
	))
}

// startChunkSpan opens a per-chunk child span covering read, encrypt,
// MAC submit, and POST.
func startChunkSpan(ctx context.Context, chunkIndex int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "megaupload.chunk", trace.WithAttributes(
		attribute.Int("chunk_index", chunkIndex),
	))
}
