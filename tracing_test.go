package megaupload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallDefaultTracerProviderProducesSpans(t *testing.T) {
	tp := InstallDefaultTracerProvider()
	defer func() { require.NoError(t, tp.Shutdown(context.Background())) }()

	ctx, span := startUploadSpan(context.Background(), "upload-1")
	require.NotNil(t, span)
	span.End()

	_, chunkSpan := startChunkSpan(ctx, 0)
	require.NotNil(t, chunkSpan)
	chunkSpan.End()

	assert.True(t, span.SpanContext().IsValid())
}
