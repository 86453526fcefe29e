package telemetry_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.trai.ch/filesentry/internal/adapters/telemetry"
	"go.trai.ch/filesentry/internal/core/ports"
	"go.trai.ch/filesentry/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestBridge_LogsFinishedSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)

	var lines []string
	logger.EXPECT().Debug(gomock.Any()).Do(func(msg string) {
		lines = append(lines, msg)
	}).Times(2)

	prev := otel.GetTracerProvider()
	shutdown := telemetry.Setup(telemetry.NewBridge(logger))
	t.Cleanup(func() {
		_ = shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	tracer := telemetry.NewOTelTracer(telemetry.InstrumentationName)

	_, span := tracer.Start(context.Background(), "crawl", ports.WithAttribute("path", "/w"))
	span.SetAttribute("changes", 3)
	span.End()

	_, span = tracer.Start(context.Background(), "recover")
	span.RecordError(errors.New("permission denied"))
	span.End()

	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "crawl took "), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], "(changes=3 path=/w)"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ": permission denied"), lines[1])
}
