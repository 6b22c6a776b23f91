package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sweetpotato0/krishimitra/pkg/logging"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Disable: true})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitStdoutExporterWritesToOutput(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Config{
		Exporter: ExporterStdout,
		Output:   &buf,
		Logger:   logging.Discard(),
	})
	require.NoError(t, err)

	_, span := Start(context.Background(), "advisory.answer")
	End(span, nil)
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "advisory.answer")
}

func TestInitRejectsUnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), Config{Exporter: "zipkin", Logger: logging.Discard()})
	assert.Error(t, err)
}

func TestEndRecordsStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	_, ok := tracer.Start(context.Background(), "ok")
	End(ok, nil)

	_, failed := tracer.Start(context.Background(), "failed")
	End(failed, errors.New("boom"))

	End(nil, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "boom", spans[1].Status().Description)
}

func TestStartUsesModuleTracer(t *testing.T) {
	ctx, span := Start(context.Background(), "advisory.answer", attribute.String("pincode", "110001"))
	defer span.End()
	assert.NotNil(t, ctx)
}
