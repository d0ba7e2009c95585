package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracer_NoneIsNoop(t *testing.T) {
	shutdown, err := InitTracer(Config{ServiceName: "gateway", Exporter: ExporterNone})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, span := GetTracer("test").Start(context.Background(), "noop")
	span.End()
}

func TestInitTracer_UnknownExporter(t *testing.T) {
	_, err := InitTracer(Config{ServiceName: "gateway", Exporter: "zipkin"})
	assert.Error(t, err)
}
