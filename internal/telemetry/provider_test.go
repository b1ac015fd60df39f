package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestExporterTypeFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    ExporterType
		wantErr bool
	}{
		{in: "", want: NoOp},
		{in: "null", want: NoOp},
		{in: "GRPC", want: GRPC},
		{in: "http", want: HTTP},
		{in: "zipkin", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExporterTypeFromString(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, errUnknownExporterType)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestExporterTypeText(t *testing.T) {
	var e ExporterType
	require.NoError(t, e.UnmarshalText([]byte("http")))
	require.Equal(t, HTTP, e)
	b, err := e.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "http", string(b))
	require.Error(t, e.UnmarshalText([]byte("bogus")))
}

func TestNewNoOp(t *testing.T) {
	p, err := New(context.Background(), Config{}, "evmfuzz")
	require.NoError(t, err)
	_, span := p.Tracer("t").Start(context.Background(), "s")
	require.False(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewHTTPInstallsSDKProvider(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{Exporter: HTTP, Endpoint: "127.0.0.1:4318", Insecure: true}, "evmfuzz")
	require.NoError(t, err)
	require.IsType(t, &sdktrace.TracerProvider{}, p.TracerProvider)

	_, span := p.Tracer("t").Start(ctx, "s")
	require.True(t, span.SpanContext().IsValid())
	require.True(t, span.SpanContext().IsSampled())

	// The span is never ended, so shutdown has nothing to export.
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(shutdownCtx))
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := New(context.Background(), Config{Exporter: GRPC}, "evmfuzz")
	require.ErrorIs(t, err, errMissingEndpoint)
}
