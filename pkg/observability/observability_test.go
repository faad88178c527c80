package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/snipgen/pkg/observability"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	return record
}

func TestTracingHandlerInjectsContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewTracingHandler(inner, "snipgen", "test", observability.ModeCLI))

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	ctx = observability.WithGrammar(ctx, "typescript")

	logger.InfoContext(ctx, "synthesized")

	record := decode(t, &buf)
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", record["trace_id"])
	assert.Equal(t, "0102030405060708", record["span_id"])
	assert.Equal(t, "typescript", record["grammar"])
	assert.Equal(t, "snipgen", record["service"])
	assert.Equal(t, "test", record["env"])
	assert.Equal(t, "cli", record["mode"])
}

func TestTracingHandlerWithoutSpan(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(observability.NewTracingHandler(inner, "snipgen", "", observability.ModeMCP))

	logger.WithGroup("call").InfoContext(context.Background(), "plain", "id", 1)

	record := decode(t, &buf)
	assert.NotContains(t, record, "trace_id")
	assert.NotContains(t, record, "grammar")
	assert.NotContains(t, record, "env")
	assert.Equal(t, "mcp", record["mode"])
	assert.Equal(t, map[string]any{"id": float64(1)}, record["call"])
}

func TestNewLoggerHonorsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogLevel = slog.LevelWarn
	logger := observability.NewLogger(cfg, &buf)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}

	return out
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()

	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func TestREDMetrics(t *testing.T) {
	t.Parallel()

	reader, mp := newReader()

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	done := red.TrackInflight(ctx, "snipgen_synthesize")
	red.RecordRequest(ctx, "snipgen_synthesize", observability.StatusOK, 10*time.Millisecond)
	red.RecordRequest(ctx, "snipgen_synthesize", observability.StatusError, time.Millisecond)
	done()

	metrics := collect(t, reader)

	requests, ok := metrics["snipgen.requests.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range requests.DataPoints {
		total += dp.Value
	}

	assert.Equal(t, int64(2), total)

	errs, ok := metrics["snipgen.errors.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errs.DataPoints, 1)
	assert.Equal(t, int64(1), errs.DataPoints[0].Value)

	inflight, ok := metrics["snipgen.inflight.requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, inflight.DataPoints, 1)
	assert.Equal(t, int64(0), inflight.DataPoints[0].Value)
}

func TestSynthesisMetrics(t *testing.T) {
	t.Parallel()

	reader, mp := newReader()

	sm, err := observability.NewSynthesisMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	sm.RecordSynthesis(ctx, observability.SynthesisStats{Grammar: "javascript", Candidates: 2, Verified: 2})
	sm.RecordSynthesis(ctx, observability.SynthesisStats{Grammar: "javascript", Candidates: 1})
	sm.RecordSynthesis(ctx, observability.SynthesisStats{Grammar: "css", Failed: true})

	metrics := collect(t, reader)

	calls, ok := metrics["snipgen.synthesis.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, calls.DataPoints, 3)

	candidates, ok := metrics["snipgen.synthesis.candidates"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, candidates.DataPoints, 1)
	assert.Equal(t, uint64(2), candidates.DataPoints[0].Count)
	assert.Equal(t, int64(3), candidates.DataPoints[0].Sum)
}

func TestSynthesisMetricsNilIsNoop(t *testing.T) {
	t.Parallel()

	var sm *observability.SynthesisMetrics

	assert.NotPanics(t, func() {
		sm.RecordSynthesis(context.Background(), observability.SynthesisStats{Grammar: "css"})
	})
}

func TestInitNoop(t *testing.T) {
	t.Parallel()

	providers, err := observability.InitWithWriter(observability.DefaultConfig(), io.Discard)
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)
	assert.Nil(t, providers.MetricsHandler)

	_, span := providers.Tracer.Start(context.Background(), "op")
	span.End()

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitPrometheus(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Prometheus = true
	cfg.ServiceVersion = "1.0.0"

	providers, err := observability.InitWithWriter(cfg, io.Discard)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })
	require.NotNil(t, providers.MetricsHandler)

	sm, err := observability.NewSynthesisMetrics(providers.Meter)
	require.NoError(t, err)
	sm.RecordSynthesis(context.Background(), observability.SynthesisStats{Grammar: "css", Verified: 1})

	rec := httptest.NewRecorder()
	providers.MetricsHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "snipgen_synthesis")
}

func TestHTTPMiddleware(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	handler := observability.HTTPMiddleware(tp.Tracer("test"), http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		if hr.URL.Path == "/fail" {
			rw.WriteHeader(http.StatusInternalServerError)

			return
		}

		_, _ = rw.Write([]byte("ok"))
	}))

	for _, path := range []string{"/metrics", "/fail"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, http.NoBody))
	}

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /metrics", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assert.Equal(t, "GET /fail", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want map[string]string
	}{
		{"", nil},
		{"garbage", nil},
		{"a=1", map[string]string{"a": "1"}},
		{" a = 1 , b=2,bad,=x", map[string]string{"a": "1", "b": "2"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, observability.ParseOTLPHeaders(tt.raw), tt.raw)
	}
}
