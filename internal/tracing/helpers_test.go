package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return recorder
}

func attrMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestStartDBSpan(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		operation DBOperation
		wantName  string
	}{
		{"mentor listing", "mentor", DBOperationQuery, "query mentor"},
		{"student listing", "student", DBOperationQuery, "query student"},
		{"no table", "", DBOperationExec, "exec"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := newRecorder(t)

			_, endSpan := StartDBSpan(context.Background(), tt.table, tt.operation)
			endSpan(nil)

			spans := recorder.Ended()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			if spans[0].Name() != tt.wantName {
				t.Errorf("expected span name %q, got %q", tt.wantName, spans[0].Name())
			}

			attrs := attrMap(spans[0])
			if attrs["db.system"].AsString() != "postgresql" {
				t.Errorf("expected db.system=postgresql, got %q", attrs["db.system"].AsString())
			}
			_, hasTable := attrs["db.sql.table"]
			if hasTable != (tt.table != "") {
				t.Errorf("db.sql.table presence = %v, want %v", hasTable, tt.table != "")
			}
		})
	}
}

func TestStartCacheSpan(t *testing.T) {
	recorder := newRecorder(t)

	_, endSpan := StartCacheSpan(context.Background(), "redis", CacheOperationGet)
	endSpan(nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "cache get" {
		t.Errorf("expected span name 'cache get', got %q", spans[0].Name())
	}
	if attrMap(spans[0])["db.system"].AsString() != "redis" {
		t.Error("expected db.system=redis")
	}
}

func TestStartOracleSpan_WithError(t *testing.T) {
	recorder := newRecorder(t)

	_, endSpan := StartOracleSpan(context.Background(), "ranker-small", 7)
	endSpan(errors.New("upstream timeout"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", span.Status().Code)
	}
	if len(span.Events()) == 0 {
		t.Error("expected the error to be recorded as an event")
	}
	attrs := attrMap(span)
	if attrs["ranking.model"].AsString() != "ranker-small" {
		t.Errorf("expected ranking.model attribute, got %q", attrs["ranking.model"].AsString())
	}
	if attrs["ranking.candidates"].AsInt64() != 7 {
		t.Errorf("expected ranking.candidates=7, got %d", attrs["ranking.candidates"].AsInt64())
	}
}

func TestStartSpan_Nesting(t *testing.T) {
	recorder := newRecorder(t)

	ctx, endParent := StartSpan(context.Background(), "feed.get")
	SetAttributes(ctx, attribute.String("feed.audience", "mentor"))
	AddEvent(ctx, "cache_miss")
	_, endChild := StartDBSpan(ctx, "mentor", DBOperationQuery)
	endChild(nil)
	endParent(nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	child, parent := spans[0], spans[1]
	if child.Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Error("expected db span to be a child of the feed span")
	}
	if child.SpanContext().TraceID() != parent.SpanContext().TraceID() {
		t.Error("expected spans to share a trace id")
	}
	if len(parent.Events()) != 1 || parent.Events()[0].Name != "cache_miss" {
		t.Errorf("expected cache_miss event on parent, got %v", parent.Events())
	}
}
