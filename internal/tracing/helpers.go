package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "mentorfeed"

// DBOperation represents the type of database operation being traced.
type DBOperation string

const (
	// DBOperationQuery represents a SELECT query.
	DBOperationQuery DBOperation = "query"
	// DBOperationExec represents a statement without result rows.
	DBOperationExec DBOperation = "exec"
)

// CacheOperation represents a feed cache access.
type CacheOperation string

const (
	CacheOperationGet CacheOperation = "get"
	CacheOperationSet CacheOperation = "set"
)

// endFunc records err on span (when non-nil) and ends it.
func endFunc(span trace.Span) func(error) {
	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// StartDBSpan creates a client span for a profile store operation.
//
//	ctx, endSpan := tracing.StartDBSpan(ctx, "mentor", tracing.DBOperationQuery)
//	defer func() { endSpan(err) }()
func StartDBSpan(ctx context.Context, table string, operation DBOperation) (context.Context, func(error)) {
	spanName := string(operation)
	if table != "" {
		spanName = spanName + " " + table
	}

	ctx, span := otel.Tracer(instrumentationName+"/db").Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", string(operation)),
		),
	)
	if table != "" {
		span.SetAttributes(attribute.String("db.sql.table", table))
	}
	return ctx, endFunc(span)
}

// StartCacheSpan creates a client span for a feed cache access. backend names
// the store (redis, memory).
func StartCacheSpan(ctx context.Context, backend string, operation CacheOperation) (context.Context, func(error)) {
	ctx, span := otel.Tracer(instrumentationName+"/cache").Start(ctx, "cache "+string(operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", backend),
			attribute.String("db.operation", string(operation)),
		),
	)
	return ctx, endFunc(span)
}

// StartOracleSpan creates a client span for a call to the ranking model.
func StartOracleSpan(ctx context.Context, model string, candidates int) (context.Context, func(error)) {
	ctx, span := otel.Tracer(instrumentationName+"/ranking").Start(ctx, "ranking.oracle",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("ranking.model", model),
			attribute.Int("ranking.candidates", candidates),
		),
	)
	return ctx, endFunc(span)
}

// StartSpan creates an internal span for a general operation.
func StartSpan(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, name)
	return ctx, endFunc(span)
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
